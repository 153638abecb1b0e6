package analytics

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"outreach-platform/internal/campaigns"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/phone"
	"outreach-platform/internal/telephony"
)

// CallLister is the single telephony capability the reconciler needs.
type CallLister interface {
	ListRecentCalls(ctx context.Context, req telephony.ListCallsRequest) ([]telephony.CallRecord, error)
}

// Service reconciles a campaign's own message log with the telephony
// provider's call log into one engagement snapshot.
//
// The two sources disagree on purpose: the message log is authoritative for
// replies and opens, the call log for answer/miss, and the call log may be
// transiently unreachable. Provider failures degrade to the cached
// callStats (stale but present), never to an error.
type Service struct {
	repo     campaigns.Repository
	messages inbox.Repository
	calls    CallLister
	log      *slog.Logger
	clock    func() time.Time
}

func NewService(repo campaigns.Repository, messages inbox.Repository, calls CallLister, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		messages: messages,
		calls:    calls,
		log:      log,
		clock:    time.Now,
	}
}

// CampaignSnapshot loads an owner's campaign and reconciles it.
func (s *Service) CampaignSnapshot(ctx context.Context, ownerID, campaignID string) (Snapshot, error) {
	if s.repo == nil {
		return Snapshot{}, errors.New("analytics: campaign repository not configured")
	}
	c, err := s.repo.GetByID(ctx, ownerID, campaignID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Reconcile(ctx, c)
}

// Reconcile computes the snapshot for an already-loaded campaign.
// It always returns a snapshot; only message-log access can fail it.
func (s *Service) Reconcile(ctx context.Context, c campaigns.Campaign) (Snapshot, error) {
	if s.messages == nil {
		return Snapshot{}, errors.New("analytics: message log not configured")
	}
	msgs, err := s.messages.ListByCampaign(ctx, c.ID)
	if err != nil {
		return Snapshot{}, err
	}

	now := s.clock().UTC()
	engagements := ContactEngagements(c.Contacts, msgs)

	snap := Snapshot{
		CampaignID:    c.ID,
		Title:         c.Title,
		Status:        c.Status,
		TotalContacts: len(c.Contacts),
		Channels:      c.Channels,
		TotalMessages: len(msgs),
		GeneratedAt:   now,
	}

	for _, e := range engagements {
		if e.ReceivedMessage {
			snap.ContactsReceivedMessage++
		}
		if e.OpenedChat {
			snap.ContactsOpenedChat++
		}
		if e.Replied {
			snap.ContactsReplied++
		}
	}
	snap.ContactsNotInteracted = floorZero(snap.TotalContacts - snap.ContactsReplied)
	snap.TotalConversations = conversationCount(msgs)

	for _, m := range msgs {
		switch m.Sender {
		case inbox.SenderUser:
			snap.TextInteractions++
		case inbox.SenderBot:
			snap.AIResponses++
		}
	}

	snap.DeliveryRate = percent(snap.ContactsReceivedMessage, snap.TotalContacts)
	snap.ResponseRate = percent(snap.ContactsReplied, snap.TotalContacts)
	snap.EngagementScore = percent(snap.ContactsReplied, snap.TotalContacts)

	if c.Channels.CallingEnabled() {
		initiated, answered := s.callCounters(ctx, c, now)
		snap.VoiceCalls = initiated
		snap.VoiceCallsAnswered = answered
		snap.VoiceCallsMissed = floorZero(initiated - answered)
		snap.VoiceCallsAnsweredRate = percent(answered, initiated)
	}

	return snap, nil
}

// callCounters fetches and matches the provider call log, caching on
// success and falling back to the cache (or zeros) on failure.
func (s *Service) callCounters(ctx context.Context, c campaigns.Campaign, now time.Time) (initiated, answered int) {
	if s.calls == nil {
		return cachedCounters(c)
	}

	records, err := s.calls.ListRecentCalls(ctx, telephony.ListCallsRequest{
		StartedAfter: now.Add(-CallWindow),
	})
	if err != nil {
		s.log.Warn("provider call log unavailable, using cached call stats",
			"campaign_id", c.ID, "err", err)
		return cachedCounters(c)
	}

	initiated, answered = MatchCalls(records, c.Contacts)

	if s.repo != nil {
		stats := campaigns.CallStats{Initiated: initiated, Answered: answered, UpdatedAt: now}
		if err := s.repo.UpdateCallStats(ctx, c.ID, stats); err != nil {
			// Advisory cache: a failed write costs a future fallback, nothing else.
			s.log.Warn("call stats cache write failed", "campaign_id", c.ID, "err", err)
		}
	}
	return initiated, answered
}

// MatchCalls counts provider call records that belong to the campaign.
// Destination and contact numbers are compared digits-only with
// suffix-match semantics; the first matching contact wins and each provider
// record is counted at most once.
func MatchCalls(records []telephony.CallRecord, contacts []campaigns.Contact) (initiated, answered int) {
	digits := make([]string, 0, len(contacts))
	for _, c := range contacts {
		if d := phone.Digits(c.Phone); d != "" {
			digits = append(digits, d)
		}
	}
	if len(digits) == 0 {
		return 0, 0
	}

	for _, rec := range records {
		for _, d := range digits {
			if phone.SuffixMatch(rec.To, d) {
				initiated++
				if rec.Status.Answered() {
					answered++
				}
				break
			}
		}
	}
	return initiated, answered
}

// ContactEngagements derives the per-contact view from the message log.
// Automated (bot) replies never mark a contact as replied.
func ContactEngagements(contacts []campaigns.Contact, msgs []inbox.Message) []ContactEngagement {
	byContact := make(map[string]*ContactEngagement, len(contacts))
	order := make([]string, 0, len(contacts))
	for _, c := range contacts {
		if _, ok := byContact[c.ID]; ok {
			continue
		}
		byContact[c.ID] = &ContactEngagement{ContactID: c.ID}
		order = append(order, c.ID)
	}

	for _, m := range msgs {
		e, ok := byContact[m.ContactID]
		if !ok {
			// Message for a contact no longer on the list; counts toward
			// totals elsewhere but not toward any contact bucket.
			continue
		}
		e.OpenedChat = true
		switch m.Sender {
		case inbox.SenderCampaign:
			e.ReceivedMessage = true
		case inbox.SenderUser:
			e.Replied = true
			e.HumanReplies++
		case inbox.SenderBot:
			e.BotReplies++
		}
	}

	out := make([]ContactEngagement, 0, len(order))
	for _, id := range order {
		out = append(out, *byContact[id])
	}
	return out
}

func cachedCounters(c campaigns.Campaign) (int, int) {
	if c.CallStats == nil {
		return 0, 0
	}
	return c.CallStats.Initiated, c.CallStats.Answered
}

func conversationCount(msgs []inbox.Message) int {
	seen := map[string]struct{}{}
	for _, m := range msgs {
		seen[m.ContactID] = struct{}{}
	}
	return len(seen)
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

func floorZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
