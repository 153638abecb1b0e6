package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"outreach-platform/internal/campaigns"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/telephony"
)

type stubLister struct {
	records  []telephony.CallRecord
	err      error
	requests int
	lastReq  telephony.ListCallsRequest
}

func (s *stubLister) ListRecentCalls(ctx context.Context, req telephony.ListCallsRequest) ([]telephony.CallRecord, error) {
	s.requests++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(t *testing.T, repo *campaigns.MemoryRepo, c campaigns.Campaign) campaigns.Campaign {
	t.Helper()
	out, err := repo.Create(context.Background(), c)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return out
}

func appendMsg(t *testing.T, repo *inbox.MemoryRepo, campaignID, contactID string, sender inbox.Sender) {
	t.Helper()
	if _, err := repo.Append(context.Background(), inbox.Message{
		CampaignID: campaignID, ContactID: contactID, Sender: sender, Body: "x",
	}); err != nil {
		t.Fatalf("append message: %v", err)
	}
}

func threeContactCampaign() campaigns.Campaign {
	return campaigns.Campaign{
		OwnerID:  "u1",
		Title:    "Launch",
		Status:   campaigns.StatusLaunched,
		Channels: campaigns.Channels{Text: true, Calls: true},
		Contacts: []campaigns.Contact{
			{ID: "c1", Phone: "9876543210"},
			{ID: "c2", Phone: "9123456789"},
			{ID: "c3", Phone: "9000000000"},
		},
	}
}

func TestReconcile_EngagementFromMessageLog(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()
	c := seed(t, crepo, threeContactCampaign())

	// c1 and c2 received the campaign message and replied; c3 has nothing.
	appendMsg(t, mrepo, c.ID, "c1", inbox.SenderCampaign)
	appendMsg(t, mrepo, c.ID, "c1", inbox.SenderUser)
	appendMsg(t, mrepo, c.ID, "c2", inbox.SenderCampaign)
	appendMsg(t, mrepo, c.ID, "c2", inbox.SenderUser)
	appendMsg(t, mrepo, c.ID, "c2", inbox.SenderBot)

	svc := NewService(crepo, mrepo, &stubLister{}, quietLogger())
	snap, err := svc.CampaignSnapshot(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if snap.TotalContacts != 3 {
		t.Fatalf("expected 3 contacts, got %d", snap.TotalContacts)
	}
	if snap.ContactsReplied != 2 {
		t.Fatalf("expected 2 replied, got %d", snap.ContactsReplied)
	}
	if snap.ContactsNotInteracted != 1 {
		t.Fatalf("expected 1 not-interacted, got %d", snap.ContactsNotInteracted)
	}
	if snap.EngagementScore != 67 {
		t.Fatalf("expected engagement score 67, got %d", snap.EngagementScore)
	}
	if snap.ContactsReceivedMessage != 2 || snap.ContactsOpenedChat != 2 {
		t.Fatalf("unexpected received/opened: %+v", snap)
	}
	if snap.TextInteractions != 2 || snap.AIResponses != 1 {
		t.Fatalf("unexpected message counts: %+v", snap)
	}
	if snap.TotalMessages != 5 || snap.TotalConversations != 2 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
}

func TestReconcile_BotRepliesNeverCountAsEngagement(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()
	c := seed(t, crepo, threeContactCampaign())

	appendMsg(t, mrepo, c.ID, "c1", inbox.SenderCampaign)
	appendMsg(t, mrepo, c.ID, "c1", inbox.SenderBot)

	svc := NewService(crepo, mrepo, &stubLister{}, quietLogger())
	snap, err := svc.CampaignSnapshot(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if snap.ContactsReplied != 0 {
		t.Fatalf("bot reply counted as engagement: %+v", snap)
	}
	if snap.ContactsOpenedChat != 1 {
		t.Fatalf("bot reply should still open the chat: %+v", snap)
	}
	if snap.EngagementScore != 0 {
		t.Fatalf("expected score 0, got %d", snap.EngagementScore)
	}
}

func TestReconcile_SuffixMatchingAgainstProviderLog(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()
	c := seed(t, crepo, threeContactCampaign())

	lister := &stubLister{records: []telephony.CallRecord{
		// Provider reports fully qualified numbers; contacts are stored bare.
		{To: "+919876543210", Status: telephony.CallStatusCompleted},
		{To: "+919123456789", Status: telephony.CallStatusNoAnswer},
		// Unrelated number sharing no full-length tail with any contact.
		{To: "+911234509876", Status: telephony.CallStatusCompleted},
	}}

	svc := NewService(crepo, mrepo, lister, quietLogger())
	snap, err := svc.CampaignSnapshot(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if snap.VoiceCalls != 2 {
		t.Fatalf("expected 2 matched calls, got %d", snap.VoiceCalls)
	}
	if snap.VoiceCallsAnswered != 1 || snap.VoiceCallsMissed != 1 {
		t.Fatalf("unexpected answered/missed: %+v", snap)
	}
	if snap.VoiceCallsAnsweredRate != 50 {
		t.Fatalf("expected 50%% pickup, got %d", snap.VoiceCallsAnsweredRate)
	}

	// Fresh fetch persists the cache.
	stored, _ := crepo.GetByID(context.Background(), "u1", c.ID)
	if stored.CallStats == nil {
		t.Fatalf("expected call stats cache to be written")
	}
	if stored.CallStats.Initiated != 2 || stored.CallStats.Answered != 1 {
		t.Fatalf("unexpected cached stats: %+v", stored.CallStats)
	}
	if stored.CallStats.UpdatedAt.IsZero() {
		t.Fatalf("cache must carry a timestamp")
	}
}

func TestMatchCalls_ProviderRecordCountedOnce(t *testing.T) {
	contacts := []campaigns.Contact{
		{ID: "c1", Phone: "9876543210"},
		{ID: "c2", Phone: "+919876543210"}, // same line, different format
	}
	records := []telephony.CallRecord{
		{To: "+919876543210", Status: telephony.CallStatusCompleted},
	}
	initiated, answered := MatchCalls(records, contacts)
	if initiated != 1 || answered != 1 {
		t.Fatalf("record double counted: initiated=%d answered=%d", initiated, answered)
	}
}

func TestReconcile_ProviderFailureFallsBackToCache(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()
	camp := threeContactCampaign()
	camp.CallStats = &campaigns.CallStats{Initiated: 5, Answered: 3, UpdatedAt: time.Now()}
	c := seed(t, crepo, camp)

	lister := &stubLister{err: errors.New("rate limited")}
	svc := NewService(crepo, mrepo, lister, quietLogger())

	snap, err := svc.CampaignSnapshot(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("provider failure must not fail the read: %v", err)
	}
	if snap.VoiceCalls != 5 || snap.VoiceCallsAnswered != 3 {
		t.Fatalf("expected cached counters 5/3, got %d/%d", snap.VoiceCalls, snap.VoiceCallsAnswered)
	}
	if snap.VoiceCallsMissed != 2 {
		t.Fatalf("expected 2 missed, got %d", snap.VoiceCallsMissed)
	}
}

func TestReconcile_ProviderFailureNoCacheZeroes(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()
	c := seed(t, crepo, threeContactCampaign())

	svc := NewService(crepo, mrepo, &stubLister{err: errors.New("down")}, quietLogger())
	snap, err := svc.CampaignSnapshot(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if snap.VoiceCalls != 0 || snap.VoiceCallsAnswered != 0 {
		t.Fatalf("expected zero counters without cache, got %+v", snap)
	}
}

func TestReconcile_CallsChannelDisabledSkipsProvider(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()
	camp := threeContactCampaign()
	camp.Channels = campaigns.Channels{Text: true}
	c := seed(t, crepo, camp)

	lister := &stubLister{}
	svc := NewService(crepo, mrepo, lister, quietLogger())
	snap, err := svc.CampaignSnapshot(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if lister.requests != 0 {
		t.Fatalf("provider must not be queried when calling is disabled")
	}
	if snap.VoiceCalls != 0 || snap.VoiceCallsAnswered != 0 {
		t.Fatalf("expected zero call counters: %+v", snap)
	}
}

func TestReconcile_RequestsLast24Hours(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()
	c := seed(t, crepo, threeContactCampaign())

	lister := &stubLister{}
	svc := NewService(crepo, mrepo, lister, quietLogger())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	if _, err := svc.CampaignSnapshot(context.Background(), "u1", c.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if lister.requests != 1 {
		t.Fatalf("expected one provider request, got %d", lister.requests)
	}
	if got := lister.lastReq.StartedAfter; !got.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("expected 24h window, got %v", got)
	}
}

func TestReconcile_ZeroContacts(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()
	camp := threeContactCampaign()
	camp.Contacts = nil
	c := seed(t, crepo, camp)

	svc := NewService(crepo, mrepo, &stubLister{}, quietLogger())
	snap, err := svc.CampaignSnapshot(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if snap.EngagementScore != 0 || snap.ContactsNotInteracted != 0 {
		t.Fatalf("zero-contact snapshot must be all zeros: %+v", snap)
	}
}
