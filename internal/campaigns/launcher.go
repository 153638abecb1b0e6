package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"outreach-platform/internal/activity"
	"outreach-platform/internal/dialer"
	"outreach-platform/internal/phone"
)

var (
	ErrCallsDisabled     = errors.New("campaigns: calls channel is not enabled")
	ErrNoCallScript      = errors.New("campaigns: call script not generated")
	ErrNoDialableNumbers = errors.New("campaigns: no dialable numbers in contact list")
	ErrLaunchInProgress  = errors.New("campaigns: a launch is already running for this campaign")
)

// Dialer is the dispatch capability the launcher needs.
type Dialer interface {
	Dispatch(ctx context.Context, numbers []string, script string) (dialer.BatchResult, error)
}

// LaunchLock serializes launches per campaign. The Redis-backed
// implementation lives in launch_lock.go; tests use a stub.
type LaunchLock interface {
	Acquire(ctx context.Context, campaignID string) (bool, error)
	Release(ctx context.Context, campaignID string) error
}

// LaunchSummary is what a launch returns to the API: the campaign always
// gets a result object describing exactly what happened, never a bare error
// for per-call failures.
type LaunchSummary struct {
	CampaignID string      `json:"campaign_id"`
	Dialable   int         `json:"dialable_numbers"`
	Results    CallResults `json:"call_results"`
}

// Launcher runs the campaign-launch action for the calls channel: normalize
// the contact list, refuse to start with nothing to dial, then hand the
// batch to the dispatcher and persist its outcome.
type Launcher struct {
	repo   Repository
	dialer Dialer
	lock   LaunchLock
	events *activity.Service
	region phone.Region
	log    *slog.Logger
	clock  func() time.Time
}

func NewLauncher(repo Repository, d Dialer, lock LaunchLock, events *activity.Service, region phone.Region, log *slog.Logger) *Launcher {
	if log == nil {
		log = slog.Default()
	}
	return &Launcher{
		repo:   repo,
		dialer: d,
		lock:   lock,
		events: events,
		region: region,
		log:    log,
		clock:  time.Now,
	}
}

// LaunchStart is the immediate answer to an asynchronous launch request.
type LaunchStart struct {
	CampaignID string `json:"campaign_id"`
	Dialable   int    `json:"dialable_numbers"`
}

// LaunchCalls places the campaign's call batch and waits for it.
//
// Failure policy: setup problems (disabled channel, missing script, empty
// number set, concurrent launch) abort before any call; once dispatch
// starts, the batch always completes and its per-call failures are reported
// in the summary, not as an error.
func (l *Launcher) LaunchCalls(ctx context.Context, ownerID, campaignID string) (LaunchSummary, error) {
	numbers, script, err := l.prepare(ctx, ownerID, campaignID)
	if err != nil {
		return LaunchSummary{}, err
	}

	if err := l.acquire(ctx, campaignID); err != nil {
		return LaunchSummary{}, err
	}
	defer l.release(ctx, campaignID)

	return l.run(ctx, ownerID, campaignID, numbers, script)
}

// StartCalls validates and locks synchronously, then dispatches in the
// background. A paced batch runs for minutes; HTTP callers use this form so
// the request can be acked while the batch proceeds. Batch completion is
// observable through the campaign record and the activity log.
func (l *Launcher) StartCalls(ctx context.Context, ownerID, campaignID string) (LaunchStart, error) {
	numbers, script, err := l.prepare(ctx, ownerID, campaignID)
	if err != nil {
		return LaunchStart{}, err
	}

	if err := l.acquire(ctx, campaignID); err != nil {
		return LaunchStart{}, err
	}

	// The batch must survive the request that started it.
	bg := context.WithoutCancel(ctx)
	go func() {
		defer l.release(bg, campaignID)
		if _, err := l.run(bg, ownerID, campaignID, numbers, script); err != nil {
			l.log.Error("background call batch failed", "campaign_id", campaignID, "err", err)
		}
	}()

	return LaunchStart{CampaignID: campaignID, Dialable: len(numbers)}, nil
}

// prepare loads the campaign and runs every pre-dispatch check.
func (l *Launcher) prepare(ctx context.Context, ownerID, campaignID string) ([]string, string, error) {
	c, err := l.repo.GetByID(ctx, ownerID, campaignID)
	if err != nil {
		return nil, "", err
	}
	if !c.Channels.CallingEnabled() {
		return nil, "", ErrCallsDisabled
	}
	script := strings.TrimSpace(c.CallScript)
	if script == "" {
		return nil, "", ErrNoCallScript
	}

	numbers := phone.NormalizeRecords(contactRecords(c.Contacts), l.region)
	if len(numbers) == 0 {
		return nil, "", ErrNoDialableNumbers
	}
	return numbers, script, nil
}

func (l *Launcher) acquire(ctx context.Context, campaignID string) error {
	if l.lock == nil {
		return nil
	}
	ok, err := l.lock.Acquire(ctx, campaignID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLaunchInProgress
	}
	return nil
}

func (l *Launcher) release(ctx context.Context, campaignID string) {
	if l.lock == nil {
		return
	}
	if err := l.lock.Release(context.WithoutCancel(ctx), campaignID); err != nil {
		l.log.Warn("launch lock release failed", "campaign_id", campaignID, "err", err)
	}
}

// run dispatches the batch and persists its outcome.
func (l *Launcher) run(ctx context.Context, ownerID, campaignID string, numbers []string, script string) (LaunchSummary, error) {
	l.record(ctx, activity.Event{
		CampaignID:  campaignID,
		Type:        activity.EventTypeLaunchStarted,
		ActorUserID: ownerID,
		Message:     "call batch started",
	})

	batch, err := l.dialer.Dispatch(ctx, numbers, script)
	if err != nil {
		// Only pre-dispatch setup errors surface here; per-call failures
		// are inside the batch result.
		return LaunchSummary{}, err
	}

	results := CallResults{
		TotalAttempted:  batch.Attempted,
		SuccessfulCalls: batch.Succeeded,
		FailedCalls:     batch.Failed,
	}
	for _, f := range batch.Failures {
		results.Errors = append(results.Errors, CallError{Phone: f.Number, Error: f.Error})
	}

	now := l.clock().UTC()
	if err := l.repo.RecordLaunch(ctx, ownerID, campaignID, results, now); err != nil {
		return LaunchSummary{}, err
	}

	meta, _ := json.Marshal(results)
	l.record(ctx, activity.Event{
		CampaignID:  campaignID,
		Type:        activity.EventTypeCallBatchCompleted,
		ActorUserID: ownerID,
		Message:     "call batch completed",
		Metadata:    string(meta),
	})

	l.log.Info("campaign calls launched",
		"campaign_id", campaignID,
		"dialable", len(numbers),
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
	)
	return LaunchSummary{CampaignID: campaignID, Dialable: len(numbers), Results: results}, nil
}

func (l *Launcher) record(ctx context.Context, e activity.Event) {
	if l.events == nil {
		return
	}
	if err := l.events.Append(ctx, e); err != nil {
		l.log.Warn("activity append failed", "campaign_id", e.CampaignID, "type", e.Type, "err", err)
	}
}

// contactRecords flattens contacts into the normalizer's free-form records.
// Every field goes in, not just Phone: uploads routinely put numbers in
// arbitrary columns.
func contactRecords(contacts []Contact) []phone.Record {
	out := make([]phone.Record, 0, len(contacts))
	for _, c := range contacts {
		rec := phone.Record{}
		if c.Phone != "" {
			rec["phone"] = c.Phone
		}
		if c.Name != "" {
			rec["name"] = c.Name
		}
		if c.Email != "" {
			rec["email"] = c.Email
		}
		for k, v := range c.Fields {
			rec[k] = v
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out
}
