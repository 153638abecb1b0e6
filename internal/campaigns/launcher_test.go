package campaigns

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"outreach-platform/internal/activity"
	"outreach-platform/internal/dialer"
	"outreach-platform/internal/phone"
)

type stubDialer struct {
	numbers []string
	script  string
	result  dialer.BatchResult
	err     error
}

func (s *stubDialer) Dispatch(ctx context.Context, numbers []string, script string) (dialer.BatchResult, error) {
	s.numbers = numbers
	s.script = script
	if s.err != nil {
		return dialer.BatchResult{}, s.err
	}
	if s.result.Attempted == 0 {
		s.result = dialer.BatchResult{Attempted: len(numbers), Succeeded: len(numbers)}
	}
	return s.result, nil
}

type stubLock struct {
	held     bool
	acquired int
	released int
}

func (s *stubLock) Acquire(ctx context.Context, campaignID string) (bool, error) {
	s.acquired++
	return !s.held, nil
}

func (s *stubLock) Release(ctx context.Context, campaignID string) error {
	s.released++
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedCampaign(t *testing.T, repo *MemoryRepo, c Campaign) Campaign {
	t.Helper()
	out, err := repo.Create(context.Background(), c)
	if err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return out
}

func callableCampaign() Campaign {
	return Campaign{
		OwnerID:    "u1",
		Title:      "Diwali Sale",
		Channels:   Channels{Calls: true},
		CallScript: "Hello! Big sale this week.",
		Contacts: []Contact{
			{Name: "A", Phone: "9876543210"},
			{Name: "B", Phone: "+91 98765 43210"}, // duplicate of A after normalization
			{Name: "C", Phone: "9123456789"},
			{Name: "D", Phone: "not-a-phone"},
		},
	}
}

func TestLaunchCalls_NormalizesAndDeduplicates(t *testing.T) {
	repo := NewMemoryRepo()
	c := seedCampaign(t, repo, callableCampaign())
	d := &stubDialer{}
	lock := &stubLock{}
	events := activity.NewService(activity.NewMemoryRepo())

	l := NewLauncher(repo, d, lock, events, phone.Region{CountryCode: "91"}, quietLogger())
	sum, err := l.LaunchCalls(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if sum.Dialable != 2 {
		t.Fatalf("expected 2 dialable numbers after dedup, got %d (%v)", sum.Dialable, d.numbers)
	}
	if lock.acquired != 1 || lock.released != 1 {
		t.Fatalf("lock not used symmetrically: %+v", lock)
	}

	stored, _ := repo.GetByID(context.Background(), "u1", c.ID)
	if stored.Status != StatusLaunched {
		t.Fatalf("expected launched status, got %q", stored.Status)
	}
	if stored.CallResults == nil || stored.CallResults.TotalAttempted != 2 {
		t.Fatalf("call results not recorded: %+v", stored.CallResults)
	}
	if stored.CallsInitiatedAt == nil {
		t.Fatalf("expected calls_initiated_at to be set")
	}
}

func TestLaunchCalls_EmptyNumberSetAbortsBeforeDispatch(t *testing.T) {
	repo := NewMemoryRepo()
	c := callableCampaign()
	c.Contacts = []Contact{{Name: "X", Phone: "junk"}, {Name: "Y"}}
	created := seedCampaign(t, repo, c)
	d := &stubDialer{}

	l := NewLauncher(repo, d, &stubLock{}, nil, phone.Region{CountryCode: "91"}, quietLogger())
	_, err := l.LaunchCalls(context.Background(), "u1", created.ID)
	if !errors.Is(err, ErrNoDialableNumbers) {
		t.Fatalf("expected ErrNoDialableNumbers, got %v", err)
	}
	if d.numbers != nil {
		t.Fatalf("dispatcher must not run with an empty set")
	}
}

func TestLaunchCalls_RequiresCallsChannelAndScript(t *testing.T) {
	repo := NewMemoryRepo()

	noChannel := callableCampaign()
	noChannel.Channels = Channels{Text: true}
	c1 := seedCampaign(t, repo, noChannel)

	noScript := callableCampaign()
	noScript.CallScript = "   "
	c2 := seedCampaign(t, repo, noScript)

	l := NewLauncher(repo, &stubDialer{}, &stubLock{}, nil, phone.Region{CountryCode: "91"}, quietLogger())

	if _, err := l.LaunchCalls(context.Background(), "u1", c1.ID); !errors.Is(err, ErrCallsDisabled) {
		t.Fatalf("expected ErrCallsDisabled, got %v", err)
	}
	if _, err := l.LaunchCalls(context.Background(), "u1", c2.ID); !errors.Is(err, ErrNoCallScript) {
		t.Fatalf("expected ErrNoCallScript, got %v", err)
	}
}

func TestLaunchCalls_ConcurrentLaunchRejected(t *testing.T) {
	repo := NewMemoryRepo()
	c := seedCampaign(t, repo, callableCampaign())

	l := NewLauncher(repo, &stubDialer{}, &stubLock{held: true}, nil, phone.Region{CountryCode: "91"}, quietLogger())
	if _, err := l.LaunchCalls(context.Background(), "u1", c.ID); !errors.Is(err, ErrLaunchInProgress) {
		t.Fatalf("expected ErrLaunchInProgress, got %v", err)
	}
}

func TestLaunchCalls_PartialFailureStillRecorded(t *testing.T) {
	repo := NewMemoryRepo()
	c := seedCampaign(t, repo, callableCampaign())
	d := &stubDialer{result: dialer.BatchResult{
		Attempted: 2, Succeeded: 1, Failed: 1,
		Failures: []dialer.Failure{{Number: "+919123456789", Error: "busy"}},
	}}

	events := activity.NewService(activity.NewMemoryRepo())
	l := NewLauncher(repo, d, &stubLock{}, events, phone.Region{CountryCode: "91"}, quietLogger())

	sum, err := l.LaunchCalls(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("partial failure must not error the launch: %v", err)
	}
	if sum.Results.FailedCalls != 1 || len(sum.Results.Errors) != 1 {
		t.Fatalf("failure detail missing: %+v", sum.Results)
	}
	if sum.Results.Errors[0].Phone != "+919123456789" {
		t.Fatalf("failure references wrong number: %+v", sum.Results.Errors[0])
	}

	evs, _ := events.ListByCampaign(context.Background(), c.ID)
	if len(evs) != 2 {
		t.Fatalf("expected launch started + batch completed events, got %d", len(evs))
	}
}

type signalLock struct {
	stubLock
	released chan struct{}
}

func (s *signalLock) Release(ctx context.Context, campaignID string) error {
	defer close(s.released)
	return s.stubLock.Release(ctx, campaignID)
}

func TestStartCalls_AcksBeforeBatchAndPersistsAfter(t *testing.T) {
	repo := NewMemoryRepo()
	c := seedCampaign(t, repo, callableCampaign())
	d := &stubDialer{}
	lock := &signalLock{released: make(chan struct{})}

	l := NewLauncher(repo, d, lock, nil, phone.Region{CountryCode: "91"}, quietLogger())
	started, err := l.StartCalls(context.Background(), "u1", c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if started.Dialable != 2 {
		t.Fatalf("expected 2 dialable numbers, got %d", started.Dialable)
	}

	select {
	case <-lock.released:
	case <-time.After(2 * time.Second):
		t.Fatalf("background batch never finished")
	}

	stored, _ := repo.GetByID(context.Background(), "u1", c.ID)
	if stored.Status != StatusLaunched || stored.CallResults == nil {
		t.Fatalf("batch outcome not persisted: %+v", stored)
	}
}

func TestStartCalls_SetupErrorsSurfaceSynchronously(t *testing.T) {
	repo := NewMemoryRepo()
	noScript := callableCampaign()
	noScript.CallScript = ""
	c := seedCampaign(t, repo, noScript)

	l := NewLauncher(repo, &stubDialer{}, &stubLock{}, nil, phone.Region{CountryCode: "91"}, quietLogger())
	if _, err := l.StartCalls(context.Background(), "u1", c.ID); !errors.Is(err, ErrNoCallScript) {
		t.Fatalf("expected ErrNoCallScript, got %v", err)
	}
}

func TestLaunchCalls_WrongOwner(t *testing.T) {
	repo := NewMemoryRepo()
	c := seedCampaign(t, repo, callableCampaign())
	l := NewLauncher(repo, &stubDialer{}, &stubLock{}, nil, phone.Region{CountryCode: "91"}, quietLogger())
	if _, err := l.LaunchCalls(context.Background(), "someone-else", c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}
