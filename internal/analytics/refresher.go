package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"outreach-platform/internal/activity"
	"outreach-platform/internal/campaigns"

	"github.com/robfig/cron/v3"
)

// DefaultRefreshSpec reconciles launched campaigns every 15 minutes, which
// keeps the callStats cache fresh enough that a provider outage degrades to
// counters at most one interval old.
const DefaultRefreshSpec = "*/15 * * * *"

// Refresher periodically reconciles every launched campaign so the
// callStats cache is warm before any dashboard read needs it.
type Refresher struct {
	svc    *Service
	repo   campaigns.Repository
	events *activity.Service
	log    *slog.Logger
	spec   string
	engine *cron.Cron
}

func NewRefresher(svc *Service, repo campaigns.Repository, events *activity.Service, log *slog.Logger, spec string) *Refresher {
	if log == nil {
		log = slog.Default()
	}
	if spec == "" {
		spec = DefaultRefreshSpec
	}
	return &Refresher{
		svc:    svc,
		repo:   repo,
		events: events,
		log:    log,
		spec:   spec,
		engine: cron.New(),
	}
}

// Start registers the refresh job and starts the scheduler.
func (r *Refresher) Start() error {
	if r.svc == nil || r.repo == nil {
		return errors.New("analytics: refresher not fully configured")
	}
	if _, err := r.engine.AddFunc(r.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		r.RefreshAll(ctx)
	}); err != nil {
		return err
	}
	r.engine.Start()
	r.log.Info("analytics refresher started", "spec", r.spec)
	return nil
}

// Stop halts the scheduler and waits for any in-flight refresh.
func (r *Refresher) Stop() {
	<-r.engine.Stop().Done()
	r.log.Info("analytics refresher stopped")
}

// RefreshAll reconciles every launched campaign once. Per-campaign failures
// are logged and skipped so one broken campaign cannot starve the rest.
func (r *Refresher) RefreshAll(ctx context.Context) {
	list, err := r.repo.ListLaunched(ctx)
	if err != nil {
		r.log.Error("analytics refresh: listing launched campaigns failed", "err", err)
		return
	}

	for _, c := range list {
		snap, err := r.svc.Reconcile(ctx, c)
		if err != nil {
			r.log.Warn("analytics refresh failed for campaign", "campaign_id", c.ID, "err", err)
			continue
		}
		r.record(ctx, c.ID, snap)
	}
	r.log.Info("analytics refresh completed", "campaigns", len(list))
}

func (r *Refresher) record(ctx context.Context, campaignID string, snap Snapshot) {
	if r.events == nil {
		return
	}
	meta, _ := json.Marshal(map[string]int{
		"voice_calls":          snap.VoiceCalls,
		"voice_calls_answered": snap.VoiceCallsAnswered,
		"engagement_score":     snap.EngagementScore,
	})
	err := r.events.Append(ctx, activity.Event{
		CampaignID: campaignID,
		Type:       activity.EventTypeAnalyticsRefreshed,
		Message:    "analytics snapshot refreshed",
		Metadata:   string(meta),
	})
	if err != nil {
		r.log.Warn("analytics refresh event not recorded", "campaign_id", campaignID, "err", err)
	}
}
