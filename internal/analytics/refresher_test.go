package analytics

import (
	"context"
	"testing"

	"outreach-platform/internal/activity"
	"outreach-platform/internal/campaigns"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/telephony"
)

func TestRefreshAll_OnlyLaunchedCampaigns(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()

	launched := seed(t, crepo, threeContactCampaign())
	draft := threeContactCampaign()
	draft.Status = campaigns.StatusDraft
	seed(t, crepo, draft)

	lister := &stubLister{records: []telephony.CallRecord{
		{To: "+919876543210", Status: telephony.CallStatusCompleted},
	}}
	svc := NewService(crepo, mrepo, lister, quietLogger())
	events := activity.NewService(activity.NewMemoryRepo())

	r := NewRefresher(svc, crepo, events, quietLogger(), "")
	r.RefreshAll(context.Background())

	if lister.requests != 1 {
		t.Fatalf("expected one provider fetch for the launched campaign, got %d", lister.requests)
	}

	stored, _ := crepo.GetByID(context.Background(), "u1", launched.ID)
	if stored.CallStats == nil || stored.CallStats.Initiated != 1 {
		t.Fatalf("refresh did not warm the call stats cache: %+v", stored.CallStats)
	}

	evs, err := events.ListByCampaign(context.Background(), launched.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(evs) != 1 || evs[0].Type != activity.EventTypeAnalyticsRefreshed {
		t.Fatalf("expected one analytics_refreshed event, got %+v", evs)
	}
}

func TestRefreshAll_MultipleCampaigns(t *testing.T) {
	crepo := campaigns.NewMemoryRepo()
	mrepo := inbox.NewMemoryRepo()

	a := seed(t, crepo, threeContactCampaign())
	b := seed(t, crepo, threeContactCampaign())

	lister := &stubLister{}
	svc := NewService(crepo, mrepo, lister, quietLogger())

	r := NewRefresher(svc, crepo, nil, quietLogger(), "")
	r.RefreshAll(context.Background())

	if lister.requests != 2 {
		t.Fatalf("expected both campaigns refreshed, got %d requests", lister.requests)
	}
	for _, id := range []string{a.ID, b.ID} {
		stored, _ := crepo.GetByID(context.Background(), "u1", id)
		if stored.CallStats == nil {
			t.Fatalf("campaign %s missing refreshed stats", id)
		}
	}
}
