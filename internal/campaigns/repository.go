package campaigns

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("campaigns: not found")
	ErrInvalidArgument = errors.New("campaigns: invalid argument")
)

// Repository is the campaign-record contract.
//
// Ownership invariant: every read/write except the two analytics hooks
// (UpdateCallStats, ListLaunched) is owner-scoped. A campaign is only
// visible to the user who created it.
//
// UpdateCallStats writes only the callStats cache field, nothing else; the
// cache is advisory and last-write-wins by design.
type Repository interface {
	Create(ctx context.Context, c Campaign) (Campaign, error)
	GetByID(ctx context.Context, ownerID, campaignID string) (Campaign, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Campaign, error)

	SetContacts(ctx context.Context, ownerID, campaignID string, contacts []Contact) error
	SetCallScript(ctx context.Context, ownerID, campaignID, script string) error

	RecordLaunch(ctx context.Context, ownerID, campaignID string, results CallResults, at time.Time) error

	UpdateCallStats(ctx context.Context, campaignID string, stats CallStats) error
	ListLaunched(ctx context.Context) ([]Campaign, error)
}
