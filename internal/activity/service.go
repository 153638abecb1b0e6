package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for activity events.
// It is append-only; no Update/Delete methods exist by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByCampaign(ctx context.Context, campaignID string) ([]Event, error)
}

var ErrInvalidEvent = errors.New("activity: invalid event")

// Service records campaign activity. Callers treat recording as
// best-effort: a failed append is logged by the caller, never propagated.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("activity: repository not configured")
	}
	if e.CampaignID == "" || e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) ListByCampaign(ctx context.Context, campaignID string) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("activity: repository not configured")
	}
	if campaignID == "" {
		return nil, ErrInvalidEvent
	}
	return s.repo.ListByCampaign(ctx, campaignID)
}
