package campaigns

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory campaign store for tests and early development.
type MemoryRepo struct {
	mu        sync.Mutex
	campaigns map[string]*Campaign
	clock     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{campaigns: map[string]*Campaign{}, clock: time.Now}
}

func (r *MemoryRepo) Create(ctx context.Context, c Campaign) (Campaign, error) {
	if c.OwnerID == "" || c.Title == "" {
		return Campaign{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.clock().UTC()
	}
	stored := c
	r.campaigns[c.ID] = &stored
	return c, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, ownerID, campaignID string) (Campaign, error) {
	if ownerID == "" || campaignID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok || c.OwnerID != ownerID {
		return Campaign{}, ErrNotFound
	}
	return *c, nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]Campaign, error) {
	if ownerID == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Campaign, 0)
	for _, c := range r.campaigns {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListLaunched(ctx context.Context) ([]Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Campaign, 0)
	for _, c := range r.campaigns {
		if c.Status == StatusLaunched {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) SetContacts(ctx context.Context, ownerID, campaignID string, contacts []Contact) error {
	return r.update(ownerID, campaignID, func(c *Campaign) {
		withIDs := make([]Contact, len(contacts))
		copy(withIDs, contacts)
		for i := range withIDs {
			if withIDs[i].ID == "" {
				withIDs[i].ID = uuid.NewString()
			}
		}
		c.Contacts = withIDs
	})
}

func (r *MemoryRepo) SetCallScript(ctx context.Context, ownerID, campaignID, script string) error {
	return r.update(ownerID, campaignID, func(c *Campaign) {
		c.CallScript = script
	})
}

func (r *MemoryRepo) RecordLaunch(ctx context.Context, ownerID, campaignID string, results CallResults, at time.Time) error {
	return r.update(ownerID, campaignID, func(c *Campaign) {
		at := at.UTC()
		c.Status = StatusLaunched
		c.CallResults = &results
		if c.LaunchedAt == nil {
			c.LaunchedAt = &at
		}
		c.CallsInitiatedAt = &at
	})
}

func (r *MemoryRepo) UpdateCallStats(ctx context.Context, campaignID string, stats CallStats) error {
	if campaignID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok {
		return ErrNotFound
	}
	c.CallStats = &stats
	return nil
}

func (r *MemoryRepo) update(ownerID, campaignID string, fn func(*Campaign)) error {
	if ownerID == "" || campaignID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok || c.OwnerID != ownerID {
		return ErrNotFound
	}
	fn(c)
	return nil
}
