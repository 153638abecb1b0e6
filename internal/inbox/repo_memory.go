package inbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory message log for tests and early development.
type MemoryRepo struct {
	mu       sync.Mutex
	messages []Message
	clock    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{clock: time.Now}
}

func (r *MemoryRepo) Append(ctx context.Context, m Message) (Message, error) {
	if m.CampaignID == "" || m.ContactID == "" || m.Sender == "" {
		return Message{}, ErrInvalidMessage
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.clock().UTC()
	}
	r.messages = append(r.messages, m)
	return m, nil
}

func (r *MemoryRepo) ListByCampaign(ctx context.Context, campaignID string) ([]Message, error) {
	if campaignID == "" {
		return nil, ErrInvalidMessage
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, 0)
	for _, m := range r.messages {
		if m.CampaignID == campaignID {
			out = append(out, m)
		}
	}
	return out, nil
}
