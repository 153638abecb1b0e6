package activity

import "time"

// Event is an immutable, append-only campaign activity record. It backs the
// campaign detail view's timeline ("calls launched", "analytics refreshed").
//
// Invariants:
// - Events are never updated or deleted.
// - CampaignID is required.
// - Recording is best-effort; critical flows never block on activity failures.
type Event struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	Type       EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event, when there
	// is one (cron-driven refreshes have none).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`

	// Message is a short human-readable description.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details (e.g. the batch summary).
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLaunchStarted      EventType = "launch_started"
	EventTypeCallBatchCompleted EventType = "call_batch_completed"
	EventTypeAnalyticsRefreshed EventType = "analytics_refreshed"
)
