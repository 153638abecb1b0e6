package campaigns

import "time"

type Status string

const (
	StatusDraft    Status = "draft"
	StatusLaunched Status = "launched"
)

// Channels holds the campaign's enabled outreach channels.
type Channels struct {
	Text  bool `json:"text"`
	Calls bool `json:"calls"`
	Voice bool `json:"voice"`
}

// CallingEnabled reports whether any phone-call channel is on.
func (c Channels) CallingEnabled() bool { return c.Calls || c.Voice }

// Contact is one row from an uploaded contact list. Fields keeps the
// free-form spreadsheet columns; Phone is whatever the user typed, in
// arbitrary format, and is only ever interpreted by the phone normalizer.
type Contact struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name,omitempty" db:"name"`
	Phone string `json:"phone,omitempty" db:"phone"`
	Email string `json:"email,omitempty" db:"email"`

	Fields map[string]string `json:"fields,omitempty" db:"fields"`
}

// CallStats is the cached call-count portion of campaign analytics.
//
// Invariant: this cache only ever holds call counts plus a timestamp, never
// a full analytics snapshot; only the provider-backed counts are expensive
// and fragile to recompute. Written last-write-wins; the cache is advisory.
type CallStats struct {
	Initiated int       `json:"initiated"`
	Answered  int       `json:"answered"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CallResults summarizes the last dispatched call batch.
type CallResults struct {
	TotalAttempted  int         `json:"total_attempted"`
	SuccessfulCalls int         `json:"successful_calls"`
	FailedCalls     int         `json:"failed_calls"`
	Errors          []CallError `json:"errors,omitempty"`
}

// CallError pairs a number with the error that kept it from being called.
type CallError struct {
	Phone string `json:"phone"`
	Error string `json:"error"`
}

// Campaign is the owner-scoped campaign record.
type Campaign struct {
	ID          string `json:"id" db:"id"`
	OwnerID     string `json:"owner_id" db:"owner_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description,omitempty" db:"description"`
	Status      Status `json:"status" db:"status"`

	Channels Channels  `json:"channels" db:"channels"`
	Contacts []Contact `json:"contacts,omitempty"`

	// CallScript is the spoken script for the calls channel, produced by the
	// script generator and treated as an opaque string from here on.
	CallScript string `json:"call_script,omitempty" db:"call_script"`

	CallStats   *CallStats   `json:"call_stats,omitempty" db:"call_stats"`
	CallResults *CallResults `json:"call_results,omitempty" db:"call_results"`

	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	LaunchedAt       *time.Time `json:"launched_at,omitempty" db:"launched_at"`
	CallsInitiatedAt *time.Time `json:"calls_initiated_at,omitempty" db:"calls_initiated_at"`
}
