package telephony

import (
	"context"
	"time"
)

// Provider defines the provider-agnostic interface used by business logic.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Keep request/response types provider-agnostic; stash provider raw payloads
//   in Raw if they are ever needed for debugging.
// - Errors from either operation must be catchable per call/request; callers
//   decide whether a failure is fatal.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
	ListRecentCalls(ctx context.Context, req ListCallsRequest) ([]CallRecord, error)
}

// PlaceCallRequest asks the provider to dial To from From and speak the
// given instruction document (provider markup, already escaped).
type PlaceCallRequest struct {
	// To and From are E.164.
	To   string `json:"to"`
	From string `json:"from"`

	// Instruction is the provider's "speak this" document (TwiML for Twilio).
	Instruction string `json:"instruction"`
}

type PlaceCallResult struct {
	// ProviderCallID is the provider's unique identifier for this call.
	ProviderCallID string `json:"provider_call_id"`

	// Status is the provider's initial status (usually "queued").
	Status string `json:"status,omitempty"`
}

// ListCallsRequest asks for calls started inside a recent window.
type ListCallsRequest struct {
	StartedAfter time.Time `json:"started_after"`

	// Limit caps the page size; adapters apply a default when zero.
	Limit int `json:"limit,omitempty"`
}

// CallRecord is one call as the provider reports it. Read-only; To keeps
// whatever formatting the provider used.
type CallRecord struct {
	ProviderCallID string     `json:"provider_call_id"`
	To             string     `json:"to"`
	From           string     `json:"from"`
	Status         CallStatus `json:"status"`
	StartedAt      time.Time  `json:"started_at"`

	// Raw is optional JSON for debugging.
	Raw string `json:"raw,omitempty"`
}

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// Answered reports whether the provider considers the call picked up.
func (s CallStatus) Answered() bool { return s == CallStatusCompleted }
