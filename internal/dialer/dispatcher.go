package dialer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"outreach-platform/internal/phone"
	"outreach-platform/internal/telephony"
)

// DefaultPacing is the fixed inter-call delay. Deliberately simple
// backpressure against provider rate limits; campaign batches are small and
// predictable, so no adaptive backoff.
const DefaultPacing = 60 * time.Second

// CallPlacer is the single capability the dispatcher needs from the
// telephony collaborator.
type CallPlacer interface {
	PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (telephony.PlaceCallResult, error)
}

// Outcome classifies one dial attempt.
type Outcome string

const (
	OutcomePlaced         Outcome = "placed"
	OutcomeSkippedInvalid Outcome = "skipped-invalid"
	OutcomeProviderError  Outcome = "provider-error"
)

// CallAttempt is one outbound dial, immutable once recorded.
type CallAttempt struct {
	Position int     `json:"position"`
	Number   string  `json:"number"`
	Outcome  Outcome `json:"outcome"`
	Error    string  `json:"error,omitempty"`
}

// Failure pairs a number with the provider error it hit.
type Failure struct {
	Number string `json:"number"`
	Error  string `json:"error"`
}

// BatchResult is the dispatcher's only externally visible output.
// The batch always completes; callers inspect Failed/Failures to detect
// partial or total failure.
type BatchResult struct {
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Attempts  []CallAttempt `json:"attempts"`
	Failures  []Failure     `json:"failures"`
}

var (
	ErrNoOrigin  = errors.New("dialer: origin number is required")
	ErrNoNumbers = errors.New("dialer: empty number list")
	ErrNoPlacer  = errors.New("dialer: call placer is required")
)

// Dispatcher places one call per number, in input order, pacing between
// calls and isolating per-call provider failures.
type Dispatcher struct {
	placer CallPlacer
	origin string
	pacing time.Duration
	region phone.Region
	log    *slog.Logger

	// wait is injectable for deterministic tests.
	wait func(ctx context.Context, d time.Duration) error
}

type Option func(*Dispatcher)

// WithPacing overrides the inter-call delay.
func WithPacing(d time.Duration) Option {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.pacing = d
		}
	}
}

// WithRegion sets the default dialing region for re-normalization.
func WithRegion(r phone.Region) Option {
	return func(dp *Dispatcher) { dp.region = r }
}

// WithWaiter replaces the pacing wait; tests inject a fake clock here.
func WithWaiter(w func(ctx context.Context, d time.Duration) error) Option {
	return func(dp *Dispatcher) {
		if w != nil {
			dp.wait = w
		}
	}
}

// New builds a Dispatcher. A missing origin number is a setup error and is
// rejected here, before any call could be attempted.
func New(placer CallPlacer, origin string, log *slog.Logger, opts ...Option) (*Dispatcher, error) {
	if placer == nil {
		return nil, ErrNoPlacer
	}
	if origin == "" {
		return nil, ErrNoOrigin
	}
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		placer: placer,
		origin: origin,
		pacing: DefaultPacing,
		region: phone.DefaultRegion,
		log:    log,
		wait:   timerWait,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch places one call per number, speaking script.
//
// Per-call isolation: a provider error is recorded and the batch continues.
// Cancellation is cooperative: checked before each dial, so an in-flight
// call completes but no further numbers are dialed.
func (d *Dispatcher) Dispatch(ctx context.Context, numbers []string, script string) (BatchResult, error) {
	if len(numbers) == 0 {
		return BatchResult{}, ErrNoNumbers
	}

	doc, err := telephony.SpeakTwiML(script)
	if err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{
		Attempted: len(numbers),
		Attempts:  make([]CallAttempt, 0, len(numbers)),
	}

	for i, raw := range numbers {
		if err := ctx.Err(); err != nil {
			d.log.Warn("batch cancelled", "position", i, "remaining", len(numbers)-i)
			for j := i; j < len(numbers); j++ {
				res.Failed++
				res.Attempts = append(res.Attempts, CallAttempt{
					Position: j, Number: numbers[j],
					Outcome: OutcomeProviderError, Error: err.Error(),
				})
				res.Failures = append(res.Failures, Failure{Number: numbers[j], Error: err.Error()})
			}
			break
		}

		// Numbers may have been stored between normalization and dispatch,
		// so each one is re-qualified before dialing.
		number, ok := phone.Normalize(raw, d.region)
		if !ok {
			res.Failed++
			res.Attempts = append(res.Attempts, CallAttempt{
				Position: i, Number: raw, Outcome: OutcomeSkippedInvalid,
				Error: "not a dialable number",
			})
			res.Failures = append(res.Failures, Failure{Number: raw, Error: "not a dialable number"})
			continue
		}

		_, callErr := d.placer.PlaceCall(ctx, telephony.PlaceCallRequest{
			To:          number,
			From:        d.origin,
			Instruction: doc,
		})
		if callErr != nil {
			res.Failed++
			res.Attempts = append(res.Attempts, CallAttempt{
				Position: i, Number: number, Outcome: OutcomeProviderError,
				Error: callErr.Error(),
			})
			res.Failures = append(res.Failures, Failure{Number: number, Error: callErr.Error()})
			d.log.Warn("call failed", "number", number, "position", i, "err", callErr)
		} else {
			res.Succeeded++
			res.Attempts = append(res.Attempts, CallAttempt{
				Position: i, Number: number, Outcome: OutcomePlaced,
			})
			d.log.Info("call placed", "number", number, "position", i)
		}

		if i < len(numbers)-1 {
			if err := d.wait(ctx, d.pacing); err != nil {
				// Cancellation during the pacing wait; the next loop
				// iteration records the remaining numbers.
				continue
			}
		}
	}

	d.log.Info("batch completed",
		"attempted", res.Attempted, "succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}

// timerWait sleeps without blocking other goroutines and honors cancellation.
func timerWait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
