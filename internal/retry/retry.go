// Package retry is the resilience wrapper around remote store
// operations: bounded retry with a fixed backoff schedule for
// transient failures, and translation of final failures into the
// closed set of operator-facing messages. It never inspects entity
// content.
package retry

import (
	"context"
	"errors"
	"time"

	"dorm-occupancy-backend/internal/metrics"
	"dorm-occupancy-backend/internal/store"
)

// DefaultSchedule is the fixed backoff between attempts. Retries past
// the end of the schedule reuse its last delay.
var DefaultSchedule = []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}

// Retrier retries an operation on transient store failures. The zero
// value is unusable; use New, or build one directly in tests with a
// short schedule.
type Retrier struct {
	Attempts int
	Schedule []time.Duration
}

// New returns the production retrier: 3 attempts, 1s/3s/5s backoff.
func New() *Retrier {
	return &Retrier{Attempts: 3, Schedule: DefaultSchedule}
}

// Do runs op, retrying on transient failures until the attempt budget
// is spent. Validation, not-found and permanent failures propagate
// immediately. The delay blocks the calling operation; there is no
// cancellation of an in-flight sequence beyond ctx itself.
func (r *Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < r.Attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !store.IsTransient(err) {
			return err
		}
		if attempt == r.Attempts-1 {
			break
		}
		metrics.RetryAttempts.Inc()
		if serr := sleep(ctx, r.delay(attempt)); serr != nil {
			return err
		}
	}
	metrics.RemoteFailures.Inc()
	return err
}

func (r *Retrier) delay(attempt int) time.Duration {
	if len(r.Schedule) == 0 {
		return 0
	}
	if attempt >= len(r.Schedule) {
		return r.Schedule[len(r.Schedule)-1]
	}
	return r.Schedule[attempt]
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// UserMessage translates a final store failure into one of the fixed
// message templates. Validation and not-found failures carry their
// own specific message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch store.KindOf(err) {
	case store.KindValidation, store.KindNotFound:
		var se *store.Error
		if errors.As(err, &se) && se.Err != nil {
			return se.Err.Error()
		}
		return err.Error()
	}

	switch store.ReasonOf(err) {
	case store.ReasonUnavailable:
		return "The data service is temporarily unavailable. Your changes are stored locally and will synchronize automatically."
	case store.ReasonPermissionDenied:
		return "Access denied. Please verify your permissions or sign in again."
	case store.ReasonUnauthenticated:
		return "Your session has expired. Please sign in again."
	case store.ReasonOffline:
		return "Network connection lost. Changes are kept locally and will be applied once the connection is restored."
	case store.ReasonNetwork:
		return "A network problem interrupted the operation. Please check your connection and try again."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
