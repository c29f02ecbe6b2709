package notify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"

	"eventcore/libs/observability"
)

// CircuitBreakerSink wraps another sink so a stuck or flapping recipient
// degrades to fast open-circuit failures instead of stalling every
// transition's notification dispatch. Breaker state changes are logged,
// and notifications dropped while the breaker is open are counted and
// reported when it closes again: a dropped notification is an
// operator-visible event, not just a failed call, because the transition
// it reports has already committed and will not be re-delivered.
type CircuitBreakerSink struct {
	inner   Sink
	breaker *gobreaker.CircuitBreaker[struct{}]
	dropped atomic.Uint64
}

// NewCircuitBreakerSink wraps inner with a circuit breaker keyed by its
// name. The trip policy is tuned for notification dispatch: five
// consecutive failures open the breaker (a flapping recipient alternating
// success and failure never trips it), one probe delivery is allowed per
// half-open window, and failure counts reset after a quiet interval so a
// slow trickle of isolated errors is not treated as an outage.
func NewCircuitBreakerSink(inner Sink) *CircuitBreakerSink {
	s := &CircuitBreakerSink{inner: inner}
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fields := map[string]any{
				"sink": name,
				"from": from.String(),
				"to":   to.String(),
			}
			if to == gobreaker.StateClosed {
				fields["dropped_while_open"] = s.dropped.Swap(0)
			}
			observability.LogEvent(context.Background(), "warn", "notification_breaker", fields)
		},
	})
	return s
}

func (s *CircuitBreakerSink) Name() string { return s.inner.Name() }

// Send dispatches through the breaker. While the breaker is open the
// payload is counted as dropped and the open-circuit error surfaces to the
// emitter, which reports it without retrying.
func (s *CircuitBreakerSink) Send(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.inner.Send(ctx, p)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.dropped.Add(1)
		return fmt.Errorf("notify: %s breaker open, notification %s dropped: %w", s.inner.Name(), p.ID, err)
	}
	return err
}

// State exposes the breaker state for tests and health surfaces.
func (s *CircuitBreakerSink) State() gobreaker.State { return s.breaker.State() }
