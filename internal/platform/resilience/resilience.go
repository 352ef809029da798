// Package resilience composes retry-with-backoff and a circuit breaker
// around an outbound call, in that order, matching the resilience
// composition order of §4.3. The adapter shape (Config/RetryConfig,
// Execute(ctx, fn), sentinel error translation) is grounded on
// r3e-network-service_layer/infrastructure/resilience/resilience.go; the
// teacher (bank-api) has no resilience code for outbound calls of its own.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned by Execute when the breaker is open and the
// call never reached the network.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrTooManyRequests is returned when the breaker is half-open and the
// probe budget for this window has been exhausted.
var ErrTooManyRequests = errors.New("too many requests in half-open state")

type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Config configures the circuit breaker half of the composition. The
// breaker trips once at least MinimumCalls calls were counted and their
// failure fraction exceeds FailureRateThreshold. Counts cover every call
// since the breaker last changed state; they are not limited to the last
// WindowSize calls, and New does not read WindowSize.
type Config struct {
	WindowSize           int
	MinimumCalls         int
	FailureRateThreshold float64
	OpenStateWait        time.Duration
	HalfOpenProbes       int
	OnStateChange        func(from, to State)
}

func DefaultConfig() Config {
	return Config{
		WindowSize:           20,
		MinimumCalls:         5,
		FailureRateThreshold: 0.5,
		OpenStateWait:        20 * time.Second,
		HalfOpenProbes:       3,
	}
}

// CircuitBreaker wraps gobreaker's generic breaker behind the error
// vocabulary the peer client expects.
type CircuitBreaker struct {
	gb *gobreaker.CircuitBreaker[any]
}

func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        "peer-client",
		MaxRequests: uint32(cfg.HalfOpenProbes),
		Interval:    0,
		Timeout:     cfg.OpenStateWait,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.MinimumCalls) {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio > cfg.FailureRateThreshold
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			cfg.OnStateChange(from, to)
		}
	}
	return &CircuitBreaker{gb: gobreaker.NewCircuitBreaker[any](settings)}
}

// Execute runs fn through the breaker, translating gobreaker's own sentinel
// errors into this package's vocabulary.
func (cb *CircuitBreaker) Execute(_ context.Context, fn func() error) error {
	_, err := cb.gb.Execute(func() (any, error) {
		return nil, fn()
	})
	return mapGobreakerError(err)
}

func (cb *CircuitBreaker) State() State {
	return cb.gb.State()
}

func mapGobreakerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState):
		return ErrCircuitOpen
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return ErrTooManyRequests
	default:
		return err
	}
}

// RetryConfig configures the retry half of the composition. Retries are
// only meant to wrap transport/timeout failures — callers are responsible
// for not retrying business errors (§4.3 step 1).
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
	}
}

// Retry runs fn up to cfg.MaxAttempts times with exponential backoff,
// stopping early if ctx is cancelled.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = cfg.InitialDelay
	expo.MaxInterval = cfg.MaxDelay
	expo.Multiplier = cfg.Multiplier

	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(max(cfg.MaxAttempts-1, 0))), ctx)
	return backoff.Retry(fn, bo)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
