// Package circuitbreaker wraps github.com/sony/gobreaker for feed fetching.
package circuitbreaker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrOpenState is returned by Execute while the breaker is open.
	ErrOpenState = gobreaker.ErrOpenState
	// ErrTooManyRequests is returned while half-open once the trial
	// request quota is used up.
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the circuit breaker name for logging and metrics
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear success/failure counts
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again
	Timeout time.Duration

	// FailureThreshold is the failure ratio threshold to trip the circuit
	// For example, 0.6 means 60% failure rate
	FailureThreshold float64

	// MinRequests is the minimum number of requests before calculating failure ratio
	MinRequests uint32

	// IsSuccessful classifies errors returned by the wrapped call.
	// nil counts every non-nil error as a failure.
	IsSuccessful func(err error) bool

	// OnStateChange is called after the state has been logged.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns a default configuration for circuit breakers.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// FeedHostConfig is tuned for hourly scrapes: a host opens after three
// consecutive failed fetches and is retried after 30 minutes.
func FeedHostConfig(host string) Config {
	return Config{
		Name:             "feed:" + host,
		MaxRequests:      1,
		Interval:         0, // 閉状態ではカウントをリセットしない
		Timeout:          30 * time.Minute,
		FailureThreshold: 1.0,
		MinRequests:      3,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker with additional functionality.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a new circuit breaker with the given configuration.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: cfg.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs the given function through the circuit breaker.
// If the circuit is open, it returns ErrOpenState immediately.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen returns true if the circuit breaker is in the open state.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}

// Registry lazily creates one breaker per key (feed host).
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	newCfg   func(key string) Config
}

// NewRegistry returns a Registry that builds breakers with newCfg.
func NewRegistry(newCfg func(key string) Config) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		newCfg:   newCfg,
	}
}

// Get returns the breaker for key, creating it on first use.
func (r *Registry) Get(key string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[key]; ok {
		return cb
	}
	cb := New(r.newCfg(key))
	r.breakers[key] = cb
	return cb
}

// Open returns the names of breakers that are currently open.
func (r *Registry) Open() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var open []string
	for _, cb := range r.breakers {
		if cb.IsOpen() {
			open = append(open, cb.Name())
		}
	}
	return open
}
