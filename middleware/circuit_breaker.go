package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/core"
	"github.com/unidb/unidb/dberr"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreakerMiddleware stops hammering a backend whose session keeps
// failing. Only fatal operational errors count as failures: caller bugs
// and constraint violations say nothing about the backend's health.
type CircuitBreakerMiddleware struct {
	Threshold    int           // Number of failures before opening
	ResetTimeout time.Duration // Time to wait before half-open

	mu            sync.Mutex
	state         State
	failures      int
	lastFailure   time.Time
	halfOpenInUse bool
}

func NewCircuitBreaker(threshold int, resetTimeout time.Duration) *CircuitBreakerMiddleware {
	return &CircuitBreakerMiddleware{
		Threshold:    threshold,
		ResetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

func (m *CircuitBreakerMiddleware) Name() string {
	return "CircuitBreaker"
}

func (m *CircuitBreakerMiddleware) Init(conn *core.Connection) error {
	return nil
}

func (m *CircuitBreakerMiddleware) Shutdown() error {
	return nil
}

func (m *CircuitBreakerMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.ExecFunc) (backend.Result, error) {
	m.mu.Lock()
	switch m.state {
	case StateOpen:
		if time.Since(m.lastFailure) > m.ResetTimeout {
			m.state = StateHalfOpen
			m.halfOpenInUse = false
		} else {
			m.mu.Unlock()
			return nil, dberr.New(dberr.KindOperational, "circuit breaker is open")
		}
	case StateHalfOpen:
		if m.halfOpenInUse {
			// Allow one probe, reject the rest until its outcome is known.
			m.mu.Unlock()
			return nil, dberr.New(dberr.KindOperational, "circuit breaker is open")
		}
		m.halfOpenInUse = true
	}
	m.mu.Unlock()

	res, err := next(ctx, stmt)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil && dberr.IsFatal(err) {
		m.recordFailure()
	} else {
		m.recordSuccess()
	}
	return res, err
}

func (m *CircuitBreakerMiddleware) recordFailure() {
	m.failures++
	m.lastFailure = time.Now()
	if m.state == StateHalfOpen || m.failures >= m.Threshold {
		m.state = StateOpen
	}
}

func (m *CircuitBreakerMiddleware) recordSuccess() {
	m.failures = 0
	if m.state == StateHalfOpen {
		m.state = StateClosed
	}
}
