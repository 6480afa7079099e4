package authgate

import (
	"sync"
	"time"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

const (
	DefaultFailureThreshold = 3
	DefaultResetTimeout     = 30 * time.Second
)

type serviceBreaker struct {
	failures    int
	lastFailure time.Time
	state       breakerState
}

// CircuitBreaker gates per-named-service verification attempts. Each service
// trips independently after failureThreshold consecutive failures, half-opens
// lazily once resetTimeout has elapsed, closes again on the next success, and
// re-opens on any failure while half-open. It is a best-effort availability
// guard: races between concurrent requests on the counters are harmless.
type CircuitBreaker struct {
	mu               sync.Mutex
	services         map[string]*serviceBreaker
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time
	logger           Logger
}

type BreakerOption func(*CircuitBreaker)

func WithFailureThreshold(n int) BreakerOption {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.failureThreshold = n
		}
	}
}

func WithResetTimeout(d time.Duration) BreakerOption {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.resetTimeout = d
		}
	}
}

func WithBreakerLogger(l Logger) BreakerOption {
	return func(cb *CircuitBreaker) {
		if l != nil {
			cb.logger = l
		}
	}
}

func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) {
		if now != nil {
			cb.now = now
		}
	}
}

func NewCircuitBreaker(opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		services:         map[string]*serviceBreaker{},
		failureThreshold: DefaultFailureThreshold,
		resetTimeout:     DefaultResetTimeout,
		now:              time.Now,
		logger:           defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cb)
		}
	}
	return cb
}

// IsOpen reports whether verification for the named service should be
// skipped. The open to half-open transition happens here, lazily, once the
// reset timeout has elapsed since the last recorded failure.
func (cb *CircuitBreaker) IsOpen(service string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	sb, ok := cb.services[service]
	if !ok {
		return false
	}

	if sb.state == breakerOpen && cb.now().Sub(sb.lastFailure) > cb.resetTimeout {
		sb.state = breakerHalfOpen
		cb.logger.Info("circuit breaker half-open", "service", service)
		return false
	}

	return sb.state == breakerOpen
}

// RecordFailure increments the failure count for the service and trips the
// breaker open at the threshold. It also increments while half-open, so a
// single failed trial re-opens immediately.
func (cb *CircuitBreaker) RecordFailure(service string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	sb := cb.service(service)
	sb.failures++
	sb.lastFailure = cb.now()

	if sb.failures >= cb.failureThreshold {
		if sb.state != breakerOpen {
			cb.logger.Warn("circuit breaker opened", "service", service, "failures", sb.failures)
		}
		sb.state = breakerOpen
	}
}

// RecordSuccess resets the service to closed with a zero failure count.
func (cb *CircuitBreaker) RecordSuccess(service string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	sb := cb.service(service)
	if sb.state != breakerClosed {
		cb.logger.Info("circuit breaker closed", "service", service)
	}
	sb.failures = 0
	sb.state = breakerClosed
}

// Failures reports the current consecutive failure count for a service.
func (cb *CircuitBreaker) Failures(service string) int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if sb, ok := cb.services[service]; ok {
		return sb.failures
	}
	return 0
}

// State reports the current state label for a service, mainly for logs.
func (cb *CircuitBreaker) State(service string) string {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if sb, ok := cb.services[service]; ok {
		return sb.state.String()
	}
	return breakerClosed.String()
}

func (cb *CircuitBreaker) service(name string) *serviceBreaker {
	sb, ok := cb.services[name]
	if !ok {
		sb = &serviceBreaker{}
		cb.services[name] = sb
	}
	return sb
}
