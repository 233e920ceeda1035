// Package circuit provides a simple counting circuit breaker. There is no
// half-open timer; callers decide when to probe the primary again by
// recording successes (for example from a background health check).
package circuit

import "sync"

// State is the breaker's position.
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// Change reports a state transition caused by a recorded outcome.
type Change struct {
	Opened bool
	Closed bool
}

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 1
)

// Breaker trips open after consecutive failures and closes again after
// consecutive successes. Opposite outcomes reset each other's count.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int

	mu        sync.Mutex
	state     State
	failures  int
	successes int
}

type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) { b.failureThreshold = n }
}

// WithSuccessThreshold sets how many consecutive successes close an open
// breaker.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) { b.successThreshold = n }
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// RecordFailure notes a failed call. It reports whether the caller should
// use the fallback path, and whether this failure opened the breaker.
func (b *Breaker) RecordFailure() (useFallback bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes = 0
	if b.state == StateOpen {
		return true, Change{}
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.failures = 0
		return true, Change{Opened: true}
	}
	return false, Change{}
}

// RecordSuccess notes a successful call. It reports whether the caller
// should use the primary path, and whether this success closed the breaker.
func (b *Breaker) RecordSuccess() (usePrimary bool, change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == StateClosed {
		return true, Change{}
	}

	b.successes++
	if b.successes >= b.successThreshold {
		b.state = StateClosed
		b.successes = 0
		return true, Change{Closed: true}
	}
	return false, Change{}
}

// Reset forces the breaker closed and clears both counts.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
