package summarizer

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default retry policy values
const (
	DefaultMaxAttempts      = 3
	DefaultRetryDelay       = 5 * time.Second
	DefaultColdStartMaxWait = 60 * time.Second
)

// RetryPolicy bounds the work spent on each backend.
type RetryPolicy struct {
	// MaxAttempts is the number of counted attempts per backend
	MaxAttempts int
	// RetryDelay is the pause after a failed attempt when another one follows
	RetryDelay time.Duration
	// ColdStartMaxWait caps the wait requested by a loading model
	ColdStartMaxWait time.Duration
}

// DefaultRetryPolicy returns 3 attempts, 5s apart, cold starts capped at 60s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      DefaultMaxAttempts,
		RetryDelay:       DefaultRetryDelay,
		ColdStartMaxWait: DefaultColdStartMaxWait,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.RetryDelay < 0 {
		p.RetryDelay = 0
	}
	if p.ColdStartMaxWait <= 0 {
		p.ColdStartMaxWait = DefaultColdStartMaxWait
	}
	return p
}

// StateKind enumerates the retry machine states.
type StateKind int

const (
	// StateAttempting means a counted call to Backend is due
	StateAttempting StateKind = iota
	// StateColdStartWait means the extra call after a cold start is due
	StateColdStartWait
	// StateExhaustedBackend means Backend used up its attempts
	StateExhaustedBackend
	// StateDegraded means no backend produced an answer
	StateDegraded
	// StateSucceeded means a backend produced an acceptable answer
	StateSucceeded
)

func (k StateKind) String() string {
	switch k {
	case StateAttempting:
		return "attempting"
	case StateColdStartWait:
		return "cold_start_wait"
	case StateExhaustedBackend:
		return "exhausted_backend"
	case StateDegraded:
		return "degraded"
	case StateSucceeded:
		return "succeeded"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// State is the machine position. Backend indexes the chain and Attempt is 1-based.
type State struct {
	Kind    StateKind
	Backend int
	Attempt int
}

func (s State) String() string {
	switch s.Kind {
	case StateAttempting, StateColdStartWait:
		return fmt.Sprintf("%s(backend=%d, attempt=%d)", s.Kind, s.Backend, s.Attempt)
	case StateExhaustedBackend:
		return fmt.Sprintf("%s(backend=%d)", s.Kind, s.Backend)
	default:
		return s.Kind.String()
	}
}

// OutcomeKind classifies the result of one call.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeColdStart
)

// Outcome is fed to the machine after each call. Wait is the backend's
// cold start estimate.
type Outcome struct {
	Kind OutcomeKind
	Wait time.Duration
}

// Success is the outcome of a call whose answer passed the quality gate.
func Success() Outcome { return Outcome{Kind: OutcomeSuccess} }

// Failure is the outcome of any other failed or rejected call.
func Failure() Outcome { return Outcome{Kind: OutcomeFailure} }

// ColdStart is the outcome of a call answered with "model loading".
func ColdStart(wait time.Duration) Outcome { return Outcome{Kind: OutcomeColdStart, Wait: wait} }

// RetryMachine decides what happens after each call across a chain of
// backends. It performs no I/O; the caller sleeps for the returned delays
// and makes the calls.
type RetryMachine struct {
	policy   RetryPolicy
	backends int
	state    State
	delays   backoff.BackOff
}

// NewRetryMachine starts at the first attempt of the first backend, or in
// StateDegraded when the chain is empty.
func NewRetryMachine(policy RetryPolicy, backends int) *RetryMachine {
	policy = policy.normalized()
	m := &RetryMachine{
		policy:   policy,
		backends: backends,
		delays: backoff.WithMaxRetries(
			backoff.NewConstantBackOff(policy.RetryDelay),
			uint64(policy.MaxAttempts-1),
		),
	}
	if backends <= 0 {
		m.state = State{Kind: StateDegraded}
		return m
	}
	m.state = State{Kind: StateAttempting, Backend: 0, Attempt: 1}
	m.delays.Reset()
	return m
}

// State returns the current state.
func (m *RetryMachine) State() State {
	return m.state
}

// Done reports whether the machine reached a terminal state.
func (m *RetryMachine) Done() bool {
	return m.state.Kind == StateSucceeded || m.state.Kind == StateDegraded
}

// Next applies the outcome of the call made in the current state and
// returns the new state and how long to wait before acting on it.
func (m *RetryMachine) Next(o Outcome) (State, time.Duration) {
	switch m.state.Kind {
	case StateAttempting:
		switch o.Kind {
		case OutcomeSuccess:
			m.state.Kind = StateSucceeded
			return m.state, 0
		case OutcomeColdStart:
			m.state.Kind = StateColdStartWait
			return m.state, m.coldStartWait(o.Wait)
		default:
			return m.failAttempt()
		}
	case StateColdStartWait:
		if o.Kind == OutcomeSuccess {
			m.state.Kind = StateSucceeded
			return m.state, 0
		}
		// A second cold start within one attempt is a plain failure.
		return m.failAttempt()
	default:
		return m.state, 0
	}
}

// Advance moves from StateExhaustedBackend to the next backend, or to
// StateDegraded after the last one.
func (m *RetryMachine) Advance() State {
	if m.state.Kind != StateExhaustedBackend {
		return m.state
	}
	next := m.state.Backend + 1
	if next >= m.backends {
		m.state = State{Kind: StateDegraded}
		return m.state
	}
	m.delays.Reset()
	m.state = State{Kind: StateAttempting, Backend: next, Attempt: 1}
	return m.state
}

// Abort stops the machine without success, e.g. on context cancellation.
func (m *RetryMachine) Abort() State {
	if m.state.Kind != StateSucceeded {
		m.state = State{Kind: StateDegraded}
	}
	return m.state
}

func (m *RetryMachine) failAttempt() (State, time.Duration) {
	delay := m.delays.NextBackOff()
	if delay == backoff.Stop {
		m.state = State{Kind: StateExhaustedBackend, Backend: m.state.Backend, Attempt: m.state.Attempt}
		return m.state, 0
	}
	m.state = State{Kind: StateAttempting, Backend: m.state.Backend, Attempt: m.state.Attempt + 1}
	return m.state, delay
}

func (m *RetryMachine) coldStartWait(estimate time.Duration) time.Duration {
	if estimate <= 0 {
		estimate = DefaultColdStartEstimate
	}
	if estimate > m.policy.ColdStartMaxWait {
		return m.policy.ColdStartMaxWait
	}
	return estimate
}

// DefaultColdStartEstimate is used when a cold start carries no estimate.
const DefaultColdStartEstimate = 30 * time.Second
