// Package confirm gates destructive actions behind an explicit confirmation step.
//
// A Flow moves IDLE -> CHECKING -> CONFIRM_PENDING -> SUBMITTING and back to IDLE on success.
// On failure it returns to IDLE, or to CONFIRM_PENDING when built with StayOpenOnFailure.
// The CHECKING state only exists when a precondition check is configured.
package confirm

import (
	"context"
	"errors"
	"sync"
)

// State of a confirmation flow
type State int

const (
	Idle State = iota
	Checking
	Pending
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Checking:
		return "CHECKING"
	case Pending:
		return "CONFIRM_PENDING"
	case Submitting:
		return "SUBMITTING"
	}
	return "UNKNOWN"
}

var (
	// ErrBusy is returned for any transition requested while a check or submit is in flight
	ErrBusy = errors.New("confirmation is in progress")
	// ErrNotPending is returned by Confirm when nothing awaits confirmation
	ErrNotPending = errors.New("nothing to confirm")
	// ErrCancelled is returned by Open when Cancel was called during the precondition check
	ErrCancelled = errors.New("confirmation cancelled")
)

// Check inspects the target before confirmation and may return a warning to display.
// A warning never blocks the action; an error aborts the flow.
type Check[T any] func(ctx context.Context, target T) (warning string, err error)

// Action performs the confirmed operation
type Action[T any] func(ctx context.Context, target T) error

// Flow is a confirmation state machine for targets of type T. It is safe for concurrent use.
type Flow[T any] struct {
	mu       sync.Mutex
	state    State
	target   T
	hasTgt   bool
	warning  string
	lastErr  error
	check    Check[T]
	action   Action[T]
	stayOpen bool
	gen      uint64
}

// Option configures a Flow
type Option[T any] func(*Flow[T])

// WithCheck runs check when the flow is opened
func WithCheck[T any](check Check[T]) Option[T] {
	return func(f *Flow[T]) { f.check = check }
}

// StayOpenOnFailure keeps the confirmation pending after a failed action so the user can retry
func StayOpenOnFailure[T any]() Option[T] {
	return func(f *Flow[T]) { f.stayOpen = true }
}

// New creates an idle flow running action on confirmation
func New[T any](action Action[T], opts ...Option[T]) *Flow[T] {
	f := &Flow[T]{action: action}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open starts a confirmation for target, running the precondition check if any.
// Opening while pending replaces the target.
func (f *Flow[T]) Open(ctx context.Context, target T) error {
	f.mu.Lock()
	if f.state == Checking || f.state == Submitting {
		f.mu.Unlock()
		return ErrBusy
	}
	f.target, f.hasTgt = target, true
	f.warning, f.lastErr = "", nil
	f.gen++
	gen := f.gen

	if f.check == nil {
		f.state = Pending
		f.mu.Unlock()
		return nil
	}
	f.state = Checking
	f.mu.Unlock()

	warning, err := f.check(ctx, target)
	if err == nil {
		err = ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Checking || f.gen != gen {
		return ErrCancelled
	}
	if err != nil {
		f.reset()
		f.lastErr = err
		return err
	}
	f.state = Pending
	f.warning = warning
	return nil
}

// Confirm runs the action for the pending target. It returns the action's error.
func (f *Flow[T]) Confirm(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case Checking, Submitting:
		f.mu.Unlock()
		return ErrBusy
	case Idle:
		f.mu.Unlock()
		return ErrNotPending
	}
	f.state = Submitting
	target := f.target
	f.mu.Unlock()

	err := f.action(ctx, target)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		f.reset()
		return nil
	}
	f.lastErr = err
	if f.stayOpen {
		f.state = Pending
	} else {
		f.reset()
	}
	return err
}

// Cancel closes a pending confirmation without side effects. A running check is abandoned.
func (f *Flow[T]) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return ErrBusy
	}
	f.reset()
	f.lastErr = nil
	f.gen++
	return nil
}

func (f *Flow[T]) reset() {
	var zero T
	f.state = Idle
	f.target, f.hasTgt = zero, false
	f.warning = ""
}

// State returns the current state
func (f *Flow[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Target returns the target awaiting confirmation
func (f *Flow[T]) Target() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target, f.hasTgt
}

// Warning returns the precondition warning of the pending target, if any
func (f *Flow[T]) Warning() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.warning
}

// Err returns the error of the last failed check or action
func (f *Flow[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}
