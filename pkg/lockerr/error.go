// Package lockerr defines the error taxonomy for the arwlock subsystem.
//
// spec.md lists the taxonomy "not type names" — Canceled, LockCompleted,
// InvalidOperation, Aggregate. This package turns each into a concrete,
// errors.Is/errors.As-matchable Go error, wrapped with the same structured
// context (code, category, operation, component, cause, captured stack)
// that the rest of this codebase's sibling error package uses for its own
// domain errors.
package lockerr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Category classifies a LockError by the handling strategy a caller should
// apply.
type Category int

const (
	// CategoryConcurrency covers conflicts inherent to the locking protocol:
	// cancellation, shutdown-in-progress, and similar expected conditions
	// that a well-behaved caller checks for with errors.Is.
	CategoryConcurrency Category = iota

	// CategoryUsage covers programmer errors: calling a method in a state
	// the API contract forbids (e.g. registering a release callback without
	// holding a write lock).
	CategoryUsage

	// CategoryInternal covers invariant violations that should never occur
	// in correct code and indicate a bug in the lock core itself.
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryConcurrency:
		return "concurrency"
	case CategoryUsage:
		return "usage"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Sentinel errors. Callers match these with errors.Is; LockError.Unwrap
// exposes them so a wrapped *LockError still satisfies errors.Is(err, ErrX).
var (
	// ErrCanceled is returned when a pending request's context is canceled
	// before admission, or is already canceled at request time.
	ErrCanceled = errors.New("arwlock: request canceled")

	// ErrLockCompleted is returned when a top-level request arrives after
	// Complete has been called.
	ErrLockCompleted = errors.New("arwlock: lock is completing, no new top-level requests accepted")

	// ErrInvalidOperation covers contract violations: a sync call from an
	// affinity-constrained task, registering a callback without holding a
	// write lock, a request that cannot nest under what the task already
	// holds, and similar caller mistakes.
	ErrInvalidOperation = errors.New("arwlock: invalid operation")
)

// LockError is the concrete error type this package returns. It is always
// reachable via errors.As, and Unwrap makes it reachable via errors.Is for
// whichever sentinel it wraps.
type LockError struct {
	Code      string
	Category  Category
	Message   string
	Operation string
	Component string
	Cause     error
	Stack     []uintptr
}

// New creates a LockError wrapping one of the sentinels above (or any other
// cause) with operation/component context.
func New(cause error, code, operation, component string) *LockError {
	return &LockError{
		Code:      code,
		Category:  categoryFor(cause),
		Message:   cause.Error(),
		Operation: operation,
		Component: component,
		Cause:     cause,
		Stack:     captureStack(),
	}
}

func categoryFor(cause error) Category {
	switch {
	case errors.Is(cause, ErrInvalidOperation):
		return CategoryUsage
	case errors.Is(cause, ErrCanceled), errors.Is(cause, ErrLockCompleted):
		return CategoryConcurrency
	default:
		return CategoryInternal
	}
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the error interface.
func (e *LockError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}
	if e.Cause != nil && e.Cause.Error() != e.Message {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}
	return b.String()
}

// Unwrap enables errors.Is(err, ErrCanceled) and friends to see through a
// *LockError to the sentinel it was built from.
func (e *LockError) Unwrap() error {
	return e.Cause
}

// FormatStack renders the captured call stack for debugging/logging.
func (e *LockError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "  %s\n    %s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// AggregateError collects one or more callback failures from a single
// write-lock release drain (spec.md §4.6/§7). It implements Unwrap() []error,
// the multi-error shape errors.Join also produces, so errors.Is/errors.As
// still reach through to individual member errors, while Error() renders a
// release-specific summary.
type AggregateError struct {
	Errors []error
}

// NewAggregateError returns nil if errs is empty, so call sites can always
// write `if agg := NewAggregateError(errs); agg != nil { ... }` without a
// separate length check.
func NewAggregateError(errs []error) *AggregateError {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: append([]error(nil), errs...)}
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("arwlock: 1 release callback failed: %v", e.Errors[0])
	}
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("arwlock: %d release callbacks failed: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap supports the multi-error form of errors.Is/errors.As (Go 1.20+).
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}
