// Package apartment models the single-thread-affinity boundary a lock
// caller may be running under — the Go analog of a UI-thread or COM
// apartment-threaded object that cannot block synchronously without
// risking a deadlock against the very thread it needs to resume on.
//
// The lock core itself never blocks an OS thread: every suspension point
// is a channel select. AffinityHook exists so a caller embedding arwlock
// in an apartment-constrained environment (a single-threaded UI event
// loop, a pinned worker) can reject synchronous blocking calls from that
// thread and instead require the async path, the same way spec.md's
// canHoldLockOnThisThread/marshalToPool hooks let the original design
// refuse inline continuation on a thread that cannot safely wait.
package apartment

import "github.com/google/uuid"

// AffinityHook lets a LockCore consult caller-supplied policy before
// allowing a synchronous (blocking) acquire. LockCore consults only
// CanHoldLockOnThisTask, from its *Blocking methods; it never calls
// MarshalToPool, so release callbacks and admission wake-ups run on
// whichever goroutine triggers them.
type AffinityHook interface {
	// CanHoldLockOnThisTask reports whether the current goroutine/thread
	// is allowed to block waiting for the lock identified by taskID. A
	// hook backing a single-threaded UI loop returns false for its own
	// thread to force callers onto the async API.
	CanHoldLockOnThisTask(taskID uuid.UUID) bool

	// MarshalToPool reports whether a release continuation is allowed to
	// run inline on the releasing goroutine, or must be dispatched to a
	// separate pool instead. Returning true means the hook has taken fn
	// over and the caller must not invoke it directly.
	MarshalToPool(fn func()) bool
}

// unconstrained is the default AffinityHook: every task may block, and
// every continuation may run inline. This is correct for ordinary
// goroutines, which have no single-thread affinity to protect.
type unconstrained struct{}

// CanHoldLockOnThisTask always returns true.
func (unconstrained) CanHoldLockOnThisTask(uuid.UUID) bool { return true }

// MarshalToPool always returns false, permitting inline continuation.
func (unconstrained) MarshalToPool(func()) bool { return false }

// Unconstrained is the zero-policy AffinityHook used when the caller has
// no single-thread affinity to protect.
var Unconstrained AffinityHook = unconstrained{}

// PinnedOSThread is an AffinityHook for callers that have pinned a
// goroutine to an OS thread (runtime.LockOSThread) and must never block
// that thread inside the lock core — for example a thread servicing a
// foreign callback API. Every synchronous acquire from the pinned task is
// refused; continuations are always marshaled to the supplied pool rather
// than run inline on whatever goroutine triggered release.
type PinnedOSThread struct {
	PinnedTaskID uuid.UUID
	Pool         func(fn func())
}

// CanHoldLockOnThisTask refuses synchronous blocking for the pinned task
// and allows it for every other task.
func (p PinnedOSThread) CanHoldLockOnThisTask(taskID uuid.UUID) bool {
	return taskID != p.PinnedTaskID
}

// MarshalToPool always requests marshaling, dispatching fn to Pool.
func (p PinnedOSThread) MarshalToPool(fn func()) bool {
	if p.Pool != nil {
		p.Pool(fn)
	}
	return true
}
