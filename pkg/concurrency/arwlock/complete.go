package arwlock

import (
	"context"

	"arwl/pkg/concurrency/ambient"
	"arwl/pkg/lockerr"
)

// OnBeforeWriteLockReleased registers fn to run immediately before the
// write lock task currently holds is released. fn runs with the core
// mutex not held; multiple registrations run in the order they were
// added. It returns ErrInvalidOperation if task does not currently hold
// the write lock.
func (c *LockCore) OnBeforeWriteLockReleased(task *ambient.Task, fn func(context.Context) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeWriter == nil || c.activeWriter.task != task {
		return lockerr.New(lockerr.ErrInvalidOperation, "ErrInvalidOperation", "OnBeforeWriteLockReleased", "LockCore")
	}
	c.callbacks = append(c.callbacks, CallbackEntry{fn: fn})
	return nil
}

// HideLocks enters a scope in which task's held locks are invisible to the
// nested-admission check, so a diagnostic or test call issued from inside
// the scope queues like a fresh top-level request instead of riding on an
// ambient hold. Release the returned Suppression to leave the scope.
func (c *LockCore) HideLocks(task *ambient.Task) *ambient.Suppression {
	return task.HideLocks()
}

// LockStackContains reports whether task's ambient lock stack holds an
// Awaiter issued by this core matching the given filters. Passing
// FlagNone for flags matches any Awaiter regardless of its flags; passing
// from restricts the search to that specific Awaiter.
func (c *LockCore) LockStackContains(task *ambient.Task, flags LockFlags, from *Awaiter) bool {
	return task.Contains(func(e ambient.Entry) bool {
		aw, ok := e.Token.(*Awaiter)
		if !ok || aw.core != c {
			return false
		}
		if from != nil && aw != from {
			return false
		}
		if flags != FlagNone && aw.flags&flags == 0 {
			return false
		}
		return true
	})
}

// IsReadLockHeld reports whether task currently holds a read lock issued
// by this core, respecting HideLocks suppression.
func (c *LockCore) IsReadLockHeld(task *ambient.Task) bool {
	return c.holdsKind(task, KindRead)
}

// IsUpgradeableReadLockHeld reports whether task currently holds an
// upgradeable-read lock issued by this core, respecting HideLocks
// suppression. It reports true whether or not the hold has been escalated
// to a write.
func (c *LockCore) IsUpgradeableReadLockHeld(task *ambient.Task) bool {
	return c.holdsKind(task, KindUpgradeableRead)
}

// IsWriteLockHeld reports whether task currently holds write access issued
// by this core, respecting HideLocks suppression — either a plain write
// lock, a nested write view, or an upgradeable-read escalated in place.
func (c *LockCore) IsWriteLockHeld(task *ambient.Task) bool {
	if task.IsSuppressed() {
		return false
	}
	return task.Contains(func(e ambient.Entry) bool {
		aw, ok := e.Token.(*Awaiter)
		if !ok || aw.core != c {
			return false
		}
		return aw.kind == KindWrite || (aw.kind == KindUpgradeableRead && aw.escalated)
	})
}

// holdsKind reports whether task holds an Awaiter of exactly kind issued
// by this core, respecting HideLocks suppression.
func (c *LockCore) holdsKind(task *ambient.Task, kind LockKind) bool {
	if task.IsSuppressed() {
		return false
	}
	return task.Contains(func(e ambient.Entry) bool {
		aw, ok := e.Token.(*Awaiter)
		return ok && aw.core == c && aw.kind == kind
	})
}

// Complete begins graceful shutdown: every previously queued or currently
// held request is still honored, but any brand new top-level request
// (one not admitted via the nested-admission bypass) is rejected with
// ErrLockCompleted. Completion fires once the core has drained to idle.
func (c *LockCore) Complete() {
	c.mu.Lock()
	if c.completing {
		c.mu.Unlock()
		return
	}
	c.completing = true
	idle := c.idleLocked()
	c.mu.Unlock()

	c.emit(EventCompleting, 0, 0)
	if idle {
		c.finishCompletion(nil)
	}
}

func (c *LockCore) finishCompletion(err error) {
	c.mu.Lock()
	if c.completed {
		c.mu.Unlock()
		return
	}
	c.completed = true
	if err != nil {
		c.completionErrs = append(c.completionErrs, err)
	}
	if agg := lockerr.NewAggregateError(c.completionErrs); agg != nil {
		c.completionErr = agg
	}
	c.completionErrs = nil
	c.mu.Unlock()

	c.completionLatch.Set()
	c.cfg.metrics.IncCompleted()
	c.emit(EventCompleted, 0, 0)
}

// Completion returns a channel that closes once the core has completed:
// Complete was called and every in-flight and previously queued request
// has since been released.
func (c *LockCore) Completion() <-chan struct{} {
	return c.completionLatch.Done()
}

// CompletionErr returns the error completion finished with, if any. It is
// nil unless one or more release-callback drains failed at any point
// before the core drained to idle after Complete, including failures from
// before Complete was called — every such
// failure is folded in here as a *lockerr.AggregateError, whether or not
// the Release() call that produced it was itself observed by its caller,
// so an unobserved callback error is never silently lost.
func (c *LockCore) CompletionErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completionErr
}

// IsCompleting reports whether Complete has been called.
func (c *LockCore) IsCompleting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completing
}
