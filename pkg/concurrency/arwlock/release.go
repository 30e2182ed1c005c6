package arwlock

import (
	"context"
	"sync"

	"arwl/pkg/lockerr"
)

// Releaser is returned by every successful acquire. Release is idempotent:
// a second call is a no-op returning nil, so callers may defer it
// unconditionally even after an explicit early release.
type Releaser struct {
	awaiter *Awaiter
	once    sync.Once
	err     error
}

// Release drops the lock this Releaser guards. For a write lock it first
// runs every callback registered with OnBeforeWriteLockReleased, in
// registration order, with the core mutex not held, before the holder set
// is updated and queued waiters are considered for admission. If one or
// more callbacks fail, Release returns a *lockerr.AggregateError collecting
// every failure; the lock is still released regardless.
func (r *Releaser) Release() error {
	r.once.Do(func() {
		r.err = r.awaiter.core.release(r.awaiter)
	})
	return r.err
}

// Awaiter exposes the underlying Awaiter this Releaser guards, useful for
// logging and for passing to LockStackContains.
func (r *Releaser) Awaiter() *Awaiter {
	return r.awaiter
}

func (c *LockCore) release(aw *Awaiter) error {
	// A nested write view never owns core state itself. If its real
	// holder is a plain write, the view's release is a pure stack pop —
	// the holder's own eventual release is what ends write access. If
	// its holder is an escalated UpgradeableRead, the view's release may
	// be the one that ends write access, when it is the last outstanding
	// view and the ancestor was not escalated with StickyWrite.
	if aw.kind == KindWrite && aw.stickyHolder != nil {
		if aw.stickyHolder.kind == KindWrite {
			aw.task.Pop(aw)
			return nil
		}
		return c.releaseEscalationView(aw, aw.stickyHolder)
	}

	releasesWrite := aw.kind == KindWrite || (aw.kind == KindUpgradeableRead && aw.escalated)

	cbErr := c.runReleaseCallbacksIfWrite(releasesWrite)

	c.mu.Lock()
	if cbErr != nil {
		c.completionErrs = append(c.completionErrs, cbErr)
	}
	aw.task.Pop(aw)

	switch aw.kind {
	case KindRead:
		delete(c.activeReaders, aw)
		c.cfg.metrics.SetHolders(KindRead, len(c.activeReaders))
	case KindUpgradeableRead:
		if c.activeUpgrade == aw {
			c.activeUpgrade = nil
			c.cfg.metrics.SetHolders(KindUpgradeableRead, 0)
		}
		if releasesWrite && c.activeWriter == aw {
			c.activeWriter = nil
			c.cfg.metrics.SetHolders(KindWrite, 0)
		}
	case KindWrite:
		if c.activeWriter == aw {
			c.activeWriter = nil
			c.cfg.metrics.SetHolders(KindWrite, 0)
		}
	}

	c.drainLocked()
	c.emit(EventReleased, aw.kind, c.queueDepthLocked())
	shouldFinishCompletion := c.completing && !c.completed && c.idleLocked()
	c.mu.Unlock()

	if shouldFinishCompletion {
		c.finishCompletion(nil)
	}

	return cbErr
}

// releaseEscalationView releases a nested write view taken out against an
// escalated UpgradeableRead ancestor. It only ends the ancestor's write
// access — running release callbacks and clearing activeWriter — once
// this is the last outstanding view and the ancestor was not escalated
// with StickyWrite; a sticky ancestor's write access persists until the
// ancestor's own Release.
func (c *LockCore) releaseEscalationView(view, ancestor *Awaiter) error {
	view.task.Pop(view)

	ancestor.views.Signal()

	c.mu.Lock()
	deEscalateNow := ancestor.views.Remaining() == 0 && ancestor.flags&StickyWrite == 0
	if !deEscalateNow {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	cbErr := c.runReleaseCallbacksIfWrite(true)

	c.mu.Lock()
	if cbErr != nil {
		c.completionErrs = append(c.completionErrs, cbErr)
	}
	ancestor.escalated = false
	if c.activeWriter == ancestor {
		c.activeWriter = nil
		c.cfg.metrics.SetHolders(KindWrite, 0)
	}
	c.drainLocked()
	c.emit(EventReleased, KindWrite, c.queueDepthLocked())
	shouldFinishCompletion := c.completing && !c.completed && c.idleLocked()
	c.mu.Unlock()

	if shouldFinishCompletion {
		c.finishCompletion(nil)
	}

	return cbErr
}

func (c *LockCore) runReleaseCallbacksIfWrite(releasesWrite bool) error {
	if !releasesWrite {
		return nil
	}

	c.mu.Lock()
	hasCallbacks := len(c.callbacks) > 0
	c.mu.Unlock()
	if !hasCallbacks {
		return nil
	}
	drainStart := c.cfg.clock()
	defer func() {
		c.cfg.metrics.ObserveCallbackDrain(c.cfg.clock().Sub(drainStart))
	}()

	var errs []error
	// A callback may itself call OnBeforeWriteLockReleased, appending to
	// c.callbacks while this loop runs. Re-reading the slice length each
	// iteration (rather than snapshotting it up front) folds those
	// late entries into this same drain pass instead of deferring them
	// to the next writer's release.
	for i := 0; ; i++ {
		c.mu.Lock()
		if i >= len(c.callbacks) {
			c.callbacks = nil
			c.mu.Unlock()
			break
		}
		cb := c.callbacks[i]
		c.mu.Unlock()

		if err := cb.fn(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}

	if agg := lockerr.NewAggregateError(errs); agg != nil {
		return agg
	}
	return nil
}
