package arwlock

import (
	"context"
	"sync"

	"arwl/pkg/concurrency/ambient"
	"arwl/pkg/concurrency/signal"
	"arwl/pkg/lockerr"
)

// LockCore is the admission engine: one private mutex, one FIFO per
// request kind, and a holder set per kind. Every method either completes
// synchronously under the mutex or suspends the caller on a channel
// receive — it never blocks while the mutex is held, so a release can
// always make forward progress regardless of what a waiting caller's
// goroutine is doing.
type LockCore struct {
	mu  sync.Mutex
	cfg *config

	nextSeq uint64

	activeReaders map[*Awaiter]struct{}
	activeUpgrade *Awaiter
	activeWriter  *Awaiter

	waitReaders []*Awaiter
	waitUpgrade []*Awaiter
	waitWriters []*Awaiter

	callbacks []CallbackEntry

	completing      bool
	completed       bool
	completionLatch *signal.Latch
	completionErr   error

	// completionErrs accumulates every release-callback drain failure seen
	// since construction, regardless of whether the release call that
	// produced it was itself observed — finishCompletion folds these into
	// completionErr when the core reaches idle, so an unobserved error
	// returned by Releaser.Release is never silently lost.
	completionErrs []error
}

// NewLockCore constructs an idle LockCore.
func NewLockCore(opts ...Option) *LockCore {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &LockCore{
		cfg:             cfg,
		activeReaders:   make(map[*Awaiter]struct{}),
		completionLatch: signal.New(),
	}
}

// ReadLock requests a shared lock, suspending the caller until it is
// admitted, ctx is done, or the core completes before admission.
func (c *LockCore) ReadLock(ctx context.Context, task *ambient.Task) (*Releaser, error) {
	return c.acquire(ctx, task, KindRead, FlagNone)
}

// UpgradeableReadLock requests a shared lock with the right to later call
// WriteLock, from the same task, without releasing first. Only one
// UpgradeableRead may be held at a time.
func (c *LockCore) UpgradeableReadLock(ctx context.Context, task *ambient.Task, flags LockFlags) (*Releaser, error) {
	return c.acquire(ctx, task, KindUpgradeableRead, flags)
}

// WriteLock requests an exclusive lock. If task already holds a write
// lock, or holds an UpgradeableRead that has already been escalated by an
// earlier nested WriteLock call, this call is a pure nested view: it is
// admitted immediately and its Release only pops the ambient stack and
// decrements the holder's escalation depth, leaving the real holder's
// write status untouched until the last outstanding view releases (or,
// for a StickyWrite holder, until the holder itself releases). If task
// holds an UpgradeableRead that has not yet been escalated, this call
// performs the escalation, waiting for any other active readers to drain
// first. An escalation is admitted ahead of writers that queued after the
// UpgradeableRead. A plain UpgradeableRead de-escalates back to read-only
// access as soon as its last nested write view releases; a StickyWrite one
// stays escalated until it is itself released.
func (c *LockCore) WriteLock(ctx context.Context, task *ambient.Task) (*Releaser, error) {
	return c.acquireWrite(ctx, task)
}

// TryReadLock attempts to admit a shared lock without suspending the
// caller, returning ok=false if it cannot be granted immediately.
func (c *LockCore) TryReadLock(task *ambient.Task) (*Releaser, bool) {
	return c.tryAcquire(task, KindRead, FlagNone)
}

// TryUpgradeableReadLock attempts to admit an upgradeable-read lock
// without suspending the caller.
func (c *LockCore) TryUpgradeableReadLock(task *ambient.Task, flags LockFlags) (*Releaser, bool) {
	return c.tryAcquire(task, KindUpgradeableRead, flags)
}

// TryWriteLock attempts to admit a write lock without suspending the
// caller.
func (c *LockCore) TryWriteLock(task *ambient.Task) (*Releaser, bool) {
	return c.tryAcquire(task, KindWrite, FlagNone)
}

// ReadLockBlocking is the synchronous counterpart to ReadLock: it fails
// immediately with ErrInvalidOperation if the configured
// apartment.AffinityHook refuses to let task block on this goroutine,
// rather than risk blocking a thread that must stay free to pump its own
// message loop; otherwise it blocks the calling goroutine until admitted.
func (c *LockCore) ReadLockBlocking(task *ambient.Task) (*Releaser, error) {
	if !c.cfg.affinity.CanHoldLockOnThisTask(task.ID()) {
		return nil, lockerr.New(lockerr.ErrInvalidOperation, "ErrInvalidOperation", "ReadLockBlocking", "LockCore")
	}
	return c.acquire(context.Background(), task, KindRead, FlagNone)
}

// UpgradeableReadLockBlocking is the synchronous counterpart to
// UpgradeableReadLock; see ReadLockBlocking for the affinity check it
// performs before blocking.
func (c *LockCore) UpgradeableReadLockBlocking(task *ambient.Task, flags LockFlags) (*Releaser, error) {
	if !c.cfg.affinity.CanHoldLockOnThisTask(task.ID()) {
		return nil, lockerr.New(lockerr.ErrInvalidOperation, "ErrInvalidOperation", "UpgradeableReadLockBlocking", "LockCore")
	}
	return c.acquire(context.Background(), task, KindUpgradeableRead, flags)
}

// WriteLockBlocking is the synchronous counterpart to WriteLock; see
// ReadLockBlocking for the affinity check it performs before blocking.
func (c *LockCore) WriteLockBlocking(task *ambient.Task) (*Releaser, error) {
	if !c.cfg.affinity.CanHoldLockOnThisTask(task.ID()) {
		return nil, lockerr.New(lockerr.ErrInvalidOperation, "ErrInvalidOperation", "WriteLockBlocking", "LockCore")
	}
	return c.acquireWrite(context.Background(), task)
}

// acquire handles Read and UpgradeableRead requests. KindWrite is routed
// through acquireWrite instead, since write admission must also account
// for StickyWrite escalation.
func (c *LockCore) acquire(ctx context.Context, task *ambient.Task, kind LockKind, flags LockFlags) (*Releaser, error) {
	if ctx.Err() != nil {
		return nil, lockerr.New(lockerr.ErrCanceled, "ErrCanceled", opName(kind), "LockCore")
	}

	c.mu.Lock()

	if !task.IsSuppressed() {
		if kind == KindUpgradeableRead && c.activeUpgrade != nil && c.activeUpgrade.task == task {
			c.mu.Unlock()
			return nil, lockerr.New(lockerr.ErrInvalidOperation, "ErrInvalidOperation", opName(kind), "LockCore")
		}
		if c.taskAlreadyCovers(task, kind) {
			aw := c.newAwaiterLocked(kind, flags, task, ctx)
			c.commitAdmitLocked(aw)
			c.mu.Unlock()
			return c.wrapReleaser(aw), nil
		}
		// task already holds something on this core, but not something
		// kind can nest under (e.g. a plain Read held while requesting
		// UpgradeableRead) — fail fast rather than fall through to
		// top-level admission, which could wrongly grant a second,
		// unrelated hold, or to top-level queuing, which could block this
		// task forever on its own unreleased hold.
		if kind != KindRead && c.holdsAnythingLocked(task) {
			c.mu.Unlock()
			return nil, lockerr.New(lockerr.ErrInvalidOperation, "ErrInvalidOperation", opName(kind), "LockCore")
		}
	}

	if c.completing {
		c.mu.Unlock()
		return nil, lockerr.New(lockerr.ErrLockCompleted, "ErrLockCompleted", opName(kind), "LockCore")
	}

	if c.tryAdmitLocked(kind) {
		aw := c.newAwaiterLocked(kind, flags, task, ctx)
		c.commitAdmitLocked(aw)
		c.mu.Unlock()
		return c.wrapReleaser(aw), nil
	}

	aw := c.newAwaiterLocked(kind, flags, task, ctx)
	c.enqueueLocked(aw)
	c.mu.Unlock()

	if err := c.wait(ctx, aw); err != nil {
		return nil, err
	}
	return c.wrapReleaser(aw), nil
}

// acquireWrite handles every WriteLock call, including the three shapes a
// write request can take for a task that already holds something on this
// core: a pure reentrant view under an existing write, a pure reentrant
// view under an already-escalated upgrade, or the escalation of a
// not-yet-escalated upgrade.
func (c *LockCore) acquireWrite(ctx context.Context, task *ambient.Task) (*Releaser, error) {
	if ctx.Err() != nil {
		return nil, lockerr.New(lockerr.ErrCanceled, "ErrCanceled", "WriteLock", "LockCore")
	}

	c.mu.Lock()

	if !task.IsSuppressed() {
		if holder := c.findWriteHolderLocked(task); holder != nil {
			if holder.kind == KindUpgradeableRead {
				if holder.views.Remaining() == 0 {
					// A StickyWrite holder stays escalated after its last
					// view released; this view starts a fresh countdown.
					holder.views = signal.NewCountdownEvent(1)
				} else {
					holder.views.AddParticipants(1)
				}
			}
			view := &Awaiter{kind: KindWrite, task: task, core: c, stickyHolder: holder, admitted: closedChan}
			task.Push(view.entry())
			c.emit(EventAdmitted, KindWrite, c.queueDepthLocked())
			c.mu.Unlock()
			return c.wrapReleaser(view), nil
		}

		if ancestor := c.findEscalatableAncestorLocked(task); ancestor != nil {
			return c.escalateLocked(ctx, task, ancestor)
		}
		// task holds something on this core that is neither a write
		// holder nor an escalatable UpgradeableRead ancestor — a plain
		// Read, most likely. Escalating past it would fail fast here
		// only to otherwise fall through to the top-level queue, where
		// this task's own held Read counts against
		// tryAdmitWriteLocked's reader-drained check and blocks this
		// request on itself forever.
		if c.holdsAnythingLocked(task) {
			c.mu.Unlock()
			return nil, lockerr.New(lockerr.ErrInvalidOperation, "ErrInvalidOperation", "WriteLock", "LockCore")
		}
	}

	if c.completing {
		c.mu.Unlock()
		return nil, lockerr.New(lockerr.ErrLockCompleted, "ErrLockCompleted", "WriteLock", "LockCore")
	}

	if c.tryAdmitWriteLocked(nil) {
		aw := c.newAwaiterLocked(KindWrite, FlagNone, task, ctx)
		c.commitAdmitLocked(aw)
		c.mu.Unlock()
		return c.wrapReleaser(aw), nil
	}

	aw := c.newAwaiterLocked(KindWrite, FlagNone, task, ctx)
	c.enqueueLocked(aw)
	c.mu.Unlock()

	if err := c.wait(ctx, aw); err != nil {
		return nil, err
	}
	return c.wrapReleaser(aw), nil
}

// escalateLocked admits the first nested WriteLock call against an
// UpgradeableRead ancestor that has not yet been escalated. It assumes
// c.mu is held and always unlocks it before returning.
func (c *LockCore) escalateLocked(ctx context.Context, task *ambient.Task, ancestor *Awaiter) (*Releaser, error) {
	if c.tryAdmitWriteLocked(ancestor) {
		ancestor.escalated = true
		ancestor.views = signal.NewCountdownEvent(1)
		c.activeWriter = ancestor
		c.emit(EventAdmitted, KindWrite, c.queueDepthLocked())

		view := &Awaiter{kind: KindWrite, task: task, core: c, stickyHolder: ancestor, admitted: closedChan}
		task.Push(view.entry())
		c.mu.Unlock()
		return c.wrapReleaser(view), nil
	}

	// Escalation is blocked by outstanding active readers. If every one
	// of them belongs to this same task (a nested Read it took out under
	// its own UpgradeableRead and never released), queuing would wait on
	// a release this call itself would have to return for first — fail
	// fast instead of self-deadlocking. A foreign reader, by contrast, is
	// exactly the case the nested-writer-vs-unrelated-reader-drain
	// decision (DESIGN.md) says to queue behind and wait out.
	if len(c.activeReaders) > 0 {
		foreignReader := false
		for r := range c.activeReaders {
			if r.task != task {
				foreignReader = true
				break
			}
		}
		if !foreignReader {
			c.mu.Unlock()
			return nil, lockerr.New(lockerr.ErrInvalidOperation, "ErrInvalidOperation", "WriteLock", "LockCore")
		}
	}

	// An escalation rides the ancestor's original arrival order, so it is
	// admitted ahead of any writer that queued after the ancestor's
	// UpgradeableRead request. Such a writer cannot be admitted while the
	// ancestor is held, so queuing the escalation behind it would never
	// make progress.
	pending := &Awaiter{seq: ancestor.seq, kind: KindWrite, task: task, core: c, ctx: ctx, admitted: make(chan struct{}), stickyHolder: ancestor, enqueuedAt: c.cfg.clock()}
	c.waitWriters = insertBySeq(c.waitWriters, pending)
	c.cfg.metrics.SetQueueDepth(KindWrite, len(c.waitWriters))
	c.emit(EventQueued, KindWrite, c.queueDepthLocked())
	c.mu.Unlock()

	if err := c.wait(ctx, pending); err != nil {
		return nil, err
	}
	return c.wrapReleaser(pending), nil
}

func (c *LockCore) tryAcquire(task *ambient.Task, kind LockKind, flags LockFlags) (*Releaser, bool) {
	if kind == KindWrite {
		return c.tryAcquireWrite(task)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !task.IsSuppressed() {
		if kind == KindUpgradeableRead && c.activeUpgrade != nil && c.activeUpgrade.task == task {
			return nil, false
		}
		if c.taskAlreadyCovers(task, kind) {
			aw := c.newAwaiterLocked(kind, flags, task, context.Background())
			c.commitAdmitLocked(aw)
			return c.wrapReleaser(aw), true
		}
		if kind != KindRead && c.holdsAnythingLocked(task) {
			return nil, false
		}
	}

	if c.completing || !c.tryAdmitLocked(kind) {
		return nil, false
	}

	aw := c.newAwaiterLocked(kind, flags, task, context.Background())
	c.commitAdmitLocked(aw)
	return c.wrapReleaser(aw), true
}

func (c *LockCore) tryAcquireWrite(task *ambient.Task) (*Releaser, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !task.IsSuppressed() {
		if holder := c.findWriteHolderLocked(task); holder != nil {
			if holder.kind == KindUpgradeableRead {
				if holder.views.Remaining() == 0 {
					holder.views = signal.NewCountdownEvent(1)
				} else {
					holder.views.AddParticipants(1)
				}
			}
			view := &Awaiter{kind: KindWrite, task: task, core: c, stickyHolder: holder, admitted: closedChan}
			task.Push(view.entry())
			c.emit(EventAdmitted, KindWrite, c.queueDepthLocked())
			return c.wrapReleaser(view), true
		}

		if ancestor := c.findEscalatableAncestorLocked(task); ancestor != nil && c.tryAdmitWriteLocked(ancestor) {
			ancestor.escalated = true
			ancestor.views = signal.NewCountdownEvent(1)
			c.activeWriter = ancestor
			c.emit(EventAdmitted, KindWrite, c.queueDepthLocked())

			view := &Awaiter{kind: KindWrite, task: task, core: c, stickyHolder: ancestor, admitted: closedChan}
			task.Push(view.entry())
			return c.wrapReleaser(view), true
		}
		if c.holdsAnythingLocked(task) {
			return nil, false
		}
	}

	if c.completing || !c.tryAdmitWriteLocked(nil) {
		return nil, false
	}

	aw := c.newAwaiterLocked(KindWrite, FlagNone, task, context.Background())
	c.commitAdmitLocked(aw)
	return c.wrapReleaser(aw), true
}

// wait suspends the caller until aw is admitted or ctx is done. It assumes
// aw has already been enqueued and the mutex released by the caller.
func (c *LockCore) wait(ctx context.Context, aw *Awaiter) error {
	select {
	case <-aw.admitted:
		if aw.err != nil {
			return aw.err
		}
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		select {
		case <-aw.admitted:
			c.mu.Unlock()
			if aw.err != nil {
				return aw.err
			}
			return nil
		default:
			c.dequeueLocked(aw)
			c.cfg.metrics.IncCanceled(aw.kind)
			depth := c.queueDepthLocked()
			c.mu.Unlock()
			c.emit(EventCanceled, aw.kind, depth)
			return lockerr.New(lockerr.ErrCanceled, "ErrCanceled", opName(aw.kind), "LockCore")
		}
	}
}

func (c *LockCore) newAwaiterLocked(kind LockKind, flags LockFlags, task *ambient.Task, ctx context.Context) *Awaiter {
	aw := &Awaiter{seq: c.nextSeq, kind: kind, flags: flags, task: task, core: c, ctx: ctx, admitted: make(chan struct{}), enqueuedAt: c.cfg.clock()}
	c.nextSeq++
	return aw
}

func (c *LockCore) wrapReleaser(aw *Awaiter) *Releaser {
	return &Releaser{awaiter: aw}
}

// taskAlreadyCovers reports whether task already holds a Read or
// UpgradeableRead-kind lock on this core that admits a nested request of
// kind without queueing. KindWrite nested admission is handled separately
// by findWriteHolderLocked and findEscalatableAncestorLocked, since it
// must also account for upgrade escalation.
func (c *LockCore) taskAlreadyCovers(task *ambient.Task, kind LockKind) bool {
	return task.Contains(func(e ambient.Entry) bool {
		aw, ok := e.Token.(*Awaiter)
		if !ok || aw.core != c {
			return false
		}
		switch kind {
		case KindRead:
			return true
		case KindUpgradeableRead:
			return aw.Kind() == KindWrite
		default:
			return false
		}
	})
}

// holdsAnythingLocked reports whether task already holds any Awaiter
// issued by this core, regardless of kind. It backs the fail-fast check
// in acquire/acquireWrite/tryAcquire/tryAcquireWrite: a request whose kind
// cannot nest under whatever the task already holds must reject
// immediately with ErrInvalidOperation rather than fall through to
// top-level admission (wrongly granting a second, unrelated hold) or
// top-level queuing (self-deadlocking against the task's own held entry).
func (c *LockCore) holdsAnythingLocked(task *ambient.Task) bool {
	return task.Contains(func(e ambient.Entry) bool {
		aw, ok := e.Token.(*Awaiter)
		return ok && aw.core == c
	})
}

// findWriteHolderLocked returns the Awaiter that is the real write holder
// task is already nested under on this core — either a plain write, or an
// UpgradeableRead that has already been escalated — or nil if task holds
// neither.
func (c *LockCore) findWriteHolderLocked(task *ambient.Task) *Awaiter {
	var found *Awaiter
	task.Contains(func(e ambient.Entry) bool {
		aw, ok := e.Token.(*Awaiter)
		if !ok || aw.core != c || aw.stickyHolder != nil {
			return false
		}
		if aw.kind == KindWrite || (aw.kind == KindUpgradeableRead && aw.escalated) {
			found = aw
			return true
		}
		return false
	})
	return found
}

// findEscalatableAncestorLocked returns the UpgradeableRead Awaiter task
// holds on this core that has not yet been escalated to a write, or nil.
func (c *LockCore) findEscalatableAncestorLocked(task *ambient.Task) *Awaiter {
	var found *Awaiter
	task.Contains(func(e ambient.Entry) bool {
		aw, ok := e.Token.(*Awaiter)
		if !ok || aw.core != c {
			return false
		}
		if aw.kind == KindUpgradeableRead && !aw.escalated {
			found = aw
			return true
		}
		return false
	})
	return found
}

// tryAdmitLocked reports whether a fresh request of kind can be admitted
// right now, ignoring this core's own wait queues for kind itself (it is
// used both for immediate admission and for draining a queue head).
func (c *LockCore) tryAdmitLocked(kind LockKind) bool {
	switch kind {
	case KindRead:
		return c.activeWriter == nil && len(c.waitWriters) == 0
	case KindUpgradeableRead:
		return c.activeWriter == nil && c.activeUpgrade == nil && len(c.waitWriters) == 0
	case KindWrite:
		return c.tryAdmitWriteLocked(nil)
	default:
		return false
	}
}

// tryAdmitWriteLocked reports whether a write can be admitted right now.
// ignoreUpgrade, when non-nil, is the UpgradeableRead being escalated in
// place: it is the current activeUpgrade holder by
// definition, so its presence must not itself block the escalation.
func (c *LockCore) tryAdmitWriteLocked(ignoreUpgrade *Awaiter) bool {
	if c.activeWriter != nil {
		return false
	}
	if c.activeUpgrade != nil && c.activeUpgrade != ignoreUpgrade {
		return false
	}
	return len(c.activeReaders) == 0
}

func (c *LockCore) commitAdmitLocked(aw *Awaiter) {
	switch aw.kind {
	case KindRead:
		c.activeReaders[aw] = struct{}{}
		c.cfg.metrics.SetHolders(KindRead, len(c.activeReaders))
	case KindUpgradeableRead:
		c.activeUpgrade = aw
		c.cfg.metrics.SetHolders(KindUpgradeableRead, 1)
	case KindWrite:
		c.activeWriter = aw
		c.cfg.metrics.SetHolders(KindWrite, 1)
	}
	aw.task.Push(aw.entry())
	c.cfg.metrics.ObserveWait(aw.kind, c.cfg.clock().Sub(aw.enqueuedAt))
	c.emit(EventAdmitted, aw.kind, c.queueDepthLocked())
	close(aw.admitted)
}

func (c *LockCore) enqueueLocked(aw *Awaiter) {
	switch aw.kind {
	case KindRead:
		c.waitReaders = insertBySeq(c.waitReaders, aw)
		c.cfg.metrics.SetQueueDepth(KindRead, len(c.waitReaders))
	case KindUpgradeableRead:
		c.waitUpgrade = insertBySeq(c.waitUpgrade, aw)
		c.cfg.metrics.SetQueueDepth(KindUpgradeableRead, len(c.waitUpgrade))
	case KindWrite:
		c.waitWriters = insertBySeq(c.waitWriters, aw)
		c.cfg.metrics.SetQueueDepth(KindWrite, len(c.waitWriters))
	}
	c.emit(EventQueued, aw.kind, c.queueDepthLocked())
}

func (c *LockCore) dequeueLocked(aw *Awaiter) {
	remove := func(q []*Awaiter) []*Awaiter {
		for i, x := range q {
			if x == aw {
				return append(q[:i], q[i+1:]...)
			}
		}
		return q
	}
	switch aw.kind {
	case KindRead:
		c.waitReaders = remove(c.waitReaders)
	case KindUpgradeableRead:
		c.waitUpgrade = remove(c.waitUpgrade)
	case KindWrite:
		c.waitWriters = remove(c.waitWriters)
	}
}

// drainLocked admits as many queued requests as current state allows,
// writers first (so a released write lock hands off to the next writer
// before any reader or upgradeable-reader can jump the queue), then at
// most one upgradeable reader, then every compatible reader at once.
func (c *LockCore) drainLocked() {
	for {
		if len(c.waitWriters) > 0 {
			front := c.waitWriters[0]
			if c.tryAdmitWriteLocked(front.stickyHolder) {
				c.waitWriters = c.waitWriters[1:]
				if front.stickyHolder != nil {
					front.stickyHolder.escalated = true
					front.stickyHolder.views = signal.NewCountdownEvent(1)
					c.activeWriter = front.stickyHolder
					front.task.Push(front.entry())
					c.cfg.metrics.ObserveWait(KindWrite, c.cfg.clock().Sub(front.enqueuedAt))
					c.cfg.metrics.SetHolders(KindWrite, 1)
					c.emit(EventAdmitted, KindWrite, c.queueDepthLocked())
					close(front.admitted)
				} else {
					c.commitAdmitLocked(front)
				}
				continue
			}
		}

		if c.activeUpgrade == nil && len(c.waitUpgrade) > 0 && c.tryAdmitLocked(KindUpgradeableRead) {
			aw := c.waitUpgrade[0]
			c.waitUpgrade = c.waitUpgrade[1:]
			c.commitAdmitLocked(aw)
			continue
		}

		admittedReader := false
		for len(c.waitReaders) > 0 && c.tryAdmitLocked(KindRead) {
			aw := c.waitReaders[0]
			c.waitReaders = c.waitReaders[1:]
			c.commitAdmitLocked(aw)
			admittedReader = true
		}
		if !admittedReader {
			return
		}
	}
}

func (c *LockCore) queueDepthLocked() int {
	return len(c.waitReaders) + len(c.waitUpgrade) + len(c.waitWriters)
}

func (c *LockCore) idleLocked() bool {
	return len(c.activeReaders) == 0 && c.activeUpgrade == nil && c.activeWriter == nil &&
		len(c.waitReaders) == 0 && len(c.waitUpgrade) == 0 && len(c.waitWriters) == 0
}

func (c *LockCore) emit(kind EventKind, lk LockKind, depth int) {
	c.cfg.onEvent(Event{Kind: kind, LockKind: lk, QueueDepth: depth})
	c.logEvent(kind, lk, depth)
}

func (c *LockCore) logEvent(kind EventKind, lk LockKind, depth int) {
	switch kind {
	case EventQueued:
		c.cfg.logger.Debug("lock request queued", "kind", lk.String(), "queue_depth", depth)
	case EventAdmitted:
		c.cfg.logger.Debug("lock request admitted", "kind", lk.String(), "queue_depth", depth)
	case EventReleased:
		c.cfg.logger.Debug("lock released", "kind", lk.String(), "queue_depth", depth)
	case EventCanceled:
		c.cfg.logger.Warn("lock request canceled", "kind", lk.String(), "queue_depth", depth)
	case EventCompleting:
		c.cfg.logger.Info("lock core entering graceful shutdown")
	case EventCompleted:
		c.cfg.logger.Info("lock core completion fired")
	}
}

func insertBySeq(q []*Awaiter, aw *Awaiter) []*Awaiter {
	i := len(q)
	for i > 0 && q[i-1].seq > aw.seq {
		i--
	}
	q = append(q, nil)
	copy(q[i+1:], q[i:])
	q[i] = aw
	return q
}

// closedChan is shared by every nested write view, whose admission never
// suspends the caller.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Stats is a point-in-time snapshot of a LockCore's holder sets and wait
// queues, intended for diagnostics and the demo TUI rather than for
// admission decisions of any kind.
type Stats struct {
	ActiveReaders int
	HasUpgrade    bool
	HasWriter     bool
	QueueReaders  int
	QueueUpgrade  int
	QueueWriters  int
	Completing    bool
	Completed     bool
}

// Stats returns a snapshot of this LockCore's current state.
func (c *LockCore) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		ActiveReaders: len(c.activeReaders),
		HasUpgrade:    c.activeUpgrade != nil,
		HasWriter:     c.activeWriter != nil,
		QueueReaders:  len(c.waitReaders),
		QueueUpgrade:  len(c.waitUpgrade),
		QueueWriters:  len(c.waitWriters),
		Completing:    c.completing,
		Completed:     c.completed,
	}
}

func opName(kind LockKind) string {
	switch kind {
	case KindRead:
		return "ReadLock"
	case KindUpgradeableRead:
		return "UpgradeableReadLock"
	case KindWrite:
		return "WriteLock"
	default:
		return "Lock"
	}
}
