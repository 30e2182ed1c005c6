package arwlock

import (
	"context"

	"arwl/pkg/concurrency/ambient"
)

// Read acquires a shared lock on core for task, releasing it automatically
// when fn returns. It is the common case for callers that don't need to
// hold the Releaser past a single critical section.
func Read(ctx context.Context, core *LockCore, task *ambient.Task, fn func(ctx context.Context) error) error {
	r, err := core.ReadLock(ctx, task)
	if err != nil {
		return err
	}
	defer r.Release()
	return fn(ctx)
}

// Write acquires an exclusive lock on core for task, releasing it
// automatically when fn returns.
func Write(ctx context.Context, core *LockCore, task *ambient.Task, fn func(ctx context.Context) error) error {
	r, err := core.WriteLock(ctx, task)
	if err != nil {
		return err
	}
	defer r.Release()
	return fn(ctx)
}

// UpgradeableRead acquires an upgradeable-read lock on core for task. fn
// may call core.WriteLock(ctx, task) to escalate before returning; that
// nested WriteLock is admitted ahead of writers that queued after this
// request, and with StickyWrite set in flags the escalation lasts until
// the UpgradeableRead itself is released. The lock is released automatically once fn returns, regardless of
// whether fn escalated it.
func UpgradeableRead(ctx context.Context, core *LockCore, task *ambient.Task, flags LockFlags, fn func(ctx context.Context, r *Releaser) error) error {
	r, err := core.UpgradeableReadLock(ctx, task, flags)
	if err != nil {
		return err
	}
	defer r.Release()
	return fn(ctx, r)
}
