package arwlock

import (
	"context"
	"testing"
	"time"

	"arwl/pkg/concurrency/ambient"
	"arwl/pkg/lockerr"
	"github.com/stretchr/testify/require"
)

func TestCompleteFiresImmediatelyWhenIdle(t *testing.T) {
	core := NewLockCore()
	core.Complete()

	select {
	case <-core.Completion():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Completion never fired for an idle core")
	}
	require.NoError(t, core.CompletionErr())
}

func TestCompleteWaitsForActiveHoldersToDrain(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()

	w, err := core.WriteLock(ctx, ambient.NewTask())
	require.NoError(t, err)

	core.Complete()

	select {
	case <-core.Completion():
		t.Fatal("Completion fired before the held write lock was released")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, w.Release())

	select {
	case <-core.Completion():
	case <-time.After(time.Second):
		t.Fatal("Completion never fired after the last holder released")
	}
}

func TestCompleteAllowsPreviouslyQueuedLockRequests(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()

	w, err := core.WriteLock(ctx, ambient.NewTask())
	require.NoError(t, err)

	queuedAdmitted := make(chan *Releaser, 1)
	queuedStarted := make(chan struct{})
	go func() {
		close(queuedStarted)
		r, err := core.ReadLock(ctx, ambient.NewTask())
		if err == nil {
			queuedAdmitted <- r
		}
	}()
	<-queuedStarted
	time.Sleep(10 * time.Millisecond)

	core.Complete()

	_, err = core.ReadLock(ctx, ambient.NewTask())
	require.ErrorIs(t, err, lockerr.ErrLockCompleted, "a brand new top-level request after Complete must be rejected")

	require.NoError(t, w.Release())

	select {
	case r := <-queuedAdmitted:
		require.NoError(t, r.Release())
	case <-time.After(time.Second):
		t.Fatal("a request queued before Complete was never admitted")
	}
}

func TestCompleteDoesNotBlockNestedRequests(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()
	task := ambient.NewTask()

	w, err := core.WriteLock(ctx, task)
	require.NoError(t, err)

	core.Complete()

	nested, err := core.ReadLock(ctx, task)
	require.NoError(t, err, "a task that already holds the lock must still be able to reenter it after Complete")
	require.NoError(t, nested.Release())
	require.NoError(t, w.Release())
}

func TestHideLocksMakesAmbientHoldInvisibleToNestedAdmission(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()
	task := ambient.NewTask()

	r, err := core.ReadLock(ctx, task)
	require.NoError(t, err)

	suppression := core.HideLocks(task)

	writerCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = core.WriteLock(writerCtx, task)
	require.Error(t, err, "with the hold hidden, a write request from the same task must queue like any other and time out behind the live reader")

	suppression.Release()
	require.NoError(t, r.Release())
}

func TestLockStackContainsFindsAdmittedAwaiter(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()
	task := ambient.NewTask()

	r, err := core.ReadLock(ctx, task)
	require.NoError(t, err)

	require.True(t, core.LockStackContains(task, FlagNone, nil))
	require.True(t, core.LockStackContains(task, FlagNone, r.Awaiter()))
	require.False(t, core.LockStackContains(task, StickyWrite, nil))

	require.NoError(t, r.Release())
	require.False(t, core.LockStackContains(task, FlagNone, nil))
}
