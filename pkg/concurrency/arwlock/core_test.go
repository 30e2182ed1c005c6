package arwlock

import (
	"context"
	"testing"
	"time"

	"arwl/pkg/concurrency/ambient"
	"github.com/stretchr/testify/require"
)

func TestMultipleReadersCoexist(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()

	r1, err := core.ReadLock(ctx, ambient.NewTask())
	require.NoError(t, err)
	r2, err := core.ReadLock(ctx, ambient.NewTask())
	require.NoError(t, err)

	require.NoError(t, r1.Release())
	require.NoError(t, r2.Release())
}

func TestWriteLockExcludesReaders(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()
	writerTask := ambient.NewTask()

	w, err := core.WriteLock(ctx, writerTask)
	require.NoError(t, err)

	readCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = core.ReadLock(readCtx, ambient.NewTask())
	require.Error(t, err)

	require.NoError(t, w.Release())

	r, err := core.ReadLock(ctx, ambient.NewTask())
	require.NoError(t, err)
	require.NoError(t, r.Release())
}

func TestWriteLockIsExclusiveAgainstAnotherWriter(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()

	w1, err := core.WriteLock(ctx, ambient.NewTask())
	require.NoError(t, err)

	admitted := make(chan *Releaser, 1)
	go func() {
		w2, err := core.WriteLock(ctx, ambient.NewTask())
		if err == nil {
			admitted <- w2
		}
	}()

	select {
	case <-admitted:
		t.Fatal("second writer admitted while first still holds the lock")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, w1.Release())

	select {
	case w2 := <-admitted:
		require.NoError(t, w2.Release())
	case <-time.After(time.Second):
		t.Fatal("second writer never admitted after release")
	}
}

func TestNestedReadUnderHeldWriteIsAdmittedImmediately(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()
	task := ambient.NewTask()

	w, err := core.WriteLock(ctx, task)
	require.NoError(t, err)

	r, err := core.ReadLock(ctx, task)
	require.NoError(t, err)

	require.NoError(t, r.Release())
	require.NoError(t, w.Release())
}

func TestNestedReadDoesNotQueueBehindAWaitingWriter(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()
	task := ambient.NewTask()

	r, err := core.ReadLock(ctx, task)
	require.NoError(t, err)

	writerBlocked := make(chan struct{})
	go func() {
		close(writerBlocked)
		w, err := core.WriteLock(ctx, ambient.NewTask())
		require.NoError(t, err)
		require.NoError(t, w.Release())
	}()
	<-writerBlocked
	time.Sleep(10 * time.Millisecond)

	nested, err := core.ReadLock(ctx, task)
	require.NoError(t, err, "nested read from a task that already holds a read lock must bypass the writer queue")
	require.NoError(t, nested.Release())
	require.NoError(t, r.Release())
}

func TestUpgradeableReaderWaitsForExistingReadersToExit(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()
	task := ambient.NewTask()

	r, err := core.ReadLock(ctx, ambient.NewTask())
	require.NoError(t, err)

	u, err := core.UpgradeableReadLock(ctx, task, FlagNone)
	require.NoError(t, err, "an upgradeable read coexists with plain readers")

	upgraded := make(chan *Releaser, 1)
	upgradeErr := make(chan error, 1)
	go func() {
		w, err := core.WriteLock(ctx, task)
		if err != nil {
			upgradeErr <- err
			return
		}
		upgraded <- w
	}()

	select {
	case <-upgraded:
		t.Fatal("upgrade completed while a reader still held the lock")
	case err := <-upgradeErr:
		t.Fatalf("upgrade failed while a reader still held the lock: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, r.Release())

	select {
	case w := <-upgraded:
		require.NoError(t, w.Release())
		require.NoError(t, u.Release())
	case err := <-upgradeErr:
		t.Fatalf("upgrade failed: %v", err)
	case <-time.After(time.Second):
		t.Fatal("upgrade never completed after the blocking reader released")
	}
}

func TestUpgradeableReaderCanUpgradeWhileWriteRequestWaiting(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()
	task := ambient.NewTask()

	u, err := core.UpgradeableReadLock(ctx, task, StickyWrite)
	require.NoError(t, err)

	writerAdmitted := make(chan *Releaser, 1)
	go func() {
		w, err := core.WriteLock(ctx, ambient.NewTask())
		if err == nil {
			writerAdmitted <- w
		}
	}()
	time.Sleep(10 * time.Millisecond)

	nestedWrite, err := core.WriteLock(ctx, task)
	require.NoError(t, err, "a sticky upgrade must be admitted ahead of writers that queued after it")

	select {
	case <-writerAdmitted:
		t.Fatal("writer admitted ahead of the sticky upgrade")
	default:
	}

	require.NoError(t, nestedWrite.Release())

	select {
	case <-writerAdmitted:
		t.Fatal("writer admitted while the sticky upgrade is still held by its ancestor")
	default:
	}

	require.NoError(t, u.Release())

	select {
	case w := <-writerAdmitted:
		require.NoError(t, w.Release())
	case <-time.After(time.Second):
		t.Fatal("writer never admitted after the upgraded lock released")
	}
}

func TestNonStickyUpgradeDeEscalatesAsSoonAsNestedWriteReleases(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()
	task := ambient.NewTask()

	u, err := core.UpgradeableReadLock(ctx, task, FlagNone)
	require.NoError(t, err)

	nestedWrite, err := core.WriteLock(ctx, task)
	require.NoError(t, err)
	require.NoError(t, nestedWrite.Release())
	require.False(t, core.IsWriteLockHeld(task), "write access should end as soon as the nested write view releases")

	// Without StickyWrite, write access ends the moment the nested write
	// view releases, even though the upgradeable read itself is still
	// held — a fresh writer can now queue ahead of nothing and, once the
	// upgradeable reader also releases, be admitted.
	require.NoError(t, u.Release())

	w, ok := core.TryWriteLock(ambient.NewTask())
	require.True(t, ok, "core should be idle once the non-sticky upgrade fully released")
	require.NoError(t, w.Release())
}

func TestDoubleLockReleaseDoesNotReleaseOtherLocks(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()

	r1, err := core.ReadLock(ctx, ambient.NewTask())
	require.NoError(t, err)
	r2, err := core.ReadLock(ctx, ambient.NewTask())
	require.NoError(t, err)

	require.NoError(t, r1.Release())
	require.NoError(t, r1.Release(), "a second Release call must be a no-op, not an error")

	_, ok := core.TryWriteLock(ambient.NewTask())
	require.False(t, ok, "sanity: writer still blocked by r2")

	require.NoError(t, r2.Release())
}

func TestReadLockWaitRespectsContextCancellation(t *testing.T) {
	core := NewLockCore()
	ctx := context.Background()

	w, err := core.WriteLock(ctx, ambient.NewTask())
	require.NoError(t, err)
	defer w.Release()

	cancelCtx, cancel := context.WithCancel(ctx)
	result := make(chan error, 1)
	go func() {
		_, err := core.ReadLock(cancelCtx, ambient.NewTask())
		result <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("canceled read request never returned")
	}
}

func TestTryLocksDoNotBlock(t *testing.T) {
	core := NewLockCore()
	w, err := core.WriteLock(context.Background(), ambient.NewTask())
	require.NoError(t, err)

	r, ok := core.TryReadLock(ambient.NewTask())
	require.False(t, ok)
	require.Nil(t, r)

	require.NoError(t, w.Release())

	r, ok = core.TryReadLock(ambient.NewTask())
	require.True(t, ok)
	require.NoError(t, r.Release())
}
