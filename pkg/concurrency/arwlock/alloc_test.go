package arwlock

import (
	"context"
	"testing"

	"arwl/pkg/concurrency/ambient"
)

// TestUncontestedAcquireReleaseAllocationsAreBounded exercises spec §8's
// hot-path property: once warmed up, a top-level uncontested ReadLock
// immediately followed by Release must not grow the heap per call. A single
// Awaiter and Releaser are still allocated per call — Go has no way to
// avoid that for a value returned across a function boundary without a
// caller-supplied arena — but neither the ambient stack's Entry slice nor
// any wait-queue slice should reallocate once its capacity has stabilized,
// so amortized allocations per call settle at a small constant rather than
// growing with call count.
func TestUncontestedAcquireReleaseAllocationsAreBounded(t *testing.T) {
	core := NewLockCore()
	task := ambient.NewTask()
	ctx := context.Background()

	// Warm up the task's ambient stack and the core's internal maps so the
	// measured run only pays for steady-state allocations, not one-time
	// backing-array growth.
	for i := 0; i < 10; i++ {
		r, err := core.ReadLock(ctx, task)
		if err != nil {
			t.Fatalf("warmup ReadLock: %v", err)
		}
		if err := r.Release(); err != nil {
			t.Fatalf("warmup Release: %v", err)
		}
	}

	allocs := testing.AllocsPerRun(1000, func() {
		r, err := core.ReadLock(ctx, task)
		if err != nil {
			t.Fatalf("ReadLock: %v", err)
		}
		if err := r.Release(); err != nil {
			t.Fatalf("Release: %v", err)
		}
	})

	// The bound is intentionally loose — this guards against a regression
	// that makes acquire/release scale with queue or stack depth, not
	// against Go's baseline per-call Awaiter/Releaser allocation.
	if allocs > 6 {
		t.Fatalf("uncontested ReadLock+Release allocated %.1f times per call, want <= 6", allocs)
	}
}

// TestThreeDeepNestedAcquireReleaseAllocationsAreBounded covers the nested
// shape of the same property: a write lock held with three nested reads
// underneath, acquired and released every iteration, must not show
// allocations growing with nesting depth once warmed up.
func TestThreeDeepNestedAcquireReleaseAllocationsAreBounded(t *testing.T) {
	core := NewLockCore()
	task := ambient.NewTask()
	ctx := context.Background()

	run := func() {
		w, err := core.WriteLock(ctx, task)
		if err != nil {
			t.Fatalf("WriteLock: %v", err)
		}
		r1, err := core.ReadLock(ctx, task)
		if err != nil {
			t.Fatalf("nested ReadLock 1: %v", err)
		}
		r2, err := core.ReadLock(ctx, task)
		if err != nil {
			t.Fatalf("nested ReadLock 2: %v", err)
		}
		r3, err := core.ReadLock(ctx, task)
		if err != nil {
			t.Fatalf("nested ReadLock 3: %v", err)
		}
		if err := r3.Release(); err != nil {
			t.Fatalf("release nested 3: %v", err)
		}
		if err := r2.Release(); err != nil {
			t.Fatalf("release nested 2: %v", err)
		}
		if err := r1.Release(); err != nil {
			t.Fatalf("release nested 1: %v", err)
		}
		if err := w.Release(); err != nil {
			t.Fatalf("release write: %v", err)
		}
	}

	for i := 0; i < 10; i++ {
		run()
	}

	allocs := testing.AllocsPerRun(1000, run)
	if allocs > 16 {
		t.Fatalf("three-deep nested acquire+release allocated %.1f times per call, want <= 16", allocs)
	}
}
