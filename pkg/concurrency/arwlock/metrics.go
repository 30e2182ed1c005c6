package arwlock

import "time"

// MetricsRecorder receives point observations from a LockCore's admission
// and release paths. pkg/lockmetrics implements this against promauto
// collectors; arwlock itself stays free of any metrics-backend import, the
// same separation the teacher keeps between its storage engine and
// pkg/metrics.
type MetricsRecorder interface {
	// ObserveWait reports how long an admitted request spent queued before
	// admission. Zero for every fast-path grant.
	ObserveWait(kind LockKind, waited time.Duration)

	// SetQueueDepth reports the current wait-queue length for kind.
	SetQueueDepth(kind LockKind, depth int)

	// SetHolders reports the current number of direct holders of kind
	// (0 or 1 for UpgradeableRead/Write, any count for Read).
	SetHolders(kind LockKind, n int)

	// ObserveCallbackDrain reports how long a write release spent running
	// OnBeforeWriteLockReleased callbacks. Not called when there were none.
	ObserveCallbackDrain(d time.Duration)

	// IncCanceled reports a pending request of kind that was canceled
	// before admission.
	IncCanceled(kind LockKind)

	// IncCompleted reports that Completion has fired.
	IncCompleted()
}

// noopMetrics is the default MetricsRecorder, used when NewLockCore is
// constructed without WithMetrics. Every method is a no-op so the
// instrumentation points in core.go/release.go/complete.go cost nothing
// beyond an interface call a compiler can often inline away.
type noopMetrics struct{}

func (noopMetrics) ObserveWait(LockKind, time.Duration) {}
func (noopMetrics) SetQueueDepth(LockKind, int)         {}
func (noopMetrics) SetHolders(LockKind, int)            {}
func (noopMetrics) ObserveCallbackDrain(time.Duration)  {}
func (noopMetrics) IncCanceled(LockKind)                {}
func (noopMetrics) IncCompleted()                       {}
