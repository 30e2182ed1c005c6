package arwlock

import (
	"log/slog"
	"time"

	"arwl/pkg/concurrency/apartment"
)

// EventKind identifies the lifecycle events a LockCore reports through its
// configured event hook, primarily so pkg/lockmetrics can drive Prometheus
// collectors off the same notifications the demo TUI uses to animate queue
// state.
type EventKind int

const (
	EventAdmitted EventKind = iota
	EventQueued
	EventReleased
	EventCanceled
	EventCompleting
	EventCompleted
)

// Event describes one lifecycle transition observed by a LockCore.
type Event struct {
	Kind       EventKind
	LockKind   LockKind
	QueueDepth int
}

// config holds the options a LockCore is constructed with. It follows the
// same plain-struct-plus-constructor shape as the rest of this codebase's
// configuration types rather than threading fields through positional
// constructor arguments.
type config struct {
	affinity apartment.AffinityHook
	logger   *slog.Logger
	onEvent  func(Event)
	clock    func() time.Time
	metrics  MetricsRecorder
}

func defaultConfig() *config {
	return &config{
		affinity: apartment.Unconstrained,
		logger:   slog.Default(),
		onEvent:  func(Event) {},
		clock:    time.Now,
		metrics:  noopMetrics{},
	}
}

// Option configures a LockCore at construction time.
type Option func(*config)

// WithAffinity installs an AffinityHook governing synchronous acquisition:
// the *Blocking methods fail with ErrInvalidOperation when the hook's
// CanHoldLockOnThisTask refuses the task. LockCore does not call the
// hook's MarshalToPool. The default, apartment.Unconstrained, permits
// every task.
func WithAffinity(hook apartment.AffinityHook) Option {
	return func(c *config) { c.affinity = hook }
}

// WithLogger installs a structured logger for admission, release, and
// completion diagnostics. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithEventHook installs a callback invoked for every lifecycle event a
// LockCore reports. Hooks run synchronously, with the core mutex held for
// admission, queueing and release events and just after it is released
// for cancellation and completion events, so a hook must never call back into the same LockCore and should do the
// minimum work needed to hand the event off elsewhere — typically a
// non-blocking send to a buffered channel, as pkg/lockmetrics and the demo
// TUI both do. The default hook discards events.
func WithEventHook(fn func(Event)) Option {
	return func(c *config) { c.onEvent = fn }
}

// WithClock installs the function used to timestamp requests for wait-time
// metrics and to time release-callback drains. Queue order does not depend
// on it: requests are ordered by an internal sequence number. The default
// is time.Now; tests that need deterministic wait durations can install a
// fake clock instead.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.clock = now }
}

// WithMetrics installs a MetricsRecorder that observes admission wait
// times, queue depths, holder counts, callback drain duration, and
// cancellation/completion counts. pkg/lockmetrics provides an
// implementation backed by promauto collectors; the default records
// nothing.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *config) { c.metrics = m }
}
