package arwlock

import (
	"context"
	"time"

	"arwl/pkg/concurrency/ambient"
	"arwl/pkg/concurrency/signal"
)

// LockKind identifies the three request shapes arwlock admits.
type LockKind int

const (
	// KindRead is a shared lock; any number may be held concurrently,
	// alongside at most one KindUpgradeableRead, but never alongside a
	// KindWrite.
	KindRead LockKind = iota

	// KindUpgradeableRead is a shared lock with the additional right to
	// request an in-place upgrade to KindWrite without first releasing.
	// At most one may be held at a time.
	KindUpgradeableRead

	// KindWrite is an exclusive lock; no other lock of any kind may be
	// held concurrently.
	KindWrite
)

func (k LockKind) String() string {
	switch k {
	case KindRead:
		return "Read"
	case KindUpgradeableRead:
		return "UpgradeableRead"
	case KindWrite:
		return "Write"
	default:
		return "Unknown"
	}
}

// LockFlags modifies request admission and release behavior. Bits 0-7 are
// reserved for this package; callers may use bits 8 and above for their
// own bookkeeping without risk of collision with a future arwlock flag.
type LockFlags uint32

const (
	// FlagNone requests default behavior.
	FlagNone LockFlags = 0

	// StickyWrite marks an UpgradeableRead request whose escalation, once
	// a nested WriteLock has made it, lasts until the UpgradeableRead
	// itself is released instead of ending when the last nested write
	// view releases. Release callbacks registered under the escalation
	// run at that point.
	StickyWrite LockFlags = 1 << 0

	// reservedFlagsMask marks the bits this package might use in a future
	// revision; callers should treat bits from CallerFlagsStart upward as
	// the only safe range for their own flags.
	reservedFlagsMask LockFlags = 0xFF
)

// CallerFlagsStart is the first bit callers may use for their own flags
// without colliding with a future arwlock-defined flag.
const CallerFlagsStart = 8

// Awaiter represents one admitted or pending request. It is returned to
// callers only once admitted; a caller blocked in the wait queue holds no
// Awaiter, only a context it can cancel.
type Awaiter struct {
	seq   uint64
	kind  LockKind
	flags LockFlags
	task  *ambient.Task
	core  *LockCore

	ctx        context.Context
	admitted   chan struct{}
	err        error
	enqueuedAt time.Time

	// stickyHolder is set on a KindWrite Awaiter that is merely a nested
	// view onto a write already held elsewhere — either a plain outer
	// WriteLock, or an UpgradeableRead that has been escalated in place.
	// A view's Release never runs callbacks or touches holder state
	// itself; see LockCore.release for what it does instead.
	stickyHolder *Awaiter

	// escalated and views are meaningful only on a KindUpgradeableRead
	// Awaiter. escalated is set once a nested WriteLock call has escalated
	// it in place; views counts down the currently outstanding nested
	// write views, one CountdownEvent participant per view, so a fan-out
	// of views released concurrently from different goroutines still
	// drains to zero exactly once. Without StickyWrite, escalated clears
	// (and write-release callbacks run) the moment views reaches zero.
	// With StickyWrite it stays set until this Awaiter's own Release, so
	// an UpgradeableReadLock call that declared its intent to write up
	// front never flickers back to read-only access between nested write
	// scopes.
	escalated bool
	views     *signal.CountdownEvent
}

// Kind reports the lock kind this Awaiter was granted.
func (a *Awaiter) Kind() LockKind { return a.kind }

// Flags reports the flags this Awaiter was requested with.
func (a *Awaiter) Flags() LockFlags { return a.flags }

// Task returns the ambient task this Awaiter was admitted for.
func (a *Awaiter) Task() *ambient.Task { return a.task }

// CallbackEntry is one release-time callback registered while a write lock
// is held. Callbacks run in registration order, with the core mutex not
// held, immediately before the write lock's holder set and queues are
// updated to reflect release.
type CallbackEntry struct {
	fn func(context.Context) error
}

// entry returns the Entry this Awaiter contributes to its task's lock
// stack, keyed by pointer identity so Pop can find it again on release.
func (a *Awaiter) entry() ambient.Entry {
	return ambient.Entry{Kind: int(a.kind), Token: a}
}
