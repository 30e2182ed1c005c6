// Package signal provides the channel-based wait primitives the lock core
// builds its suspension points on: a resettable latch analogous to a .NET
// ManualResetEventSlim, and a countdown event for waiting on a fixed number
// of independent completions.
//
// Both primitives expose a Done() <-chan struct{} so callers can select on
// them alongside a context's own Done channel without ever blocking inside
// a held mutex — the arwlock package relies on this to implement its
// suspension points (spec.md §5.2).
package signal
