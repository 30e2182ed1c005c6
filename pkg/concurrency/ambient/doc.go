// Package ambient models the per-logical-task state the lock core needs to
// make admission decisions: which locks a task already holds, so a nested
// request from the same task can be admitted ahead of unrelated queued
// requests, and whether those holds are currently hidden (HideLocks) so
// that diagnostic or test code is admitted as if the task held nothing.
//
// .NET's AsyncLocal<T> gives every async call chain an implicit, inherited
// slot; Go has no equivalent, so ambient.Task is carried explicitly as a
// handle through every arwlock call. Spawn copies a task's lock stack into
// a child so goroutines started from code that already holds a lock are
// recognized as holding it too, mirroring AsyncLocal's copy-on-branch
// semantics without requiring a context.Context round trip.
package ambient
