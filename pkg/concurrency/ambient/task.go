package ambient

import (
	"sync"

	"github.com/google/uuid"
)

// Entry is one frame on a Task's lock stack: an opaque token identifying
// the held lock (typically a pointer to the issuing package's own request
// record) tagged with a caller-defined Kind so arwlock can search the
// stack without ambient needing to know anything about lock semantics.
type Entry struct {
	Kind  int
	Token any
}

// Task is the ambient handle a caller threads through every arwlock call
// in place of .NET's implicit AsyncLocal<T> call-context propagation. It
// tracks which locks the logical task currently holds and whether those
// holds are currently hidden from the lock core (HideLocks).
type Task struct {
	id    uuid.UUID
	mu    sync.Mutex
	stack []Entry
	hide  int
}

// NewTask creates a fresh root task with an empty lock stack.
func NewTask() *Task {
	return &Task{id: uuid.New()}
}

// ID returns the task's stable identity, suitable for log correlation.
func (t *Task) ID() uuid.UUID {
	return t.id
}

// Spawn creates a child task that starts with a copy of this task's
// current lock stack, mirroring AsyncLocal<T>'s copy-on-branch semantics:
// a goroutine forked from code that already holds a lock is recognized by
// the lock core as holding it too, so a nested request it issues is
// admitted ahead of unrelated queued requests rather than deadlocking
// against itself.
func (t *Task) Spawn() *Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	child := &Task{id: uuid.New(), stack: make([]Entry, len(t.stack))}
	copy(child.stack, t.stack)
	return child
}

// Push records that this task now holds the lock identified by e. Callers
// push after a request is admitted, never before.
func (t *Task) Push(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stack = append(t.stack, e)
}

// Pop removes the entry matching token, searching from the most recently
// pushed frame backward. It reports whether a matching entry was found;
// release code that calls Pop on an untracked token gets false back rather
// than a panic, since release ordering under async continuations is not
// guaranteed to be strictly LIFO.
func (t *Task) Pop(token any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i].Token == token {
			t.stack = append(t.stack[:i], t.stack[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether any frame on the stack satisfies pred.
func (t *Task) Contains(pred func(Entry) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.stack {
		if pred(e) {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current lock stack, oldest frame first.
func (t *Task) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.stack))
	copy(out, t.stack)
	return out
}

// Depth returns the number of locks this task currently holds.
func (t *Task) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stack)
}

// IsSuppressed reports whether HideLocks is currently in effect for this
// task.
func (t *Task) IsSuppressed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hide > 0
}

// HideLocks enters a scope in which this task's lock stack is reported as
// empty to admission checks — used by diagnostic or test code that must
// run a block without the lock core treating its ambient holds as cover
// for a nested request. Suppression nests: the stack is visible again only
// once every returned Suppression has been released.
func (t *Task) HideLocks() *Suppression {
	t.mu.Lock()
	t.hide++
	t.mu.Unlock()

	return &Suppression{task: t}
}

// Suppression is the releaser returned by HideLocks. Release is idempotent
// and safe to call more than once or defer unconditionally.
type Suppression struct {
	task     *Task
	released bool
	mu       sync.Mutex
}

// Release ends this suppression scope. A second call is a no-op.
func (s *Suppression) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true

	s.task.mu.Lock()
	s.task.hide--
	s.task.mu.Unlock()
}
