package ambient

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry is the single global index of live tasks, used by diagnostics
// and logging to enumerate what currently holds or is waiting on locks.
// It plays the same role here that StoreMy's TransactionRegistry plays for
// transaction contexts, minus any lifecycle beyond Register/Remove.
type Registry struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[uuid.UUID]*Task)}
}

// Register adds t to the registry, keyed by its ID.
func (r *Registry) Register(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.id] = t
}

// Get retrieves a task by ID.
func (r *Registry) Get(id uuid.UUID) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("ambient: task %s not found", id)
	}
	return t, nil
}

// Remove drops a task from the registry. It is a no-op if the task is not
// present.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Active returns every currently registered task holding at least one
// lock.
func (r *Registry) Active() []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if t.Depth() > 0 {
			active = append(active, t)
		}
	}
	return active
}

// Count returns the number of registered tasks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Snapshot captures a point-in-time view of every registered task's lock
// stack, keyed by task ID, for diagnostics and the monitoring exporter.
type Snapshot map[uuid.UUID][]Entry

// Snapshot returns a Snapshot of every registered task.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(Snapshot, len(r.tasks))
	for id, t := range r.tasks {
		snap[id] = t.Snapshot()
	}
	return snap
}
