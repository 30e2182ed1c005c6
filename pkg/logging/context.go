package logging

import (
	"log/slog"

	"arwl/pkg/concurrency/arwlock"

	"github.com/google/uuid"
)

// WithTask creates a logger with ambient task context.
// Use this to automatically include the task ID in all logs emitted while
// handling a single lock request.
//
// Example:
//
//	log := logging.WithTask(task.ID())
//	log.Info("acquiring lock")
func WithTask(taskID uuid.UUID) *slog.Logger {
	return GetLogger().With("task_id", taskID)
}

// WithLockKind creates a logger with lock-kind context.
//
// Example:
//
//	log := logging.WithLockKind("Write")
//	log.Debug("admitted")
func WithLockKind(kind string) *slog.Logger {
	return GetLogger().With("lock_kind", kind)
}

// WithAwaiter creates a logger tagged with an Awaiter's kind and flags, for
// logging around a specific lock request from request through release.
//
// Example:
//
//	log := logging.WithAwaiter(r.Awaiter())
//	log.Info("released")
func WithAwaiter(a *arwlock.Awaiter) *slog.Logger {
	return GetLogger().With("lock_kind", a.Kind().String(), "lock_flags", uint32(a.Flags()))
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("arwlock")
//	log.Info("component initialized")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
// Use this when logging errors to include the error in structured format.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("operation failed", "operation", "WriteLock")
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
