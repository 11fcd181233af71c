package kernel

import "fmt"

// Status is the small negative/positive result code every blocking
// kernel API returns, in place of exceptions or panics. Positive values
// are wake reasons, negative values are errors, zero is success — the
// same convention as the original kernel's int32_t return codes.
type Status int32

const (
	// StatusSuccess indicates the call completed without needing to wait.
	StatusSuccess Status = 0
	// StatusTaskResume indicates a suspended task was explicitly resumed.
	StatusTaskResume Status = 1

	// StatusConditionTimeout indicates a timed suspend's deadline fired
	// before any producer resumed the waiter.
	StatusConditionTimeout Status = -1
	// StatusSemaphoreBusy indicates a non-blocking obtain found count == 0.
	StatusSemaphoreBusy Status = -2
	// StatusSemaphoreDeleted indicates the semaphore was destroyed while
	// the caller was waiting on it.
	StatusSemaphoreDeleted Status = -3
	// StatusFSNodeDeleted indicates the fd was torn down while the caller
	// was waiting on its readiness condition.
	StatusFSNodeDeleted Status = -4
	// StatusIdleNoSpace indicates the idle work registry is full.
	StatusIdleNoSpace Status = -5
	// StatusIdleNotFound indicates idle_remove_work found no matching entry.
	StatusIdleNotFound Status = -6
	// StatusIdleCannotUpdate indicates the idle registry is in
	// scheduler-lock-protected mode and the kernel is already running.
	StatusIdleCannotUpdate Status = -7
	// StatusWouldBlock indicates a non-blocking fd call found its
	// readiness bit clear; only ever returned by TryRead/TryWrite or a
	// blocking call against an fd not carrying FDBlock.
	StatusWouldBlock Status = -8
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusTaskResume:
		return "TASK_RESUME"
	case StatusConditionTimeout:
		return "CONDITION_TIMEOUT"
	case StatusSemaphoreBusy:
		return "SEMAPHORE_BUSY"
	case StatusSemaphoreDeleted:
		return "SEMAPHORE_DELETED"
	case StatusFSNodeDeleted:
		return "FS_NODE_DELETED"
	case StatusIdleNoSpace:
		return "IDLE_NO_SPACE"
	case StatusIdleNotFound:
		return "IDLE_NOT_FOUND"
	case StatusIdleCannotUpdate:
		return "IDLE_CANNOT_UPDATE"
	case StatusWouldBlock:
		return "WOULD_BLOCK"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Err adapts a Status to a Go error for callers that prefer errors.Is
// style matching at the API boundary; StatusSuccess and StatusTaskResume
// are not errors and Err returns nil for both.
func (s Status) Err() error {
	switch s {
	case StatusSuccess, StatusTaskResume:
		return nil
	default:
		return &StatusError{Status: s}
	}
}

// StatusError wraps a non-success Status as an error.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return "kernel: " + e.Status.String()
}

// Is reports whether target names the same Status, so callers can write
// errors.Is(err, kernel.ErrConditionTimeout) without a type assertion.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	return ok && t.Status == e.Status
}

// Sentinel errors for every error Status value, for callers that need
// to errors.Is against them.
var (
	ErrConditionTimeout  = &StatusError{Status: StatusConditionTimeout}
	ErrSemaphoreBusy     = &StatusError{Status: StatusSemaphoreBusy}
	ErrSemaphoreDeleted  = &StatusError{Status: StatusSemaphoreDeleted}
	ErrFSNodeDeleted     = &StatusError{Status: StatusFSNodeDeleted}
	ErrIdleNoSpace       = &StatusError{Status: StatusIdleNoSpace}
	ErrIdleNotFound      = &StatusError{Status: StatusIdleNotFound}
	ErrIdleCannotUpdate  = &StatusError{Status: StatusIdleCannotUpdate}
	ErrWouldBlock        = &StatusError{Status: StatusWouldBlock}
)

// ProgrammerError is raised (via panic) for conditions the original
// kernel treats as fatal ASSERT failures: invalid priority, double
// release, mis-nested scheduler lock, use of a destroyed object. There
// is no recovery path — the caller's invariants are broken.
type ProgrammerError struct {
	Message string
}

func (e *ProgrammerError) Error() string {
	return "kernel: programmer error: " + e.Message
}

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(&ProgrammerError{Message: fmt.Sprintf(format, args...)})
	}
}
