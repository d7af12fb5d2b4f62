package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// External-capability errors (retryable by operator policy)
const (
	// ErrCodeCapabilityUnavailable indicates an external model/capability is unreachable.
	ErrCodeCapabilityUnavailable ErrorCode = "CAPABILITY_UNAVAILABLE"
	// ErrCodeCapabilityFailed indicates an external capability returned an error.
	ErrCodeCapabilityFailed ErrorCode = "CAPABILITY_FAILED"
	// ErrCodeTimeout indicates an external call timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Orchestration invariant violations (fatal, indicate a bug)
const (
	// ErrCodeInvalidTransition indicates a job status change outside the transition graph.
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	// ErrCodeStageOrder indicates a stage was invoked out of sequence.
	ErrCodeStageOrder ErrorCode = "STAGE_ORDER_VIOLATION"
)

// Resource contention (retryable by the caller's own policy)
const (
	// ErrCodeLockTimeout indicates the accelerator lock could not be acquired in time.
	ErrCodeLockTimeout ErrorCode = "LOCK_TIMEOUT"
	// ErrCodeNotHolder indicates a release attempt by a caller that does not hold the lock.
	ErrCodeNotHolder ErrorCode = "NOT_LOCK_HOLDER"
)

// Store errors
const (
	// ErrCodeNotFound indicates the requested record was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeStoreError indicates a job store I/O failure.
	ErrCodeStoreError ErrorCode = "STORE_ERROR"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeCapabilityUnavailable: true,
	ErrCodeCapabilityFailed:      true,
	ErrCodeTimeout:               true,
	ErrCodeLockTimeout:           true,
	ErrCodeStoreError:            true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Retryable here means the operator may requeue the job; the pipeline never
// retries automatically.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
