// Package errors provides unified error handling for the pipeline core.
// It implements structured error types with error codes, retryable
// detection, and HTTP status mapping for the operator API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// PipelineError is the unified error type for the orchestration core.
type PipelineError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if an operator may requeue the affected job.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *PipelineError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *PipelineError) WithCause(cause error) *PipelineError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *PipelineError) WithDetail(key string, value any) *PipelineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new PipelineError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *PipelineError {
	return &PipelineError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// CodeOf extracts the ErrorCode from err, or ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeInternal
}

// IsInvalidTransition reports whether err is an invalid job status transition.
func IsInvalidTransition(err error) bool {
	return CodeOf(err) == ErrCodeInvalidTransition
}

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsLockTimeout reports whether err indicates accelerator lock contention.
func IsLockTimeout(err error) bool {
	return CodeOf(err) == ErrCodeLockTimeout
}

// --- Common Error Constructors ---

// CapabilityUnavailable creates an error for an unreachable external capability.
func CapabilityUnavailable(capability string, cause error) *PipelineError {
	return &PipelineError{
		Code: ErrCodeCapabilityUnavailable, Message: fmt.Sprintf("the %s capability is unavailable", capability),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"capability": capability}, Cause: cause,
	}
}

// CapabilityFailed creates an error for an external capability that returned a failure.
func CapabilityFailed(capability string, cause error) *PipelineError {
	return &PipelineError{
		Code: ErrCodeCapabilityFailed, Message: fmt.Sprintf("the %s capability returned an error", capability),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"capability": capability}, Cause: cause,
	}
}

// Timeout creates an error for an operation that timed out.
func Timeout(operation string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("operation %s timed out", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// InvalidTransition creates an error for a job status change outside the
// transition graph. This signals an orchestrator bug or a duplicate call,
// never an external condition.
func InvalidTransition(jobID, from, to string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeInvalidTransition, Message: fmt.Sprintf("job %s cannot move from %s to %s", jobID, from, to),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"job_id": jobID, "from": from, "to": to},
	}
}

// StageOrder creates an error for a stage invoked out of sequence.
func StageOrder(jobID, expected, got string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeStageOrder, Message: fmt.Sprintf("job %s expected stage %s, got %s", jobID, expected, got),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"job_id": jobID, "expected": expected, "got": got},
	}
}

// LockTimeout creates an error for failed accelerator lock acquisition.
func LockTimeout(taskType string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeLockTimeout, Message: fmt.Sprintf("accelerator lock not acquired for task type %s", taskType),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"task_type": taskType},
	}
}

// NotHolder creates an error for a lock release by a non-holder.
func NotHolder(token string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeNotHolder, Message: "release attempted with a token that does not hold the lock",
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"token": token},
	}
}

// NotFound creates an error for a missing record.
func NotFound(resource, id string) *PipelineError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &PipelineError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("the requested %s was not found", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// Validation creates an error for invalid input.
func Validation(message string) *PipelineError {
	return &PipelineError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// StoreError creates an error for a job store I/O failure.
func StoreError(cause error) *PipelineError {
	return &PipelineError{
		Code: ErrCodeStoreError, Message: "a job store error occurred",
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}

// Internal creates an error for an unexpected internal failure.
func Internal(cause error) *PipelineError {
	return &PipelineError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
