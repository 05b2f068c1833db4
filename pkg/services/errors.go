// Package services provides the team, workflow and user operations. Each call runs its reads,
// authorization check and mutation inside one persistence transaction.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/fuzzie/pkg/authz"
	"github.com/dukex/fuzzie/pkg/persistence"
)

var (
	// ErrUnauthorized means the call carries no caller identity (401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the caller is known but not allowed (403).
	ErrForbidden = authz.ErrForbidden

	// ErrOwnerProtected means the call targets a team's owner membership (409).
	ErrOwnerProtected = authz.ErrOwnerProtected

	// Not found errors (404).
	ErrNotFound         = persistence.ErrNotFound
	ErrUserNotFound     = persistence.ErrUserNotFound
	ErrTeamNotFound     = persistence.ErrTeamNotFound
	ErrMemberNotFound   = persistence.ErrMemberNotFound
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

	// ErrConflict means a duplicate membership or share (409).
	ErrConflict = errors.New("conflict")

	// ErrGenerationFailed means a prompt produced no usable graph (422).
	ErrGenerationFailed = errors.New("workflow generation failed")

	// ErrInvalidRequest means the input failed validation (400).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrOperationFailed hides an internal failure; the cause is logged, never returned (500).
	ErrOperationFailed = errors.New("operation failed")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// ErrorCode returns the code reported to API clients.
func (e *ServiceError) ErrorCode() string {
	return e.Code
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     ErrInvalidRequest,
	}
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsOwnerProtected(err error) bool {
	return errors.Is(err, ErrOwnerProtected)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsConflictError checks if an error is a duplicate that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsGenerationFailed(err error) bool {
	return errors.Is(err, ErrGenerationFailed)
}

// isDomainError reports whether err belongs to the public taxonomy and may reach the caller.
func isDomainError(err error) bool {
	return IsUnauthorized(err) ||
		IsForbidden(err) ||
		IsOwnerProtected(err) ||
		IsNotFound(err) ||
		IsValidationError(err) ||
		IsConflictError(err) ||
		IsGenerationFailed(err) ||
		errors.Is(err, ErrOperationFailed)
}

// notFoundMessage names the missing entity without exposing repository details.
func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, ErrWorkflowNotFound):
		return ErrWorkflowNotFound.Error()
	case errors.Is(err, ErrTeamNotFound):
		return ErrTeamNotFound.Error()
	case errors.Is(err, ErrMemberNotFound):
		return ErrMemberNotFound.Error()
	case errors.Is(err, ErrUserNotFound):
		return ErrUserNotFound.Error()
	default:
		return ErrNotFound.Error()
	}
}
