package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by every entity-specific not found error.
	ErrNotFound = errors.New("not found")

	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrTeamNotFound     = fmt.Errorf("team %w", ErrNotFound)
	ErrMemberNotFound   = fmt.Errorf("team member %w", ErrNotFound)
	ErrWorkflowNotFound = fmt.Errorf("workflow %w", ErrNotFound)

	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
)

// EntityError wraps a repository error with the operation and entity it concerns.
type EntityError struct {
	Op     string // Repository operation (e.g., "GetByID", "Save", "Create")
	Entity string // Entity kind (e.g., "workflow", "team")
	ID     string
	Err    error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// NewEntityError creates a new entity error with context.
func NewEntityError(op, entity, id string, err error) *EntityError {
	return &EntityError{Op: op, Entity: entity, ID: id, Err: err}
}

// IsNotFound checks if an error indicates a missing entity of any kind.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate checks if an error indicates a uniqueness violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
