package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/fuzzie/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestServiceError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("CreateTeam", "NAME_REQUIRED", "team name is required")

	assert.Equal(t, "CreateTeam: team name is required", err.Error())
	assert.True(t, IsValidationError(err))
	assert.False(t, IsConflictError(err))

	wrapped := &ServiceError{Op: "Get", Err: ErrForbidden}
	assert.Equal(t, "Get: forbidden", wrapped.Error())
	assert.True(t, IsForbidden(fmt.Errorf("outer: %w", wrapped)))
}

func TestFail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.workflows.core
	_, span := c.tracer.Start(t.Context(), "test")

	notFound := c.fail(t.Context(), span, "Get", persistence.NewEntityError("GetByID", "workflow", "wf-1", persistence.ErrWorkflowNotFound))
	assert.True(t, IsNotFound(notFound))
	assert.True(t, errors.Is(notFound, ErrWorkflowNotFound))
	assert.Equal(t, "Get: workflow not found", notFound.Error())

	duplicate := c.fail(t.Context(), span, "Invite", persistence.ErrDuplicate)
	assert.True(t, IsConflictError(duplicate))

	assert.Equal(t, ErrOwnerProtected, c.fail(t.Context(), span, "Remove", ErrOwnerProtected))

	internal := c.fail(t.Context(), span, "Save", errors.New("pq: connection refused"))
	assert.True(t, errors.Is(internal, ErrOperationFailed))
	assert.NotContains(t, internal.Error(), "pq")
}
