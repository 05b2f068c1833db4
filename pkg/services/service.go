package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/fuzzie/pkg/authz"
	"github.com/dukex/fuzzie/pkg/eventbus"
	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/otelhelper"
	"github.com/dukex/fuzzie/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies are the collaborators shared by every service.
type Dependencies struct {
	Persistence persistence.Persistence
	Authorizer  *authz.Engine
	Logger      *slog.Logger

	// Publisher receives domain events after commit. Optional.
	Publisher eventbus.EventPublisher

	// Tracer defaults to a no-op tracer.
	Tracer trace.Tracer
}

type core struct {
	persistence persistence.Persistence
	authorizer  *authz.Engine
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

func newCore(deps Dependencies, module string) core {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	authorizer := deps.Authorizer
	if authorizer == nil {
		authorizer = authz.NewEngine(logger)
	}

	return core{
		persistence: deps.Persistence,
		authorizer:  authorizer,
		publisher:   deps.Publisher,
		tracer:      tracer,
		logger:      logger.With("module", module),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// HealthCheck checks the health of the persistence layer.
func (c *core) HealthCheck(ctx context.Context) (string, bool) {
	if c.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := c.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// fail converts err into the public taxonomy. Anything outside it is logged with its cause
// and surfaced as ErrOperationFailed.
func (c *core) fail(ctx context.Context, span trace.Span, op string, err error, args ...any) error {
	otelhelper.SetError(span, err)

	switch {
	case persistence.IsNotFound(err):
		return &ServiceError{Op: op, Code: "NOT_FOUND", Message: notFoundMessage(err), Err: err}
	case persistence.IsDuplicate(err):
		return &ServiceError{Op: op, Code: "CONFLICT", Message: "already exists", Err: fmt.Errorf("%w: %w", ErrConflict, err)}
	case isDomainError(err):
		return err
	}

	c.logger.ErrorContext(ctx, "operation failed", append([]any{"op", op, "error", err}, args...)...)

	return &ServiceError{Op: op, Code: "OPERATION_FAILED", Message: "operation failed", Err: ErrOperationFailed}
}

// publish sends event after commit. A failed publish is logged and never fails the call.
func (c *core) publish(ctx context.Context, key string, event eventbus.Event) {
	if c.publisher == nil {
		return
	}

	err := c.publisher.Publish(ctx, key, event)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to publish event", "event_type", event.GetType(), "key", key, "error", err)
	}
}

// membership returns the caller's membership in teamID, or nil when there is none.
func membership(ctx context.Context, repos persistence.Repositories, teamID, userID string) (*models.TeamMember, error) {
	member, err := repos.Members().Find(ctx, teamID, userID)
	if errors.Is(err, persistence.ErrMemberNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return member, nil
}

// workflowMembership returns the caller's membership in the workflow's team, if any.
func workflowMembership(ctx context.Context, repos persistence.Repositories, workflow *models.Workflow, userID string) (*models.TeamMember, error) {
	if workflow.TeamID == nil {
		return nil, nil
	}

	return membership(ctx, repos, *workflow.TeamID, userID)
}

func requireCaller(caller string) error {
	if strings.TrimSpace(caller) == "" {
		return ErrUnauthorized
	}

	return nil
}
