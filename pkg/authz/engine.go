// Package authz evaluates team roles and membership capabilities for every team- and
// workflow-scoped operation.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/fuzzie/pkg/models"
)

var (
	// ErrForbidden is returned for every denied operation. It never names the missing flag.
	ErrForbidden = errors.New("forbidden")

	// ErrOwnerProtected is returned when an operation targets a team's owner membership.
	ErrOwnerProtected = errors.New("team owner is protected")
)

// Operation names an authorization-gated operation.
type Operation string

const (
	CreateTeamWorkflow Operation = "team.workflow.create"
	UpdateWorkflow     Operation = "workflow.update"
	DeleteWorkflow     Operation = "workflow.delete"
	ShareWorkflow      Operation = "workflow.share"
	ViewWorkflow       Operation = "workflow.view"
	InviteToTeam       Operation = "team.member.invite"
	RemoveFromTeam     Operation = "team.member.remove"
	UpdateTeam         Operation = "team.update"
	DeleteTeam         Operation = "team.delete"
	ViewTeam           Operation = "team.view"
)

// Subject is the state consulted for one decision.
type Subject struct {
	CallerID string

	// Membership is the caller's membership in the team the operation is scoped to,
	// or nil when the caller is not a member.
	Membership *models.TeamMember

	// Workflow is the target workflow of workflow-scoped operations.
	Workflow *models.Workflow

	// Target is the membership being acted on by RemoveFromTeam.
	Target *models.TeamMember
}

// Policy allows an operation by returning nil.
type Policy func(s Subject) error

// denial carries the internal reason for a refusal; callers only ever see ErrForbidden.
type denial struct {
	reason string
}

func (d *denial) Error() string {
	return d.reason
}

func deny(format string, args ...any) error {
	return &denial{reason: fmt.Sprintf(format, args...)}
}

// Engine maps operations to policies.
type Engine struct {
	logger   *slog.Logger
	policies map[Operation]Policy
}

// NewEngine creates an Engine with the default policy table.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger:   logger,
		policies: DefaultPolicies(),
	}
}

// Authorize returns nil when the caller may perform op, ErrOwnerProtected when the op
// targets an owner membership, and ErrForbidden otherwise.
func (e *Engine) Authorize(ctx context.Context, op Operation, s Subject) error {
	policy, ok := e.policies[op]
	if !ok {
		e.logger.ErrorContext(ctx, "no policy registered", "operation", op)

		return ErrForbidden
	}

	if s.CallerID == "" {
		e.logger.DebugContext(ctx, "authorization denied", "operation", op, "reason", "anonymous caller")

		return ErrForbidden
	}

	err := policy(s)
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrOwnerProtected) {
		e.logger.DebugContext(ctx, "authorization denied", "operation", op, "caller", s.CallerID, "reason", "owner protected")

		return ErrOwnerProtected
	}

	e.logger.DebugContext(ctx, "authorization denied", "operation", op, "caller", s.CallerID, "reason", err.Error())

	return ErrForbidden
}
