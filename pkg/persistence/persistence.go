// Package persistence provides the storage abstraction for users, teams, memberships,
// workflows and notifications.
package persistence

import (
	"context"

	"github.com/dukex/fuzzie/pkg/models"
)

// Persistence is a transactional store. Every repository method observes the writes made
// earlier in the same transaction.
type Persistence interface {
	Repositories

	// Transaction runs fn against a consistent view. The writes fn makes are committed
	// atomically when it returns nil and discarded otherwise.
	Transaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// Repositories groups the per-entity repositories of one view.
type Repositories interface {
	Users() UserRepository
	Teams() TeamRepository
	Members() MemberRepository
	Workflows() WorkflowRepository
	Notifications() NotificationRepository
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Save inserts or updates the user. A different user holding the same email yields ErrDuplicate.
	Save(ctx context.Context, user *models.User) error
}

type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*models.Team, error)
	Save(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id string) error
}

type MemberRepository interface {
	GetByID(ctx context.Context, id string) (*models.TeamMember, error)
	// Find returns the membership of userID in teamID or ErrMemberNotFound.
	Find(ctx context.Context, teamID, userID string) (*models.TeamMember, error)
	ListByTeam(ctx context.Context, teamID string) ([]*models.TeamMember, error)
	ListByUser(ctx context.Context, userID string) ([]*models.TeamMember, error)
	// Create inserts a membership. A second membership for the same (team, user) yields ErrDuplicate.
	Create(ctx context.Context, member *models.TeamMember) error
	Delete(ctx context.Context, id string) error
	DeleteByTeam(ctx context.Context, teamID string) error
	CountByTeam(ctx context.Context, teamID string) (int, error)
}

type WorkflowRepository interface {
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
	// ListByOwner returns the owner's workflows, most recently updated first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error)
	// ListByTeam returns the workflows attached to teamID, most recently updated first.
	ListByTeam(ctx context.Context, teamID string) ([]*models.Workflow, error)
	// DetachTeam clears the team of every workflow attached to teamID and makes it private.
	DetachTeam(ctx context.Context, teamID string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]*models.Notification, error)
}
