package services

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/fuzzie/pkg/mocks"
	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/persistence/file"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *file.Persistence
	bus       *mocks.MockEventBus
	teams     *Team
	workflows *Workflow
	users     *User
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ticking returns a clock advancing one second per call so modification order is stable.
func ticking() func() time.Time {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var n atomic.Int64

	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

func newFixture(t *testing.T, opts ...WorkflowOption) *fixture {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	deps := Dependencies{Persistence: store, Logger: testLogger(), Publisher: bus}
	clock := ticking()

	f := &fixture{
		store:     store,
		bus:       bus,
		teams:     NewTeam(deps),
		workflows: NewWorkflow(deps, opts...),
		users:     NewUser(deps),
	}
	f.teams.now = clock
	f.workflows.now = clock
	f.users.now = clock

	return f
}

// user registers a profile for id with email id@example.com.
func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()

	user, err := f.users.EnsureProfile(t.Context(), Profile{ID: id, Email: id + "@example.com", Name: "User " + id})
	require.NoError(t, err)

	return user
}

// team creates a team owned by owner.
func (f *fixture) team(t *testing.T, owner string) *models.Team {
	t.Helper()

	team, err := f.teams.CreateTeam(t.Context(), owner, CreateTeamInput{Name: "Team of " + owner})
	require.NoError(t, err)

	return team
}

// invite adds id to the team with role, inviting as inviter.
func (f *fixture) invite(t *testing.T, teamID, inviter, id string, role models.Role) *models.TeamMember {
	t.Helper()

	member, err := f.teams.InviteToTeam(t.Context(), teamID, inviter, id+"@example.com", role)
	require.NoError(t, err)

	return member
}

func (f *fixture) ownerCount(t *testing.T, teamID string) int {
	t.Helper()

	members, err := f.store.Members().ListByTeam(t.Context(), teamID)
	require.NoError(t, err)

	count := 0

	for _, m := range members {
		if m.Role == models.RoleOwner {
			count++
		}
	}

	return count
}

func ptr[T any](v T) *T {
	return &v
}
