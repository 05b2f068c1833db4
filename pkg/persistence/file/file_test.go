package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/tmp/test", NewPersistence("/tmp/test").root)
	assert.Equal(t, "/tmp/test", NewPersistence("file:///tmp/test").root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.ErrorIs(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()), os.ErrNotExist)
}

func TestPersistence_TransactionCommits(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewPersistence(root)

	err := store.Transaction(t.Context(), func(ctx context.Context, repos persistence.Repositories) error {
		require.NoError(t, repos.Teams().Save(ctx, &models.Team{ID: "team-1", Name: "Core", OwnerID: "u-1"}))
		require.NoError(t, repos.Members().Create(ctx, &models.TeamMember{ID: "m-1", TeamID: "team-1", UserID: "u-1", Role: models.RoleOwner}))

		// Writes are visible inside the same transaction.
		member, err := repos.Members().Find(ctx, "team-1", "u-1")
		require.NoError(t, err)
		assert.Equal(t, "m-1", member.ID)

		return nil
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, stateFile))
	require.NoError(t, err)

	// A fresh instance reads the committed state back from disk.
	reopened := NewPersistence(root)

	team, err := reopened.Teams().GetByID(t.Context(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, "Core", team.Name)

	count, err := reopened.Members().CountByTeam(t.Context(), "team-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPersistence_ReadOnlyTransactionWritesNothing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewPersistence(root)
	path := filepath.Join(root, stateFile)

	require.NoError(t, store.Teams().Save(t.Context(), &models.Team{ID: "team-1", Name: "Core", OwnerID: "u-1"}))
	require.NoError(t, os.Remove(path))

	err := store.Transaction(t.Context(), func(ctx context.Context, repos persistence.Repositories) error {
		_, err := repos.Teams().GetByID(ctx, "team-1")

		return err
	})
	require.NoError(t, err)

	_, err = store.Workflows().ListByOwner(t.Context(), "u-1")
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = store.Transaction(t.Context(), func(ctx context.Context, repos persistence.Repositories) error {
		return repos.Teams().Save(ctx, &models.Team{ID: "team-2", Name: "Ops", OwnerID: "u-1"})
	})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestPersistence_TransactionRollsBack(t *testing.T) {
	t.Parallel()

	store := NewPersistence(t.TempDir())
	boom := errors.New("boom")

	err := store.Transaction(t.Context(), func(ctx context.Context, repos persistence.Repositories) error {
		require.NoError(t, repos.Teams().Save(ctx, &models.Team{ID: "team-1", Name: "Core"}))

		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Teams().GetByID(t.Context(), "team-1")
	assert.ErrorIs(t, err, persistence.ErrTeamNotFound)
}

func TestPersistence_ReturnedValuesAreDetached(t *testing.T) {
	t.Parallel()

	store := NewPersistence(t.TempDir())
	ctx := t.Context()

	require.NoError(t, store.Workflows().Save(ctx, &models.Workflow{ID: "wf-1", Name: "Original", OwnerID: "u-1"}))

	loaded, err := store.Workflows().GetByID(ctx, "wf-1")
	require.NoError(t, err)

	loaded.Name = "Mutated"

	again, err := store.Workflows().GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
}

func TestMemberRepository_UniqueTeamUser(t *testing.T) {
	t.Parallel()

	store := NewPersistence(t.TempDir())
	ctx := t.Context()

	require.NoError(t, store.Members().Create(ctx, &models.TeamMember{ID: "m-1", TeamID: "team-1", UserID: "u-1", Role: models.RoleMember}))

	err := store.Members().Create(ctx, &models.TeamMember{ID: "m-2", TeamID: "team-1", UserID: "u-1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	// Same user in another team is fine.
	require.NoError(t, store.Members().Create(ctx, &models.TeamMember{ID: "m-3", TeamID: "team-2", UserID: "u-1", Role: models.RoleMember}))

	memberships, err := store.Members().ListByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, memberships, 2)
}

func TestMemberRepository_ListByTeamOrdersByJoinDate(t *testing.T) {
	t.Parallel()

	store := NewPersistence(t.TempDir())
	ctx := t.Context()
	now := time.Now().UTC()

	require.NoError(t, store.Members().Create(ctx, &models.TeamMember{ID: "late", TeamID: "t", UserID: "b", JoinedAt: now.Add(time.Hour)}))
	require.NoError(t, store.Members().Create(ctx, &models.TeamMember{ID: "early", TeamID: "t", UserID: "a", JoinedAt: now}))

	members, err := store.Members().ListByTeam(ctx, "t")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "early", members[0].ID)
	assert.Equal(t, "late", members[1].ID)

	require.NoError(t, store.Members().DeleteByTeam(ctx, "t"))

	count, err := store.Members().CountByTeam(ctx, "t")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUserRepository(t *testing.T) {
	t.Parallel()

	store := NewPersistence(t.TempDir())
	ctx := t.Context()

	require.NoError(t, store.Users().Save(ctx, &models.User{ID: "u-1", Email: "Ada@example.com", Name: "Ada"}))

	user, err := store.Users().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)

	err = store.Users().Save(ctx, &models.User{ID: "u-2", Email: "ada@example.com"})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	_, err = store.Users().GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, persistence.ErrUserNotFound)

	require.NoError(t, store.Users().Save(ctx, &models.User{ID: "u-3"}))
	require.NoError(t, store.Users().Save(ctx, &models.User{ID: "u-4"}))

	_, err = store.Users().GetByEmail(ctx, "")
	assert.ErrorIs(t, err, persistence.ErrUserNotFound)
}

func TestWorkflowRepository_ListAndDetach(t *testing.T) {
	t.Parallel()

	store := NewPersistence(t.TempDir())
	ctx := t.Context()
	now := time.Now().UTC()
	team := "team-1"

	require.NoError(t, store.Workflows().Save(ctx, &models.Workflow{ID: "old", OwnerID: "u-1", TeamID: &team, Visibility: models.VisibilityTeam, UpdatedAt: now}))
	require.NoError(t, store.Workflows().Save(ctx, &models.Workflow{ID: "new", OwnerID: "u-1", TeamID: &team, Visibility: models.VisibilityPublic, UpdatedAt: now.Add(time.Minute)}))
	require.NoError(t, store.Workflows().Save(ctx, &models.Workflow{ID: "other", OwnerID: "u-2", Visibility: models.VisibilityPrivate, UpdatedAt: now}))

	owned, err := store.Workflows().ListByOwner(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "new", owned[0].ID)

	inTeam, err := store.Workflows().ListByTeam(ctx, team)
	require.NoError(t, err)
	assert.Len(t, inTeam, 2)

	require.NoError(t, store.Workflows().DetachTeam(ctx, team))

	inTeam, err = store.Workflows().ListByTeam(ctx, team)
	require.NoError(t, err)
	assert.Empty(t, inTeam)

	detached, err := store.Workflows().GetByID(ctx, "new")
	require.NoError(t, err)
	assert.Nil(t, detached.TeamID)
	assert.Equal(t, models.VisibilityPrivate, detached.Visibility)

	require.NoError(t, store.Workflows().Delete(ctx, "new"))
	assert.ErrorIs(t, store.Workflows().Delete(ctx, "new"), persistence.ErrWorkflowNotFound)
}

func TestNotificationRepository(t *testing.T) {
	t.Parallel()

	store := NewPersistence(t.TempDir())
	ctx := t.Context()

	require.NoError(t, store.Notifications().Create(ctx, &models.Notification{
		ID:      "n-1",
		UserID:  "u-1",
		Type:    models.NotificationTeamInvite,
		Content: "You have been added to a team",
	}))

	notifications, err := store.Notifications().ListByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTeamInvite, notifications[0].Type)
}
