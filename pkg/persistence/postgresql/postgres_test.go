package postgresql_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/persistence"
	"github.com/dukex/fuzzie/pkg/persistence/postgresql"
	"github.com/dukex/fuzzie/pkg/testutil"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"notifications", "workflows", "team_members", "teams", "users", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("fuzzie_test"),
			postgres.WithUsername("fuzzie"),
			postgres.WithPassword("fuzzie"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = store.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return store, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer db.Close()

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	for _, table := range []string{"users", "teams", "team_members", "workflows", "notifications"} {
		var exists bool

		err = db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)", table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table)
	}
}

func TestPersistence_HealthCheck(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	assert.NoError(t, store.HealthCheck(ctx))
}

func seedTeam(ctx context.Context, t *testing.T, store persistence.Persistence, teamID string) {
	t.Helper()

	now := time.Now().UTC()

	require.NoError(t, store.Teams().Save(ctx, &models.Team{
		ID: teamID, Name: "Core", OwnerID: "owner", CreatedAt: now, UpdatedAt: now,
	}))
}

func TestPersistence_TransactionRollsBack(t *testing.T) {
	store, ctx, _ := setupTestDB(t)
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		now := time.Now().UTC()
		require.NoError(t, repos.Teams().Save(ctx, &models.Team{ID: "team-1", Name: "Core", OwnerID: "owner", CreatedAt: now, UpdatedAt: now}))

		_, err := repos.Teams().GetByID(ctx, "team-1")
		require.NoError(t, err)

		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Teams().GetByID(ctx, "team-1")
	assert.ErrorIs(t, err, persistence.ErrTeamNotFound)
}

func TestMemberRepository(t *testing.T) {
	store, ctx, _ := setupTestDB(t)
	seedTeam(ctx, t, store, "team-1")

	now := time.Now().UTC()
	owner := &models.TeamMember{
		ID: "m-1", TeamID: "team-1", UserID: "owner", Role: models.RoleOwner,
		Capabilities: models.AllCapabilities(), JoinedAt: now,
	}
	require.NoError(t, store.Members().Create(ctx, owner))

	err := store.Members().Create(ctx, &models.TeamMember{ID: "m-2", TeamID: "team-1", UserID: "owner", Role: models.RoleMember, JoinedAt: now})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	require.NoError(t, store.Members().Create(ctx, &models.TeamMember{
		ID: "m-3", TeamID: "team-1", UserID: "user", Role: models.RoleMember, JoinedAt: now.Add(time.Second),
	}))

	found, err := store.Members().Find(ctx, "team-1", "owner")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, found.Role)
	assert.Equal(t, models.AllCapabilities(), found.Capabilities)

	members, err := store.Members().ListByTeam(ctx, "team-1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "m-1", members[0].ID)

	count, err := store.Members().CountByTeam(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.Members().Delete(ctx, "m-3"))
	assert.ErrorIs(t, store.Members().Delete(ctx, "m-3"), persistence.ErrMemberNotFound)

	_, err = store.Members().Find(ctx, "team-1", "user")
	assert.ErrorIs(t, err, persistence.ErrMemberNotFound)
}

func TestWorkflowRepository(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	team := "team-1"
	workflow := testutil.CreateTestWorkflow("owner", testutil.InTeam(team, models.VisibilityTeam), func(w *models.Workflow) {
		w.ID = "wf-1"
		w.Name = "Issues to Slack"
		w.Templates = models.Templates{Slack: "New issue", SlackChannels: []string{"C1"}}
		w.CreatedAt = now
		w.UpdatedAt = now
	})

	require.NoError(t, store.Workflows().Save(ctx, workflow))

	loaded, err := store.Workflows().GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	require.NotNil(t, loaded.TeamID)
	assert.Equal(t, team, *loaded.TeamID)
	require.Len(t, loaded.Nodes, 2)
	assert.Equal(t, models.ServiceSlack, loaded.Nodes[1].Type)
	require.Len(t, loaded.Edges, 1)
	assert.Equal(t, []string{"C1"}, loaded.Templates.SlackChannels)
	assert.True(t, now.Equal(loaded.UpdatedAt))

	byTeam, err := store.Workflows().ListByTeam(ctx, team)
	require.NoError(t, err)
	assert.Len(t, byTeam, 1)

	require.NoError(t, store.Workflows().DetachTeam(ctx, team))

	loaded, err = store.Workflows().GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Nil(t, loaded.TeamID)
	assert.Equal(t, models.VisibilityPrivate, loaded.Visibility)

	byOwner, err := store.Workflows().ListByOwner(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)

	require.NoError(t, store.Workflows().Delete(ctx, "wf-1"))

	_, err = store.Workflows().GetByID(ctx, "wf-1")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestUserRepository_EmailUnique(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	now := time.Now().UTC()
	require.NoError(t, store.Users().Save(ctx, testutil.CreateTestUser("ada")))

	user, err := store.Users().GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada", user.ID)

	err = store.Users().Save(ctx, &models.User{ID: "u-2", Email: "Ada@Example.com", CreatedAt: now})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
}

func TestUserRepository_EmptyEmailsDoNotCollide(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	now := time.Now().UTC()
	require.NoError(t, store.Users().Save(ctx, &models.User{ID: "u-1", CreatedAt: now}))
	require.NoError(t, store.Users().Save(ctx, &models.User{ID: "u-2", CreatedAt: now}))

	_, err := store.Users().GetByEmail(ctx, "")
	assert.ErrorIs(t, err, persistence.ErrUserNotFound)
}
