// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/fuzzie/pkg/persistence"
	"github.com/dukex/fuzzie/pkg/persistence/sqlbase"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

var _ persistence.Persistence = (*Persistence)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
	repos  *repositories
}

// NewPersistence connects to databaseURL and runs the pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger,
		repos:  &repositories{q: database, logger: logger},
	}, nil
}

func (p *Persistence) Users() persistence.UserRepository { return p.repos.Users() }

func (p *Persistence) Teams() persistence.TeamRepository { return p.repos.Teams() }

func (p *Persistence) Members() persistence.MemberRepository { return p.repos.Members() }

func (p *Persistence) Workflows() persistence.WorkflowRepository { return p.repos.Workflows() }

func (p *Persistence) Notifications() persistence.NotificationRepository {
	return p.repos.Notifications()
}

// Transaction runs fn inside a database transaction, committing when fn returns nil.
func (p *Persistence) Transaction(ctx context.Context, fn func(ctx context.Context, repos persistence.Repositories) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = fn(ctx, &repositories{q: tx, logger: p.logger})
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			p.logger.ErrorContext(ctx, "failed to rollback transaction", "error", rollbackErr)
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

type repositories struct {
	q      querier
	logger *slog.Logger
}

func (r *repositories) Users() persistence.UserRepository {
	return &UserRepository{q: r.q}
}

func (r *repositories) Teams() persistence.TeamRepository {
	return &TeamRepository{q: r.q}
}

func (r *repositories) Members() persistence.MemberRepository {
	return &MemberRepository{q: r.q, logger: r.logger}
}

func (r *repositories) Workflows() persistence.WorkflowRepository {
	return &WorkflowRepository{q: r.q, logger: r.logger}
}

func (r *repositories) Notifications() persistence.NotificationRepository {
	return &NotificationRepository{q: r.q, logger: r.logger}
}

// mapError translates unique violations into persistence.ErrDuplicate.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", persistence.ErrDuplicate, pqErr.Constraint)
	}

	return err
}

func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

func notFound(err error, op, entity, id string, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.NewEntityError(op, entity, id, sentinel)
	}

	return fmt.Errorf("failed to scan %s: %w", entity, err)
}
