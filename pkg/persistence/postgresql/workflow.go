package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	q      querier
	logger *slog.Logger
}

const workflowColumns = `
	id
  , name
  , description
  , owner_id
  , team_id
  , visibility
  , nodes
  , edges
  , templates
  , published
  , is_template
  , created_at
  , updated_at
`

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE id = $1`, id)

	workflow, err := scanWorkflow(row)
	if err != nil {
		return nil, notFound(err, "GetByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

// Save upserts a workflow, storing the graph and templates as JSONB.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	nodesJSON, err := json.Marshal(nonNil(workflow.Nodes))
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	edgesJSON, err := json.Marshal(nonNil(workflow.Edges))
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}

	templatesJSON, err := json.Marshal(workflow.Templates)
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}

	query := `
		INSERT INTO workflows (` + workflowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			owner_id = EXCLUDED.owner_id,
			team_id = EXCLUDED.team_id,
			visibility = EXCLUDED.visibility,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			templates = EXCLUDED.templates,
			published = EXCLUDED.published,
			is_template = EXCLUDED.is_template,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.q.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		workflow.OwnerID,
		workflow.TeamID,
		workflow.Visibility,
		nodesJSON,
		edgesJSON,
		templatesJSON,
		workflow.Published,
		workflow.IsTemplate,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewEntityError("Save", "workflow", workflow.ID, mapError(err))
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return persistence.NewEntityError("Delete", "workflow", id, err)
	}

	return requireAffected(result, "Delete", "workflow", id, persistence.ErrWorkflowNotFound)
}

func (r *WorkflowRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Workflow, error) {
	return r.list(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE owner_id = $1 ORDER BY updated_at DESC, id`, ownerID)
}

func (r *WorkflowRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.Workflow, error) {
	return r.list(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE team_id = $1 ORDER BY updated_at DESC, id`, teamID)
}

func (r *WorkflowRepository) DetachTeam(ctx context.Context, teamID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE workflows SET team_id = NULL, visibility = $2 WHERE team_id = $1`, teamID, models.VisibilityPrivate)
	if err != nil {
		return persistence.NewEntityError("DetachTeam", "team", teamID, err)
	}

	return nil
}

func (r *WorkflowRepository) list(ctx context.Context, query string, arg string) ([]*models.Workflow, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func scanWorkflow(row scanner) (*models.Workflow, error) {
	var (
		workflow                           models.Workflow
		teamID                             sql.NullString
		nodesJSON, edgesJSON, templatesRaw []byte
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.OwnerID,
		&teamID,
		&workflow.Visibility,
		&nodesJSON,
		&edgesJSON,
		&templatesRaw,
		&workflow.Published,
		&workflow.IsTemplate,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if teamID.Valid {
		workflow.TeamID = &teamID.String
	}

	err = json.Unmarshal(nodesJSON, &workflow.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}

	err = json.Unmarshal(edgesJSON, &workflow.Edges)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	err = json.Unmarshal(templatesRaw, &workflow.Templates)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal templates: %w", err)
	}

	return &workflow, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}

// NotificationRepository handles notification database operations.
type NotificationRepository struct {
	q      querier
	logger *slog.Logger
}

func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		notification.ID, notification.UserID, notification.Type, notification.Content, notification.CreatedAt,
	)
	if err != nil {
		return persistence.NewEntityError("Create", "notification", notification.ID, mapError(err))
	}

	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, type, content, created_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	notifications := make([]*models.Notification, 0)

	for rows.Next() {
		var n models.Notification

		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Content, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		notifications = append(notifications, &n)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}
