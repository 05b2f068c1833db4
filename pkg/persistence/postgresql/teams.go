package postgresql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/persistence"
)

// TeamRepository handles team-related database operations.
type TeamRepository struct {
	q querier
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , avatar_url
		  , owner_id
		  , created_at
		  , updated_at
		FROM teams
		WHERE id = $1
	`

	var team models.Team

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&team.ID, &team.Name, &team.Description, &team.AvatarURL, &team.OwnerID, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "GetByID", "team", id, persistence.ErrTeamNotFound)
	}

	return &team, nil
}

func (r *TeamRepository) Save(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (id, name, description, avatar_url, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			avatar_url = EXCLUDED.avatar_url,
			owner_id = EXCLUDED.owner_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query,
		team.ID, team.Name, team.Description, team.AvatarURL, team.OwnerID, team.CreatedAt, team.UpdatedAt,
	)
	if err != nil {
		return persistence.NewEntityError("Save", "team", team.ID, mapError(err))
	}

	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return persistence.NewEntityError("Delete", "team", id, err)
	}

	return requireAffected(result, "Delete", "team", id, persistence.ErrTeamNotFound)
}

// MemberRepository handles team membership database operations.
type MemberRepository struct {
	q      querier
	logger *slog.Logger
}

const memberColumns = `
	id
  , team_id
  , user_id
  , role
  , can_create_workflows
  , can_edit_workflows
  , can_delete_workflows
  , can_invite_members
  , can_manage_roles
  , joined_at
`

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*models.TeamMember, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM team_members WHERE id = $1`, id)

	member, err := scanMember(row)
	if err != nil {
		return nil, notFound(err, "GetByID", "team member", id, persistence.ErrMemberNotFound)
	}

	return member, nil
}

func (r *MemberRepository) Find(ctx context.Context, teamID, userID string) (*models.TeamMember, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)

	member, err := scanMember(row)
	if err != nil {
		return nil, notFound(err, "Find", "team member", teamID+"/"+userID, persistence.ErrMemberNotFound)
	}

	return member, nil
}

func (r *MemberRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.TeamMember, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM team_members WHERE team_id = $1 ORDER BY joined_at, id`, teamID)
}

func (r *MemberRepository) ListByUser(ctx context.Context, userID string) ([]*models.TeamMember, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM team_members WHERE user_id = $1 ORDER BY joined_at, id`, userID)
}

func (r *MemberRepository) list(ctx context.Context, query string, arg string) ([]*models.TeamMember, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	members := make([]*models.TeamMember, 0)

	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}

		members = append(members, member)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}

	return members, nil
}

func (r *MemberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		member.ID,
		member.TeamID,
		member.UserID,
		member.Role,
		member.CanCreateWorkflows,
		member.CanEditWorkflows,
		member.CanDeleteWorkflows,
		member.CanInviteMembers,
		member.CanManageRoles,
		member.JoinedAt,
	)
	if err != nil {
		return persistence.NewEntityError("Create", "team member", member.ID, mapError(err))
	}

	return nil
}

func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return persistence.NewEntityError("Delete", "team member", id, err)
	}

	return requireAffected(result, "Delete", "team member", id, persistence.ErrMemberNotFound)
}

func (r *MemberRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID)
	if err != nil {
		return persistence.NewEntityError("DeleteByTeam", "team", teamID, err)
	}

	return nil
}

func (r *MemberRepository) CountByTeam(ctx context.Context, teamID string) (int, error) {
	var count int

	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM team_members WHERE team_id = $1`, teamID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count team members: %w", err)
	}

	return count, nil
}

func scanMember(row scanner) (*models.TeamMember, error) {
	var member models.TeamMember

	err := row.Scan(
		&member.ID,
		&member.TeamID,
		&member.UserID,
		&member.Role,
		&member.CanCreateWorkflows,
		&member.CanEditWorkflows,
		&member.CanDeleteWorkflows,
		&member.CanInviteMembers,
		&member.CanManageRoles,
		&member.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan team member: %w", err)
	}

	return &member, nil
}

func requireAffected(result interface{ RowsAffected() (int64, error) }, op, entity, id string, sentinel error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewEntityError(op, entity, id, sentinel)
	}

	return nil
}
