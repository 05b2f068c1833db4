package services

import (
	"context"
	"strings"

	"github.com/dukex/fuzzie/pkg/authz"
	"github.com/dukex/fuzzie/pkg/events"
	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/otelhelper"
	"github.com/dukex/fuzzie/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// InviteNotificationContent is the notification text sent to an invited user.
const InviteNotificationContent = "You have been added to a team"

// recentWorkflowsLimit caps TeamDetails.RecentWorkflows.
const recentWorkflowsLimit = 5

type Team struct {
	core
}

// NewTeam creates a new team service.
func NewTeam(deps Dependencies) *Team {
	return &Team{core: newCore(deps, "team_service")}
}

type CreateTeamInput struct {
	Name        string
	Description string
	AvatarURL   string
}

// CreateTeam creates a team together with its sole owner membership for caller.
func (s *Team) CreateTeam(ctx context.Context, caller string, input CreateTeamInput) (*models.Team, error) {
	const op = "CreateTeam"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.team.create", attribute.String(otelhelper.CallerIDKey, caller))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "NAME_REQUIRED", "team name is required"))
	}

	now := s.now()
	team := &models.Team{
		ID:          s.newID(),
		Name:        name,
		Description: input.Description,
		AvatarURL:   input.AvatarURL,
		OwnerID:     caller,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		err := repos.Teams().Save(ctx, team)
		if err != nil {
			return err
		}

		return repos.Members().Create(ctx, &models.TeamMember{
			Capabilities: models.CapabilitiesForRole(models.RoleOwner),
			ID:           s.newID(),
			TeamID:       team.ID,
			UserID:       caller,
			Role:         models.RoleOwner,
			JoinedAt:     now,
		})
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "team_id", team.ID)
	}

	s.publish(ctx, team.ID, events.NewTeamChanged(events.TeamCreatedEvent, caller, team))

	return team, nil
}

// GetUserTeams lists the teams caller belongs to with caller's role and the member count.
func (s *Team) GetUserTeams(ctx context.Context, caller string) ([]*models.TeamSummary, error) {
	const op = "GetUserTeams"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.team.list", attribute.String(otelhelper.CallerIDKey, caller))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	summaries := make([]*models.TeamSummary, 0)

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		memberships, err := repos.Members().ListByUser(ctx, caller)
		if err != nil {
			return err
		}

		for _, m := range memberships {
			team, err := repos.Teams().GetByID(ctx, m.TeamID)
			if persistence.IsNotFound(err) {
				continue
			}

			if err != nil {
				return err
			}

			count, err := repos.Members().CountByTeam(ctx, team.ID)
			if err != nil {
				return err
			}

			summaries = append(summaries, &models.TeamSummary{
				ID:          team.ID,
				Name:        team.Name,
				Description: team.Description,
				AvatarURL:   team.AvatarURL,
				Role:        m.Role,
				MemberCount: count,
			})
		}

		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	return summaries, nil
}

// GetTeamDetails returns the team, its members with their profiles and the most recently
// modified team-visible workflows. Members only.
func (s *Team) GetTeamDetails(ctx context.Context, teamID, caller string) (*models.TeamDetails, error) {
	const op = "GetTeamDetails"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.team.details",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.TeamIDKey, teamID))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var details *models.TeamDetails

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		team, err := s.authorizeTeam(ctx, repos, authz.ViewTeam, teamID, caller)
		if err != nil {
			return err
		}

		members, err := repos.Members().ListByTeam(ctx, teamID)
		if err != nil {
			return err
		}

		profiles := make([]*models.MemberProfile, 0, len(members))

		for _, m := range members {
			profile := &models.MemberProfile{TeamMember: *m}

			user, err := repos.Users().GetByID(ctx, m.UserID)

			switch {
			case err == nil:
				profile.Name = user.Name
				profile.Email = user.Email
				profile.ProfileImage = user.ProfileImage
			case !persistence.IsNotFound(err):
				return err
			}

			profiles = append(profiles, profile)
		}

		workflows, err := s.teamVisibleWorkflows(ctx, repos, teamID)
		if err != nil {
			return err
		}

		if len(workflows) > recentWorkflowsLimit {
			workflows = workflows[:recentWorkflowsLimit]
		}

		details = &models.TeamDetails{Team: *team, Members: profiles, RecentWorkflows: workflows}

		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "team_id", teamID)
	}

	return details, nil
}

// GetTeamWorkflows lists the team's workflows with visibility team or public, newest first.
func (s *Team) GetTeamWorkflows(ctx context.Context, teamID, caller string) ([]*models.Workflow, error) {
	const op = "GetTeamWorkflows"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.team.workflows",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.TeamIDKey, teamID))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var workflows []*models.Workflow

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		_, err := s.authorizeTeam(ctx, repos, authz.ViewTeam, teamID, caller)
		if err != nil {
			return err
		}

		workflows, err = s.teamVisibleWorkflows(ctx, repos, teamID)

		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "team_id", teamID)
	}

	return workflows, nil
}

// InviteToTeam adds the user registered under email to the team with role admin or member
// and notifies them. Capabilities follow the role preset and are fixed from then on.
func (s *Team) InviteToTeam(ctx context.Context, teamID, caller, email string, role models.Role) (*models.TeamMember, error) {
	const op = "InviteToTeam"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.team.invite",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.TeamIDKey, teamID))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "EMAIL_REQUIRED", "email is required"))
	}

	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "INVALID_ROLE", "role must be admin or member"))
	}

	var member *models.TeamMember

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		_, err := s.authorizeTeam(ctx, repos, authz.InviteToTeam, teamID, caller)
		if err != nil {
			return err
		}

		user, err := repos.Users().GetByEmail(ctx, email)
		if err != nil {
			return err
		}

		existing, err := membership(ctx, repos, teamID, user.ID)
		if err != nil {
			return err
		}

		if existing != nil {
			return &ServiceError{Op: op, Code: "ALREADY_MEMBER", Message: "user is already a team member", Err: ErrConflict}
		}

		member = &models.TeamMember{
			Capabilities: models.CapabilitiesForRole(role),
			ID:           s.newID(),
			TeamID:       teamID,
			UserID:       user.ID,
			Role:         role,
			JoinedAt:     s.now(),
		}

		err = repos.Members().Create(ctx, member)
		if err != nil {
			return err
		}

		return repos.Notifications().Create(ctx, &models.Notification{
			ID:        s.newID(),
			UserID:    user.ID,
			Type:      models.NotificationTeamInvite,
			Content:   InviteNotificationContent,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "team_id", teamID)
	}

	s.publish(ctx, teamID, events.NewMemberChanged(events.TeamMemberInvitedEvent, caller, member))

	return member, nil
}

// RemoveFromTeam deletes a membership. The owner membership can never be removed.
func (s *Team) RemoveFromTeam(ctx context.Context, teamID, caller, memberID string) error {
	const op = "RemoveFromTeam"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.team.remove",
		attribute.String(otelhelper.CallerIDKey, caller),
		attribute.String(otelhelper.TeamIDKey, teamID),
		attribute.String(otelhelper.MemberIDKey, memberID))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return s.fail(ctx, span, op, err)
	}

	var target *models.TeamMember

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		_, err := repos.Teams().GetByID(ctx, teamID)
		if err != nil {
			return err
		}

		target, err = repos.Members().GetByID(ctx, memberID)
		if err != nil {
			return err
		}

		if target.TeamID != teamID {
			return persistence.NewEntityError("GetByID", "team member", memberID, persistence.ErrMemberNotFound)
		}

		callerMembership, err := membership(ctx, repos, teamID, caller)
		if err != nil {
			return err
		}

		err = s.authorizer.Authorize(ctx, authz.RemoveFromTeam, authz.Subject{
			CallerID:   caller,
			Membership: callerMembership,
			Target:     target,
		})
		if err != nil {
			return err
		}

		return repos.Members().Delete(ctx, memberID)
	})
	if err != nil {
		return s.fail(ctx, span, op, err, "team_id", teamID, "member_id", memberID)
	}

	s.publish(ctx, teamID, events.NewMemberChanged(events.TeamMemberRemovedEvent, caller, target))

	return nil
}

type UpdateTeamInput struct {
	Name        *string
	Description *string
	AvatarURL   *string
}

// UpdateTeam applies the non-nil fields. Owner or admin only.
func (s *Team) UpdateTeam(ctx context.Context, teamID, caller string, input UpdateTeamInput) (*models.Team, error) {
	const op = "UpdateTeam"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.team.update",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.TeamIDKey, teamID))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "NAME_REQUIRED", "team name cannot be empty"))
	}

	var team *models.Team

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error

		team, err = s.authorizeTeam(ctx, repos, authz.UpdateTeam, teamID, caller)
		if err != nil {
			return err
		}

		if input.Name != nil {
			team.Name = strings.TrimSpace(*input.Name)
		}

		if input.Description != nil {
			team.Description = *input.Description
		}

		if input.AvatarURL != nil {
			team.AvatarURL = *input.AvatarURL
		}

		team.UpdatedAt = s.now()

		return repos.Teams().Save(ctx, team)
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "team_id", teamID)
	}

	s.publish(ctx, teamID, events.NewTeamChanged(events.TeamUpdatedEvent, caller, team))

	return team, nil
}

// DeleteTeam removes the team and its memberships and detaches its workflows, which stay
// with their owners as private workflows. Owner only.
func (s *Team) DeleteTeam(ctx context.Context, teamID, caller string) error {
	const op = "DeleteTeam"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.team.delete",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.TeamIDKey, teamID))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return s.fail(ctx, span, op, err)
	}

	var team *models.Team

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error

		team, err = s.authorizeTeam(ctx, repos, authz.DeleteTeam, teamID, caller)
		if err != nil {
			return err
		}

		err = repos.Workflows().DetachTeam(ctx, teamID)
		if err != nil {
			return err
		}

		err = repos.Members().DeleteByTeam(ctx, teamID)
		if err != nil {
			return err
		}

		return repos.Teams().Delete(ctx, teamID)
	})
	if err != nil {
		return s.fail(ctx, span, op, err, "team_id", teamID)
	}

	s.publish(ctx, teamID, events.NewTeamChanged(events.TeamDeletedEvent, caller, team))

	return nil
}

// authorizeTeam loads the team and checks op against caller's membership in it.
func (s *Team) authorizeTeam(ctx context.Context, repos persistence.Repositories, op authz.Operation, teamID, caller string) (*models.Team, error) {
	team, err := repos.Teams().GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	callerMembership, err := membership(ctx, repos, teamID, caller)
	if err != nil {
		return nil, err
	}

	err = s.authorizer.Authorize(ctx, op, authz.Subject{CallerID: caller, Membership: callerMembership})
	if err != nil {
		return nil, err
	}

	return team, nil
}

func (s *Team) teamVisibleWorkflows(ctx context.Context, repos persistence.Repositories, teamID string) ([]*models.Workflow, error) {
	all, err := repos.Workflows().ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	visible := make([]*models.Workflow, 0, len(all))

	for _, w := range all {
		if w.Visibility.SharedWithTeam() {
			visible = append(visible, w)
		}
	}

	return visible, nil
}
