package authz

import "github.com/dukex/fuzzie/pkg/models"

// DefaultPolicies returns the operation → policy table.
func DefaultPolicies() map[Operation]Policy {
	return map[Operation]Policy{
		CreateTeamWorkflow: requireCapability("canCreateWorkflows", func(c models.Capabilities) bool { return c.CanCreateWorkflows }),
		UpdateWorkflow:     ownerOrCapability("canEditWorkflows", func(c models.Capabilities) bool { return c.CanEditWorkflows }),
		DeleteWorkflow:     ownerOrCapability("canDeleteWorkflows", func(c models.Capabilities) bool { return c.CanDeleteWorkflows }),
		ShareWorkflow:      shareWorkflow,
		ViewWorkflow:       viewWorkflow,
		InviteToTeam:       requireCapability("canInviteMembers", func(c models.Capabilities) bool { return c.CanInviteMembers }),
		RemoveFromTeam:     removeFromTeam,
		UpdateTeam:         requireRole(models.RoleOwner, models.RoleAdmin),
		DeleteTeam:         requireRole(models.RoleOwner),
		ViewTeam:           requireMembership,
	}
}

func requireMembership(s Subject) error {
	if s.Membership == nil {
		return deny("caller is not a team member")
	}

	return nil
}

func requireCapability(flag string, has func(models.Capabilities) bool) Policy {
	return func(s Subject) error {
		if s.Membership == nil {
			return deny("caller is not a team member")
		}

		if !has(s.Membership.Capabilities) {
			return deny("membership lacks %s", flag)
		}

		return nil
	}
}

func requireRole(roles ...models.Role) Policy {
	return func(s Subject) error {
		if s.Membership == nil {
			return deny("caller is not a team member")
		}

		for _, role := range roles {
			if s.Membership.Role == role {
				return nil
			}
		}

		return deny("role %s not allowed", s.Membership.Role)
	}
}

// ownerOrCapability lets the workflow owner through unconditionally, otherwise requires
// the flag on a membership in the workflow's team.
func ownerOrCapability(flag string, has func(models.Capabilities) bool) Policy {
	return func(s Subject) error {
		if s.Workflow == nil {
			return deny("no workflow")
		}

		if s.Workflow.OwnerID == s.CallerID {
			return nil
		}

		if s.Workflow.TeamID == nil {
			return deny("personal workflow owned by someone else")
		}

		if s.Membership == nil || s.Membership.TeamID != *s.Workflow.TeamID {
			return deny("caller is not a member of the workflow team")
		}

		if !has(s.Membership.Capabilities) {
			return deny("membership lacks %s", flag)
		}

		return nil
	}
}

func shareWorkflow(s Subject) error {
	if s.Workflow == nil || s.Workflow.OwnerID != s.CallerID {
		return deny("caller does not own the workflow")
	}

	if s.Membership == nil {
		return deny("caller is not a member of the target team")
	}

	return nil
}

func viewWorkflow(s Subject) error {
	if s.Workflow == nil {
		return deny("no workflow")
	}

	if s.Workflow.OwnerID == s.CallerID {
		return nil
	}

	if s.Workflow.TeamID == nil {
		return deny("personal workflow owned by someone else")
	}

	if s.Membership == nil || s.Membership.TeamID != *s.Workflow.TeamID {
		return deny("caller is not a member of the workflow team")
	}

	if !s.Workflow.Visibility.SharedWithTeam() {
		return deny("workflow is private")
	}

	return nil
}

// removeFromTeam checks the target before the caller: an owner target is refused no
// matter who asks.
func removeFromTeam(s Subject) error {
	if s.Target != nil && s.Target.IsOwner() {
		return ErrOwnerProtected
	}

	if s.Membership == nil {
		return deny("caller is not a team member")
	}

	if !s.Membership.IsOwner() && !s.Membership.CanManageRoles {
		return deny("membership lacks canManageRoles")
	}

	return nil
}
