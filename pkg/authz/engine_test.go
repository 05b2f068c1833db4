package authz

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

const teamID = "team-1"

func newTestEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func member(userID string, role models.Role, caps models.Capabilities) *models.TeamMember {
	return &models.TeamMember{
		ID:           "m-" + userID,
		TeamID:       teamID,
		UserID:       userID,
		Role:         role,
		Capabilities: caps,
	}
}

func teamWorkflow(ownerID string, visibility models.Visibility) *models.Workflow {
	return testutil.CreateTestWorkflow(ownerID, testutil.InTeam(teamID, visibility))
}

func TestEngine_Authorize(t *testing.T) {
	t.Parallel()

	owner := member("owner", models.RoleOwner, models.AllCapabilities())
	admin := member("admin", models.RoleAdmin, models.AllCapabilities())
	plain := member("plain", models.RoleMember, models.Capabilities{})
	editor := member("editor", models.RoleMember, models.Capabilities{CanEditWorkflows: true})
	// Role label says admin but capabilities were never granted: flags decide.
	demotedAdmin := member("demoted", models.RoleAdmin, models.Capabilities{})
	manager := member("manager", models.RoleMember, models.Capabilities{CanManageRoles: true})

	otherTeam := "team-2"
	foreignMembership := &models.TeamMember{TeamID: otherTeam, UserID: "editor", Role: models.RoleAdmin, Capabilities: models.AllCapabilities()}

	tests := []struct {
		name    string
		op      Operation
		subject Subject
		want    error
	}{
		{"create team workflow with flag", CreateTeamWorkflow, Subject{CallerID: "admin", Membership: admin}, nil},
		{"create team workflow without flag", CreateTeamWorkflow, Subject{CallerID: "plain", Membership: plain}, ErrForbidden},
		{"create team workflow as non member", CreateTeamWorkflow, Subject{CallerID: "stranger"}, ErrForbidden},
		{"create team workflow admin label without flag", CreateTeamWorkflow, Subject{CallerID: "demoted", Membership: demotedAdmin}, ErrForbidden},

		{"update by owner without membership", UpdateWorkflow, Subject{CallerID: "plain", Workflow: teamWorkflow("plain", models.VisibilityPrivate)}, nil},
		{"update by owner with no capabilities", UpdateWorkflow, Subject{CallerID: "plain", Membership: plain, Workflow: teamWorkflow("plain", models.VisibilityTeam)}, nil},
		{"update by capability holder", UpdateWorkflow, Subject{CallerID: "editor", Membership: editor, Workflow: teamWorkflow("owner", models.VisibilityTeam)}, nil},
		{"update by member without flag", UpdateWorkflow, Subject{CallerID: "plain", Membership: plain, Workflow: teamWorkflow("owner", models.VisibilityTeam)}, ErrForbidden},
		{"update personal workflow of someone else", UpdateWorkflow, Subject{CallerID: "admin", Membership: admin, Workflow: &models.Workflow{OwnerID: "owner"}}, ErrForbidden},
		{"update with membership of another team", UpdateWorkflow, Subject{CallerID: "editor", Membership: foreignMembership, Workflow: teamWorkflow("owner", models.VisibilityTeam)}, ErrForbidden},

		{"delete by capability holder", DeleteWorkflow, Subject{CallerID: "admin", Membership: admin, Workflow: teamWorkflow("owner", models.VisibilityTeam)}, nil},
		{"delete by editor without delete flag", DeleteWorkflow, Subject{CallerID: "editor", Membership: editor, Workflow: teamWorkflow("owner", models.VisibilityTeam)}, ErrForbidden},
		{"delete by owner", DeleteWorkflow, Subject{CallerID: "owner", Workflow: &models.Workflow{OwnerID: "owner"}}, nil},

		{"share own workflow as member", ShareWorkflow, Subject{CallerID: "plain", Membership: plain, Workflow: &models.Workflow{OwnerID: "plain"}}, nil},
		{"share own workflow as non member", ShareWorkflow, Subject{CallerID: "plain", Workflow: &models.Workflow{OwnerID: "plain"}}, ErrForbidden},
		{"share someone else's workflow", ShareWorkflow, Subject{CallerID: "admin", Membership: admin, Workflow: &models.Workflow{OwnerID: "plain"}}, ErrForbidden},

		{"view own private workflow", ViewWorkflow, Subject{CallerID: "owner", Workflow: testutil.CreateTestWorkflow("owner")}, nil},
		{"view team workflow as member", ViewWorkflow, Subject{CallerID: "plain", Membership: plain, Workflow: teamWorkflow("owner", models.VisibilityTeam)}, nil},
		{"view public team workflow as member", ViewWorkflow, Subject{CallerID: "plain", Membership: plain, Workflow: teamWorkflow("owner", models.VisibilityPublic)}, nil},
		{"view private team workflow as member", ViewWorkflow, Subject{CallerID: "admin", Membership: admin, Workflow: teamWorkflow("owner", models.VisibilityPrivate)}, ErrForbidden},
		{"view team workflow as non member", ViewWorkflow, Subject{CallerID: "stranger", Workflow: teamWorkflow("owner", models.VisibilityPublic)}, ErrForbidden},
		{"view personal workflow of someone else", ViewWorkflow, Subject{CallerID: "stranger", Workflow: &models.Workflow{OwnerID: "owner", Visibility: models.VisibilityPublic}}, ErrForbidden},

		{"invite with flag", InviteToTeam, Subject{CallerID: "admin", Membership: admin}, nil},
		{"invite without flag", InviteToTeam, Subject{CallerID: "plain", Membership: plain}, ErrForbidden},

		{"remove member as owner", RemoveFromTeam, Subject{CallerID: "owner", Membership: owner, Target: plain}, nil},
		{"remove member with manage roles", RemoveFromTeam, Subject{CallerID: "manager", Membership: manager, Target: plain}, nil},
		{"remove member without manage roles", RemoveFromTeam, Subject{CallerID: "editor", Membership: editor, Target: plain}, ErrForbidden},
		{"remove owner as owner", RemoveFromTeam, Subject{CallerID: "owner", Membership: owner, Target: owner}, ErrOwnerProtected},
		{"remove owner as admin", RemoveFromTeam, Subject{CallerID: "admin", Membership: admin, Target: owner}, ErrOwnerProtected},
		{"remove owner as non member", RemoveFromTeam, Subject{CallerID: "stranger", Target: owner}, ErrOwnerProtected},

		{"update team as owner", UpdateTeam, Subject{CallerID: "owner", Membership: owner}, nil},
		{"update team as admin", UpdateTeam, Subject{CallerID: "admin", Membership: admin}, nil},
		{"update team as admin label without flags", UpdateTeam, Subject{CallerID: "demoted", Membership: demotedAdmin}, nil},
		{"update team as member", UpdateTeam, Subject{CallerID: "manager", Membership: manager}, ErrForbidden},

		{"delete team as owner", DeleteTeam, Subject{CallerID: "owner", Membership: owner}, nil},
		{"delete team as admin", DeleteTeam, Subject{CallerID: "admin", Membership: admin}, ErrForbidden},

		{"view team as member", ViewTeam, Subject{CallerID: "plain", Membership: plain}, nil},
		{"view team as non member", ViewTeam, Subject{CallerID: "stranger"}, ErrForbidden},

		{"anonymous caller", UpdateWorkflow, Subject{Workflow: &models.Workflow{}}, ErrForbidden},
		{"unknown operation", Operation("nope"), Subject{CallerID: "owner", Membership: owner}, ErrForbidden},
	}

	engine := newTestEngine()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := engine.Authorize(t.Context(), tt.op, tt.subject)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.want, err)
			}
		})
	}
}

func TestEngine_DenialDoesNotLeakReason(t *testing.T) {
	t.Parallel()

	err := newTestEngine().Authorize(t.Context(), CreateTeamWorkflow, Subject{
		CallerID:   "plain",
		Membership: member("plain", models.RoleMember, models.Capabilities{}),
	})

	assert.Equal(t, "forbidden", err.Error())
}

func TestEngine_AuthorizeOwnerAndStranger(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	owner := member("owner", models.RoleOwner, models.AllCapabilities())

	assert.NoError(t, engine.Authorize(t.Context(), DeleteTeam, Subject{CallerID: "owner", Membership: owner}))
	assert.ErrorIs(t, engine.Authorize(t.Context(), DeleteTeam, Subject{CallerID: "stranger"}), ErrForbidden)
}
