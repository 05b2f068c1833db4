package models

import "time"

// Role is a membership label. Authorization reads capability flags or compares roles
// for equality; roles carry no hierarchy.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// Capabilities are the independent permission flags held by a membership.
type Capabilities struct {
	CanCreateWorkflows bool `json:"can_create_workflows"`
	CanEditWorkflows   bool `json:"can_edit_workflows"`
	CanDeleteWorkflows bool `json:"can_delete_workflows"`
	CanInviteMembers   bool `json:"can_invite_members"`
	CanManageRoles     bool `json:"can_manage_roles"`
}

// AllCapabilities grants every flag.
func AllCapabilities() Capabilities {
	return Capabilities{
		CanCreateWorkflows: true,
		CanEditWorkflows:   true,
		CanDeleteWorkflows: true,
		CanInviteMembers:   true,
		CanManageRoles:     true,
	}
}

// CapabilitiesForRole returns the preset applied when a membership is created.
// Owners and admins get every flag, members get none.
func CapabilitiesForRole(role Role) Capabilities {
	if role == RoleOwner || role == RoleAdmin {
		return AllCapabilities()
	}

	return Capabilities{}
}

// Team is a group of users sharing workflows, with exactly one owner membership.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"                 validate:"required,min=1,max=255"`
	Description string    `json:"description"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamMember is one user's membership in a team.
type TeamMember struct {
	Capabilities

	ID       string    `json:"id"`
	TeamID   string    `json:"team_id"`
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// IsOwner reports whether the membership carries the owner role.
func (m *TeamMember) IsOwner() bool {
	return m != nil && m.Role == RoleOwner
}

// TeamSummary is a team as listed for one of its members.
type TeamSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        Role   `json:"role"`
	MemberCount int    `json:"member_count"`
}

// MemberProfile is a membership joined with the member's profile.
type MemberProfile struct {
	TeamMember

	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// TeamDetails is the full view of a team shown to its members.
type TeamDetails struct {
	Team

	Members         []*MemberProfile `json:"members"`
	RecentWorkflows []*Workflow      `json:"recent_workflows"`
}
