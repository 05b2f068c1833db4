package web

import "github.com/dukex/fuzzie/pkg/models"

// CreateTeamRequest represents the request body for creating a team.
type CreateTeamRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=1000"`
	AvatarURL   string `json:"avatar_url"  validate:"omitempty,url"`
}

// UpdateTeamRequest represents the request body for updating a team.
// All fields are optional to support partial updates.
type UpdateTeamRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	AvatarURL   *string `json:"avatar_url,omitempty"  validate:"omitempty,url"`
}

type InviteRequest struct {
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role"  validate:"required,oneof=admin member"`
}

// CreateWorkflowRequest represents the request body for creating a workflow. Nodes and edges
// are optional; an empty graph is created when both are omitted.
type CreateWorkflowRequest struct {
	Name        string            `json:"name"                 validate:"required,min=1,max=255"`
	Description string            `json:"description"`
	TeamID      *string           `json:"team_id,omitempty"    validate:"omitempty,min=1"`
	Visibility  models.Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=private team public"`
	Nodes       []*models.Node    `json:"nodes,omitempty"      validate:"omitempty,dive"`
	Edges       []*models.Edge    `json:"edges,omitempty"      validate:"omitempty,dive"`
}

type GenerateWorkflowRequest struct {
	Prompt string  `json:"prompt"            validate:"required"`
	TeamID *string `json:"team_id,omitempty" validate:"omitempty,min=1"`
}

// UpdateWorkflowRequest represents the request body for updating a workflow. Sending either
// nodes or edges replaces the whole graph.
type UpdateWorkflowRequest struct {
	Name        *string            `json:"name,omitempty"        validate:"omitempty,min=1,max=255"`
	Description *string            `json:"description,omitempty"`
	Visibility  *models.Visibility `json:"visibility,omitempty"  validate:"omitempty,oneof=private team public"`
	Nodes       []*models.Node     `json:"nodes,omitempty"       validate:"omitempty,dive"`
	Edges       []*models.Edge     `json:"edges,omitempty"       validate:"omitempty,dive"`
	Templates   *models.Templates  `json:"templates,omitempty"`
}

type ShareWorkflowRequest struct {
	TeamID     string            `json:"team_id"    validate:"required"`
	Visibility models.Visibility `json:"visibility" validate:"required,oneof=team public"`
}

type CloneWorkflowRequest struct {
	TeamID *string `json:"team_id,omitempty" validate:"omitempty,min=1"`
}

type PublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

// SaveTemplateRequest is the node editor payload for one connector. AccessToken is used for
// the execution only and is never stored.
type SaveTemplateRequest struct {
	Content     string         `json:"content"`
	Channels    []string       `json:"channels,omitempty"`
	NotionDBID  string         `json:"notion_db_id,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	Execute     bool           `json:"execute"`
	Action      string         `json:"action,omitempty"`
	AccessToken string         `json:"access_token,omitempty"`
}
