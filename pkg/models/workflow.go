package models

import (
	"maps"
	"slices"
	"time"
)

// Visibility is the access tier of a workflow.
type Visibility string

const (
	VisibilityPrivate Visibility = "private" // Owner only
	VisibilityTeam    Visibility = "team"    // Members of the attached team
	VisibilityPublic  Visibility = "public"  // Members of the attached team, listed publicly
)

// IsValid reports whether v is a known visibility tier.
func (v Visibility) IsValid() bool {
	return v == VisibilityPrivate || v == VisibilityTeam || v == VisibilityPublic
}

// SharedWithTeam reports whether team members other than the owner may see the workflow.
func (v Visibility) SharedWithTeam() bool {
	return v == VisibilityTeam || v == VisibilityPublic
}

// Templates holds the per-connector template fields saved from the node editor.
type Templates struct {
	Discord       string         `json:"discord_template,omitempty"`
	Slack         string         `json:"slack_template,omitempty"`
	SlackChannels []string       `json:"slack_channels,omitempty"`
	Notion        string         `json:"notion_template,omitempty"`
	NotionDBID    string         `json:"notion_db_id,omitempty"`
	Email         string         `json:"email_template,omitempty"`
	EmailConfig   map[string]any `json:"email_config,omitempty"`
	GitHub        string         `json:"github_template,omitempty"`
	GitHubConfig  map[string]any `json:"github_config,omitempty"`
}

// Clone returns a copy that shares no slices or maps with t.
func (t Templates) Clone() Templates {
	clone := t
	clone.SlackChannels = slices.Clone(t.SlackChannels)
	clone.EmailConfig = maps.Clone(t.EmailConfig)
	clone.GitHubConfig = maps.Clone(t.GitHubConfig)

	return clone
}

// Workflow is a named automation: a node/edge graph plus connector template fields.
type Workflow struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"                  validate:"required,min=1,max=255"`
	Description string     `json:"description"`
	OwnerID     string     `json:"owner_id"              validate:"required"`
	TeamID      *string    `json:"team_id,omitempty"`
	Visibility  Visibility `json:"visibility"            validate:"required,oneof=private team public"`
	Nodes       []*Node    `json:"nodes"`
	Edges       []*Edge    `json:"edges"`
	Templates   Templates  `json:"templates"`
	Published   bool       `json:"published"`
	IsTemplate  bool       `json:"is_template"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Graph returns the workflow's node/edge payload.
func (w *Workflow) Graph() Graph {
	return Graph{Nodes: w.Nodes, Edges: w.Edges}
}

// SetGraph replaces the workflow's node/edge payload.
func (w *Workflow) SetGraph(g Graph) {
	w.Nodes = g.Nodes
	w.Edges = g.Edges
}

// InTeam reports whether the workflow is attached to the given team.
func (w *Workflow) InTeam(teamID string) bool {
	return w.TeamID != nil && *w.TeamID == teamID
}
