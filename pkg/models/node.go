// Package models defines the core domain models for team-shared workflow automation
package models

// CategoryType represents the category of node.
type CategoryType string

const (
	CategoryTypeAction  CategoryType = "action"  // Steps executed after the trigger fires
	CategoryTypeTrigger CategoryType = "trigger" // The step that starts the execution chain
)

// Position is a layout hint for the editor canvas.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NodeData is the per-node payload rendered and edited by clients.
type NodeData struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Completed   bool           `json:"completed"`
	Current     bool           `json:"current"`
	Metadata    map[string]any `json:"metadata"`
	Type        ServiceType    `json:"type"`
}

// Node represents one trigger or action step in a workflow.
type Node struct {
	ID       string       `json:"id"       validate:"required"`
	Type     ServiceType  `json:"type"     validate:"required"`
	Category CategoryType `json:"category" validate:"required,oneof=action trigger"`
	Position Position     `json:"position"`
	Data     NodeData     `json:"data"`
}

// Edge is a directed execution-order link between two nodes of the same workflow.
type Edge struct {
	ID     string `json:"id"     validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

func (n *Node) IsActionNode() bool {
	return n.Category == CategoryTypeAction
}

func (n *Node) IsTriggerNode() bool {
	return n.Category == CategoryTypeTrigger
}
