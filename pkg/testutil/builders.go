// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:       uuid.New().String(),
		Type:     models.ServiceSlack,
		Category: models.CategoryTypeAction,
		Position: models.Position{X: 250, Y: 100},
		Data: models.NodeData{
			Title:       "Slack Action",
			Description: "Action for Slack",
			Metadata:    map[string]any{"channel": "general"},
			Type:        models.ServiceSlack,
		},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTriggerNode configures the node as a trigger node.
func WithTriggerNode() func(*models.Node) {
	return func(n *models.Node) {
		n.Category = models.CategoryTypeTrigger
		n.Data.Title = n.Type.DisplayName() + " Trigger"
	}
}

// WithService sets the node's service type.
func WithService(service models.ServiceType) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = service
		n.Data.Type = service
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// CreateTestGraph creates a linear chain whose first service is the trigger.
func CreateTestGraph(services ...models.ServiceType) models.Graph {
	graph := models.Graph{Nodes: []*models.Node{}, Edges: []*models.Edge{}}

	for i, service := range services {
		opts := []func(*models.Node){WithService(service)}
		if i == 0 {
			opts = append(opts, WithTriggerNode())
		}

		graph.Nodes = append(graph.Nodes, CreateTestNode(opts...))
	}

	for i := 1; i < len(graph.Nodes); i++ {
		graph.Edges = append(graph.Edges, CreateTestEdge(graph.Nodes[i-1].ID, graph.Nodes[i].ID))
	}

	return graph
}

// CreateTestEdge creates a test edge between two nodes.
func CreateTestEdge(sourceNodeID, targetNodeID string) *models.Edge {
	return &models.Edge{
		ID:     uuid.New().String(),
		Source: sourceNodeID,
		Target: targetNodeID,
	}
}

// CreateTestWorkflow creates a private test workflow with a GitHub → Slack graph.
func CreateTestWorkflow(ownerID string, overrides ...func(*models.Workflow)) *models.Workflow {
	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Description: "A workflow for testing",
		OwnerID:     ownerID,
		Visibility:  models.VisibilityPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	workflow.SetGraph(CreateTestGraph(models.ServiceGitHub, models.ServiceSlack))

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// InTeam attaches the workflow to teamID with the given visibility.
func InTeam(teamID string, visibility models.Visibility) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.TeamID = &teamID
		w.Visibility = visibility
	}
}

// CreateTestUser creates a user whose email is derived from its ID.
func CreateTestUser(id string) *models.User {
	return &models.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      "User " + id,
		CreatedAt: time.Now().UTC(),
	}
}
