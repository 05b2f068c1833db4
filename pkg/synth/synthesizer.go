// Package synth builds workflow graphs from analyzed prompt intent.
package synth

import (
	"fmt"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/prompt"
	"github.com/google/uuid"
)

// Layout constants for the vertical chain drawn by the editor.
const (
	ColumnX  = 250
	OriginY  = 100
	SpacingY = 150
)

// Synthesizer turns a WorkflowInfo into a linear trigger→action chain.
type Synthesizer struct {
	newID func() string
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithIDGenerator replaces the UUID generator used for node and edge IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Synthesizer) {
		s.newID = fn
	}
}

// New creates a Synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{newID: uuid.NewString}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Synthesize creates one trigger node followed by one action node per declared action,
// linked node i → node i+1.
func (s *Synthesizer) Synthesize(info prompt.WorkflowInfo) models.Graph {
	nodes := make([]*models.Node, 0, len(info.Actions)+1)
	nodes = append(nodes, s.node(info.Trigger, models.CategoryTypeTrigger, 0))

	for i, action := range info.Actions {
		nodes = append(nodes, s.node(action, models.CategoryTypeAction, i+1))
	}

	return models.Graph{
		Nodes: nodes,
		Edges: s.Connect(nodes),
	}
}

// Connect returns the edges of a linear chain over nodes. Zero or one node yields no edges.
func (s *Synthesizer) Connect(nodes []*models.Node) []*models.Edge {
	if len(nodes) < 2 {
		return []*models.Edge{}
	}

	edges := make([]*models.Edge, 0, len(nodes)-1)

	for i := 0; i < len(nodes)-1; i++ {
		edges = append(edges, &models.Edge{
			ID:     s.newID(),
			Source: nodes[i].ID,
			Target: nodes[i+1].ID,
		})
	}

	return edges
}

func (s *Synthesizer) node(service models.ServiceType, category models.CategoryType, index int) *models.Node {
	title := fmt.Sprintf("%s Action", service.DisplayName())
	description := "Action for " + service.DisplayName()

	if category == models.CategoryTypeTrigger {
		title = fmt.Sprintf("%s Trigger", service.DisplayName())
		description = "Trigger from " + service.DisplayName()
	}

	return &models.Node{
		ID:       s.newID(),
		Type:     service,
		Category: category,
		Position: models.Position{X: ColumnX, Y: OriginY + index*SpacingY},
		Data: models.NodeData{
			Title:       title,
			Description: description,
			Metadata:    map[string]any{},
			Type:        service,
		},
	}
}
