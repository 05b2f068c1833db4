package models

import (
	"errors"
	"fmt"
	"maps"
)

// ErrInvalidGraph indicates a graph payload that breaks node/edge integrity.
var ErrInvalidGraph = errors.New("invalid workflow graph")

// Graph is the canonical node/edge representation of a workflow.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// Validate checks identifier uniqueness and referential integrity of every edge.
func (g Graph) Validate() error {
	nodeIDs := make(map[string]struct{}, len(g.Nodes))

	for i, node := range g.Nodes {
		if node == nil {
			return fmt.Errorf("%w: node %d is empty", ErrInvalidGraph, i)
		}

		if node.ID == "" {
			return fmt.Errorf("%w: node %d has no id", ErrInvalidGraph, i)
		}

		if !node.Type.IsValid() {
			return fmt.Errorf("%w: node %s has unknown type %q", ErrInvalidGraph, node.ID, node.Type)
		}

		if node.Category != CategoryTypeTrigger && node.Category != CategoryTypeAction {
			return fmt.Errorf("%w: node %s has unknown category %q", ErrInvalidGraph, node.ID, node.Category)
		}

		if _, dup := nodeIDs[node.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %s", ErrInvalidGraph, node.ID)
		}

		nodeIDs[node.ID] = struct{}{}
	}

	edgeIDs := make(map[string]struct{}, len(g.Edges))

	for i, edge := range g.Edges {
		if edge == nil || edge.ID == "" {
			return fmt.Errorf("%w: edge %d has no id", ErrInvalidGraph, i)
		}

		if _, dup := edgeIDs[edge.ID]; dup {
			return fmt.Errorf("%w: duplicate edge id %s", ErrInvalidGraph, edge.ID)
		}

		edgeIDs[edge.ID] = struct{}{}

		if _, ok := nodeIDs[edge.Source]; !ok {
			return fmt.Errorf("%w: edge %s references unknown source %s", ErrInvalidGraph, edge.ID, edge.Source)
		}

		if _, ok := nodeIDs[edge.Target]; !ok {
			return fmt.Errorf("%w: edge %s references unknown target %s", ErrInvalidGraph, edge.ID, edge.Target)
		}
	}

	return nil
}

// IsLinearChain reports whether edge i connects node i to node i+1 for every i.
func (g Graph) IsLinearChain() bool {
	if len(g.Nodes) == 0 {
		return len(g.Edges) == 0
	}

	if len(g.Edges) != len(g.Nodes)-1 {
		return false
	}

	for i, edge := range g.Edges {
		if edge.Source != g.Nodes[i].ID || edge.Target != g.Nodes[i+1].ID {
			return false
		}
	}

	return true
}

// Clone returns a copy that shares no nodes, edges, or metadata maps with g.
func (g Graph) Clone() Graph {
	clone := Graph{
		Nodes: make([]*Node, 0, len(g.Nodes)),
		Edges: make([]*Edge, 0, len(g.Edges)),
	}

	for _, node := range g.Nodes {
		copied := *node
		copied.Data.Metadata = maps.Clone(node.Data.Metadata)
		clone.Nodes = append(clone.Nodes, &copied)
	}

	for _, edge := range g.Edges {
		copied := *edge
		clone.Edges = append(clone.Edges, &copied)
	}

	return clone
}
