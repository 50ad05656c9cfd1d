package mission

import "github.com/mtzanidakis/skopos/internal/event"

// Graph is the mission's current task graph. Updates replace it wholesale;
// the server resends the full topology on every change.
type Graph struct {
	Nodes []event.Node `json:"nodes"`
	Edges []event.Edge `json:"edges"`
}

// applyWorkflow replaces the graph with the incoming node and edge lists.
// Duplicate node ids keep the first occurrence; edges whose source or target
// is absent from the incoming node list are dropped, not errored.
func (m *Mission) applyWorkflow(ev event.WorkflowUpdate) {
	seen := make(map[string]bool, len(ev.Nodes))
	nodes := make([]event.Node, 0, len(ev.Nodes))
	for _, n := range ev.Nodes {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		nodes = append(nodes, n)
	}

	edges := make([]event.Edge, 0, len(ev.Edges))
	for _, e := range ev.Edges {
		if !seen[e.Source] || !seen[e.Target] {
			continue
		}
		edges = append(edges, e)
	}

	m.Graph = Graph{Nodes: nodes, Edges: edges}
}
