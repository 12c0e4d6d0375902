package casegraph

import "fmt"

// MalformedGraphError reports a structural defect detected before a run
// begins: dangling edge references, missing required ports, or edges
// wired into pure grouping constructs.
type MalformedGraphError struct {
	Reason string
	NodeID string
	EdgeID string
}

func (e *MalformedGraphError) Error() string {
	switch {
	case e.NodeID != "":
		return fmt.Sprintf("malformed graph: %s (node %s)", e.Reason, e.NodeID)
	case e.EdgeID != "":
		return fmt.Sprintf("malformed graph: %s (edge %s)", e.Reason, e.EdgeID)
	default:
		return "malformed graph: " + e.Reason
	}
}

// Validate checks the graph's structure against the entry node. It is
// called once at run start; a failing graph never begins playback.
func (g *Graph) Validate(entryNodeID string) error {
	entry := g.Node(entryNodeID)
	if entry == nil {
		return &MalformedGraphError{Reason: "entry node not found", NodeID: entryNodeID}
	}
	if entry.Kind == KindGroup {
		return &MalformedGraphError{Reason: "entry node is a group", NodeID: entryNodeID}
	}

	for i := range g.Edges {
		e := &g.Edges[i]
		src := g.Node(e.Source)
		if src == nil {
			return &MalformedGraphError{Reason: "edge source does not exist", EdgeID: e.ID}
		}
		tgt := g.Node(e.Target)
		if tgt == nil {
			return &MalformedGraphError{Reason: "edge target does not exist", EdgeID: e.ID}
		}
		// Groups are authoring constructs with no execution semantics.
		if src.Kind == KindGroup || tgt.Kind == KindGroup {
			return &MalformedGraphError{Reason: "edge connects a group node", EdgeID: e.ID}
		}
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if err := g.validatePorts(n); err != nil {
			return err
		}
	}

	return nil
}

func (g *Graph) validatePorts(n *Node) error {
	seen := make(map[string]bool)
	for _, e := range g.EdgesFrom(n.ID) {
		if seen[e.SourcePort] {
			return &MalformedGraphError{
				Reason: fmt.Sprintf("duplicate edges on port %q", e.SourcePort),
				NodeID: n.ID,
			}
		}
		seen[e.SourcePort] = true
	}

	switch {
	case n.Kind == KindGroup:
		// validated via edge checks above

	case n.Kind == KindLogicGate:
		// A logic gate always exposes exactly the true and false ports.
		if !seen["true"] || !seen["false"] {
			return &MalformedGraphError{Reason: "logic gate requires true and false ports", NodeID: n.ID}
		}

	case len(n.Actions) > 0:
		for _, a := range n.Actions {
			if a.ID == "" {
				return &MalformedGraphError{Reason: "action with empty id", NodeID: n.ID}
			}
			if !seen[a.ID] {
				return &MalformedGraphError{
					Reason: fmt.Sprintf("action port %q has no edge", a.ID),
					NodeID: n.ID,
				}
			}
		}
	}

	return nil
}
