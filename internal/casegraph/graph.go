// Package casegraph defines the authored case document: typed nodes,
// kind-specific payloads, and labeled edges. The graph is immutable
// during a run; all mutable progress lives in the runtime's run state.
package casegraph

import "encoding/json"

// Kind identifies a node type. The set is closed; documents with
// unknown kinds are rejected at load time.
type Kind string

const (
	KindStory           Kind = "story"
	KindSuspect         Kind = "suspect"
	KindEvidence        Kind = "evidence"
	KindLogicGate       Kind = "logicGate"
	KindTerminal        Kind = "terminal"
	KindInterrogation   Kind = "interrogation"
	KindMessage         Kind = "message"
	KindMusic           Kind = "music"
	KindMedia           Kind = "media"
	KindQuestion        Kind = "question"
	KindSetter          Kind = "setter"
	KindIdentifyCulprit Kind = "identifyCulprit"
	KindNotification    Kind = "notification"
	KindScene3D         Kind = "scene3d"
	KindGroup           Kind = "group"
)

// Action is a named output exposed by an action-bearing node. When a
// node declares actions, it exposes one output port per action id
// instead of its kind's default output.
type Action struct {
	ID    string `json:"actionId"`
	Label string `json:"label,omitempty"`
}

// Node is one authored unit of content or logic. Data holds the raw
// kind-specific payload as produced by the authoring tool; the decoded
// form is available through Payload after parsing. Transient editor
// fields inside data are ignored.
type Node struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Data    json.RawMessage `json:"data,omitempty"`
	Actions []Action        `json:"actions,omitempty"`
	GroupID string          `json:"groupId,omitempty"`

	payload any
}

// Payload returns the decoded kind-specific payload (for example
// *LogicGateData for a logic gate). It is set during Parse.
func (n *Node) Payload() any {
	return n.payload
}

// HasAction reports whether the node declares the given action id.
func (n *Node) HasAction(id string) bool {
	for _, a := range n.Actions {
		if a.ID == id {
			return true
		}
	}
	return false
}

// ActionIDs returns the declared action ids in authored order.
func (n *Node) ActionIDs() []string {
	ids := make([]string, 0, len(n.Actions))
	for _, a := range n.Actions {
		ids = append(ids, a.ID)
	}
	return ids
}

// Edge is a directed connection from a node's output port to another
// node's input. An empty SourcePort refers to the node's sole default
// output.
type Edge struct {
	ID         string `json:"id"`
	Source     string `json:"sourceNodeId"`
	SourcePort string `json:"sourcePortId,omitempty"`
	Target     string `json:"targetNodeId"`
	Label      string `json:"label,omitempty"`
}

// Graph is the loaded case document.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	nodesByID     map[string]*Node
	edgesBySource map[string][]*Edge
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodesByID[id]
}

// EdgesFrom returns all outbound edges of a node in document order.
func (g *Graph) EdgesFrom(nodeID string) []*Edge {
	return g.edgesBySource[nodeID]
}

// EdgeFromPort returns the unique outbound edge for the given port, or
// nil when the branch is a dead end. Port "" matches the default output.
func (g *Graph) EdgeFromPort(nodeID, port string) *Edge {
	for _, e := range g.edgesBySource[nodeID] {
		if e.SourcePort == port {
			return e
		}
	}
	return nil
}

func (g *Graph) index() {
	g.nodesByID = make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		g.nodesByID[g.Nodes[i].ID] = &g.Nodes[i]
	}
	g.edgesBySource = make(map[string][]*Edge, len(g.Edges))
	for i := range g.Edges {
		e := &g.Edges[i]
		g.edgesBySource[e.Source] = append(g.edgesBySource[e.Source], e)
	}
}
