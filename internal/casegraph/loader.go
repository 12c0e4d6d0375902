package casegraph

import (
	"encoding/json"
	"fmt"
	"os"
)

// Parse decodes a case document produced by the authoring tool. Unknown
// top-level fields and transient editor fields are tolerated; unknown
// node kinds and malformed payloads are not.
func Parse(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse case document: %w", err)
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("node %d: missing id", i)
		}
		payload, err := decodePayload(n.Kind, n.Data)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		n.payload = payload
	}

	g.index()

	for i := range g.Nodes {
		if dup := g.nodesByID[g.Nodes[i].ID]; dup != &g.Nodes[i] {
			return nil, fmt.Errorf("duplicate node id: %s", g.Nodes[i].ID)
		}
	}

	return &g, nil
}

// Load reads and parses a case document from disk.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case document: %w", err)
	}
	return Parse(data)
}
