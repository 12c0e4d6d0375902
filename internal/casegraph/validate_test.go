package casegraph

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, doc string) *Graph {
	t.Helper()
	g, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	return g
}

func TestValidateEntryMissing(t *testing.T) {
	g := mustParse(t, `{"nodes": [{"id": "a", "kind": "story"}], "edges": []}`)
	err := g.Validate("nope")
	if err == nil {
		t.Fatalf("expected missing entry to fail validation")
	}
	if _, ok := err.(*MalformedGraphError); !ok {
		t.Errorf("expected MalformedGraphError, got %T", err)
	}
}

func TestValidateEntryGroup(t *testing.T) {
	g := mustParse(t, `{"nodes": [{"id": "g", "kind": "group"}], "edges": []}`)
	if g.Validate("g") == nil {
		t.Fatalf("expected group entry to fail validation")
	}
}

func TestValidateDanglingEdge(t *testing.T) {
	g := mustParse(t, `{
		"nodes": [{"id": "a", "kind": "story"}],
		"edges": [{"id": "e1", "sourceNodeId": "a", "targetNodeId": "ghost"}]
	}`)
	err := g.Validate("a")
	if err == nil || !strings.Contains(err.Error(), "target") {
		t.Fatalf("expected dangling target error, got %v", err)
	}
}

func TestValidateGroupEdge(t *testing.T) {
	g := mustParse(t, `{
		"nodes": [
			{"id": "a", "kind": "story"},
			{"id": "grp", "kind": "group"}
		],
		"edges": [{"id": "e1", "sourceNodeId": "a", "targetNodeId": "grp"}]
	}`)
	if g.Validate("a") == nil {
		t.Fatalf("expected edge into a group to fail validation")
	}
}

func TestValidateLogicGatePorts(t *testing.T) {
	g := mustParse(t, `{
		"nodes": [
			{"id": "gate", "kind": "logicGate", "data": {"variable": "v", "operator": "==", "value": "1"}},
			{"id": "a", "kind": "story"}
		],
		"edges": [{"id": "e1", "sourceNodeId": "gate", "sourcePortId": "true", "targetNodeId": "a"}]
	}`)
	err := g.Validate("gate")
	if err == nil || !strings.Contains(err.Error(), "true and false") {
		t.Fatalf("expected missing false port error, got %v", err)
	}
}

func TestValidateActionPortNeedsEdge(t *testing.T) {
	g := mustParse(t, `{
		"nodes": [
			{"id": "a", "kind": "story", "actions": [{"actionId": "continue"}, {"actionId": "skip"}]},
			{"id": "b", "kind": "story"}
		],
		"edges": [{"id": "e1", "sourceNodeId": "a", "sourcePortId": "continue", "targetNodeId": "b"}]
	}`)
	err := g.Validate("a")
	if err == nil || !strings.Contains(err.Error(), "skip") {
		t.Fatalf("expected unwired action port error, got %v", err)
	}
}

func TestValidateDuplicatePortEdges(t *testing.T) {
	g := mustParse(t, `{
		"nodes": [
			{"id": "a", "kind": "story"},
			{"id": "b", "kind": "story"},
			{"id": "c", "kind": "story"}
		],
		"edges": [
			{"id": "e1", "sourceNodeId": "a", "targetNodeId": "b"},
			{"id": "e2", "sourceNodeId": "a", "targetNodeId": "c"}
		]
	}`)
	err := g.Validate("a")
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate port error, got %v", err)
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	g := mustParse(t, `{
		"nodes": [
			{"id": "intro", "kind": "story", "actions": [{"actionId": "investigate"}]},
			{"id": "gate", "kind": "logicGate", "data": {"variable": "v", "operator": "==", "value": "1"}},
			{"id": "win", "kind": "identifyCulprit", "data": {"culpritName": "X"}},
			{"id": "lose", "kind": "notification"}
		],
		"edges": [
			{"id": "e1", "sourceNodeId": "intro", "sourcePortId": "investigate", "targetNodeId": "gate"},
			{"id": "e2", "sourceNodeId": "gate", "sourcePortId": "true", "targetNodeId": "win"},
			{"id": "e3", "sourceNodeId": "gate", "sourcePortId": "false", "targetNodeId": "lose"}
		]
	}`)
	if err := g.Validate("intro"); err != nil {
		t.Fatalf("expected valid graph, got %v", err)
	}
}
