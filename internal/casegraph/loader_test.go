package casegraph

import "testing"

func TestParseCaseDocument(t *testing.T) {
	doc := `{
		"nodes": [
			{"id": "intro", "kind": "story", "data": {"title": "The Vanishing", "text": "It was a dark night.", "score": 5}},
			{"id": "gate", "kind": "logicGate", "data": {"logicType": "if", "variable": "found_key", "operator": "==", "value": "true"}},
			{"id": "accuse", "kind": "identifyCulprit", "data": {"culpritName": "Mr. Green", "score": 100, "penalty": 40}}
		],
		"edges": [
			{"id": "e1", "sourceNodeId": "intro", "targetNodeId": "gate"},
			{"id": "e2", "sourceNodeId": "gate", "sourcePortId": "true", "targetNodeId": "accuse"},
			{"id": "e3", "sourceNodeId": "gate", "sourcePortId": "false", "targetNodeId": "intro"}
		]
	}`

	g, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("failed to parse case: %v", err)
	}

	story, ok := g.Node("intro").Payload().(*StoryData)
	if !ok {
		t.Fatalf("expected *StoryData payload, got %T", g.Node("intro").Payload())
	}
	if story.Title != "The Vanishing" || story.Score.Int() != 5 {
		t.Errorf("story payload wrong: %+v", story)
	}

	gate, ok := g.Node("gate").Payload().(*LogicGateData)
	if !ok {
		t.Fatalf("expected *LogicGateData payload")
	}
	if gate.Variable != "found_key" || gate.Operator != "==" {
		t.Errorf("gate payload wrong: %+v", gate)
	}

	if e := g.EdgeFromPort("gate", "true"); e == nil || e.Target != "accuse" {
		t.Errorf("expected true port to reach accuse")
	}
	if e := g.EdgeFromPort("intro", ""); e == nil || e.Target != "gate" {
		t.Errorf("expected default port to reach gate")
	}
}

func TestParseRejectsUnknownKind(t *testing.T) {
	doc := `{"nodes": [{"id": "x", "kind": "hologram"}], "edges": []}`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected unknown kind to be rejected")
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	doc := `{
		"nodes": [
			{"id": "x", "kind": "story"},
			{"id": "x", "kind": "story"}
		],
		"edges": []
	}`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected duplicate node id to be rejected")
	}
}

func TestParseRejectsMissingID(t *testing.T) {
	doc := `{"nodes": [{"kind": "story"}], "edges": []}`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected missing id to be rejected")
	}
}

func TestFlexIntTolerance(t *testing.T) {
	doc := `{
		"nodes": [
			{"id": "a", "kind": "story", "data": {"score": "25"}},
			{"id": "b", "kind": "story", "data": {"score": "25pts"}},
			{"id": "c", "kind": "story", "data": {"score": null}},
			{"id": "d", "kind": "story", "data": {"score": "garbage"}}
		],
		"edges": []
	}`

	g, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	want := map[string]int{"a": 25, "b": 25, "c": 0, "d": 0}
	for id, expect := range want {
		got := g.Node(id).Payload().(*StoryData).Score.Int()
		if got != expect {
			t.Errorf("node %s: expected score %d, got %d", id, expect, got)
		}
	}
}

func TestParseIgnoresEditorFields(t *testing.T) {
	// Positions, zoom, and other editor state ride along in real
	// documents and must not break loading.
	doc := `{
		"viewport": {"zoom": 1.5},
		"nodes": [
			{"id": "a", "kind": "story", "position": {"x": 100, "y": 200}, "data": {"text": "hi", "collapsed": true}}
		],
		"edges": []
	}`
	if _, err := Parse([]byte(doc)); err != nil {
		t.Fatalf("editor fields should be tolerated: %v", err)
	}
}
