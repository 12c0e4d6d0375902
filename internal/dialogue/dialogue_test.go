package dialogue

import "testing"

func TestScriptedRepliesInOrder(t *testing.T) {
	s := NewScripted(map[string][]string{
		"butler": {"I saw nothing.", "Fine. I saw the curator."},
	})

	r1, _ := s.Ask("butler", "What did you see?")
	r2, _ := s.Ask("butler", "Are you sure?")
	if r1 != "I saw nothing." || r2 != "Fine. I saw the curator." {
		t.Errorf("replies out of order: %q, %q", r1, r2)
	}

	// Script exhausted: fall back.
	r3, _ := s.Ask("butler", "Anything else?")
	if r3 != s.Fallback {
		t.Errorf("expected fallback, got %q", r3)
	}
}

func TestScriptedUnknownPersona(t *testing.T) {
	s := NewScripted(nil)
	reply, err := s.Ask("stranger", "Who are you?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != s.Fallback {
		t.Errorf("expected fallback for unknown persona, got %q", reply)
	}
}
