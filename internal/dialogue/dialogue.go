// Package dialogue is the boundary to the external suspect-dialogue
// generator. The engine only forwards a persona and the player's
// utterance and relays the reply; generation itself is out of scope.
package dialogue

import "sync"

// Service produces a suspect reply for a player utterance.
type Service interface {
	Ask(persona, utterance string) (string, error)
}

// Scripted is an offline Service for development and tests. Replies are
// consumed in order per persona; when a persona's script runs out the
// fallback reply is returned.
type Scripted struct {
	mu       sync.Mutex
	replies  map[string][]string
	Fallback string
}

func NewScripted(replies map[string][]string) *Scripted {
	if replies == nil {
		replies = make(map[string][]string)
	}
	return &Scripted{
		replies:  replies,
		Fallback: "I have nothing more to say.",
	}
}

func (s *Scripted) Ask(persona, utterance string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.replies[persona]
	if len(queue) == 0 {
		return s.Fallback, nil
	}
	reply := queue[0]
	s.replies[persona] = queue[1:]
	return reply, nil
}
