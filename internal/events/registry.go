package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// run lifecycle
	"run.started":   {},
	"run.succeeded": {},
	"run.failed":    {},
	"run.aborted":   {},

	// node traversal
	"node.entered":   {},
	"node.completed": {},

	// player input
	"input.requested": {},
	"input.received":  {},
	"input.rejected":  {},

	// variables and scoring
	"variable.set":        {},
	"score.awarded":       {},
	"score.penalized":     {},
	"objective.satisfied": {},

	// node-kind specifics
	"gate.opened":        {},
	"terminal.attempt":   {},
	"terminal.solved":    {},
	"terminal.timeout":   {},
	"question.answered":  {},
	"culprit.accused":    {},
	"interrogation.turn": {},
	"secret.revealed":    {},

	// reporting
	"outcome.published": {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
