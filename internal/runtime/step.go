package runtime

import "time"

// InputType classifies what a waiting node expects from the outside.
type InputType string

const (
	// InputOption is a question answer: one or more option ids.
	InputOption InputType = "option"
	// InputText is a free-text submission (terminal command, accusation,
	// interrogation turn).
	InputText InputType = "text"
	// InputAction is a named button press on an action-bearing node.
	InputAction InputType = "action"
	// InputPoll is a runtime tick. Polls are never submitted by players;
	// they re-evaluate while-gates, deadlines, and externally set flags.
	InputPoll InputType = "poll"
)

// InputRequest describes what the run is waiting for.
type InputRequest struct {
	NodeID    string    `json:"node_id"`
	Type      InputType `json:"type"`
	Prompt    string    `json:"prompt,omitempty"`
	OptionIDs []string  `json:"option_ids,omitempty"`
	ActionIDs []string  `json:"action_ids,omitempty"`
	// CanLeave marks requests that accept a leave action even when the
	// node declares no actions (interrogations).
	CanLeave bool `json:"can_leave,omitempty"`
}

// accepts reports whether an input of the given type may be routed to
// this request.
func (req *InputRequest) accepts(t InputType) bool {
	if t == req.Type {
		return true
	}
	if t == InputAction && (len(req.ActionIDs) > 0 || req.CanLeave) {
		return true
	}
	return false
}

// Input is one external event fed into a waiting run.
type Input struct {
	Type      InputType
	OptionIDs []string
	Text      string
	ActionID  string
	Now       time.Time
}

type stepKind int

const (
	stepAdvance stepKind = iota
	stepAwait
	stepTerminate
)

// StepResult is what a node handler yields: proceed along a port, halt
// for external input, or end the run.
type StepResult struct {
	kind    stepKind
	port    string
	request *InputRequest
	outcome Outcome
}

// Advance proceeds immediately along the named output port. Port ""
// is the default output of single-output kinds.
func Advance(port string) StepResult {
	return StepResult{kind: stepAdvance, port: port}
}

// AwaitInput halts the run until a matching external event arrives.
func AwaitInput(req *InputRequest) StepResult {
	return StepResult{kind: stepAwait, request: req}
}

// AwaitSame keeps the current pending request unchanged, without
// re-announcing it. Used by handlers that stay blocked after a failed
// attempt or an unsatisfied poll.
func AwaitSame() StepResult {
	return StepResult{kind: stepAwait}
}

// Terminate ends the run with the given outcome.
func Terminate(outcome Outcome) StepResult {
	return StepResult{kind: stepTerminate, outcome: outcome}
}
