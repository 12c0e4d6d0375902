package runtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/detectivekit/casegraph/internal/casegraph"
	"github.com/detectivekit/casegraph/internal/eval"
	"github.com/detectivekit/casegraph/internal/vars"
)

// handler executes one node kind. enter runs when the token arrives;
// resume runs when a pending node receives input or a poll. Kinds that
// never block leave resume nil.
type handler struct {
	enter  func(r *Run, n *casegraph.Node) StepResult
	resume func(r *Run, n *casegraph.Node, in Input) (StepResult, error)
}

// handlers is keyed by node kind. Group has no entry: validation
// rejects any edge touching a group, so the token can never reach one.
var handlers = map[casegraph.Kind]handler{
	casegraph.KindStory:           {enter: contentEnter, resume: actionResume},
	casegraph.KindSuspect:         {enter: contentEnter, resume: actionResume},
	casegraph.KindEvidence:        {enter: contentEnter, resume: actionResume},
	casegraph.KindMessage:         {enter: contentEnter, resume: actionResume},
	casegraph.KindMusic:           {enter: contentEnter, resume: actionResume},
	casegraph.KindMedia:           {enter: contentEnter, resume: actionResume},
	casegraph.KindNotification:    {enter: contentEnter, resume: actionResume},
	casegraph.KindScene3D:         {enter: contentEnter, resume: actionResume},
	casegraph.KindLogicGate:       {enter: gateEnter, resume: gateResume},
	casegraph.KindSetter:          {enter: setterEnter},
	casegraph.KindQuestion:        {enter: questionEnter, resume: questionResume},
	casegraph.KindTerminal:        {enter: terminalEnter, resume: terminalResume},
	casegraph.KindInterrogation:   {enter: interrogationEnter, resume: interrogationResume},
	casegraph.KindIdentifyCulprit: {enter: culpritEnter, resume: culpritResume},
}

func handlerFor(kind casegraph.Kind) handler {
	return handlers[kind]
}

// rewarder is satisfied by every content payload through the embedded
// reward block.
type rewarder interface {
	NodeReward() (int, []string)
}

// contentEnter presents a content node: credit its reward, then either
// wait for an action press or flow straight through the default output.
func contentEnter(r *Run, n *casegraph.Node) StepResult {
	if rw, ok := n.Payload().(rewarder); ok {
		points, objectives := rw.NodeReward()
		r.applyReward(n.ID, points, objectives)
	}
	return awaitActionsOrAdvance(n)
}

// actionResume handles an action press on a waiting content node.
func actionResume(r *Run, n *casegraph.Node, in Input) (StepResult, error) {
	if !n.HasAction(in.ActionID) {
		return StepResult{}, &InvalidInputError{
			Reason: fmt.Sprintf("node %s has no action %q", n.ID, in.ActionID),
		}
	}
	return Advance(in.ActionID), nil
}

func gateEnter(r *Run, n *casegraph.Node) StepResult {
	d := n.Payload().(*casegraph.LogicGateData)
	open := eval.Evaluate(r.store, d.Variable, d.Operator, d.Value)

	if d.LogicType == "while" && !open {
		// Block until a poll or external variable change opens the gate.
		return AwaitInput(&InputRequest{NodeID: n.ID, Type: InputPoll})
	}
	return gateDecide(r, n, d, open)
}

func gateResume(r *Run, n *casegraph.Node, in Input) (StepResult, error) {
	d := n.Payload().(*casegraph.LogicGateData)
	if !eval.Evaluate(r.store, d.Variable, d.Operator, d.Value) {
		return AwaitSame(), nil
	}
	return gateDecide(r, n, d, true), nil
}

// gateDecide routes the token along the gate's true or false port and
// credits the gate's score the first time it opens.
func gateDecide(r *Run, n *casegraph.Node, d *casegraph.LogicGateData, open bool) StepResult {
	if open {
		r.applyReward(n.ID, d.Score.Int(), nil)
		r.emit("info", "gate.opened", "", map[string]any{
			"node_id":  n.ID,
			"variable": d.Variable,
		})
		return Advance("true")
	}
	return Advance("false")
}

func setterEnter(r *Run, n *casegraph.Node) StepResult {
	d := n.Payload().(*casegraph.SetterData)

	switch d.Operation {
	case "toggle":
		r.store.Toggle(d.Variable)
	case "increment":
		r.store.Increment(d.Variable, 1)
	case "decrement":
		r.store.Decrement(d.Variable, 1)
	default: // set
		r.store.Set(d.Variable, vars.ParseLiteral(d.Value))
	}

	r.emit("info", "variable.set", "", map[string]any{
		"variable":  d.Variable,
		"operation": d.Operation,
		"value":     r.store.Get(d.Variable).AsString(),
	})
	return Advance("")
}

func questionEnter(r *Run, n *casegraph.Node) StepResult {
	d := n.Payload().(*casegraph.QuestionData)
	optionIDs := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		optionIDs = append(optionIDs, o.ID)
	}
	return AwaitInput(&InputRequest{
		NodeID:    n.ID,
		Type:      InputOption,
		Prompt:    d.Prompt,
		OptionIDs: optionIDs,
	})
}

func questionResume(r *Run, n *casegraph.Node, in Input) (StepResult, error) {
	// After a correct answer the node may still wait for an action press;
	// the pending request type tells the two phases apart.
	if r.pending.Type == InputAction {
		return actionResume(r, n, in)
	}

	d := n.Payload().(*casegraph.QuestionData)
	if d.SelectionType != "multiple" && len(in.OptionIDs) != 1 {
		return StepResult{}, &InvalidInputError{
			Reason: fmt.Sprintf("question %s takes exactly one option", n.ID),
		}
	}

	chosen := make(map[string]bool, len(in.OptionIDs))
	for _, id := range in.OptionIDs {
		if !questionHasOption(d, id) {
			return StepResult{}, &InvalidInputError{
				Reason: fmt.Sprintf("question %s has no option %q", n.ID, id),
			}
		}
		chosen[id] = true
	}

	// Correct means the chosen set equals the authored correct set.
	correct := true
	for _, o := range d.Options {
		if o.IsCorrect != chosen[o.ID] {
			correct = false
			break
		}
	}

	r.emit("info", "question.answered", "", map[string]any{
		"node_id":    n.ID,
		"option_ids": in.OptionIDs,
		"correct":    correct,
	})

	if !correct {
		r.penalize(n.ID, d.Penalty.Int())
		return Advance(questionExit(r, n, "incorrect")), nil
	}

	r.applyReward(n.ID, d.Score.Int(), d.LearningObjectiveIDs)
	if d.VariableID != "" {
		r.store.Set(d.VariableID, vars.Bool(true))
	}
	if len(n.Actions) > 0 {
		return AwaitInput(&InputRequest{
			NodeID:    n.ID,
			Type:      InputAction,
			ActionIDs: n.ActionIDs(),
		}), nil
	}
	return Advance(questionExit(r, n, "correct")), nil
}

// questionExit picks the outcome port. A question normally has a single
// default output and advances through it on both answers; authors may
// wire dedicated correct/incorrect ports instead, which win when present.
func questionExit(r *Run, n *casegraph.Node, labeled string) string {
	if r.graph.EdgeFromPort(n.ID, labeled) != nil {
		return labeled
	}
	return ""
}

func questionHasOption(d *casegraph.QuestionData, id string) bool {
	for _, o := range d.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

func terminalEnter(r *Run, n *casegraph.Node) StepResult {
	d := n.Payload().(*casegraph.TerminalData)
	if secs := d.TimeLimit.Int(); secs > 0 {
		r.deadline = r.cfg.Clock().Add(time.Duration(secs) * time.Second)
	}
	return AwaitInput(&InputRequest{
		NodeID: n.ID,
		Type:   InputText,
		Prompt: d.Prompt,
	})
}

func terminalResume(r *Run, n *casegraph.Node, in Input) (StepResult, error) {
	// Action phase after a solve.
	if r.pending.Type == InputAction {
		return actionResume(r, n, in)
	}

	d := n.Payload().(*casegraph.TerminalData)

	if in.Type == InputPoll {
		if r.deadline.IsZero() || in.Now.Before(r.deadline) {
			return AwaitSame(), nil
		}
		// Deadline passed: one implicit failed attempt, then move on.
		r.deadline = time.Time{}
		r.penalize(n.ID, d.Penalty.Int())
		r.emit("warn", "terminal.timeout", "", map[string]any{"node_id": n.ID})
		return Advance(advanceFallback(n)), nil
	}

	solved, err := terminalMatch(r, d, in.Text)
	if err != nil {
		return StepResult{}, err
	}
	r.emit("info", "terminal.attempt", "", map[string]any{
		"node_id": n.ID,
		"solved":  solved,
	})

	if !solved {
		r.penalize(n.ID, d.Penalty.Int())
		return AwaitSame(), nil
	}

	r.deadline = time.Time{}
	r.applyReward(n.ID, d.Score.Int(), d.LearningObjectiveIDs)
	if d.VariableID != "" {
		r.store.Set(d.VariableID, vars.Bool(true))
	}
	r.emit("info", "terminal.solved", "", map[string]any{"node_id": n.ID})
	return awaitActionsOrAdvance(n), nil
}

// terminalMatch checks a submission against the terminal's solve
// condition, dispatched on the authored terminal type. Password and
// legacy terminals compare exactly; content terminals require the
// non-empty submission to appear in the resolved file's content.
// Documents that predate the type field fall back to inferring content
// mode from the presence of a solve file.
func terminalMatch(r *Run, d *casegraph.TerminalData, text string) (bool, error) {
	mode := d.TerminalType
	if mode == "" && d.SolveFile != "" {
		mode = "content"
	}

	switch mode {
	case "content":
		if d.SolveFile == "" {
			// Authored content terminal with nothing to match against.
			return false, nil
		}
		if r.cfg.Files == nil {
			return false, &ServiceError{Service: "files", Err: fmt.Errorf("no file resolver configured")}
		}
		content, err := r.cfg.Files.ResolveContent(d.SolveFile)
		if err != nil {
			return false, &ServiceError{Service: "files", Err: err}
		}
		return text != "" && strings.Contains(content, text), nil
	default: // password, legacy
		return text == d.SolvePassword, nil
	}
}

func interrogationEnter(r *Run, n *casegraph.Node) StepResult {
	d := n.Payload().(*casegraph.InterrogationData)
	return AwaitInput(&InputRequest{
		NodeID:    n.ID,
		Type:      InputText,
		Prompt:    d.SuspectName,
		ActionIDs: n.ActionIDs(),
		CanLeave:  true,
	})
}

func interrogationResume(r *Run, n *casegraph.Node, in Input) (StepResult, error) {
	d := n.Payload().(*casegraph.InterrogationData)
	checkReveal(r, n, d)

	switch in.Type {
	case InputPoll:
		return AwaitSame(), nil

	case InputAction:
		// Leaving the interrogation: a declared action routes by id; with
		// no actions any press exits through the default output.
		if len(n.Actions) > 0 {
			if !n.HasAction(in.ActionID) {
				return StepResult{}, &InvalidInputError{
					Reason: fmt.Sprintf("node %s has no action %q", n.ID, in.ActionID),
				}
			}
			return Advance(in.ActionID), nil
		}
		return Advance(""), nil

	default:
		if r.cfg.Dialogue == nil {
			return StepResult{}, &ServiceError{Service: "dialogue", Err: fmt.Errorf("no dialogue service configured")}
		}
		reply, err := r.cfg.Dialogue.Ask(d.Persona, in.Text)
		if err != nil {
			return StepResult{}, &ServiceError{Service: "dialogue", Err: err}
		}
		r.emit("info", "interrogation.turn", "", map[string]any{
			"node_id":   n.ID,
			"utterance": in.Text,
			"reply":     reply,
		})
		checkReveal(r, n, d)
		return AwaitSame(), nil
	}
}

// checkReveal credits the interrogation's score once its reveal flag,
// set externally by the dialogue integration, turns true.
func checkReveal(r *Run, n *casegraph.Node, d *casegraph.InterrogationData) {
	if d.RevealVariable == "" || !r.store.Get(d.RevealVariable).AsBool() {
		return
	}
	if r.applyReward(n.ID, d.Score.Int(), nil) {
		r.emit("info", "secret.revealed", "", map[string]any{
			"node_id":  n.ID,
			"variable": d.RevealVariable,
		})
	}
}

func culpritEnter(r *Run, n *casegraph.Node) StepResult {
	d := n.Payload().(*casegraph.IdentifyCulpritData)
	return AwaitInput(&InputRequest{
		NodeID: n.ID,
		Type:   InputText,
		Prompt: d.Prompt,
	})
}

func culpritResume(r *Run, n *casegraph.Node, in Input) (StepResult, error) {
	d := n.Payload().(*casegraph.IdentifyCulpritData)
	accused := strings.TrimSpace(in.Text)
	match := strings.EqualFold(accused, strings.TrimSpace(d.CulpritName))

	r.emit("info", "culprit.accused", "", map[string]any{
		"node_id": n.ID,
		"accused": accused,
		"correct": match,
	})

	if match {
		r.applyReward(n.ID, d.Score.Int(), d.LearningObjectiveIDs)
		return Terminate(OutcomeSuccess), nil
	}

	r.penalize(n.ID, d.Penalty.Int())
	// A wrong accusation ends the case unless the author wired an
	// aftermath branch through actions.
	if len(n.Actions) > 0 {
		return Advance(advanceFallback(n)), nil
	}
	return Terminate(OutcomeFailure), nil
}

// awaitActionsOrAdvance blocks for a declared action press, or flows
// through the default output when the node has none.
func awaitActionsOrAdvance(n *casegraph.Node) StepResult {
	if len(n.Actions) > 0 {
		return AwaitInput(&InputRequest{
			NodeID:    n.ID,
			Type:      InputAction,
			ActionIDs: n.ActionIDs(),
		})
	}
	return Advance("")
}

// advanceFallback picks the exit port for an involuntary departure:
// the first declared action port, or the default output.
func advanceFallback(n *casegraph.Node) string {
	if len(n.Actions) > 0 {
		return n.Actions[0].ID
	}
	return ""
}
