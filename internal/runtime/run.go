// Package runtime drives the playback of a case graph: a single-token
// state machine that advances only in response to discrete external
// events (start, player input, ticks). Authored nodes stay immutable;
// all progress lives in the Run.
package runtime

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/detectivekit/casegraph/internal/casegraph"
	"github.com/detectivekit/casegraph/internal/events"
	"github.com/detectivekit/casegraph/internal/vars"
)

// State is the run's lifecycle position.
type State string

const (
	StateIdle          State = "idle"
	StateRunning       State = "running"
	StateAwaitingInput State = "awaiting_input"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
	StateAborted       State = "aborted"
)

// Outcome is the run's result as reported downstream.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeSuccess    Outcome = "success"
	OutcomeFailure    Outcome = "failure"
	OutcomeAborted    Outcome = "aborted"
)

// A chain of nodes that advance without requesting input is bounded so
// an authored cycle of setters cannot spin forever inside one event.
const maxChainedSteps = 10000

// Config carries the injected external services for a run.
type Config struct {
	Files    FileResolver
	Dialogue DialogueService
	Clock    func() time.Time
}

// Run is the mutable state of one playthrough. All methods serialize on
// an internal mutex: only one submission is ever in flight, and
// concurrent callers queue rather than corrupt state.
type Run struct {
	mu sync.Mutex

	id    string
	graph *casegraph.Graph
	cfg   Config

	state      State
	currentID  string
	pending    *InputRequest
	store      *vars.Store
	ledger     *Ledger
	visited    map[string]bool
	deadline   time.Time
	failReason string
}

// NewRun creates an idle run over a shared, read-only graph.
func NewRun(id string, g *casegraph.Graph, cfg Config) *Run {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Run{
		id:      id,
		graph:   g,
		cfg:     cfg,
		state:   StateIdle,
		store:   vars.NewStore(),
		ledger:  NewLedger(),
		visited: make(map[string]bool),
	}
}

func (r *Run) ID() string {
	return r.id
}

// Start validates the graph against the entry node and begins playback.
// A malformed graph refuses to start; the run stays idle.
func (r *Run) Start(entryNodeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return &InvalidInputError{Reason: "run already started"}
	}
	if err := r.graph.Validate(entryNodeID); err != nil {
		return err
	}

	r.state = StateRunning
	r.emit("info", "run.started", "", map[string]any{"entry_node_id": entryNodeID})
	r.enterAndRun(entryNodeID)
	return nil
}

// ChooseOption answers a single-selection question.
func (r *Run) ChooseOption(optionID string) error {
	return r.submit(Input{Type: InputOption, OptionIDs: []string{optionID}})
}

// ChooseOptions answers a multi-selection question with the full chosen set.
func (r *Run) ChooseOptions(optionIDs []string) error {
	return r.submit(Input{Type: InputOption, OptionIDs: optionIDs})
}

// SubmitText feeds a free-text submission to the waiting node.
func (r *Run) SubmitText(text string) error {
	return r.submit(Input{Type: InputText, Text: text})
}

// TriggerAction presses a named action button on the waiting node.
func (r *Run) TriggerAction(actionID string) error {
	return r.submit(Input{Type: InputAction, ActionID: actionID})
}

func (r *Run) submit(in Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateAwaitingInput || r.pending == nil {
		err := &InvalidInputError{Reason: "no input is awaited"}
		r.emit("warn", "input.rejected", err.Error(), map[string]any{"input_type": string(in.Type)})
		return err
	}
	if !r.pending.accepts(in.Type) {
		err := &InvalidInputError{Reason: fmt.Sprintf("pending request expects %s, got %s", r.pending.Type, in.Type)}
		r.emit("warn", "input.rejected", err.Error(), map[string]any{
			"node_id":    r.pending.NodeID,
			"input_type": string(in.Type),
		})
		return err
	}

	n := r.graph.Node(r.pending.NodeID)
	res, err := handlerFor(n.Kind).resume(r, n, in)
	if err != nil {
		if _, ok := err.(*InvalidInputError); ok {
			r.emit("warn", "input.rejected", err.Error(), map[string]any{"node_id": n.ID})
		}
		return err
	}

	r.emit("info", "input.received", "", map[string]any{
		"node_id":    n.ID,
		"input_type": string(in.Type),
	})
	r.proceed(res)
	return nil
}

// Tick re-polls the waiting node. Only while-gates, terminal deadlines,
// and interrogation reveal flags react; any other pending node ignores
// the tick. Each poll corresponds to exactly one tick from the caller.
func (r *Run) Tick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateAwaitingInput || r.pending == nil {
		return
	}
	n := r.graph.Node(r.pending.NodeID)
	switch n.Kind {
	case casegraph.KindLogicGate, casegraph.KindTerminal, casegraph.KindInterrogation:
	default:
		return
	}

	res, err := handlerFor(n.Kind).resume(r, n, Input{Type: InputPoll, Now: now})
	if err != nil {
		// Transient service failure; the next tick retries.
		return
	}
	r.proceed(res)
}

// Abort discards the run. Aborting a finished run is a no-op.
func (r *Run) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished() {
		return
	}
	r.finish(OutcomeAborted, "")
}

// SetExternal writes a variable from outside the graph, e.g. the
// dialogue integration flipping an interrogation's reveal flag. Waiting
// while-gates observe the change on their next poll.
func (r *Run) SetExternal(name string, value vars.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished() {
		return
	}
	r.store.Set(name, value)
	r.emit("info", "variable.set", "", map[string]any{
		"variable": name,
		"value":    value.AsString(),
		"source":   "external",
	})
}

// enterAndRun walks the graph from nodeID until a handler blocks for
// input, the run terminates, or the chain budget is exhausted.
func (r *Run) enterAndRun(nodeID string) {
	for steps := 0; ; steps++ {
		if steps > maxChainedSteps {
			r.finish(OutcomeFailure, fmt.Sprintf("advance limit exceeded at node %s", nodeID))
			return
		}

		n := r.graph.Node(nodeID)
		r.currentID = nodeID
		r.visited[nodeID] = true
		r.emit("info", "node.entered", "", map[string]any{
			"node_id": nodeID,
			"kind":    string(n.Kind),
		})

		res := handlerFor(n.Kind).enter(r, n)
		next, done := r.apply(res)
		if done {
			return
		}
		nodeID = next
	}
}

// proceed applies a resume result and keeps walking if it advanced.
func (r *Run) proceed(res StepResult) {
	next, done := r.apply(res)
	if !done {
		r.enterAndRun(next)
	}
}

// apply resolves one StepResult. It returns the next node to enter, or
// done=true when the run blocked or ended.
func (r *Run) apply(res StepResult) (next string, done bool) {
	switch res.kind {
	case stepAwait:
		if res.request != nil {
			r.pending = res.request
			r.emit("info", "input.requested", "", map[string]any{
				"node_id":    res.request.NodeID,
				"input_type": string(res.request.Type),
			})
		}
		r.state = StateAwaitingInput
		return "", true

	case stepTerminate:
		r.emit("info", "node.completed", "", map[string]any{"node_id": r.currentID})
		r.finish(res.outcome, "")
		return "", true

	default: // advance
		r.pending = nil
		r.emit("info", "node.completed", "", map[string]any{"node_id": r.currentID})
		edge := r.graph.EdgeFromPort(r.currentID, res.port)
		if edge == nil {
			err := &UnreachableBranchError{NodeID: r.currentID, Port: res.port}
			r.finish(OutcomeFailure, err.Error())
			return "", true
		}
		return edge.Target, false
	}
}

func (r *Run) finish(outcome Outcome, reason string) {
	r.pending = nil
	r.deadline = time.Time{}
	r.failReason = reason

	fields := map[string]any{"final_score": r.ledger.Score()}
	switch outcome {
	case OutcomeSuccess:
		r.state = StateSucceeded
		r.emit("info", "run.succeeded", "", fields)
	case OutcomeAborted:
		r.state = StateAborted
		r.emit("info", "run.aborted", "", fields)
	default:
		r.state = StateFailed
		r.emit("error", "run.failed", reason, fields)
	}
}

func (r *Run) finished() bool {
	switch r.state {
	case StateSucceeded, StateFailed, StateAborted:
		return true
	}
	return false
}

// applyReward credits a node's score and objectives at most once per
// run. Returns true when the score was newly applied.
func (r *Run) applyReward(nodeID string, points int, objectiveIDs []string) bool {
	newly := r.ledger.Award(nodeID, points)
	if newly && points != 0 {
		r.emit("info", "score.awarded", "", map[string]any{
			"node_id": nodeID,
			"points":  points,
			"score":   r.ledger.Score(),
		})
	}
	for _, id := range r.ledger.Satisfy(objectiveIDs...) {
		r.emit("info", "objective.satisfied", "", map[string]any{
			"node_id":      nodeID,
			"objective_id": id,
		})
	}
	return newly
}

// penalize subtracts points unconditionally (per attempt, per wrong
// answer), unlike rewards.
func (r *Run) penalize(nodeID string, points int) {
	if points == 0 {
		return
	}
	r.ledger.Penalize(points)
	r.emit("info", "score.penalized", "", map[string]any{
		"node_id": nodeID,
		"points":  points,
		"score":   r.ledger.Score(),
	})
}

func (r *Run) emit(level, name, msg string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["run_id"] = r.id
	events.Emit(level, name, msg, fields)
}

// State returns the current lifecycle state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Finished reports whether the run reached a terminal state.
func (r *Run) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished()
}

// Outcome maps the run state to the reported outcome.
func (r *Run) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome()
}

func (r *Run) outcome() Outcome {
	switch r.state {
	case StateSucceeded:
		return OutcomeSuccess
	case StateFailed:
		return OutcomeFailure
	case StateAborted:
		return OutcomeAborted
	default:
		return OutcomeInProgress
	}
}

// Variable reads a variable's current value (for tests and the API).
func (r *Run) Variable(name string) vars.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Get(name)
}

// Score returns the current accumulated score.
func (r *Run) Score() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Score()
}

// Snapshot is the run's externally visible progress.
type Snapshot struct {
	RunID         string        `json:"run_id"`
	State         State         `json:"state"`
	Outcome       Outcome       `json:"outcome"`
	CurrentNodeID string        `json:"current_node_id,omitempty"`
	PendingInput  *InputRequest `json:"pending_input,omitempty"`
	Score         int           `json:"score"`
	Reason        string        `json:"reason,omitempty"`
}

func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		RunID:         r.id,
		State:         r.state,
		Outcome:       r.outcome(),
		CurrentNodeID: r.currentID,
		Score:         r.ledger.Score(),
		Reason:        r.failReason,
	}
	if r.pending != nil {
		req := *r.pending
		snap.PendingInput = &req
	}
	return snap
}

// Report is the final outcome document emitted for downstream
// reporting once the run ends.
type Report struct {
	RunID                 string   `json:"run_id"`
	Outcome               Outcome  `json:"outcome"`
	FinalScore            int      `json:"final_score"`
	SatisfiedObjectiveIDs []string `json:"satisfied_objective_ids"`
	VisitedNodeIDs        []string `json:"visited_node_ids"`
	Reason                string   `json:"reason,omitempty"`
}

func (r *Run) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	visited := make([]string, 0, len(r.visited))
	for id := range r.visited {
		visited = append(visited, id)
	}
	sort.Strings(visited)

	return Report{
		RunID:                 r.id,
		Outcome:               r.outcome(),
		FinalScore:            r.ledger.Score(),
		SatisfiedObjectiveIDs: r.ledger.ObjectiveIDs(),
		VisitedNodeIDs:        visited,
		Reason:                r.failReason,
	}
}
