package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/detectivekit/casegraph/internal/casegraph"
	"github.com/detectivekit/casegraph/internal/events"
)

// Manager owns every run of the loaded case: it mints run ids, fans
// ticks out to waiting runs, and fires finish callbacks exactly once
// per run so outcome reporting never double-publishes.
type Manager struct {
	mu        sync.Mutex
	graph     *casegraph.Graph
	entryID   string
	cfg       Config
	runs      map[string]*Run
	finalized map[string]bool
	onFinish  []func(Report)
	totals    map[Outcome]int
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:       cfg,
		runs:      make(map[string]*Run),
		finalized: make(map[string]bool),
		totals:    make(map[Outcome]int),
	}
}

// SetGraph installs a case. Existing runs keep their old graph; new
// runs start on the replacement.
func (m *Manager) SetGraph(g *casegraph.Graph, entryNodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph = g
	m.entryID = entryNodeID
}

// Graph returns the installed case graph, or nil.
func (m *Manager) Graph() *casegraph.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph
}

// OnFinish registers a callback invoked once per finished run.
func (m *Manager) OnFinish(fn func(Report)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinish = append(m.onFinish, fn)
}

// StartRun creates and starts a run of the installed case, returning
// its id. A graph that fails validation returns the error and leaves
// nothing behind.
func (m *Manager) StartRun() (string, error) {
	m.mu.Lock()
	g, entry := m.graph, m.entryID
	m.mu.Unlock()

	if g == nil {
		return "", fmt.Errorf("no case loaded")
	}

	r := NewRun(uuid.NewString(), g, m.cfg)
	if err := r.Start(entry); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.runs[r.ID()] = r
	m.mu.Unlock()

	// A degenerate case may finish during Start.
	m.maybeFinalize(r)
	return r.ID(), nil
}

// Run returns the run with the given id, or nil.
func (m *Manager) Run(id string) *Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[id]
}

// Abort ends the named run.
func (m *Manager) Abort(id string) error {
	r := m.Run(id)
	if r == nil {
		return fmt.Errorf("no such run: %s", id)
	}
	r.Abort()
	m.maybeFinalize(r)
	return nil
}

// Dispatch forwards one input to a run and finalizes it if it ended.
func (m *Manager) Dispatch(id string, fn func(*Run) error) error {
	r := m.Run(id)
	if r == nil {
		return fmt.Errorf("no such run: %s", id)
	}
	err := fn(r)
	m.maybeFinalize(r)
	return err
}

// TickAll polls every active run. Runs that finish on the tick (a
// terminal deadline expiring into a dead end) are finalized.
func (m *Manager) TickAll(now time.Time) {
	m.mu.Lock()
	active := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		if !m.finalized[r.ID()] {
			active = append(active, r)
		}
	}
	m.mu.Unlock()

	for _, r := range active {
		r.Tick(now)
		m.maybeFinalize(r)
	}
}

// maybeFinalize publishes a finished run's outcome exactly once.
func (m *Manager) maybeFinalize(r *Run) {
	if !r.Finished() {
		return
	}

	m.mu.Lock()
	if m.finalized[r.ID()] {
		m.mu.Unlock()
		return
	}
	m.finalized[r.ID()] = true
	report := r.Report()
	m.totals[report.Outcome]++
	callbacks := append([]func(Report){}, m.onFinish...)
	m.mu.Unlock()

	events.Emit("info", "outcome.published", "", map[string]any{
		"run_id":      report.RunID,
		"outcome":     string(report.Outcome),
		"final_score": report.FinalScore,
	})
	for _, fn := range callbacks {
		fn(report)
	}
}

// ActiveCount returns the number of unfinished runs.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id := range m.runs {
		if !m.finalized[id] {
			n++
		}
	}
	return n
}

// CompletedTotals returns finished-run counts by outcome.
func (m *Manager) CompletedTotals() map[Outcome]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Outcome]int, len(m.totals))
	for k, v := range m.totals {
		out[k] = v
	}
	return out
}
