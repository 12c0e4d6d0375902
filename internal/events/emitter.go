// Package events is the engine's telemetry backbone. Every run
// transition is emitted as a structured event with a validated name,
// buffered in memory, fanned out to live subscribers, and appended to
// Postgres when a client is configured.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/detectivekit/casegraph/internal/storage/postgres"
)

var buffer = NewRingBuffer(256)

var (
	pgClient      *postgres.Client
	pgMu          sync.RWMutex
	pgErrorLogged bool
)

// SetPostgresClient sets the Postgres client for event persistence.
func SetPostgresClient(client *postgres.Client) {
	pgMu.Lock()
	pgClient = client
	pgMu.Unlock()
}

// GetPostgresClient returns the current Postgres client (for API queries).
func GetPostgresClient() *postgres.Client {
	pgMu.RLock()
	defer pgMu.RUnlock()
	return pgClient
}

type Event struct {
	Timestamp string         `json:"ts"`
	Level     string         `json:"level"`
	Name      string         `json:"event"`
	Message   string         `json:"msg,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Emit records a named event. The name must be registered; fields may
// carry a "run_id" key which is promoted to the persistence layer's
// run column.
func Emit(level, name, msg string, fields map[string]any) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	broadcast(e)

	persist(ts, e)

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return b, nil
}

// persist appends the event to Postgres, best effort. A failing
// database is reported once via the ring buffer directly; never through
// Emit, which would recurse while Postgres keeps failing.
func persist(ts time.Time, e Event) {
	pgMu.RLock()
	client := pgClient
	errorLogged := pgErrorLogged
	pgMu.RUnlock()

	if client == nil {
		return
	}

	runID, _ := e.Fields["run_id"].(string)
	if err := client.Append(ts, e.Level, e.Name, e.Message, e.Fields, runID); err == nil {
		return
	} else if !errorLogged {
		pgMu.Lock()
		alreadyLogged := pgErrorLogged
		pgErrorLogged = true
		pgMu.Unlock()
		if !alreadyLogged {
			buffer.Add(Event{
				Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
				Level:     "error",
				Name:      "system.error",
				Message:   "postgres append failed",
				Fields:    map[string]any{"error": err.Error()},
			})
		}
	}
}

// Snapshot returns the buffered events in chronological order.
func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount returns the number of events emitted since startup.
func TotalCount() uint64 {
	return buffer.Total()
}

// Clear resets the event buffer. Used for testing.
func Clear() {
	buffer.Clear()
}
