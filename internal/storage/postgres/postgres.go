// Package postgres persists the run-event log and final run outcomes.
// The outcome table is the feed for downstream reporting (leaderboards,
// feedback); the engine never reads it back during play.
package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// EventRow is one persisted run event.
type EventRow struct {
	EventID   int64          `json:"event_id"`
	Timestamp time.Time      `json:"ts"`
	Level     string         `json:"level"`
	Event     string         `json:"event"`
	Message   *string        `json:"msg,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	CaseID    string         `json:"case_id"`
	RunID     *string        `json:"run_id,omitempty"`
}

// OutcomeRow is the final report of one playthrough.
type OutcomeRow struct {
	RunID        string    `json:"run_id"`
	CaseID       string    `json:"case_id"`
	Outcome      string    `json:"outcome"`
	FinalScore   int       `json:"final_score"`
	ObjectiveIDs []string  `json:"satisfied_objective_ids"`
	VisitedIDs   []string  `json:"visited_node_ids"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Client manages the Postgres connection.
type Client struct {
	db     *sql.DB
	caseID string
}

// New opens a connection using the standard PG* environment variables.
// The caller treats a nil client as "persistence disabled".
func New(caseID string) (*Client, error) {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "casegraph")
	dbname := getEnv("PGDATABASE", "casegraph")
	password := os.Getenv("PGPASSWORD")

	connStr := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		connStr += " password=" + password
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{db: db, caseID: caseID}
	if err := client.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return client, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (c *Client) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS run_events (
			event_id BIGSERIAL PRIMARY KEY,
			ts       TIMESTAMPTZ NOT NULL,
			level    TEXT NOT NULL,
			event    TEXT NOT NULL,
			msg      TEXT,
			fields   JSONB,
			case_id  TEXT NOT NULL,
			run_id   TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_run_events_ts ON run_events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_run_events_run_id ON run_events(run_id);

		CREATE TABLE IF NOT EXISTS run_outcomes (
			run_id        TEXT PRIMARY KEY,
			case_id       TEXT NOT NULL,
			outcome       TEXT NOT NULL,
			final_score   INTEGER NOT NULL,
			objective_ids JSONB,
			visited_ids   JSONB,
			finished_at   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_run_outcomes_case_id ON run_outcomes(case_id);
	`
	_, err := c.db.Exec(query)
	return err
}

// Append inserts one run event.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]any, runID string) error {
	var fieldsJSON []byte
	if fields != nil {
		var err error
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}

	var msgPtr *string
	if msg != "" {
		msgPtr = &msg
	}
	var runPtr *string
	if runID != "" {
		runPtr = &runID
	}

	query := `
		INSERT INTO run_events (ts, level, event, msg, fields, case_id, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := c.db.Exec(query, ts, level, event, msgPtr, fieldsJSON, c.caseID, runPtr)
	return err
}

// QueryEvents returns the last N events for this case, newest first.
func (c *Client) QueryEvents(limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 10000 {
		limit = 10000
	}

	query := `
		SELECT event_id, ts, level, event, msg, fields, case_id, run_id
		FROM run_events
		WHERE case_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := c.db.Query(query, c.caseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var e EventRow
		var fieldsJSON []byte
		var msg, runID sql.NullString

		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.CaseID, &runID); err != nil {
			return nil, err
		}
		if msg.Valid {
			e.Message = &msg.String
		}
		if runID.Valid {
			e.RunID = &runID.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveOutcome upserts the final report of a run.
func (c *Client) SaveOutcome(o OutcomeRow) error {
	objectives, err := json.Marshal(o.ObjectiveIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal objective ids: %w", err)
	}
	visited, err := json.Marshal(o.VisitedIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal visited ids: %w", err)
	}

	query := `
		INSERT INTO run_outcomes (run_id, case_id, outcome, final_score, objective_ids, visited_ids, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			final_score = EXCLUDED.final_score,
			objective_ids = EXCLUDED.objective_ids,
			visited_ids = EXCLUDED.visited_ids,
			finished_at = EXCLUDED.finished_at
	`
	_, err = c.db.Exec(query, o.RunID, c.caseID, o.Outcome, o.FinalScore, objectives, visited, o.FinishedAt)
	return err
}

// QueryOutcomes returns the most recent run outcomes for this case.
func (c *Client) QueryOutcomes(limit int) ([]OutcomeRow, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT run_id, case_id, outcome, final_score, objective_ids, visited_ids, finished_at
		FROM run_outcomes
		WHERE case_id = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`
	rows, err := c.db.Query(query, c.caseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var o OutcomeRow
		var objectives, visited []byte
		if err := rows.Scan(&o.RunID, &o.CaseID, &o.Outcome, &o.FinalScore, &objectives, &visited, &o.FinishedAt); err != nil {
			return nil, err
		}
		if len(objectives) > 0 {
			if err := json.Unmarshal(objectives, &o.ObjectiveIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal objective ids: %w", err)
			}
		}
		if len(visited) > 0 {
			if err := json.Unmarshal(visited, &o.VisitedIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal visited ids: %w", err)
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
