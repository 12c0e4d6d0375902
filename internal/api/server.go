package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/detectivekit/casegraph/internal/casegraph"
	"github.com/detectivekit/casegraph/internal/events"
	"github.com/detectivekit/casegraph/internal/runtime"
	"github.com/detectivekit/casegraph/internal/storage/postgres"
)

// manager is the run manager serving all run endpoints. Set once at
// startup before the server starts.
var manager *runtime.Manager

// SetManager installs the run manager used by the run endpoints.
func SetManager(m *runtime.Manager) {
	manager = m
}

// entryNodeID is the entry node applied when a graph is uploaded
// without one.
var defaultEntryNodeID string

// SetDefaultEntry sets the entry node used by POST /case uploads that
// omit one.
func SetDefaultEntry(id string) {
	defaultEntryNodeID = id
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "casegraph",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events.Snapshot())
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{OK: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// CaseUploadRequest carries a case graph from the authoring tool.
type CaseUploadRequest struct {
	EntryNodeID string          `json:"entry_node_id,omitempty"`
	Graph       json.RawMessage `json:"graph"`
}

// caseUploadHandler replaces the loaded case. Runs already in flight
// keep the graph they started on.
func caseUploadHandler(w http.ResponseWriter, r *http.Request) {
	var req CaseUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Graph) == 0 {
		writeError(w, http.StatusBadRequest, "graph required")
		return
	}

	g, err := casegraph.Parse(req.Graph)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	entry := req.EntryNodeID
	if entry == "" {
		entry = defaultEntryNodeID
	}
	if err := g.Validate(entry); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	manager.SetGraph(g, entry)
	writeJSON(w, map[string]any{
		"ok":            true,
		"node_count":    len(g.Nodes),
		"edge_count":    len(g.Edges),
		"entry_node_id": entry,
	})
}

func startRunHandler(w http.ResponseWriter, r *http.Request) {
	id, err := manager.StartRun()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	run := manager.Run(id)
	writeJSON(w, run.Snapshot())
}

func getRunHandler(w http.ResponseWriter, r *http.Request) {
	run := manager.Run(r.PathValue("id"))
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, run.Snapshot())
}

func getRunReportHandler(w http.ResponseWriter, r *http.Request) {
	run := manager.Run(r.PathValue("id"))
	if run == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if !run.Finished() {
		writeError(w, http.StatusConflict, "run not finished")
		return
	}
	writeJSON(w, run.Report())
}

// RunInputRequest is one player event routed to a waiting run.
type RunInputRequest struct {
	Type      string   `json:"type"`
	OptionID  string   `json:"option_id,omitempty"`
	OptionIDs []string `json:"option_ids,omitempty"`
	Text      string   `json:"text,omitempty"`
	ActionID  string   `json:"action_id,omitempty"`
}

func runInputHandler(w http.ResponseWriter, r *http.Request) {
	var req RunInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id := r.PathValue("id")
	err := manager.Dispatch(id, func(run *runtime.Run) error {
		switch req.Type {
		case "option":
			if len(req.OptionIDs) > 0 {
				return run.ChooseOptions(req.OptionIDs)
			}
			return run.ChooseOption(req.OptionID)
		case "text":
			return run.SubmitText(req.Text)
		case "action":
			return run.TriggerAction(req.ActionID)
		default:
			return &runtime.InvalidInputError{Reason: "unknown input type: " + req.Type}
		}
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch err.(type) {
		case *runtime.InvalidInputError:
			status = http.StatusConflict
		case *runtime.ServiceError:
			status = http.StatusBadGateway
		}
		if manager.Run(id) == nil {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, manager.Run(id).Snapshot())
}

func abortRunHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := manager.Abort(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, manager.Run(id).Snapshot())
}

// OutcomeStore reads persisted outcomes for the history endpoint.
// Satisfied by the postgres client.
type OutcomeStore interface {
	QueryOutcomes(limit int) ([]postgres.OutcomeRow, error)
}

var outcomeStore OutcomeStore

// SetOutcomeStore installs the persisted-outcome reader. Nil disables
// the /outcomes endpoint.
func SetOutcomeStore(s OutcomeStore) {
	outcomeStore = s
}

func outcomesHandler(w http.ResponseWriter, r *http.Request) {
	if outcomeStore == nil {
		writeError(w, http.StatusServiceUnavailable, "outcome storage not configured")
		return
	}
	rows, err := outcomeStore.QueryOutcomes(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, rows)
}

// NewMux builds the route table. Split from ListenAndServe so tests
// can drive it through httptest.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler)
	mux.HandleFunc("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /events", RequireAnyRole(eventsHandler))
	mux.HandleFunc("GET /outcomes", RequireAnyRole(outcomesHandler))
	mux.HandleFunc("POST /case", RequireAdmin(caseUploadHandler))
	mux.HandleFunc("POST /runs", RequireAnyRole(startRunHandler))
	mux.HandleFunc("GET /runs/{id}", RequireAnyRole(getRunHandler))
	mux.HandleFunc("GET /runs/{id}/report", RequireAnyRole(getRunReportHandler))
	mux.HandleFunc("POST /runs/{id}/input", RequireAnyRole(runInputHandler))
	mux.HandleFunc("POST /runs/{id}/abort", RequireAnyRole(abortRunHandler))
	mux.HandleFunc("GET /ws/events", wsEventsHandler)
	return mux
}

// ListenAndServe starts the API server on the given port, with TLS
// when certificates are configured. It blocks until the server exits.
func ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:      addr,
		Handler:   NewMux(),
		TLSConfig: LoadTLSConfig(),
	}

	if IsTLSEnabled() && srv.TLSConfig != nil {
		log.Printf("API listening on %s (TLS)\n", addr)
		return srv.ListenAndServeTLS("", "")
	}
	log.Printf("API listening on %s\n", addr)
	return srv.ListenAndServe()
}

// Start starts the API server in a goroutine.
// Errors are logged but do not stop the caller.
func Start(port int) {
	go func() {
		if err := ListenAndServe(port); err != nil {
			log.Printf("api server error: %v", err)
		}
	}()
}
