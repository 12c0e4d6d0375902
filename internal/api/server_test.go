package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/detectivekit/casegraph/internal/casegraph"
	"github.com/detectivekit/casegraph/internal/runtime"
)

const testCaseDoc = `{
	"nodes": [
		{"id": "intro", "kind": "story", "data": {"score": 10}},
		{"id": "accuse", "kind": "identifyCulprit", "data": {"culpritName": "Elena Voss", "score": 100, "penalty": 40}}
	],
	"edges": [{"id": "e1", "sourceNodeId": "intro", "targetNodeId": "accuse"}]
}`

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	// No credentials configured: auth disabled.
	auth = &authConfig{}

	g, err := casegraph.Parse([]byte(testCaseDoc))
	if err != nil {
		t.Fatalf("failed to parse test case: %v", err)
	}
	m := runtime.NewManager(runtime.Config{})
	m.SetGraph(g, "intro")
	SetManager(m)
	SetDefaultEntry("intro")
	InitMetrics()
	SetEngineReady(true)

	srv := httptest.NewServer(NewMux())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Status != "ok" || body.Service != "casegraph" {
		t.Errorf("unexpected health body: %+v", body)
	}
}

func TestRunEndToEnd(t *testing.T) {
	srv := setupServer(t)

	// Start a run.
	resp, err := http.Post(srv.URL+"/runs", "application/json", nil)
	if err != nil {
		t.Fatalf("start run failed: %v", err)
	}
	var snap runtime.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	resp.Body.Close()

	if snap.State != runtime.StateAwaitingInput {
		t.Fatalf("expected awaiting input, got %s", snap.State)
	}
	if snap.PendingInput == nil || snap.PendingInput.NodeID != "accuse" {
		t.Fatalf("expected pending input at accuse: %+v", snap.PendingInput)
	}

	// Submit the accusation.
	input, _ := json.Marshal(RunInputRequest{Type: "text", Text: "Elena Voss"})
	resp, err = http.Post(srv.URL+"/runs/"+snap.RunID+"/input", "application/json", bytes.NewReader(input))
	if err != nil {
		t.Fatalf("input failed: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	resp.Body.Close()

	if snap.State != runtime.StateSucceeded || snap.Score != 110 {
		t.Errorf("unexpected final snapshot: %+v", snap)
	}

	// The report endpoint serves the finished run.
	resp, err = http.Get(srv.URL + "/runs/" + snap.RunID + "/report")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	var rep runtime.Report
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	resp.Body.Close()
	if rep.Outcome != runtime.OutcomeSuccess || rep.FinalScore != 110 {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestRunInputConflict(t *testing.T) {
	srv := setupServer(t)

	resp, _ := http.Post(srv.URL+"/runs", "application/json", nil)
	var snap runtime.Snapshot
	_ = json.NewDecoder(resp.Body).Decode(&snap)
	resp.Body.Close()

	// The accusation node wants text, not an option.
	input, _ := json.Marshal(RunInputRequest{Type: "option", OptionID: "o1"})
	resp, err := http.Post(srv.URL+"/runs/"+snap.RunID+"/input", "application/json", bytes.NewReader(input))
	if err != nil {
		t.Fatalf("input failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRunNotFound(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/runs/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCaseUploadValidation(t *testing.T) {
	srv := setupServer(t)

	// A graph with a dangling edge is rejected before install.
	bad, _ := json.Marshal(CaseUploadRequest{
		EntryNodeID: "a",
		Graph:       json.RawMessage(`{"nodes": [{"id": "a", "kind": "story"}], "edges": [{"id": "e1", "sourceNodeId": "a", "targetNodeId": "ghost"}]}`),
	})
	resp, err := http.Post(srv.URL+"/case", "application/json", bytes.NewReader(bad))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}

	good, _ := json.Marshal(CaseUploadRequest{EntryNodeID: "intro", Graph: json.RawMessage(testCaseDoc)})
	resp, err = http.Post(srv.URL+"/case", "application/json", bytes.NewReader(good))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRoles(t *testing.T) {
	srv := setupServer(t)
	auth = &authConfig{
		adminUser:   "admin",
		adminPass:   "adminpw",
		proctorUser: "proctor",
		proctorPass: "proctorpw",
		enabled:     true,
	}
	t.Cleanup(func() { auth = &authConfig{} })

	// No credentials: 401 with a challenge.
	resp, err := http.Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	do := func(method, path, user, pass string) int {
		req, _ := http.NewRequest(method, srv.URL+path, bytes.NewReader(nil))
		req.SetBasicAuth(user, pass)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := do("GET", "/events", "proctor", "proctorpw"); got != http.StatusOK {
		t.Errorf("proctor on /events: expected 200, got %d", got)
	}
	// Case management is admin-only.
	if got := do("POST", "/case", "proctor", "proctorpw"); got != http.StatusForbidden {
		t.Errorf("proctor on /case: expected 403, got %d", got)
	}
	if got := do("GET", "/events", "admin", "wrong"); got != http.StatusUnauthorized {
		t.Errorf("bad password: expected 401, got %d", got)
	}

	// Health stays open for probes.
	if got := do("GET", "/health", "", ""); got != http.StatusOK {
		t.Errorf("health must not require auth, got %d", got)
	}
}

func TestMetricsFormat(t *testing.T) {
	srv := setupServer(t)
	SetCaseName("The Gallery Heist")

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	body := buf.String()

	for _, want := range []string{
		"casegraph_uptime_seconds",
		"casegraph_runs_active",
		"casegraph_events_total",
		`case="The Gallery Heist"`,
		"casegraph_runs_completed_total",
	} {
		if !bytes.Contains([]byte(body), []byte(want)) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
