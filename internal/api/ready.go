package api

import (
	"encoding/json"
	"net/http"
	"sync"
)

// readiness tracks the dependencies the /ready endpoint reports on.
// Optional dependencies that were never configured do not fail
// readiness when absent.
var readiness = struct {
	mu sync.RWMutex

	engineReady       bool
	mqttConnected     bool
	mqttOptional      bool
	postgresConnected bool
	postgresOptional  bool
}{
	mqttOptional:     true,
	postgresOptional: true,
}

// SetEngineReady marks the case engine as loaded.
func SetEngineReady(ready bool) {
	readiness.mu.Lock()
	readiness.engineReady = ready
	readiness.mu.Unlock()
}

// SetMQTTState records broker connectivity. optional=false makes a
// disconnected broker fail readiness.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
	readiness.mu.Unlock()
}

// SetPostgresState records database connectivity.
func SetPostgresState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.postgresConnected = connected
	readiness.postgresOptional = optional
	readiness.mu.Unlock()
}

type ReadyResponse struct {
	Ready    bool            `json:"ready"`
	Checks   map[string]bool `json:"checks"`
	Optional map[string]bool `json:"optional,omitempty"`
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	resp := ReadyResponse{
		Checks: map[string]bool{
			"engine":   readiness.engineReady,
			"mqtt":     readiness.mqttConnected,
			"postgres": readiness.postgresConnected,
		},
		Optional: map[string]bool{
			"mqtt":     readiness.mqttOptional,
			"postgres": readiness.postgresOptional,
		},
	}
	ready := readiness.engineReady &&
		(readiness.mqttConnected || readiness.mqttOptional) &&
		(readiness.postgresConnected || readiness.postgresOptional)
	readiness.mu.RUnlock()

	resp.Ready = ready
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
