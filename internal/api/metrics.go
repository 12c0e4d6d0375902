package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/detectivekit/casegraph/internal/events"
	"github.com/detectivekit/casegraph/internal/runtime"
	"github.com/detectivekit/casegraph/internal/version"
)

var metricsState = &MetricsState{}

// MetricsState holds runtime metrics for the /metrics endpoint.
type MetricsState struct {
	mu        sync.RWMutex
	startTime time.Time
	caseName  string
}

// InitMetrics initializes the metrics system. Must be called at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
}

// SetCaseName sets the case name used in metric labels.
func SetCaseName(name string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.caseName = name
}

// GetCaseName returns the current case name.
func GetCaseName() string {
	metricsState.mu.RLock()
	defer metricsState.mu.RUnlock()
	return metricsState.caseName
}

// metricsHandler returns Prometheus-compatible metrics in text format.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	metricsState.mu.RLock()
	startTime := metricsState.startTime
	caseName := metricsState.caseName
	metricsState.mu.RUnlock()

	uptime := time.Since(startTime).Seconds()
	eventsTotal := events.TotalCount()
	wsClients := events.SubscriberCount()

	readiness.mu.RLock()
	engineReady := readiness.engineReady
	mqttConnected := readiness.mqttConnected
	postgresConnected := readiness.postgresConnected
	readiness.mu.RUnlock()

	activeRuns := 0
	totals := map[runtime.Outcome]int{}
	if manager != nil {
		activeRuns = manager.ActiveCount()
		totals = manager.CompletedTotals()
	}

	boolVal := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	writeMetric := func(name, mtype, help string, value interface{}, labels string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		if labels != "" {
			fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
		} else {
			fmt.Fprintf(w, "%s %v\n", name, value)
		}
	}

	labels := fmt.Sprintf(`case="%s",instance="%s",version="%s"`, caseName, hostname, version.Version)

	writeMetric("casegraph_uptime_seconds", "gauge",
		"Number of seconds since the engine started", uptime, labels)

	writeMetric("casegraph_case_loaded", "gauge",
		"Whether a case is loaded (1) or not (0)", boolVal(engineReady), labels)

	writeMetric("casegraph_runs_active", "gauge",
		"Number of runs currently in progress", activeRuns, labels)

	writeMetric("casegraph_events_total", "counter",
		"Total number of events emitted since startup", eventsTotal, labels)

	writeMetric("casegraph_mqtt_connected", "gauge",
		"Whether the MQTT broker is connected (1) or not (0)", boolVal(mqttConnected), labels)

	writeMetric("casegraph_postgres_connected", "gauge",
		"Whether PostgreSQL is connected (1) or not (0)", boolVal(postgresConnected), labels)

	writeMetric("casegraph_ws_clients", "gauge",
		"Number of active WebSocket client connections", wsClients, labels)

	// Completed runs, one series per outcome.
	fmt.Fprintf(w, "# HELP casegraph_runs_completed_total Completed runs by outcome\n")
	fmt.Fprintf(w, "# TYPE casegraph_runs_completed_total counter\n")
	for _, outcome := range []runtime.Outcome{runtime.OutcomeSuccess, runtime.OutcomeFailure, runtime.OutcomeAborted} {
		fmt.Fprintf(w, "casegraph_runs_completed_total{%s,outcome=%q} %d\n", labels, string(outcome), totals[outcome])
	}
}
