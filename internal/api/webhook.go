package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/detectivekit/casegraph/internal/runtime"
)

// OutcomePayload is the JSON document posted to the reporting webhook
// when a run finishes.
type OutcomePayload struct {
	CaseName  string         `json:"case_name"`
	Timestamp string         `json:"timestamp"`
	Report    runtime.Report `json:"report"`
}

var (
	webhookMu  sync.Mutex
	webhookURL string
)

// InitWebhook reads the reporting webhook URL from the environment.
// The config file value, when set, takes precedence via SetWebhookURL.
func InitWebhook() {
	webhookMu.Lock()
	defer webhookMu.Unlock()
	webhookURL = os.Getenv("CASEGRAPH_WEBHOOK_URL")
	if webhookURL != "" {
		log.Printf("Outcome webhook enabled")
	}
}

// SetWebhookURL overrides the webhook destination.
func SetWebhookURL(url string) {
	webhookMu.Lock()
	defer webhookMu.Unlock()
	webhookURL = url
}

// GetWebhookURL returns the configured webhook URL (for testing).
func GetWebhookURL() string {
	webhookMu.Lock()
	defer webhookMu.Unlock()
	return webhookURL
}

// NotifyOutcome posts a finished run's report to the webhook.
// Best-effort and non-blocking; suitable as a Manager finish callback.
func NotifyOutcome(rep runtime.Report) {
	webhookMu.Lock()
	url := webhookURL
	webhookMu.Unlock()

	if url == "" {
		return
	}

	payload := OutcomePayload{
		CaseName:  GetCaseName(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Report:    rep,
	}
	go postWebhook(url, payload)
}

// postWebhook performs the actual HTTP POST (runs in goroutine).
func postWebhook(url string, payload OutcomePayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("webhook: failed to marshal payload: %v", err)
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("webhook: POST failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("webhook: returned status %d", resp.StatusCode)
	}
}
