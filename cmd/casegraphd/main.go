package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/detectivekit/casegraph/internal/api"
	"github.com/detectivekit/casegraph/internal/casegraph"
	"github.com/detectivekit/casegraph/internal/config"
	"github.com/detectivekit/casegraph/internal/dialogue"
	"github.com/detectivekit/casegraph/internal/events"
	"github.com/detectivekit/casegraph/internal/mqtt"
	"github.com/detectivekit/casegraph/internal/runtime"
	"github.com/detectivekit/casegraph/internal/storage/postgres"
	"github.com/detectivekit/casegraph/internal/vfs"
)

const tickInterval = time.Second

func main() {
	// Dev convenience; production sets real environment variables.
	_ = godotenv.Load()

	configPath := os.Getenv("CASEGRAPH_CONFIG")
	if configPath == "" {
		configPath = "case.yaml"
	}
	cfg, err := config.LoadStudioConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", configPath, err)
	}

	api.InitAuth()
	api.InitTLS()
	api.InitMetrics()
	api.InitWebhook()
	api.SetCaseName(cfg.Case.Name)
	if cfg.Reporting.WebhookURL != "" {
		api.SetWebhookURL(cfg.Reporting.WebhookURL)
	}

	// Persistence is optional: without Postgres the engine keeps the
	// in-memory event buffer only.
	var store *postgres.Client
	if client, err := postgres.New(cfg.Case.ID); err != nil {
		log.Printf("postgres unavailable, running without persistence: %v", err)
		api.SetPostgresState(false, true)
	} else {
		store = client
		events.SetPostgresClient(client)
		api.SetOutcomeStore(client)
		api.SetPostgresState(true, false)
		defer store.Close()
	}

	graph, err := casegraph.Load(cfg.Case.Graph)
	if err != nil {
		log.Fatalf("failed to load case graph: %v", err)
	}

	runCfg := runtime.Config{Dialogue: dialogue.NewScripted(nil)}
	if cfg.Case.Files != "" {
		data, err := os.ReadFile(cfg.Case.Files)
		if err != nil {
			log.Fatalf("failed to read case files: %v", err)
		}
		tree, err := vfs.ParseTree(data)
		if err != nil {
			log.Fatalf("failed to parse case files: %v", err)
		}
		runCfg.Files = tree
	}

	manager := runtime.NewManager(runCfg)
	manager.SetGraph(graph, cfg.Case.EntryNodeID)
	api.SetManager(manager)
	api.SetDefaultEntry(cfg.Case.EntryNodeID)
	api.SetEngineReady(true)

	manager.OnFinish(api.NotifyOutcome)
	if store != nil {
		manager.OnFinish(func(rep runtime.Report) {
			err := store.SaveOutcome(postgres.OutcomeRow{
				RunID:        rep.RunID,
				CaseID:       cfg.Case.ID,
				Outcome:      string(rep.Outcome),
				FinalScore:   rep.FinalScore,
				ObjectiveIDs: rep.SatisfiedObjectiveIDs,
				VisitedIDs:   rep.VisitedNodeIDs,
				FinishedAt:   time.Now().UTC(),
			})
			if err != nil {
				log.Printf("failed to save outcome %s: %v", rep.RunID, err)
			}
		})
	}

	// Broker telemetry is optional as well.
	if os.Getenv("MQTT_URL") != "" {
		client := mqtt.NewClient("casegraph-" + cfg.Case.ID)
		if err := client.Connect(); err != nil {
			log.Printf("mqtt unavailable: %v", err)
			api.SetMQTTState(false, true)
		} else {
			api.SetMQTTState(true, false)
			pub := mqtt.NewPublisher(client, cfg.Reporting.MQTTTopicPrefix)
			pub.Start()
			manager.OnFinish(pub.PublishOutcome)
			defer func() {
				pub.Stop()
				client.Disconnect()
			}()
		}
	}

	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			manager.TickAll(now)
		}
	}()

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "casegraph engine starting", map[string]any{
		"case_id":  cfg.Case.ID,
		"hostname": hostname,
		"pid":      os.Getpid(),
	})

	api.Start(cfg.APIPort())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	events.Emit("info", "system.shutdown", "casegraph engine stopping", nil)
}
