// Command caserun plays a case graph from the command line: it feeds a
// scripted sequence of inputs to a run and prints the final report as
// JSON. Used for authoring smoke tests and CI checks on case files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/detectivekit/casegraph/internal/casegraph"
	"github.com/detectivekit/casegraph/internal/dialogue"
	"github.com/detectivekit/casegraph/internal/runtime"
	"github.com/detectivekit/casegraph/internal/vfs"
)

// ScriptStep is one pre-recorded player input.
type ScriptStep struct {
	Type      string   `json:"type"`
	OptionID  string   `json:"option_id,omitempty"`
	OptionIDs []string `json:"option_ids,omitempty"`
	Text      string   `json:"text,omitempty"`
	ActionID  string   `json:"action_id,omitempty"`
}

func main() {
	_ = godotenv.Load()

	casePath := flag.String("case", "", "path to the case graph JSON")
	filesPath := flag.String("files", "", "optional path to the case file system JSON")
	scriptPath := flag.String("script", "", "optional path to a script of inputs")
	entry := flag.String("entry", "", "entry node id")
	flag.Parse()

	if *casePath == "" || *entry == "" {
		fmt.Fprintln(os.Stderr, "usage: caserun -case case.json -entry node-id [-files fs.json] [-script script.json]")
		os.Exit(2)
	}

	graph, err := casegraph.Load(*casePath)
	if err != nil {
		log.Fatalf("failed to load case: %v", err)
	}

	cfg := runtime.Config{Dialogue: dialogue.NewScripted(nil)}
	if *filesPath != "" {
		data, err := os.ReadFile(*filesPath)
		if err != nil {
			log.Fatalf("failed to read files: %v", err)
		}
		tree, err := vfs.ParseTree(data)
		if err != nil {
			log.Fatalf("failed to parse files: %v", err)
		}
		cfg.Files = tree
	}

	var script []ScriptStep
	if *scriptPath != "" {
		data, err := os.ReadFile(*scriptPath)
		if err != nil {
			log.Fatalf("failed to read script: %v", err)
		}
		if err := json.Unmarshal(data, &script); err != nil {
			log.Fatalf("failed to parse script: %v", err)
		}
	}

	run := runtime.NewRun("local", graph, cfg)
	if err := run.Start(*entry); err != nil {
		log.Fatalf("failed to start run: %v", err)
	}

	for i, step := range script {
		if run.Finished() {
			break
		}
		var err error
		switch step.Type {
		case "option":
			if len(step.OptionIDs) > 0 {
				err = run.ChooseOptions(step.OptionIDs)
			} else {
				err = run.ChooseOption(step.OptionID)
			}
		case "text":
			err = run.SubmitText(step.Text)
		case "action":
			err = run.TriggerAction(step.ActionID)
		case "tick":
			run.Tick(time.Now())
		default:
			log.Fatalf("script step %d: unknown type %q", i, step.Type)
		}
		if err != nil {
			log.Fatalf("script step %d rejected: %v", i, err)
		}
	}

	if !run.Finished() {
		run.Abort()
	}

	out, err := json.MarshalIndent(run.Report(), "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal report: %v", err)
	}
	fmt.Println(string(out))
}
