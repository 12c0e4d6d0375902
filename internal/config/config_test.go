package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadStudioConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "case.yaml", `
version: 1
case:
  id: gallery-heist
  name: The Gallery Heist
  graph: cases/gallery-heist.json
  entry_node_id: intro
network:
  api_port: 9090
reporting:
  webhook_url: https://example.com/hook
  mqtt_topic_prefix: casegraph/academy
`)

	cfg, err := LoadStudioConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Case.ID != "gallery-heist" || cfg.Case.EntryNodeID != "intro" {
		t.Errorf("case section wrong: %+v", cfg.Case)
	}
	if cfg.APIPort() != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.APIPort())
	}
	if cfg.Reporting.MQTTTopicPrefix != "casegraph/academy" {
		t.Errorf("reporting section wrong: %+v", cfg.Reporting)
	}
}

func TestAPIPortDefault(t *testing.T) {
	path := writeFile(t, t.TempDir(), "case.yaml", `
version: 1
case:
  graph: case.json
`)
	cfg, err := LoadStudioConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.APIPort() != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.APIPort())
	}
}

func TestRejectsWrongVersion(t *testing.T) {
	path := writeFile(t, t.TempDir(), "case.yaml", "version: 2\ncase:\n  graph: x.json\n")
	if _, err := LoadStudioConfig(path); err == nil {
		t.Errorf("expected version 2 to be rejected")
	}
}

func TestRequiresGraphPath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "case.yaml", "version: 1\n")
	if _, err := LoadStudioConfig(path); err == nil {
		t.Errorf("expected missing graph path to be rejected")
	}
}

func TestSecretFileConvention(t *testing.T) {
	dir := t.TempDir()
	secretPath := writeFile(t, dir, "pass", "s3cret\n")

	t.Setenv("CASEGRAPH_TEST_SECRET", "from-env")
	t.Setenv("CASEGRAPH_TEST_SECRET_FILE", secretPath)

	// The file variant wins and trailing whitespace is stripped.
	v, err := Secret("CASEGRAPH_TEST_SECRET")
	if err != nil {
		t.Fatalf("failed to resolve secret: %v", err)
	}
	if v != "s3cret" {
		t.Errorf("expected s3cret, got %q", v)
	}

	t.Setenv("CASEGRAPH_TEST_SECRET_FILE", "")
	v, err = Secret("CASEGRAPH_TEST_SECRET")
	if err != nil || v != "from-env" {
		t.Errorf("expected env fallback, got %q err %v", v, err)
	}

	t.Setenv("CASEGRAPH_TEST_SECRET_FILE", filepath.Join(dir, "missing"))
	if _, err := Secret("CASEGRAPH_TEST_SECRET"); err == nil {
		t.Errorf("expected unreadable secret file to error")
	}
}
