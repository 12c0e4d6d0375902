package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type StudioConfig struct {
	Version int `yaml:"version"`
	Case    struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Graph       string `yaml:"graph"`
		EntryNodeID string `yaml:"entry_node_id"`
		Files       string `yaml:"files"`
		Dialogue    string `yaml:"dialogue"`
	} `yaml:"case"`
	Network struct {
		APIPort  int `yaml:"api_port"`
		MQTTPort int `yaml:"mqtt_port"`
		DBPort   int `yaml:"db_port"`
	} `yaml:"network"`
	Reporting struct {
		WebhookURL      string `yaml:"webhook_url"`
		MQTTTopicPrefix string `yaml:"mqtt_topic_prefix"`
	} `yaml:"reporting"`
}

// APIPort returns the configured API port, defaulting to 8080 if not set.
func (c *StudioConfig) APIPort() int {
	if c.Network.APIPort == 0 {
		return 8080
	}
	return c.Network.APIPort
}

func LoadStudioConfig(path string) (*StudioConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg StudioConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported case.yaml version: %d", cfg.Version)
	}
	if cfg.Case.Graph == "" {
		return nil, fmt.Errorf("case.yaml: case.graph is required")
	}

	return &cfg, nil
}
