package mqtt

import "testing"

func TestBrokerURLDefault(t *testing.T) {
	t.Setenv("MQTT_URL", "")
	if got := BrokerURL(); got != "tcp://localhost:1883" {
		t.Errorf("expected default broker URL, got %q", got)
	}

	t.Setenv("MQTT_URL", "tcp://broker.lan:1883")
	if got := BrokerURL(); got != "tcp://broker.lan:1883" {
		t.Errorf("expected env broker URL, got %q", got)
	}
}

func TestPublisherTopicPrefix(t *testing.T) {
	p := NewPublisher(nil, "")
	if p.prefix != "casegraph" {
		t.Errorf("expected default prefix, got %q", p.prefix)
	}

	p = NewPublisher(nil, "casegraph/academy-1")
	if p.prefix != "casegraph/academy-1" {
		t.Errorf("expected custom prefix, got %q", p.prefix)
	}
}
