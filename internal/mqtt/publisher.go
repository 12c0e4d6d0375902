package mqtt

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/detectivekit/casegraph/internal/events"
	"github.com/detectivekit/casegraph/internal/runtime"
)

// Publisher republishes run telemetry to the broker so external
// consumers (leaderboards, classroom dashboards) can follow cases
// without touching the HTTP API. Topics are prefixed per deployment.
type Publisher struct {
	client *Client
	prefix string

	mu   sync.Mutex
	sub  events.Subscriber
	done chan struct{}
}

// NewPublisher wires a publisher to a connected client. The prefix is
// the deployment's topic root, e.g. "casegraph/academy-1".
func NewPublisher(client *Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = "casegraph"
	}
	return &Publisher{client: client, prefix: prefix}
}

// Start subscribes to the in-process event stream and forwards each
// event as JSON. Publish failures are logged and skipped; the broker
// feed is best-effort.
func (p *Publisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub != nil {
		return
	}

	p.sub = events.Subscribe()
	p.done = make(chan struct{})

	go func(sub events.Subscriber, done chan struct{}) {
		for {
			select {
			case e, ok := <-sub:
				if !ok {
					return
				}
				b, err := json.Marshal(e)
				if err != nil {
					continue
				}
				if err := p.client.Publish(p.prefix+"/events/"+e.Name, b); err != nil {
					log.Printf("mqtt: publish %s failed: %v", e.Name, err)
				}
			case <-done:
				return
			}
		}
	}(p.sub, p.done)
}

// Stop detaches from the event stream. The client connection is left
// to the caller.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub == nil {
		return
	}
	close(p.done)
	events.Unsubscribe(p.sub)
	p.sub = nil
}

// PublishOutcome sends a finished run's report to the outcomes topic.
func (p *Publisher) PublishOutcome(rep runtime.Report) {
	b, err := json.Marshal(rep)
	if err != nil {
		return
	}
	if err := p.client.Publish(p.prefix+"/outcomes/"+rep.RunID, b); err != nil {
		log.Printf("mqtt: publish outcome %s failed: %v", rep.RunID, err)
	}
}
