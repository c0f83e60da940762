package onhostsupervisor

import (
	"sync"
	"testing"
	"time"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/render"
)

type recordingPublisher struct {
	mu       sync.Mutex
	health   []events.SubAgentHealthInfo
	versions []events.SubAgentVersionInfo
}

func (p *recordingPublisher) PublishHealth(e events.SubAgentHealthInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.health = append(p.health, e)
}

func (p *recordingPublisher) PublishVersion(e events.SubAgentVersionInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.versions = append(p.versions, e)
}

func (p *recordingPublisher) healthCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.health)
}

func TestHealthCheckerExecPublishesHealth(t *testing.T) {
	pub := &recordingPublisher{}
	check := &render.RenderedHealthCheck{
		Kind:     agenttype.HealthExec,
		Path:     "true",
		Interval: 10 * time.Millisecond,
	}
	hc := NewHealthChecker("newrelic/com.newrelic.nginx:0.1.0", check, pub)

	go hc.Run()
	defer hc.Thread.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pub.healthCount() > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected at least one health event")
}
