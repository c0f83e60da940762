package onhostsupervisor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/eventbus"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/render"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/subagent"
)

// checkFileDoc is the shape a watched health/version file is expected to
// decode as (JSON or YAML, spec.md §4.7 "watch a JSON/YAML health file").
type checkFileDoc struct {
	Healthy bool   `json:"healthy"`
	Status  string `json:"status"`
	Error   string `json:"error"`
	Version string `json:"version"`
}

// runCheck executes hc once and returns whether it succeeded, a status
// string, and (for version checks) the reported version.
func runCheck(hc *render.RenderedHealthCheck) (healthy bool, status string, version string, err error) {
	switch hc.Kind {
	case agenttype.HealthExec:
		cmd := exec.Command(hc.Path, hc.Args...)
		out, runErr := cmd.Output()
		if runErr != nil {
			return false, runErr.Error(), "", nil
		}
		return true, string(out), string(out), nil
	case agenttype.HealthHTTP:
		resp, getErr := http.Get(hc.URL)
		if getErr != nil {
			return false, getErr.Error(), "", nil
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return true, resp.Status, "", nil
		}
		return false, resp.Status, "", nil
	case agenttype.HealthFile:
		raw, readErr := os.ReadFile(hc.FilePath)
		if readErr != nil {
			return false, readErr.Error(), "", nil
		}
		var doc checkFileDoc
		if decErr := decodeFileDoc(raw, &doc); decErr != nil {
			return false, "", "", fmt.Errorf("invalid health file %s: %w", hc.FilePath, decErr)
		}
		if !doc.Healthy {
			return false, doc.Error, doc.Version, nil
		}
		return true, doc.Status, doc.Version, nil
	default:
		return false, "", "", fmt.Errorf("unsupported health check kind %q", hc.Kind)
	}
}

func decodeFileDoc(raw []byte, doc *checkFileDoc) error {
	if err := json.Unmarshal(raw, doc); err == nil {
		return nil
	}
	return yaml.Unmarshal(raw, doc)
}

// HealthChecker polls Check on an interval and publishes SubAgentHealthInfo
// (spec.md §4.7).
type HealthChecker struct {
	AgentType string
	Check     *render.RenderedHealthCheck
	Publisher subagent.EventPublisher
	Thread    *eventbus.ThreadContext
}

func NewHealthChecker(agentType string, check *render.RenderedHealthCheck, publisher subagent.EventPublisher) *HealthChecker {
	return &HealthChecker{AgentType: agentType, Check: check, Publisher: publisher, Thread: eventbus.NewThreadContext()}
}

func (c *HealthChecker) Run() {
	defer c.Thread.MarkDone()
	if c.Check.InitialDelay > 0 {
		if c.Thread.CancelOrElapse(c.Check.InitialDelay) {
			return
		}
	}
	for {
		healthy, status, _, err := runCheck(c.Check)
		now := time.Now()
		if err != nil {
			c.Publisher.PublishHealth(events.SubAgentHealthInfo{
				AgentType: c.AgentType,
				Health:    events.Health{Healthy: false, StatusTime: now, LastError: err.Error()},
			})
		} else {
			c.Publisher.PublishHealth(events.SubAgentHealthInfo{
				AgentType: c.AgentType,
				Health:    events.Health{Healthy: healthy, StatusTime: now, Status: status},
			})
		}
		if c.Thread.CancelOrElapse(c.Check.Interval) {
			return
		}
	}
}

// VersionChecker polls Check on an interval and publishes
// SubAgentVersionInfo (spec.md §4.7).
type VersionChecker struct {
	AgentType string
	Check     *render.RenderedHealthCheck
	Publisher subagent.EventPublisher
	Thread    *eventbus.ThreadContext
}

func NewVersionChecker(agentType string, check *render.RenderedHealthCheck, publisher subagent.EventPublisher) *VersionChecker {
	return &VersionChecker{AgentType: agentType, Check: check, Publisher: publisher, Thread: eventbus.NewThreadContext()}
}

func (c *VersionChecker) Run() {
	defer c.Thread.MarkDone()
	if c.Check.InitialDelay > 0 {
		if c.Thread.CancelOrElapse(c.Check.InitialDelay) {
			return
		}
	}
	for {
		_, _, version, err := runCheck(c.Check)
		if err == nil && version != "" {
			c.Publisher.PublishVersion(events.SubAgentVersionInfo{
				AgentType: c.AgentType,
				Version:   version,
			})
		}
		if c.Thread.CancelOrElapse(c.Check.Interval) {
			return
		}
	}
}
