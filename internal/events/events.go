// Package events defines the typed payloads carried on the AgentControlEvent
// and SubAgentEvent buses described in spec.md §5: the dispatcher consumes
// these in arrival order from whichever channel produced them.
package events

import (
	"time"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/controllerconfig"
)

// ControllerConfigChanged is published whenever the effective controller
// config changes (a fresh local load at startup, or a successfully applied
// remote config for the "agent-control" id) (spec.md §4.6).
type ControllerConfigChanged struct {
	Config *controllerconfig.Config
}

// SubAgentRemoteConfigApplied is published after a sub-agent's remote config
// has been validated and persisted (spec.md §4.5, §4.6): the lifecycle
// dispatcher recreates exactly that agent in response.
type SubAgentRemoteConfigApplied struct {
	AgentID agentid.ID
}

// SubAgentRemoved is published once a removed sub-agent's supervisor has
// been stopped (spec.md §4.6).
type SubAgentRemoved struct {
	AgentID agentid.ID
}

// Shutdown requests an orderly stop of all sub-agents and the dispatcher
// itself (spec.md §4.6, §5).
type Shutdown struct{}

// Health mirrors OpAMP component-health semantics (spec.md §3).
type Health struct {
	Healthy    bool
	StatusTime time.Time
	Status     string
	LastError  string
}

// SubAgentHealthInfo is published by a health-checker thread (spec.md §4.7,
// §4.8).
type SubAgentHealthInfo struct {
	AgentID   agentid.ID
	AgentType string
	Health    Health
}

// SubAgentVersionInfo is published by a version-checker thread (spec.md
// §4.7, §4.8).
type SubAgentVersionInfo struct {
	AgentID   agentid.ID
	AgentType string
	Version   string
}

// OpAMPConnectFailed surfaces a transport-level OpAMP failure (spec.md §7).
type OpAMPConnectFailed struct {
	Code   int
	Reason string
}

// OpAMPConnected is published the first time the OpAMP client reports its
// transport reachable (spec.md §7).
type OpAMPConnected struct{}

// AgentControlBecameHealthy/AgentControlBecameUnhealthy mirror the
// top-level agent-control-process health transitions surfaced to the
// status endpoint (spec.md §5 note 1).
type AgentControlBecameHealthy struct {
	Status string
}

type AgentControlBecameUnhealthy struct {
	Status    string
	LastError string
}
