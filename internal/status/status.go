// Package status maintains the shared, RW-locked process status object
// exposed read-only over HTTP (spec.md §5 note 1): the agent-control health,
// OpAMP reachability, and the per-sub-agent health table.
package status

import (
	"sync"
	"time"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
)

// AgentControlStatus is the top-level controller's own health.
type AgentControlStatus struct {
	Healthy    bool      `json:"healthy"`
	Status     string    `json:"status"`
	LastError  string    `json:"last_error,omitempty"`
	StatusTime time.Time `json:"status_time"`
}

// OpAMPStatus is the OpAMP transport's reachability.
type OpAMPStatus struct {
	Reachable    bool      `json:"reachable"`
	ErrorCode    int       `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StatusTime   time.Time `json:"status_time"`
}

// SubAgentStatus is one sub-agent's last known health.
type SubAgentStatus struct {
	AgentID   agentid.ID `json:"agent_id"`
	AgentType string     `json:"agent_type"`
	Healthy   bool       `json:"healthy"`
	LastError string     `json:"last_error,omitempty"`
	Version   string     `json:"version,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Snapshot is the JSON-serializable status document (spec.md §5 note 1,
// grounded on `status_updater.rs`'s `Status` struct).
type Snapshot struct {
	AgentControl AgentControlStatus            `json:"agent_control"`
	OpAMP        OpAMPStatus                   `json:"opamp"`
	SubAgents    map[agentid.ID]SubAgentStatus `json:"sub_agents"`
}

// Status is the process-wide RW-locked status object; every field starts
// unhealthy/unreachable until an event arrives. Construct it with New: the
// zero value has no sub-agent table, and ApplySubAgentHealth and
// ApplySubAgentVersion panic on it.
type Status struct {
	mu   sync.RWMutex
	data Snapshot
}

// New returns a Status with an empty sub-agent table.
func New() *Status {
	return &Status{data: Snapshot{SubAgents: map[agentid.ID]SubAgentStatus{}}}
}

// Snapshot returns a deep-enough copy of the current status for safe
// serialization outside the lock.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.data
	out.SubAgents = make(map[agentid.ID]SubAgentStatus, len(s.data.SubAgents))
	for id, st := range s.data.SubAgents {
		out.SubAgents[id] = st
	}
	return out
}

// ApplyAgentControlHealthy records the controller becoming healthy.
func (s *Status) ApplyAgentControlHealthy(e events.AgentControlBecameHealthy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AgentControl = AgentControlStatus{Healthy: true, Status: e.Status, StatusTime: now()}
}

// ApplyAgentControlUnhealthy records the controller becoming unhealthy.
func (s *Status) ApplyAgentControlUnhealthy(e events.AgentControlBecameUnhealthy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AgentControl = AgentControlStatus{Healthy: false, Status: e.Status, LastError: e.LastError, StatusTime: now()}
}

// ApplyOpAMPConnected records the OpAMP transport becoming reachable.
func (s *Status) ApplyOpAMPConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.OpAMP = OpAMPStatus{Reachable: true, StatusTime: now()}
}

// ApplyOpAMPConnectFailed records an OpAMP transport failure.
func (s *Status) ApplyOpAMPConnectFailed(e events.OpAMPConnectFailed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.OpAMP = OpAMPStatus{Reachable: false, ErrorCode: e.Code, ErrorMessage: e.Reason, StatusTime: now()}
}

// ApplySubAgentHealth upserts a sub-agent's health entry (spec.md §5 note 1:
// "first health event inserts, subsequent ones update in place").
func (s *Status) ApplySubAgentHealth(e events.SubAgentHealthInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.data.SubAgents[e.AgentID]
	cur.AgentID = e.AgentID
	cur.AgentType = e.AgentType
	cur.Healthy = e.Health.Healthy
	cur.LastError = e.Health.LastError
	cur.UpdatedAt = now()
	s.data.SubAgents[e.AgentID] = cur
}

// ApplySubAgentVersion records a sub-agent's last observed version.
func (s *Status) ApplySubAgentVersion(e events.SubAgentVersionInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.data.SubAgents[e.AgentID]
	cur.AgentID = e.AgentID
	cur.AgentType = e.AgentType
	cur.Version = e.Version
	cur.UpdatedAt = now()
	s.data.SubAgents[e.AgentID] = cur
}

// ApplySubAgentRemoved drops a sub-agent from the table (spec.md §4.6).
func (s *Status) ApplySubAgentRemoved(e events.SubAgentRemoved) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.SubAgents, e.AgentID)
}

var now = time.Now
