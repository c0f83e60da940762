// Package subagent implements the central sub-agent lifecycle dispatcher
// (spec.md §4.6): a single goroutine holding the map of running supervisors,
// reacting to controller-config changes, per-agent remote-config
// applications, and shutdown by assembling, starting, recreating and
// stopping sub-agent supervisors.
package subagent

import (
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
)

// EventPublisher is the per-agent event sink a supervisor is handed at
// start time; it feeds health/version events back into the central
// dispatcher loop (spec.md §4.6 "The per-agent publisher feeds events back
// into the central loop").
type EventPublisher interface {
	PublishHealth(events.SubAgentHealthInfo)
	PublishVersion(events.SubAgentVersionInfo)
}

// StartedSupervisor is the join handle returned once a supervisor's worker
// threads are running (spec.md §4.6 "StartedSupervisor holding join
// handles to worker threads").
type StartedSupervisor interface {
	// Stop blocks until every worker thread owned by this supervisor has
	// exited (spec.md §4.6 "call stop() on the stopper (blocking join of
	// its threads)").
	Stop()
}

// NotStartedSupervisor is the assembled-but-not-yet-running descriptor for
// one sub-agent (spec.md §4.6 "Assemble"); Start launches its worker
// threads and returns their join handle.
type NotStartedSupervisor interface {
	Start(publisher EventPublisher) (StartedSupervisor, error)
}

// Assembler builds a NotStartedSupervisor for one declared sub-agent: look
// up the AgentType by FQN, select the on_host/k8s deployment variant,
// compute effective variables via the template engine, and produce the
// rendered descriptor (spec.md §4.6 "Assemble"). The concrete
// implementation (on-host executables vs. k8s objects) is supplied by the
// composition root, since it depends on which deployment environment this
// build targets.
type Assembler interface {
	Assemble(id agentid.ID, fqn agentid.FQN) (NotStartedSupervisor, error)
}

// AssemblerFunc adapts a plain function to the Assembler interface.
type AssemblerFunc func(id agentid.ID, fqn agentid.FQN) (NotStartedSupervisor, error)

func (f AssemblerFunc) Assemble(id agentid.ID, fqn agentid.FQN) (NotStartedSupervisor, error) {
	return f(id, fqn)
}
