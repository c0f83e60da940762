// Package assembler builds a subagent.NotStartedSupervisor for a sub-agent
// id+type by resolving its agent-type definition, layering its effective
// values, rendering the runtime-specific descriptor, and handing it to the
// on-host or Kubernetes supervisor package (spec.md §4.6 "Assemble").
package assembler

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/k8ssupervisor"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/onhostsupervisor"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/reflector"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/render"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/subagent"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/values"
)

// Assembler is the subagent.Assembler implementation wiring together agent
// type resolution, values layering and rendering. render.OnHost/render.K8s
// already perform nr-env expansion, variable resolution and (for on_host)
// package dir injection internally, so Assemble's job is only to hand them
// the raw effective values.Document for the agent.
type Assembler struct {
	Registry *agenttype.Registry
	Values   *values.Repository
	Context  render.Context
	Managers *reflector.Managers // nil when running on_host only
	Log      *logrus.Entry

	// RemoteManagementCapable controls the values resolution policy
	// (spec.md §4.4). This core always advertises remote-management
	// capability over OpAMP, so it is effectively always true; kept
	// overridable for tests.
	RemoteManagementCapable bool
}

// Assemble implements subagent.Assembler.
func (a *Assembler) Assemble(id agentid.ID, fqn agentid.FQN) (subagent.NotStartedSupervisor, error) {
	at, err := a.Registry.Get(fqn)
	if err != nil {
		return nil, fmt.Errorf("assembler: resolving agent type %s: %w", fqn, err)
	}

	doc, err := a.Values.Resolve(id, a.RemoteManagementCapable)
	if err != nil {
		return nil, fmt.Errorf("assembler: resolving values for %s: %w", id, err)
	}

	switch {
	case at.Runtime.OnHost != nil:
		return a.assembleOnHost(id, at, doc)
	case at.Runtime.K8s != nil:
		return a.assembleK8s(id, at, doc)
	default:
		return nil, fmt.Errorf("assembler: agent type %s declares no runtime", fqn)
	}
}

func (a *Assembler) assembleOnHost(id agentid.ID, at *agenttype.AgentType, doc values.Document) (subagent.NotStartedSupervisor, error) {
	remoteDir := a.Values.Remote.Dir(id)
	rendered, err := render.OnHost(at, doc, remoteDir, id, a.Context)
	if err != nil {
		return nil, fmt.Errorf("assembler: rendering on_host runtime for %s: %w", id, err)
	}
	return onhostsupervisor.NewSupervisor(at.FQN.String(), rendered), nil
}

func (a *Assembler) assembleK8s(id agentid.ID, at *agenttype.AgentType, doc values.Document) (subagent.NotStartedSupervisor, error) {
	if a.Managers == nil {
		return nil, fmt.Errorf("assembler: agent type %s requires kubernetes but no cluster clients are configured", at.FQN)
	}
	rendered, err := render.K8s(at, doc, a.Context)
	if err != nil {
		return nil, fmt.Errorf("assembler: rendering k8s runtime for %s: %w", id, err)
	}
	logErr := func(objectID string, err error) {
		a.Log.WithField("agent_id", id).WithField("object_id", objectID).WithError(err).Warn("transient reconcile error")
	}
	return k8ssupervisor.NewSupervisor(at.FQN.String(), a.Context.Namespace, rendered, a.Managers, logErr), nil
}
