package subagent

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/controllerconfig"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/eventbus"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
)

// entry pairs a running supervisor with the agent type it was assembled
// from, needed to recreate it and to tag health/version events.
type entry struct {
	fqn        agentid.FQN
	supervisor StartedSupervisor
}

// Dispatcher is the central sub-agent lifecycle loop (spec.md §4.6). It
// must be driven by Run in its own goroutine; Dispatcher itself performs no
// concurrency beyond the worker threads owned by each supervisor and the
// parallel Stop calls made by stopMany.
type Dispatcher struct {
	assembler Assembler
	Log       *logrus.Entry

	controllerConfigCh chan events.ControllerConfigChanged
	remoteAppliedCh    chan events.SubAgentRemoteConfigApplied
	shutdownCh         chan events.Shutdown

	removedBus *eventbus.Bus[events.SubAgentRemoved]
	healthBus  *eventbus.Bus[events.SubAgentHealthInfo]
	versionBus *eventbus.Bus[events.SubAgentVersionInfo]

	running map[agentid.ID]entry
	desired map[agentid.ID]agentid.FQN
}

// NewDispatcher wires a Dispatcher; the controller-config and
// remote-applied channels are fed by the remote-config processor, a send on
// shutdownCh stops Run, and the three buses are this dispatcher's outputs.
func NewDispatcher(
	assembler Assembler,
	controllerConfigCh chan events.ControllerConfigChanged,
	remoteAppliedCh chan events.SubAgentRemoteConfigApplied,
	shutdownCh chan events.Shutdown,
	removedBus *eventbus.Bus[events.SubAgentRemoved],
	healthBus *eventbus.Bus[events.SubAgentHealthInfo],
	versionBus *eventbus.Bus[events.SubAgentVersionInfo],
) *Dispatcher {
	return &Dispatcher{
		assembler:          assembler,
		Log:                logrus.NewEntry(logrus.StandardLogger()),
		controllerConfigCh: controllerConfigCh,
		remoteAppliedCh:    remoteAppliedCh,
		shutdownCh:         shutdownCh,
		removedBus:         removedBus,
		healthBus:          healthBus,
		versionBus:         versionBus,
		running:            map[agentid.ID]entry{},
		desired:            map[agentid.ID]agentid.FQN{},
	}
}

// publisherFor returns the EventPublisher handed to a supervisor at start
// time for id/fqn, forwarding its health/version events onto the
// dispatcher's output buses tagged with this agent's identity (spec.md
// §4.6 "The per-agent publisher feeds events back into the central loop").
func (d *Dispatcher) publisherFor(id agentid.ID, fqn agentid.FQN) EventPublisher {
	return &busPublisher{id: id, fqn: fqn, healthBus: d.healthBus, versionBus: d.versionBus}
}

type busPublisher struct {
	id         agentid.ID
	fqn        agentid.FQN
	healthBus  *eventbus.Bus[events.SubAgentHealthInfo]
	versionBus *eventbus.Bus[events.SubAgentVersionInfo]
}

func (p *busPublisher) PublishHealth(e events.SubAgentHealthInfo) {
	e.AgentID = p.id
	if e.AgentType == "" {
		e.AgentType = p.fqn.String()
	}
	if p.healthBus != nil {
		p.healthBus.Publish(e)
	}
}

func (p *busPublisher) PublishVersion(e events.SubAgentVersionInfo) {
	e.AgentID = p.id
	if e.AgentType == "" {
		e.AgentType = p.fqn.String()
	}
	if p.versionBus != nil {
		p.versionBus.Publish(e)
	}
}

// Run drives the dispatcher until ctx is cancelled or a Shutdown event is
// consumed; either way it stops all running sub-agents before returning
// (spec.md §4.6 "Shutdown signal: stop all agents in parallel; exit.").
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.stopAll()
			return
		case <-d.shutdownCh:
			d.stopAll()
			return
		case e := <-d.controllerConfigCh:
			d.onControllerConfigChanged(e.Config)
		case e := <-d.remoteAppliedCh:
			d.recreate(e.AgentID)
		}
	}
}

// onControllerConfigChanged computes the symmetric difference between the
// new desired set and the currently running set, stopping removed agents
// and assembling+starting added ones; unchanged agents are left alone
// (spec.md §4.6).
func (d *Dispatcher) onControllerConfigChanged(cfg *controllerconfig.Config) {
	newDesired := cfg.DesiredAgentSet()

	var toRemove []agentid.ID
	for id := range d.running {
		if _, ok := newDesired[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	d.stopMany(toRemove)
	for _, id := range toRemove {
		delete(d.running, id)
		if d.removedBus != nil {
			d.removedBus.Publish(events.SubAgentRemoved{AgentID: id})
		}
	}

	for id, fqn := range newDesired {
		if _, ok := d.running[id]; ok {
			continue
		}
		d.start(id, fqn)
	}

	d.desired = newDesired
}

// recreate stops and re-assembles+starts a single sub-agent so its new
// effective configuration takes effect (spec.md §4.6 "Per-sub-agent remote
// config applied").
func (d *Dispatcher) recreate(id agentid.ID) {
	fqn, known := d.desired[id]
	if !known {
		return
	}
	if e, ok := d.running[id]; ok {
		e.supervisor.Stop()
		delete(d.running, id)
	}
	d.start(id, fqn)
}

// start assembles and starts the sub-agent id/fqn, reporting either failure
// as an unhealthy SubAgentHealthInfo on the health bus (spec.md §7: assemble
// and start failures must be observable, not silent) rather than leaving
// the agent absent from d.running with no trace of why.
func (d *Dispatcher) start(id agentid.ID, fqn agentid.FQN) {
	notStarted, err := d.assembler.Assemble(id, fqn)
	if err != nil {
		d.Log.WithField("agent_id", id).WithField("fqn", fqn).WithError(err).Warn("failed to assemble sub-agent")
		d.publishStartFailure(id, fqn, err)
		return
	}
	started, err := notStarted.Start(d.publisherFor(id, fqn))
	if err != nil {
		d.Log.WithField("agent_id", id).WithField("fqn", fqn).WithError(err).Warn("failed to start sub-agent")
		d.publishStartFailure(id, fqn, err)
		return
	}
	d.running[id] = entry{fqn: fqn, supervisor: started}
}

func (d *Dispatcher) publishStartFailure(id agentid.ID, fqn agentid.FQN, cause error) {
	if d.healthBus == nil {
		return
	}
	d.healthBus.Publish(events.SubAgentHealthInfo{
		AgentID:   id,
		AgentType: fqn.String(),
		Health: events.Health{
			Healthy:    false,
			StatusTime: time.Now(),
			Status:     "failed",
			LastError:  cause.Error(),
		},
	})
}

// stopMany stops several supervisors concurrently, joining all of them
// before returning (spec.md §4.6, §4.7).
func (d *Dispatcher) stopMany(ids []agentid.ID) {
	var g errgroup.Group
	for _, id := range ids {
		e, ok := d.running[id]
		if !ok {
			continue
		}
		sup := e.supervisor
		g.Go(func() error {
			sup.Stop()
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) stopAll() {
	ids := make([]agentid.ID, 0, len(d.running))
	for id := range d.running {
		ids = append(ids, id)
	}
	d.stopMany(ids)
	for _, id := range ids {
		delete(d.running, id)
	}
}
