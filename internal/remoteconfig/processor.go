package remoteconfig

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/controllerconfig"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/hashstore"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/opamp"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/values"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/variables"
)

// ControllerConfigPublisher and SubAgentAppliedPublisher are the subsets of
// the event bus the processor needs; satisfied by
// *eventbus.Bus[events.ControllerConfigChanged] and
// *eventbus.Bus[events.SubAgentRemoteConfigApplied] respectively.
type ControllerConfigPublisher interface {
	Publish(events.ControllerConfigChanged)
}

type SubAgentAppliedPublisher interface {
	Publish(events.SubAgentRemoteConfigApplied)
}

// AgentTypeResolver looks up the AgentType a sub-agent id was declared
// with in the current controller config, so the processor can validate an
// incoming remote values document against that type's variable schema
// (spec.md §4.5 "validate payload against the sub-agent's agent-type").
// This mapping lives in the controller config, not the remote-config
// payload, so it is supplied by the process wiring
// (internal/cmd/agentcontrol), which looks the id up in the controller
// config loaded at startup and the agent-type registry.
type AgentTypeResolver func(id agentid.ID) (*agenttype.AgentType, bool)

// Processor implements the per-agent remote-config state machine described
// in spec.md §4.5: it reports applying/applied/failed to OpAMP, persists
// values and the last-seen hash, and publishes the follow-on lifecycle
// event for either the controller or a sub-agent.
type Processor struct {
	Client       opamp.Client
	Values       *values.Repository
	Hashes       *hashstore.Store
	ResolveType  AgentTypeResolver
	ControllerCh ControllerConfigPublisher
	SubAgentCh   SubAgentAppliedPublisher
	Log          *logrus.Entry
}

// NewProcessor wires a Processor from its collaborators.
func NewProcessor(client opamp.Client, repo *values.Repository, hashes *hashstore.Store, resolveType AgentTypeResolver, controllerCh ControllerConfigPublisher, subAgentCh SubAgentAppliedPublisher) *Processor {
	return &Processor{
		Client:       client,
		Values:       repo,
		Hashes:       hashes,
		ResolveType:  resolveType,
		ControllerCh: controllerCh,
		SubAgentCh:   subAgentCh,
		Log:          logrus.NewEntry(logrus.StandardLogger()),
	}
}

// Process drives rc through applying to its terminal applied/failed state
// (spec.md §4.5 "The per-agent processor, on receiving that event"). Every
// call is tagged with a fresh correlation id so the applying/applied-or-
// failed/persisted sequence of log lines for one remote-config message can
// be grepped out of a process log shared by many concurrent agents.
func (p *Processor) Process(rc RemoteConfig) error {
	log := p.logEntry().WithFields(logrus.Fields{
		"correlation_id": uuid.New().String(),
		"agent_id":       rc.AgentID.String(),
	})

	if rc.State == StateFailed {
		return p.fail(log, rc.AgentID, rc.Hash, rc.FailureReason)
	}

	log.Debug("reporting remote config applying")
	if err := p.Client.ReportRemoteConfigStatus(rc.AgentID.String(), opamp.RemoteConfigStatus{
		State: opamp.StatusApplying,
		Hash:  rc.Hash,
	}); err != nil {
		return fmt.Errorf("reporting applying status for %s: %w", rc.AgentID, err)
	}

	if rc.AgentID.IsController() {
		return p.processController(log, rc)
	}
	return p.processSubAgent(log, rc)
}

func (p *Processor) logEntry() *logrus.Entry {
	if p.Log != nil {
		return p.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// processController validates the payload against the controller-config
// schema; on success it is stored as remote, the desired set is refreshed
// via ControllerConfigChanged, and applied/hash state is persisted. A
// failure leaves all state untouched (spec.md §4.5).
func (p *Processor) processController(log *logrus.Entry, rc RemoteConfig) error {
	cfg, err := controllerconfig.Parse(rc.Config)
	if err != nil {
		return p.fail(log, rc.AgentID, rc.Hash, fmt.Sprintf("invalid controller config: %s", err))
	}
	if err := cfg.Validate(); err != nil {
		return p.fail(log, rc.AgentID, rc.Hash, fmt.Sprintf("invalid controller config: %s", err))
	}

	var doc values.Document
	if err := yaml.Unmarshal(rc.Config, &doc); err != nil {
		return p.fail(log, rc.AgentID, rc.Hash, fmt.Sprintf("invalid controller config: %s", err))
	}
	if doc == nil {
		doc = values.Document{}
	}
	if err := p.Values.StoreRemote(rc.AgentID, doc); err != nil {
		return p.fail(log, rc.AgentID, rc.Hash, fmt.Sprintf("storing controller config: %s", err))
	}

	if p.ControllerCh != nil {
		p.ControllerCh.Publish(events.ControllerConfigChanged{Config: cfg})
	}

	return p.apply(log, rc.AgentID, rc.Hash)
}

// processSubAgent validates the payload against the sub-agent's declared
// agent-type schema, stores or deletes the remote values document, and
// triggers recreation of that sub-agent (spec.md §4.5, §4.6).
func (p *Processor) processSubAgent(log *logrus.Entry, rc RemoteConfig) error {
	if len(rc.Config) == 0 {
		if err := p.Values.DeleteRemote(rc.AgentID); err != nil {
			return p.fail(log, rc.AgentID, rc.Hash, fmt.Sprintf("deleting remote values: %s", err))
		}
		return p.applyAndRecreate(log, rc.AgentID, rc.Hash)
	}

	var doc values.Document
	if err := yaml.Unmarshal(rc.Config, &doc); err != nil {
		return p.fail(log, rc.AgentID, rc.Hash, fmt.Sprintf("invalid remote config format: %s", err))
	}
	if doc == nil {
		doc = values.Document{}
	}

	if p.ResolveType != nil {
		if at, ok := p.ResolveType(rc.AgentID); ok {
			if err := ValidateVariables(at, doc); err != nil {
				return p.fail(log, rc.AgentID, rc.Hash, err.Error())
			}
		}
	}

	if err := p.Values.StoreRemote(rc.AgentID, doc); err != nil {
		return p.fail(log, rc.AgentID, rc.Hash, fmt.Sprintf("storing remote values: %s", err))
	}

	return p.applyAndRecreate(log, rc.AgentID, rc.Hash)
}

func (p *Processor) applyAndRecreate(log *logrus.Entry, id agentid.ID, hash []byte) error {
	if err := p.apply(log, id, hash); err != nil {
		return err
	}
	if p.SubAgentCh != nil {
		p.SubAgentCh.Publish(events.SubAgentRemoteConfigApplied{AgentID: id})
	}
	return nil
}

func (p *Processor) apply(log *logrus.Entry, id agentid.ID, hash []byte) error {
	if err := p.Client.ReportRemoteConfigStatus(id.String(), opamp.RemoteConfigStatus{
		State: opamp.StatusApplied,
		Hash:  hash,
	}); err != nil {
		return fmt.Errorf("reporting applied status for %s: %w", id, err)
	}
	if err := p.Hashes.Store(id, string(hash)); err != nil {
		return fmt.Errorf("persisting applied hash for %s: %w", id, err)
	}
	log.Info("remote config applied")
	return nil
}

func (p *Processor) fail(log *logrus.Entry, id agentid.ID, hash []byte, reason string) error {
	if err := p.Client.ReportRemoteConfigStatus(id.String(), opamp.RemoteConfigStatus{
		State:        opamp.StatusFailed,
		Hash:         hash,
		ErrorMessage: reason,
	}); err != nil {
		return fmt.Errorf("reporting failed status for %s: %w", id, err)
	}
	log.WithField("reason", reason).Warn("remote config failed")
	return nil
}

// ValidateVariables checks a decoded values document against an AgentType's
// declared schema (spec.md §4.5, §4.6): required variables must resolve to
// either a supplied value or a schema default.
func ValidateVariables(at *agenttype.AgentType, doc values.Document) error {
	_, err := variables.Resolve(at.Variables, doc)
	return err
}
