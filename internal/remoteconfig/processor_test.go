package remoteconfig

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/hashstore"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/opamp"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/values"
)

type fakeClient struct {
	statuses []opamp.RemoteConfigStatus
}

func (f *fakeClient) ReportRemoteConfigStatus(agentID string, status opamp.RemoteConfigStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}
func (f *fakeClient) ReportEffectiveConfig(agentID string, cfg opamp.EffectiveConfig) error { return nil }
func (f *fakeClient) ReportHealth(agentID string, health opamp.Health) error                { return nil }

type fakeControllerPublisher struct {
	events []events.ControllerConfigChanged
}

func (f *fakeControllerPublisher) Publish(e events.ControllerConfigChanged) {
	f.events = append(f.events, e)
}

type fakeSubAgentPublisher struct {
	events []events.SubAgentRemoteConfigApplied
}

func (f *fakeSubAgentPublisher) Publish(e events.SubAgentRemoteConfigApplied) {
	f.events = append(f.events, e)
}

func newTestProcessor(t *testing.T) (*Processor, *fakeClient, *fakeControllerPublisher, *fakeSubAgentPublisher) {
	t.Helper()
	dir := t.TempDir()
	client := &fakeClient{}
	controllerPub := &fakeControllerPublisher{}
	subAgentPub := &fakeSubAgentPublisher{}
	repo := values.NewRepository(dir, dir)
	hashes := hashstore.New(dir)
	p := NewProcessor(client, repo, hashes, nil, controllerPub, subAgentPub)
	return p, client, controllerPub, subAgentPub
}

func TestProcessControllerConfigApplied(t *testing.T) {
	p, client, controllerPub, _ := newTestProcessor(t)

	rc := Received(agentid.MustParse(agentid.ControllerID), []byte("h1"), []byte("agents: {}\n"), nil)
	require.NoError(t, p.Process(rc))

	require.Len(t, controllerPub.events, 1, "expected one ControllerConfigChanged event")
	require.Len(t, client.statuses, 2, "expected applying+applied statuses")
	require.Equal(t, opamp.StatusApplying, client.statuses[0].State)
	require.Equal(t, opamp.StatusApplied, client.statuses[1].State)
}

func TestProcessControllerConfigInvalid(t *testing.T) {
	p, client, controllerPub, _ := newTestProcessor(t)

	rc := Received(agentid.MustParse(agentid.ControllerID), []byte("h1"), []byte("agents:\n  bad id:\n    agent_type: \"\"\n"), nil)
	require.NoError(t, p.Process(rc))

	require.Empty(t, controllerPub.events, "expected no ControllerConfigChanged on invalid config")
	last := client.statuses[len(client.statuses)-1]
	require.Equal(t, opamp.StatusFailed, last.State)
}

func TestProcessSubAgentAppliedAndRecreated(t *testing.T) {
	p, client, _, subAgentPub := newTestProcessor(t)

	id := agentid.MustParse("nginx")
	rc := Received(id, []byte("h1"), []byte("license_key: abc\n"), nil)
	require.NoError(t, p.Process(rc))

	require.Len(t, subAgentPub.events, 1)
	require.Equal(t, id, subAgentPub.events[0].AgentID)
	last := client.statuses[len(client.statuses)-1]
	require.Equal(t, opamp.StatusApplied, last.State)
}

func TestProcessSubAgentEmptyDeletesRemote(t *testing.T) {
	p, _, _, subAgentPub := newTestProcessor(t)

	id := agentid.MustParse("nginx")
	require.NoError(t, p.Values.StoreRemote(id, values.Document{"x": 1}), "seed StoreRemote")

	rc := Received(id, []byte("h2"), nil, nil)
	require.NoError(t, p.Process(rc))

	doc, err := p.Values.LoadRemote(id)
	require.NoError(t, err)
	require.Empty(t, doc, "expected remote values deleted")
	require.Len(t, subAgentPub.events, 1, "expected recreate event after delete")
}

func TestProcessDecodeFailurePropagatesFailedStatus(t *testing.T) {
	p, client, _, _ := newTestProcessor(t)

	rc := Failed(agentid.MustParse("nginx"), []byte("h1"), "Invalid hash: boom")
	require.NoError(t, p.Process(rc))

	last := client.statuses[len(client.statuses)-1]
	require.Equal(t, opamp.StatusFailed, last.State)
	require.Equal(t, "Invalid hash: boom", last.ErrorMessage)
}
