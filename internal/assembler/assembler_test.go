package assembler

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/onhostsupervisor"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/render"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/values"
)

func testAssembler(t *testing.T) (*Assembler, agentid.ID) {
	t.Helper()
	id := agentid.MustParse("nrdot")
	fqn := agentid.FQN{Namespace: "newrelic", Name: "nrdot", Version: "0.1.0"}

	registry := agenttype.NewRegistry()
	registry.Register(&agenttype.AgentType{
		FQN: fqn,
		Runtime: agenttype.RuntimeConfig{
			OnHost: &agenttype.OnHostRuntime{
				Executables: []agenttype.Executable{
					{ID: "main", Path: "/usr/bin/nrdot", Args: []string{"--config", "${var:config_path}"}},
				},
			},
		},
		Variables: map[string]agenttype.VariableDefinition{
			"config_path": {Default: valuePtr(agenttype.NewString("/etc/nrdot.yaml"))},
		},
	})

	repo := values.NewRepository(t.TempDir(), t.TempDir())

	return &Assembler{
		Registry:                registry,
		Values:                  repo,
		Context:                 render.NewContext("host-1", "fleet-1", "", ""),
		Log:                     logrus.NewEntry(logrus.New()),
		RemoteManagementCapable: true,
	}, id
}

func valuePtr(v agenttype.Value) *agenttype.Value { return &v }

func TestAssembleOnHostBuildsOnHostSupervisor(t *testing.T) {
	a, id := testAssembler(t)
	fqn := agentid.FQN{Namespace: "newrelic", Name: "nrdot", Version: "0.1.0"}

	supervisor, err := a.Assemble(id, fqn)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	ohs, ok := supervisor.(*onhostsupervisor.Supervisor)
	if !ok {
		t.Fatalf("expected *onhostsupervisor.Supervisor, got %T", supervisor)
	}
	if len(ohs.Rendered.Executables) != 1 {
		t.Fatalf("expected 1 rendered executable, got %d", len(ohs.Rendered.Executables))
	}
	if ohs.Rendered.Executables[0].Args[1] != "/etc/nrdot.yaml" {
		t.Fatalf("expected variable substitution in args, got %q", ohs.Rendered.Executables[0].Args[1])
	}
}

func TestAssembleUnknownTypeErrors(t *testing.T) {
	a, id := testAssembler(t)
	_, err := a.Assemble(id, agentid.FQN{Namespace: "newrelic", Name: "missing", Version: "1.0.0"})
	if err == nil {
		t.Fatal("expected error for unregistered agent type")
	}
}

func TestAssembleK8sWithoutManagersErrors(t *testing.T) {
	id := agentid.MustParse("otel")
	fqn := agentid.FQN{Namespace: "newrelic", Name: "otel", Version: "0.1.0"}

	registry := agenttype.NewRegistry()
	registry.Register(&agenttype.AgentType{
		FQN: fqn,
		Runtime: agenttype.RuntimeConfig{
			K8s: &agenttype.K8sRuntime{Objects: map[string]agenttype.K8sObject{}},
		},
	})

	a := &Assembler{
		Registry: registry,
		Values:   values.NewRepository(t.TempDir(), t.TempDir()),
		Context:  render.NewContext("host-1", "fleet-1", "cluster-1", "newrelic"),
		Log:      logrus.NewEntry(logrus.New()),
	}

	_, err := a.Assemble(id, fqn)
	if err == nil {
		t.Fatal("expected error when k8s runtime requested without Managers configured")
	}
}
