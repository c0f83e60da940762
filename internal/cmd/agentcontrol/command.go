// Package agentcontrol wires the agent-control process's single cobra
// command: flag parsing, collaborator construction and the top-level run
// loop.
package agentcontrol

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/assembler"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/cmd"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/configmigrate"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/controllerconfig"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/eventbus"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/hashstore"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/k8sclient"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/logging"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/opamp"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/reflector"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/remoteconfig"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/render"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/status"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/subagent"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/values"
)

// embeddedAgentTypes is the bundle of agent-type definitions this build
// ships with (spec.md §4.3 "embedded registry"). Real deployments replace
// the contents of agent-types/ with their own catalog.
//
//go:embed agent-types
var embeddedAgentTypes embed.FS

// Command is the Runnable bound to cobra via internal/cmd.Command (spec.md
// §6 "agent-control" process).
type Command struct {
	cmd.DebugConfig

	ConfigPath string `usage:"Path to the local controller config.yaml" default:"/etc/newrelic/agent-control/config.yaml" env:"AGENT_CONTROL_CONFIG"`
	LocalDir   string `usage:"Local (operator, read-only) values directory" default:"/etc/newrelic/agent-control/values" env:"AGENT_CONTROL_LOCAL_DIR"`
	RemoteDir  string `usage:"Remote (OpAMP-managed) values directory" default:"/var/lib/newrelic/agent-control/remote" env:"AGENT_CONTROL_REMOTE_DIR"`

	Namespace  string `usage:"Kubernetes namespace agent-control manages dynamic objects in" env:"NAMESPACE"`
	Kubeconfig string `usage:"Path to a kubeconfig file; empty uses the in-cluster config" env:"KUBECONFIG"`

	HostID      string `usage:"ac namespace host_id" env:"AGENT_CONTROL_HOST_ID"`
	FleetID     string `usage:"ac namespace fleet_id" env:"AGENT_CONTROL_FLEET_ID"`
	ClusterName string `usage:"ac namespace cluster_name" env:"AGENT_CONTROL_CLUSTER_NAME"`

	StatusAddr string `usage:"Address the read-only status HTTP endpoint listens on" default:":8080" env:"AGENT_CONTROL_STATUS_ADDR"`
}

func (c *Command) PersistentPre(_ *cobra.Command, _ []string) error {
	return c.SetupDebug()
}

// Run builds every collaborator and blocks until ctx is cancelled (the
// parent context ends or SIGINT/SIGTERM arrives) (spec.md §4.6, §5, §7).
func (c *Command) Run(cobraCmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cobraCmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level := c.LogLevel
	if c.Debug {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level})
	log := logging.For(logger, "agent-control")

	raw, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return fmt.Errorf("reading local config %s: %w", c.ConfigPath, err)
	}
	raw, err = configmigrate.Migrate(raw)
	if err != nil {
		return fmt.Errorf("migrating local config %s: %w", c.ConfigPath, err)
	}
	cfg, err := controllerconfig.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing local config %s: %w", c.ConfigPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid local config %s: %w", c.ConfigPath, err)
	}

	hostID := cfg.HostID
	if hostID == "" {
		hostID = c.HostID
	}
	fleetID := cfg.FleetID
	if fleetID == "" {
		fleetID = c.FleetID
	}

	onK8s := cfg.K8s != nil
	env := agenttype.EnvOnHost
	namespace := c.Namespace
	clusterName := c.ClusterName
	if onK8s {
		env = agenttype.EnvK8s
		if cfg.K8s.Namespace != "" {
			namespace = cfg.K8s.Namespace
		}
		if cfg.K8s.ClusterName != "" {
			clusterName = cfg.K8s.ClusterName
		}
	}

	agentTypesFS, err := fs.Sub(embeddedAgentTypes, "agent-types")
	if err != nil {
		return fmt.Errorf("opening embedded agent-type bundle: %w", err)
	}
	registry, err := agenttype.LoadDir(agentTypesFS, env)
	if err != nil {
		return fmt.Errorf("loading agent-type bundle: %w", err)
	}

	repo := values.NewRepository(c.LocalDir, c.RemoteDir)
	hashes := hashstore.New(c.RemoteDir)

	var managers *reflector.Managers
	if onK8s {
		var clients *k8sclient.Clients
		if c.Kubeconfig != "" {
			clients, err = k8sclient.NewFromKubeconfig(c.Kubeconfig)
		} else {
			clients, err = k8sclient.NewInCluster()
		}
		if err != nil {
			return fmt.Errorf("building kubernetes clients: %w", err)
		}
		managers = reflector.NewManagers(clients, func(tm reflector.TypeMeta) (schema.GroupVersionResource, error) {
			return clients.GVRFor(tm.APIVersion, tm.Kind)
		})
	}

	asm := &assembler.Assembler{
		Registry:                registry,
		Values:                  repo,
		Context:                 render.NewContext(hostID, fleetID, clusterName, namespace),
		Managers:                managers,
		Log:                     log,
		RemoteManagementCapable: true,
	}

	removedBus := eventbus.NewBus[events.SubAgentRemoved]()
	healthBus := eventbus.NewBus[events.SubAgentHealthInfo]()
	versionBus := eventbus.NewBus[events.SubAgentVersionInfo]()
	defer removedBus.Close()
	defer healthBus.Close()
	defer versionBus.Close()

	controllerConfigCh := make(chan events.ControllerConfigChanged, 16)
	remoteAppliedCh := make(chan events.SubAgentRemoteConfigApplied, 16)
	shutdownCh := make(chan events.Shutdown, 1)

	dispatcher := subagent.NewDispatcher(asm, controllerConfigCh, remoteAppliedCh, shutdownCh, removedBus, healthBus, versionBus)
	dispatcher.Log = log

	client := opamp.NoopClient{Log: log}
	resolveType := func(id agentid.ID) (*agenttype.AgentType, bool) {
		entry, ok := cfg.Agents[id.String()]
		if !ok {
			return nil, false
		}
		fqn, err := agentid.ParseFQN(entry.AgentType)
		if err != nil {
			return nil, false
		}
		at, err := registry.Get(fqn)
		return at, err == nil
	}
	processor := remoteconfig.NewProcessor(client, repo, hashes, resolveType, chanPublisher[events.ControllerConfigChanged]{controllerConfigCh}, chanPublisher[events.SubAgentRemoteConfigApplied]{remoteAppliedCh})
	_ = processor // wired for an external OpAMP client to call Process on inbound messages (spec.md §1 "external collaborator")

	st := status.New()
	go status.Run(ctx, st, status.Buses{
		OpAMPConnected:  make(chan events.OpAMPConnected),
		SubAgentRemoved: removedBus.C(),
		SubAgentHealth:  healthBus.C(),
		SubAgentVersion: versionBus.C(),
	})

	server := &http.Server{
		Addr:              c.StatusAddr,
		Handler:           status.ServeStatus(st),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("status server stopped unexpectedly")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	controllerConfigCh <- events.ControllerConfigChanged{Config: cfg}

	go dispatcher.Run(ctx)

	<-ctx.Done()
	return nil
}

// chanPublisher adapts a plain channel to remoteconfig.Processor's
// Publisher interfaces, the boundary between the processor (which only
// knows how to Publish) and the dispatcher (which consumes from a plain
// channel directly in its select loop).
type chanPublisher[T any] struct {
	ch chan T
}

func (p chanPublisher[T]) Publish(event T) {
	p.ch <- event
}
