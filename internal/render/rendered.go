package render

import (
	"time"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
)

// RenderedRestartPolicy is agenttype.RestartPolicy with its duration fields
// parsed and templated.
type RenderedRestartPolicy struct {
	Type              agenttype.RestartPolicyType
	BackoffDelay      time.Duration
	MaxRetries        int
	LastRetryInterval time.Duration
}

// RenderedHealthCheck is agenttype.HealthCheck with its fields templated and
// durations parsed.
type RenderedHealthCheck struct {
	Kind         agenttype.HealthCheckKind
	Path         string
	Args         []string
	URL          string
	FilePath     string
	Interval     time.Duration
	InitialDelay time.Duration
}

// RenderedExecutable is agenttype.Executable fully templated.
type RenderedExecutable struct {
	ID            string
	Path          string
	Args          []string
	Env           map[string]string
	RestartPolicy RenderedRestartPolicy
}

// RenderedOnHost is the final on_host runtime descriptor (spec.md §3).
type RenderedOnHost struct {
	Executables []RenderedExecutable
	Filesystem  map[string]interface{}
	Health      *RenderedHealthCheck
	Version     *RenderedHealthCheck
}

// RenderedK8sObject is agenttype.K8sObject fully templated.
type RenderedK8sObject struct {
	ID         string
	APIVersion string
	Kind       string
	Metadata   map[string]interface{}
	Fields     map[string]interface{}
}

// RenderedK8s is the final k8s runtime descriptor (spec.md §3).
type RenderedK8s struct {
	Objects map[string]RenderedK8sObject
	Health  map[string]interface{}
}
