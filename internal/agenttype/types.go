package agenttype

import (
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

// Environment is the deployment-environment discriminator selecting which
// variable/deployment subtrees of an AgentType apply (spec.md §3).
type Environment string

const (
	EnvOnHost Environment = "on_host"
	EnvK8s    Environment = "k8s"
	EnvCommon Environment = "common"
)

// VariableDefinition is the declared schema for one templated variable
// (spec.md §3). Default, Value, both or neither may be set; Value takes
// precedence over Default when both are.
type VariableDefinition struct {
	Description string
	Required    bool
	Kind        Kind

	// Default is the value supplied by the agent-type author.
	Default *Value
	// Value is the value filled in from the operator/remote values
	// document by the variable resolver (internal/variables). Nil until
	// resolution runs.
	Value *Value

	// FilePath, for KindFile and KindMapStringFile declarations, is the
	// nested "path" field of the schema (spec.md §3 kind definitions).
	FilePath string
}

// Populated reports whether the variable has either an explicit Value or a
// Default -- the precondition for rendering to proceed (spec.md §8 invariant 1).
func (v VariableDefinition) Populated() bool {
	return v.Value != nil || v.Default != nil
}

// Resolved returns the effective value: Value if set, else Default. Callers
// must first check Populated(); Resolved panics otherwise to surface a
// rendering-order bug rather than silently returning a zero Value.
func (v VariableDefinition) Resolved() Value {
	if v.Value != nil {
		return *v.Value
	}
	if v.Default != nil {
		return *v.Default
	}
	panic("agenttype: Resolved called on an unpopulated variable")
}

// RestartPolicyType selects how an executable's backoff delay scales between
// restart attempts (spec.md §4.7).
type RestartPolicyType string

const (
	RestartFixed       RestartPolicyType = "fixed"
	RestartLinear      RestartPolicyType = "linear"
	RestartExponential RestartPolicyType = "exponential"
)

// RestartPolicy is the unrendered restart-policy template for one executable.
type RestartPolicy struct {
	Type               RestartPolicyType
	BackoffDelay       string // duration string, templated
	MaxRetries         int
	LastRetryInterval  string // duration string, templated; backoff cap and reset threshold
}

// HealthCheckKind selects how a health or version check is performed.
type HealthCheckKind string

const (
	HealthExec HealthCheckKind = "exec"
	HealthHTTP HealthCheckKind = "http"
	HealthFile HealthCheckKind = "file"
)

// HealthCheck is the unrendered health (or version) check template.
type HealthCheck struct {
	Kind HealthCheckKind

	// exec
	Path string
	Args []string

	// http
	URL string

	// file
	FilePath string

	Interval     string
	InitialDelay string
}

// Executable is one unrendered on-host process template entry.
type Executable struct {
	ID            string
	Path          string
	Args          []string
	Env           map[string]string
	RestartPolicy RestartPolicy
}

// Package is an unrendered on-host package reference (spec.md §4.2).
type Package struct {
	ID          string
	OCIRef      string
	ArchiveType string
}

// OnHostRuntime is the unrendered on_host runtime-config subtree.
type OnHostRuntime struct {
	Executables []Executable
	Filesystem  map[string]interface{}
	Health      *HealthCheck
	Version     *HealthCheck
	Packages    map[string]Package
}

// K8sObject is one unrendered dynamic object template entry (spec.md §3).
type K8sObject struct {
	ID         string
	APIVersion string
	Kind       string
	Metadata   map[string]interface{}
	Fields     map[string]interface{}
}

// K8sRuntime is the unrendered k8s runtime-config subtree.
type K8sRuntime struct {
	Objects map[string]K8sObject
	Health  map[string]interface{}
}

// RuntimeConfig holds both environment variants of an AgentType's deployment
// subtree; exactly one is populated for a given environment discriminator.
type RuntimeConfig struct {
	OnHost *OnHostRuntime
	K8s    *K8sRuntime
}

// AgentType is a parsed (but not yet rendered) agent-type template document
// (spec.md §3, §6). Variables and RuntimeConfig hold templates, not values.
type AgentType struct {
	FQN agentid.FQN

	// Variables is keyed by dotted name, e.g. "backoff.delay". It is
	// already filtered to the common + environment-specific subtree that
	// applies to this build (spec.md §3 "environment discriminator").
	Variables map[string]VariableDefinition

	Runtime RuntimeConfig
}
