// Package render assembles a resolved AgentType + values document into a
// fully rendered runtime descriptor (spec.md §4.1-§4.3, §4.6 "Assemble"):
// it ties together the template engine, the variable resolver, and the
// reserved sub/env/ac/nr-env namespaces.
package render

import (
	"os"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/template"
)

// Context carries the ambient, non-values-derived inputs to rendering: the
// agent-control identity fields (ac namespace) and the process environment
// (env and nr-env namespaces, which both read from the OS environment --
// nr-env is the "environment variable / secret" namespace used for values
// expansion, env is available generally during runtime-config templating).
type Context struct {
	HostID      string
	FleetID     string
	ClusterName string
	Namespace   string

	// Environ is the environment the env/nr-env namespaces read from.
	// NewContext fills it from os.Environ() once at construction; a nil
	// Environ resolves no env/nr-env keys.
	Environ map[string]string
}

// NewContext snapshots the process environment into Environ.
func NewContext(hostID, fleetID, clusterName, namespace string) Context {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return Context{HostID: hostID, FleetID: fleetID, ClusterName: clusterName, Namespace: namespace, Environ: env}
}

func (c Context) acTable() map[string]string {
	return map[string]string{
		"host_id":      c.HostID,
		"fleet_id":     c.FleetID,
		"cluster_name": c.ClusterName,
		"namespace":    c.Namespace,
	}
}

// envLookup builds a Lookup serving only the env/nr-env namespaces from
// Context.Environ, used both standalone (ExpandNREnv) and merged into the
// full lookup built by Lookup().
func (c Context) envLookup(ns template.Namespace, key string) (agenttype.Value, bool) {
	v, ok := c.Environ[key]
	if !ok {
		return agenttype.Value{}, false
	}
	return agenttype.NewString(v), true
}

// ExpandNREnv performs the values-side expansion documented in spec.md
// §4.1: string-templates the raw values document using only the nr-env
// namespace, leaving every other placeholder (including var/sub/ac/env)
// untouched. The result is used only as input to variable resolution; the
// original, unexpanded values document remains what gets persisted and
// reported as effective config (spec.md §8 scenario E).
func (c Context) ExpandNREnv(values interface{}) (interface{}, error) {
	return template.YAMLNamespace(values, template.NamespaceNREnv, c.envLookup)
}

// Lookup builds the combined namespace lookup used to template the runtime
// config (spec.md §4.1, §4.6 Assemble): var/sub come from resolved variable
// tables, ac from the agent-control identity, and env and nr-env both from
// Context.Environ. A key absent from its table (including an environment
// variable that is not set) fails as a normal MissingTemplateKey.
func (c Context) Lookup(varTable, subTable map[string]agenttype.VariableDefinition) template.Lookup {
	ac := c.acTable()
	return func(ns template.Namespace, key string) (agenttype.Value, bool) {
		switch ns {
		case template.NamespaceVar:
			def, ok := varTable[key]
			if !ok || !def.Populated() {
				return agenttype.Value{}, false
			}
			return def.Resolved(), true
		case template.NamespaceSub:
			def, ok := subTable[key]
			if !ok || !def.Populated() {
				return agenttype.Value{}, false
			}
			return def.Resolved(), true
		case template.NamespaceAC:
			v, ok := ac[key]
			if !ok {
				return agenttype.Value{}, false
			}
			return agenttype.NewString(v), true
		case template.NamespaceEnv, template.NamespaceNREnv:
			return c.envLookup(ns, key)
		default:
			return agenttype.Value{}, false
		}
	}
}
