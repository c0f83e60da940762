// Package controllerconfig models the controller config schema (spec.md
// §6 "Controller config schema"): the top-level agent-control document
// loaded from local config.yaml at startup and from OpAMP remote-config
// thereafter.
package controllerconfig

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

// AgentEntry is one entry of the "agents" map (spec.md §6).
type AgentEntry struct {
	AgentType string `json:"agent_type"`
}

// OpAMPConfig is the optional opamp section; auth_config is opaque to this
// core (spec.md §6).
type OpAMPConfig struct {
	Endpoint   string            `json:"endpoint,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	AuthConfig map[string]interface{} `json:"auth_config,omitempty"`
}

// CRTypeMeta names one CRD kind the k8s supervisor may be asked to manage.
type CRTypeMeta struct {
	APIVersion string `json:"api_version"`
	Kind       string `json:"kind"`
}

// K8sConfig is required when running on k8s (spec.md §6).
type K8sConfig struct {
	ClusterName string       `json:"cluster_name"`
	Namespace   string       `json:"namespace"`
	CRTypeMeta  []CRTypeMeta `json:"cr_type_meta,omitempty"`
}

// ProxyConfig is the optional outbound proxy section.
type ProxyConfig struct {
	URL string `json:"url,omitempty"`
}

// Config is the root controller config document (spec.md §6). Log and
// Server are intentionally opaque (generic decoded YAML maps) since logging
// setup and the HTTP status server are named external collaborators
// (spec.md §1); Config only needs to round-trip them, not interpret them.
type Config struct {
	Log        map[string]interface{} `json:"log,omitempty"`
	HostID     string                 `json:"host_id,omitempty"`
	FleetID    string                 `json:"fleet_id,omitempty"`
	Agents     map[string]AgentEntry  `json:"agents"`
	OpAMP      *OpAMPConfig           `json:"opamp,omitempty"`
	K8s        *K8sConfig             `json:"k8s,omitempty"`
	Server     map[string]interface{} `json:"server,omitempty"`
	Proxy      *ProxyConfig           `json:"proxy,omitempty"`
}

// Parse decodes raw YAML into a Config. An absent "agents" key decodes to an
// empty map, matching spec.md §8 scenario A ("agents: {}").
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decoding controller config: %w", err)
	}
	if cfg.Agents == nil {
		cfg.Agents = map[string]AgentEntry{}
	}
	return cfg, nil
}

// Validate checks structural invariants beyond what YAML decoding enforces:
// every agent id must be a valid AgentID and every agent_type a valid FQN.
func (c *Config) Validate() error {
	for id, entry := range c.Agents {
		if _, err := agentid.Parse(id); err != nil {
			return fmt.Errorf("agents: %w", err)
		}
		if entry.AgentType == "" {
			return fmt.Errorf("agents.%s: agent_type must not be empty", id)
		}
		if _, err := agentid.ParseFQN(entry.AgentType); err != nil {
			return fmt.Errorf("agents.%s.agent_type: %w", id, err)
		}
	}
	return nil
}

// Marshal re-encodes the config to YAML. Only the fields Config models are
// written; keys of the source document that it does not model are dropped.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding controller config: %w", err)
	}
	return out, nil
}

// DesiredAgentSet returns the set of agent ids this config wants running.
func (c *Config) DesiredAgentSet() map[agentid.ID]agentid.FQN {
	out := make(map[agentid.ID]agentid.FQN, len(c.Agents))
	for idStr, entry := range c.Agents {
		id, err := agentid.Parse(idStr)
		if err != nil {
			continue // already rejected by Validate; defensive only
		}
		fqn, err := agentid.ParseFQN(entry.AgentType)
		if err != nil {
			continue
		}
		out[id] = fqn
	}
	return out
}
