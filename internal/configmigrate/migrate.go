// Package configmigrate upgrades one legacy controller-config shape: an
// "agents" section written as a flat list of agent ids, predating the
// current agent_type-carrying map ("agents: map[AgentID]AgentEntry").
package configmigrate

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

// legacyDoc decodes only the shape this package cares about: an "agents"
// key that, in the legacy format, held a bare string list.
type legacyDoc struct {
	Agents []string `json:"agents"`
}

// Migrate inspects raw YAML/JSON bytes for the legacy "agents: [id, ...]"
// shape and, if found, rewrites it to "agents: {id: {agent_type: ""}}"
// before returning. Any other document, including one already in the
// current map shape, passes through unchanged (spec.md's SUPPLEMENT:
// "silent passthrough otherwise").
func Migrate(doc []byte) ([]byte, error) {
	var probe map[string]interface{}
	if err := yaml.Unmarshal(doc, &probe); err != nil {
		return nil, fmt.Errorf("configmigrate: decoding document: %w", err)
	}

	agents, ok := probe["agents"]
	if !ok {
		return doc, nil
	}
	if _, isList := agents.([]interface{}); !isList {
		return doc, nil
	}

	var legacy legacyDoc
	if err := yaml.Unmarshal(doc, &legacy); err != nil {
		return nil, fmt.Errorf("configmigrate: decoding legacy agents list: %w", err)
	}

	migratedAgents := make(map[string]interface{}, len(legacy.Agents))
	for _, id := range legacy.Agents {
		// agent_type is unknown from the legacy list alone; it is left
		// empty and must arrive via a subsequent remote config before the
		// sub-agent can be assembled (spec.md §4.5/§4.6 validate on use).
		migratedAgents[id] = map[string]interface{}{"agent_type": ""}
	}
	probe["agents"] = migratedAgents

	out, err := yaml.Marshal(probe)
	if err != nil {
		return nil, fmt.Errorf("configmigrate: re-encoding migrated document: %w", err)
	}
	return out, nil
}
