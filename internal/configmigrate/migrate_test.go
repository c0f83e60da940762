package configmigrate

import (
	"testing"

	"sigs.k8s.io/yaml"
)

func TestMigrateUpgradesLegacyList(t *testing.T) {
	in := []byte("host_id: h1\nagents:\n  - nginx\n  - redis\n")

	out, err := Migrate(in)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("decoding migrated doc: %v", err)
	}
	agents, ok := doc["agents"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected agents to become a map, got %T", doc["agents"])
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	for _, id := range []string{"nginx", "redis"} {
		entry, ok := agents[id].(map[string]interface{})
		if !ok {
			t.Fatalf("expected entry for %s, got %v", id, agents[id])
		}
		if entry["agent_type"] != "" {
			t.Fatalf("expected empty agent_type placeholder for %s, got %v", id, entry["agent_type"])
		}
	}
}

func TestMigratePassesThroughCurrentShape(t *testing.T) {
	in := []byte("agents:\n  nginx:\n    agent_type: nr/nginx:0.1.0\n")

	out, err := Migrate(in)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if string(out) != string(in) {
		t.Fatalf("expected passthrough, got %q", out)
	}
}

func TestMigratePassesThroughMissingAgents(t *testing.T) {
	in := []byte("host_id: h1\n")
	out, err := Migrate(in)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if string(out) != string(in) {
		t.Fatalf("expected passthrough, got %q", out)
	}
}
