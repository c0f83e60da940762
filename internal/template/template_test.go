package template

import (
	"errors"
	"testing"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
)

func tableLookup(table map[string]agenttype.Value) Lookup {
	return func(ns Namespace, key string) (agenttype.Value, bool) {
		v, ok := table[string(ns)+":"+key]
		return v, ok
	}
}

func TestStringSubstitution(t *testing.T) {
	lookup := tableLookup(map[string]agenttype.Value{
		"var:name":    agenttype.NewString("world"),
		"var:enabled": agenttype.NewBool(true),
		"var:count":   agenttype.NewNumber(3),
	})

	out, err := String("hello ${var:name}, enabled=${var:enabled}, count=${var:count}", lookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello world, enabled=true, count=3" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestStringUnknownNamespacePassthrough(t *testing.T) {
	out, err := String("literal ${notanamespace:key} stays", tableLookup(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "literal ${notanamespace:key} stays" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestStringMissingKey(t *testing.T) {
	_, err := String("${var:missing}", tableLookup(nil))
	var missing *MissingTemplateKeyError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingTemplateKeyError, got %v", err)
	}
	if missing.Key != "missing" || missing.Namespace != NamespaceVar {
		t.Fatalf("unexpected error fields: %+v", missing)
	}
}

func TestStringIdentityWithoutPlaceholders(t *testing.T) {
	out, err := String("no placeholders here", tableLookup(nil))
	if err != nil || out != "no placeholders here" {
		t.Fatalf("expected identity, got %q err=%v", out, err)
	}
}

func TestYAMLWholeLeafAdoptsNativeValue(t *testing.T) {
	lookup := tableLookup(map[string]agenttype.Value{
		"var:tree": agenttype.NewYAML(map[string]interface{}{"a": "b"}),
		"var:flag": agenttype.NewBool(false),
	})

	doc := map[string]interface{}{
		"x": "${var:tree}",
		"y": "${var:flag}",
		"z": []interface{}{"prefix-${var:flag}"},
	}

	rendered, err := YAML(doc, lookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := rendered.(map[string]interface{})
	tree, ok := m["x"].(map[string]interface{})
	if !ok || tree["a"] != "b" {
		t.Fatalf("expected nested map substitution, got %#v", m["x"])
	}
	if m["y"] != false {
		t.Fatalf("expected native bool, got %#v", m["y"])
	}
	z := m["z"].([]interface{})
	if z[0] != "prefix-false" {
		t.Fatalf("expected string-templated leaf, got %v", z[0])
	}
}

func TestSinglePassNoNestedExpansion(t *testing.T) {
	// A Yaml variable whose own content contains a placeholder-looking
	// string must not be expanded further (spec.md §4.1 "only one pass").
	lookup := tableLookup(map[string]agenttype.Value{
		"var:inner": agenttype.NewYAML(map[string]interface{}{"nested": "${var:other}"}),
	})
	rendered, err := YAML("${var:inner}", lookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := rendered.(map[string]interface{})
	if m["nested"] != "${var:other}" {
		t.Fatalf("expected literal nested placeholder, got %v", m["nested"])
	}
}
