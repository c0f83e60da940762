// Package template implements the agent-control placeholder language
// (spec.md §4.1): scanning "${ns:key}" placeholders across strings and
// structured YAML and substituting values from a namespaced variable table.
package template

import (
	"fmt"
	"regexp"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
)

// Namespace is one of the placeholder prefixes recognized by the engine.
type Namespace string

const (
	NamespaceVar   Namespace = "var"
	NamespaceSub   Namespace = "sub"
	NamespaceEnv   Namespace = "env"
	NamespaceAC    Namespace = "ac"
	NamespaceNREnv Namespace = "nr-env"
)

var knownNamespaces = map[Namespace]bool{
	NamespaceVar:   true,
	NamespaceSub:   true,
	NamespaceEnv:   true,
	NamespaceAC:    true,
	NamespaceNREnv: true,
}

// placeholderPattern matches ${ns:key}. The namespace group accepts any
// alphanumeric-hyphen token (so unknown-but-shaped prefixes still parse and
// are then passed through by stringFiltered below) and the key group is
// restricted to spec.md's [A-Za-z0-9._/-]+ grammar.
var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z0-9-]+):([A-Za-z0-9._/-]+)\}`)

// MissingTemplateKeyError is returned when a placeholder's namespace is
// recognized but its key has no entry in the variable table.
type MissingTemplateKeyError struct {
	Namespace Namespace
	Key       string
}

func (e *MissingTemplateKeyError) Error() string {
	return fmt.Sprintf("missing template key %q in namespace %q", e.Key, e.Namespace)
}

// Lookup resolves one namespaced key to its Value. Implementations report
// an absent key by returning false; String and YAML then fail with a
// *MissingTemplateKeyError so callers can match on it with errors.As.
type Lookup func(ns Namespace, key string) (agenttype.Value, bool)

// NewMissingKey builds the *MissingTemplateKeyError returned for an absent
// key.
func NewMissingKey(ns Namespace, key string) error {
	return &MissingTemplateKeyError{Namespace: ns, Key: key}
}

// match is one parsed occurrence of a placeholder within a string.
type match struct {
	start, end int
	ns         Namespace
	key        string
}

func findMatches(s string) []match {
	idxs := placeholderPattern.FindAllStringSubmatchIndex(s, -1)
	out := make([]match, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, match{
			start: idx[0],
			end:   idx[1],
			ns:    Namespace(s[idx[2]:idx[3]]),
			key:   s[idx[4]:idx[5]],
		})
	}
	return out
}

// String performs string templating (spec.md §4.1): every recognized
// placeholder is replaced by its scalar form; a placeholder whose namespace
// isn't one of the known prefixes is left untouched ("Literal ${...} without
// a known namespace prefix is passed through unchanged"); a placeholder with
// a known namespace but an unresolved key fails with MissingTemplateKeyError.
func String(s string, lookup Lookup) (string, error) {
	return stringFiltered(s, knownNamespaces, lookup)
}

// stringFiltered is the shared implementation behind String and
// StringNamespace: a placeholder is substituted only when handle(ns) is
// true; every other placeholder (known namespace or not) is passed through
// unchanged.
func stringFiltered(s string, handle map[Namespace]bool, lookup Lookup) (string, error) {
	matches := findMatches(s)
	if len(matches) == 0 {
		return s, nil
	}

	var out []byte
	last := 0
	for _, m := range matches {
		if !handle[m.ns] {
			continue // passed through unchanged
		}
		val, ok := lookup(m.ns, m.key)
		if !ok {
			return "", NewMissingKey(m.ns, m.key)
		}
		scalar, err := val.Scalar()
		if err != nil {
			return "", fmt.Errorf("rendering %q: %w", m.key, err)
		}
		out = append(out, s[last:m.start]...)
		out = append(out, scalar...)
		last = m.end
	}
	out = append(out, s[last:]...)
	return string(out), nil
}

// StringNamespace restricts string templating to a single namespace, used
// for the values-side nr-env expansion pass (spec.md §4.1 "Values-side
// expansion"): placeholders in any other namespace -- known or not -- are
// left untouched rather than erroring, since this pass runs before variable
// filling and those namespaces aren't resolvable yet.
func StringNamespace(s string, ns Namespace, lookup Lookup) (string, error) {
	return stringFiltered(s, map[Namespace]bool{ns: true}, lookup)
}

// wholePlaceholder reports whether s consists entirely of a single
// substitution-eligible placeholder, returning its namespace/key if so.
func wholePlaceholder(s string, handle map[Namespace]bool) (Namespace, string, bool) {
	matches := findMatches(s)
	if len(matches) != 1 {
		return "", "", false
	}
	m := matches[0]
	if m.start != 0 || m.end != len(s) {
		return "", "", false
	}
	if !handle[m.ns] {
		return "", "", false
	}
	return m.ns, m.key, true
}

// YAML performs YAML-value templating (spec.md §4.1): recurses into
// mappings/sequences; a string leaf that is entirely one placeholder adopts
// the variable's native YAML value; any other string leaf is string-templated.
func YAML(node interface{}, lookup Lookup) (interface{}, error) {
	return yamlFiltered(node, knownNamespaces, lookup)
}

// YAMLNamespace restricts YAML-value templating to a single namespace, same
// rationale as StringNamespace.
func YAMLNamespace(node interface{}, ns Namespace, lookup Lookup) (interface{}, error) {
	return yamlFiltered(node, map[Namespace]bool{ns: true}, lookup)
}

func yamlFiltered(node interface{}, handle map[Namespace]bool, lookup Lookup) (interface{}, error) {
	switch v := node.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, child := range v {
			rendered, err := yamlFiltered(child, handle, lookup)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, child := range v {
			rendered, err := yamlFiltered(child, handle, lookup)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	case string:
		if ns, key, ok := wholePlaceholder(v, handle); ok {
			val, found := lookup(ns, key)
			if !found {
				return nil, NewMissingKey(ns, key)
			}
			return val.YAMLNode()
		}
		return stringFiltered(v, handle, lookup)
	default:
		return v, nil
	}
}
