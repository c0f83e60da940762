// Package variables implements the variable resolver (spec.md §4.2): filling
// declared variable schemas from an operator/remote values document. The
// reserved sub:packages.<id>.dir variables are derived by internal/packages.
package variables

import (
	"fmt"
)

// Flatten turns a nested YAML mapping into a dotted-path -> leaf map, e.g.
// {"backoff": {"delay": "1s"}} -> {"backoff.delay": "1s"}. Non-mapping
// values (including sequences) are treated as leaves, matching the
// dotted-name schema of VariableDefinition keys (spec.md §3 example
// "backoff.delay").
func Flatten(values map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	flattenInto(values, "", out)
	return out
}

func flattenInto(node map[string]interface{}, prefix string, out map[string]interface{}) {
	for k, v := range node {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if m, ok := v.(map[string]interface{}); ok {
			flattenInto(m, path, out)
			continue
		}
		out[path] = v
	}
}

// AsMap asserts node is a YAML mapping, returning an empty map for a nil
// document (spec.md resolution policy: "else empty").
func AsMap(node interface{}) (map[string]interface{}, error) {
	if node == nil {
		return map[string]interface{}{}, nil
	}
	m, ok := node.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a yaml mapping at the document root, got %T", node)
	}
	return m, nil
}
