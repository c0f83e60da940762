package variables

import (
	"fmt"
	"sort"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
)

// ValuesNotPopulatedError lists every required variable that has neither a
// supplied value nor a schema default (spec.md §4.2, §8 invariant 1).
type ValuesNotPopulatedError struct {
	Names []string
}

func (e *ValuesNotPopulatedError) Error() string {
	return fmt.Sprintf("values not populated for required variables: %v", e.Names)
}

// Resolve fills each declared variable's Value from the flattened values
// document, typed per its declared Kind, and validates every required
// variable ends up populated (spec.md §4.2). The input schema is not
// mutated; a new map is returned.
func Resolve(schema map[string]agenttype.VariableDefinition, values map[string]interface{}) (map[string]agenttype.VariableDefinition, error) {
	flat := Flatten(values)

	resolved := make(map[string]agenttype.VariableDefinition, len(schema))
	for name, def := range schema {
		def := def // local copy
		if raw, ok := flat[name]; ok {
			val, err := agenttype.CoerceValue(def.Kind, raw)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", name, err)
			}
			def.Value = &val
		}
		resolved[name] = def
	}

	var unpopulated []string
	for name, def := range resolved {
		if def.Required && !def.Populated() {
			unpopulated = append(unpopulated, name)
		}
	}
	if len(unpopulated) > 0 {
		sort.Strings(unpopulated)
		return nil, &ValuesNotPopulatedError{Names: unpopulated}
	}

	return resolved, nil
}
