package agenttype

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

// kindFromString maps the document's "type" string to our Kind tag.
func kindFromString(s string) (Kind, error) {
	switch s {
	case "string":
		return KindString, nil
	case "bool", "boolean":
		return KindBool, nil
	case "number":
		return KindNumber, nil
	case "yaml":
		return KindYAML, nil
	case "file":
		return KindFile, nil
	case "map[string]file", "map_string_file":
		return KindMapStringFile, nil
	case "map[string]string", "map_string":
		return KindMapString, nil
	default:
		return "", fmt.Errorf("unknown variable type %q", s)
	}
}

func variableFromDoc(name string, d variableDoc) (VariableDefinition, error) {
	kind, err := kindFromString(d.Type)
	if err != nil {
		return VariableDefinition{}, fmt.Errorf("variable %q: %w", name, err)
	}
	vd := VariableDefinition{
		Description: d.Description,
		Required:    d.Required,
		Kind:        kind,
		FilePath:    d.Path,
	}
	if d.Default != nil {
		val, err := valueFromDocScalar(kind, d.Default)
		if err != nil {
			return VariableDefinition{}, fmt.Errorf("variable %q default: %w", name, err)
		}
		vd.Default = &val
	}
	return vd, nil
}

// CoerceValue coerces a raw decoded YAML node (from a default, or from a
// values document during variable resolution) into a typed Value, per the
// variable's declared Kind. Number/Bool/String get typed coercion (spec.md
// §4.2); Yaml takes the node as-is; File takes a string body and renders it
// with RenderFileBody; the map kinds require a mapping of strings, and
// map-of-file renders each entry with RenderFileBody. Exported for use by
// internal/variables.
func CoerceValue(kind Kind, node interface{}) (Value, error) {
	return valueFromDocScalar(kind, node)
}

func valueFromDocScalar(kind Kind, node interface{}) (Value, error) {
	switch kind {
	case KindString:
		s, ok := node.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string, got %T", node)
		}
		return NewString(s), nil
	case KindBool:
		b, ok := node.(bool)
		if !ok {
			return Value{}, fmt.Errorf("expected bool, got %T", node)
		}
		return NewBool(b), nil
	case KindNumber:
		switch n := node.(type) {
		case float64:
			return NewNumber(n), nil
		case int:
			return NewNumber(float64(n)), nil
		case int64:
			return NewNumber(float64(n)), nil
		default:
			return Value{}, fmt.Errorf("expected number, got %T", node)
		}
	case KindYAML:
		return NewYAML(node), nil
	case KindFile:
		s, ok := node.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string path/content, got %T", node)
		}
		rendered, err := RenderFileBody(s)
		if err != nil {
			return Value{}, fmt.Errorf("file variable: %w", err)
		}
		return NewFile("", rendered), nil
	case KindMapString, KindMapStringFile:
		m, ok := node.(map[string]interface{})
		if !ok {
			return Value{}, fmt.Errorf("expected mapping, got %T", node)
		}
		out := map[string]string{}
		for k, v := range m {
			sv, ok := v.(string)
			if !ok {
				return Value{}, fmt.Errorf("map entry %q: expected string, got %T", k, v)
			}
			if kind == KindMapStringFile {
				rendered, err := RenderFileBody(sv)
				if err != nil {
					return Value{}, fmt.Errorf("file variable entry %q: %w", k, err)
				}
				sv = rendered
			}
			out[k] = sv
		}
		if kind == KindMapStringFile {
			return NewMapStringFile(out), nil
		}
		return NewMapString(out), nil
	default:
		return Value{}, fmt.Errorf("unknown kind %q", kind)
	}
}

func restartPolicyFromDoc(d restartPolicyDoc) RestartPolicy {
	t := RestartPolicyType(d.Type)
	if t == "" {
		t = RestartFixed
	}
	return RestartPolicy{
		Type:              t,
		BackoffDelay:      d.BackoffDelay,
		MaxRetries:        d.MaxRetries,
		LastRetryInterval: d.LastRetryInterval,
	}
}

func healthCheckFromDoc(d *healthCheckDoc) *HealthCheck {
	if d == nil {
		return nil
	}
	hc := &HealthCheck{Interval: d.Interval, InitialDelay: d.InitialDelay}
	switch {
	case d.Exec != nil:
		hc.Kind = HealthExec
		hc.Path = d.Exec.Path
		hc.Args = d.Exec.Args
	case d.HTTP != nil:
		hc.Kind = HealthHTTP
		hc.URL = d.HTTP.URL
	case d.File != nil:
		hc.Kind = HealthFile
		hc.FilePath = d.File.Path
	}
	return hc
}

// Parse decodes a raw agent-type YAML document and selects the variable and
// deployment subtrees applying to env (spec.md §3 "environment
// discriminator"). Duplicate executable ids are rejected here, at parse
// time (spec.md §6, §8 invariant 2).
func Parse(raw []byte, env Environment) (*AgentType, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding agent type document: %w", err)
	}

	fqn, err := agentid.ParseFQN(fmt.Sprintf("%s/%s:%s", doc.Namespace, doc.Name, doc.Version))
	if err != nil {
		return nil, err
	}

	variables := map[string]VariableDefinition{}
	addVars := func(src map[string]variableDoc) error {
		for name, vd := range src {
			parsed, err := variableFromDoc(name, vd)
			if err != nil {
				return err
			}
			variables[name] = parsed
		}
		return nil
	}
	if err := addVars(doc.Variables.Common); err != nil {
		return nil, err
	}
	switch env {
	case EnvOnHost:
		if err := addVars(doc.Variables.OnHost); err != nil {
			return nil, err
		}
	case EnvK8s:
		if err := addVars(doc.Variables.K8s); err != nil {
			return nil, err
		}
	}

	at := &AgentType{FQN: fqn, Variables: variables}

	switch env {
	case EnvOnHost:
		if doc.Deployment.OnHost == nil {
			return nil, fmt.Errorf("agent type %s declares no on_host deployment", fqn)
		}
		runtime, err := onHostRuntimeFromDoc(doc.Deployment.OnHost)
		if err != nil {
			return nil, err
		}
		at.Runtime.OnHost = runtime
	case EnvK8s:
		if doc.Deployment.K8s == nil {
			return nil, fmt.Errorf("agent type %s declares no k8s deployment", fqn)
		}
		objects := map[string]K8sObject{}
		for id, od := range doc.Deployment.K8s.Objects {
			objects[id] = K8sObject{
				ID:         id,
				APIVersion: od.APIVersion,
				Kind:       od.Kind,
				Metadata:   od.Metadata,
				Fields:     od.Fields,
			}
		}
		at.Runtime.K8s = &K8sRuntime{Objects: objects, Health: doc.Deployment.K8s.Health}
	}

	return at, nil
}

func onHostRuntimeFromDoc(d *onHostDoc) (*OnHostRuntime, error) {
	seen := map[string]bool{}
	executables := make([]Executable, 0, len(d.Executables))
	for _, ed := range d.Executables {
		if seen[ed.ID] {
			return nil, fmt.Errorf("Duplicate executable ID found: %s", ed.ID)
		}
		seen[ed.ID] = true
		executables = append(executables, Executable{
			ID:            ed.ID,
			Path:          ed.Path,
			Args:          ed.Args,
			Env:           ed.Env,
			RestartPolicy: restartPolicyFromDoc(ed.RestartPolicy),
		})
	}

	packages := map[string]Package{}
	for id, pd := range d.Packages {
		packages[id] = Package{ID: id, OCIRef: pd.OCIRef, ArchiveType: pd.ArchiveType}
	}

	return &OnHostRuntime{
		Executables: executables,
		Filesystem:  d.Filesystem,
		Health:      healthCheckFromDoc(d.Health),
		Version:     healthCheckFromDoc(d.Version),
		Packages:    packages,
	}, nil
}
