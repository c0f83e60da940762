package render

import (
	"fmt"
	"time"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/durationx"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/packages"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/template"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/variables"
)

func templateStr(s string, lookup template.Lookup) (string, error) {
	if s == "" {
		return "", nil
	}
	return template.String(s, lookup)
}

func templateStrs(ss []string, lookup template.Lookup) ([]string, error) {
	if ss == nil {
		return nil, nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		v, err := templateStr(s, lookup)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func templateStrMap(m map[string]string, lookup template.Lookup) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		rendered, err := templateStr(v, lookup)
		if err != nil {
			return nil, err
		}
		out[k] = rendered
	}
	return out, nil
}

func templateYAMLMap(m map[string]interface{}, lookup template.Lookup) (map[string]interface{}, error) {
	if m == nil {
		return nil, nil
	}
	rendered, err := template.YAML(m, lookup)
	if err != nil {
		return nil, err
	}
	return rendered.(map[string]interface{}), nil
}

func templateHealthCheck(hc *agenttype.HealthCheck, lookup template.Lookup) (*RenderedHealthCheck, error) {
	if hc == nil {
		return nil, nil
	}
	path, err := templateStr(hc.Path, lookup)
	if err != nil {
		return nil, err
	}
	args, err := templateStrs(hc.Args, lookup)
	if err != nil {
		return nil, err
	}
	url, err := templateStr(hc.URL, lookup)
	if err != nil {
		return nil, err
	}
	filePath, err := templateStr(hc.FilePath, lookup)
	if err != nil {
		return nil, err
	}
	interval, err := templateDurationValue(hc.Interval, lookup)
	if err != nil {
		return nil, err
	}
	initialDelay, err := templateDurationValue(hc.InitialDelay, lookup)
	if err != nil {
		return nil, err
	}
	return &RenderedHealthCheck{
		Kind:         hc.Kind,
		Path:         path,
		Args:         args,
		URL:          url,
		FilePath:     filePath,
		Interval:     interval,
		InitialDelay: initialDelay,
	}, nil
}

func templateDurationValue(s string, lookup template.Lookup) (time.Duration, error) {
	rendered, err := templateStr(s, lookup)
	if err != nil {
		return 0, err
	}
	if rendered == "" {
		return 0, nil
	}
	return durationx.Parse(rendered)
}

// OnHost renders an AgentType's on_host runtime config into a final
// descriptor (spec.md §4.6 "Assemble"): nr-env values expansion, variable
// resolution, package dir injection, then templating of every string/YAML
// leaf in the runtime config tree.
func OnHost(at *agenttype.AgentType, values map[string]interface{}, remoteDir string, agentID agentid.ID, ctx Context) (*RenderedOnHost, error) {
	if at.Runtime.OnHost == nil {
		return nil, fmt.Errorf("agent type %s has no on_host runtime config", at.FQN)
	}

	expanded, err := ctx.ExpandNREnv(values)
	if err != nil {
		return nil, fmt.Errorf("expanding nr-env placeholders in values: %w", err)
	}
	expandedMap, err := variables.AsMap(expanded)
	if err != nil {
		return nil, err
	}

	resolvedVars, err := variables.Resolve(at.Variables, expandedMap)
	if err != nil {
		return nil, err
	}

	subVars, err := packages.InjectDirVariables(nil, remoteDir, agentID, at.Runtime.OnHost.Packages)
	if err != nil {
		return nil, err
	}

	lookup := ctx.Lookup(resolvedVars, subVars)

	runtime := at.Runtime.OnHost
	executables := make([]RenderedExecutable, 0, len(runtime.Executables))
	for _, ex := range runtime.Executables {
		path, err := templateStr(ex.Path, lookup)
		if err != nil {
			return nil, fmt.Errorf("executable %q path: %w", ex.ID, err)
		}
		args, err := templateStrs(ex.Args, lookup)
		if err != nil {
			return nil, fmt.Errorf("executable %q args: %w", ex.ID, err)
		}
		env, err := templateStrMap(ex.Env, lookup)
		if err != nil {
			return nil, fmt.Errorf("executable %q env: %w", ex.ID, err)
		}
		backoff, err := templateDurationValue(ex.RestartPolicy.BackoffDelay, lookup)
		if err != nil {
			return nil, fmt.Errorf("executable %q restart_policy.backoff_delay: %w", ex.ID, err)
		}
		lastRetry, err := templateDurationValue(ex.RestartPolicy.LastRetryInterval, lookup)
		if err != nil {
			return nil, fmt.Errorf("executable %q restart_policy.last_retry_interval: %w", ex.ID, err)
		}
		executables = append(executables, RenderedExecutable{
			ID:   ex.ID,
			Path: path,
			Args: args,
			Env:  env,
			RestartPolicy: RenderedRestartPolicy{
				Type:              ex.RestartPolicy.Type,
				BackoffDelay:      backoff,
				MaxRetries:        ex.RestartPolicy.MaxRetries,
				LastRetryInterval: lastRetry,
			},
		})
	}

	filesystem, err := templateYAMLMap(runtime.Filesystem, lookup)
	if err != nil {
		return nil, fmt.Errorf("filesystem: %w", err)
	}
	health, err := templateHealthCheck(runtime.Health, lookup)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	version, err := templateHealthCheck(runtime.Version, lookup)
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}

	return &RenderedOnHost{
		Executables: executables,
		Filesystem:  filesystem,
		Health:      health,
		Version:     version,
	}, nil
}

// K8s renders an AgentType's k8s runtime config into a final descriptor.
func K8s(at *agenttype.AgentType, values map[string]interface{}, ctx Context) (*RenderedK8s, error) {
	if at.Runtime.K8s == nil {
		return nil, fmt.Errorf("agent type %s has no k8s runtime config", at.FQN)
	}

	expanded, err := ctx.ExpandNREnv(values)
	if err != nil {
		return nil, fmt.Errorf("expanding nr-env placeholders in values: %w", err)
	}
	expandedMap, err := variables.AsMap(expanded)
	if err != nil {
		return nil, err
	}

	resolvedVars, err := variables.Resolve(at.Variables, expandedMap)
	if err != nil {
		return nil, err
	}

	lookup := ctx.Lookup(resolvedVars, nil)

	objects := make(map[string]RenderedK8sObject, len(at.Runtime.K8s.Objects))
	for id, obj := range at.Runtime.K8s.Objects {
		apiVersion, err := templateStr(obj.APIVersion, lookup)
		if err != nil {
			return nil, fmt.Errorf("object %q apiVersion: %w", id, err)
		}
		kind, err := templateStr(obj.Kind, lookup)
		if err != nil {
			return nil, fmt.Errorf("object %q kind: %w", id, err)
		}
		metadata, err := templateYAMLMap(obj.Metadata, lookup)
		if err != nil {
			return nil, fmt.Errorf("object %q metadata: %w", id, err)
		}
		fields, err := templateYAMLMap(obj.Fields, lookup)
		if err != nil {
			return nil, fmt.Errorf("object %q fields: %w", id, err)
		}
		objects[id] = RenderedK8sObject{
			ID:         id,
			APIVersion: apiVersion,
			Kind:       kind,
			Metadata:   metadata,
			Fields:     fields,
		}
	}

	health, err := templateYAMLMap(at.Runtime.K8s.Health, lookup)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}

	return &RenderedK8s{Objects: objects, Health: health}, nil
}
