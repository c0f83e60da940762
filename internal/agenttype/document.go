package agenttype

// document.go models the on-wire agent-type YAML schema (spec.md §6) as
// plain structs decoded via sigs.k8s.io/yaml, then Parse() below lowers that
// into the AgentType/VariableDefinition/RuntimeConfig shapes the rest of the
// engine works with.

type variableDoc struct {
	Type        string      `json:"type"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Description string      `json:"description,omitempty"`
	Path        string      `json:"path,omitempty"`
}

type variablesDoc struct {
	Common map[string]variableDoc `json:"common,omitempty"`
	OnHost map[string]variableDoc `json:"on_host,omitempty"`
	K8s    map[string]variableDoc `json:"k8s,omitempty"`
}

type restartPolicyDoc struct {
	Type              string `json:"type,omitempty"`
	BackoffDelay      string `json:"backoff_delay,omitempty"`
	MaxRetries        int    `json:"max_retries,omitempty"`
	LastRetryInterval string `json:"last_retry_interval,omitempty"`
}

type executableDoc struct {
	ID            string            `json:"id"`
	Path          string            `json:"path"`
	Args          []string          `json:"args,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	RestartPolicy restartPolicyDoc  `json:"restart_policy,omitempty"`
}

type healthCheckDoc struct {
	Exec *struct {
		Path string   `json:"path"`
		Args []string `json:"args,omitempty"`
	} `json:"exec,omitempty"`
	HTTP *struct {
		URL string `json:"url"`
	} `json:"http,omitempty"`
	File *struct {
		Path string `json:"path"`
	} `json:"file,omitempty"`
	Interval     string `json:"interval,omitempty"`
	InitialDelay string `json:"initial_delay,omitempty"`
}

type packageDoc struct {
	OCIRef      string `json:"oci_reference"`
	ArchiveType string `json:"archive_type,omitempty"`
}

type onHostDoc struct {
	Executables []executableDoc          `json:"executables,omitempty"`
	Filesystem  map[string]interface{}   `json:"filesystem,omitempty"`
	Health      *healthCheckDoc          `json:"health,omitempty"`
	Version     *healthCheckDoc          `json:"version,omitempty"`
	Packages    map[string]packageDoc    `json:"packages,omitempty"`
}

type k8sObjectDoc struct {
	APIVersion string                 `json:"apiVersion"`
	Kind       string                 `json:"kind"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Fields     map[string]interface{} `json:",inline"`
}

type deploymentDoc struct {
	OnHost *onHostDoc `json:"on_host,omitempty"`
	K8s    *struct {
		Objects map[string]k8sObjectDoc `json:"objects,omitempty"`
		Health  map[string]interface{}  `json:"health,omitempty"`
	} `json:"k8s,omitempty"`
}

// Document is the root of an agent-type YAML file (spec.md §6).
type Document struct {
	Namespace  string        `json:"namespace"`
	Name       string        `json:"name"`
	Version    string        `json:"version"`
	Variables  variablesDoc  `json:"variables,omitempty"`
	Deployment deploymentDoc `json:"deployment,omitempty"`
}
