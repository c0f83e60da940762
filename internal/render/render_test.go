package render

import (
	"testing"
	"time"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
)

const onHostDoc = `
namespace: ns
name: test
version: "0.1.0"
variables:
  on_host:
    backoff.delay:
      type: string
      required: true
    greeting:
      type: string
      required: false
      default: hi
deployment:
  on_host:
    executables:
      - id: main
        path: /bin/agent
        args: ["--greet", "${var:greeting}"]
        restart_policy:
          type: exponential
          backoff_delay: "${var:backoff.delay}"
          max_retries: 3
          last_retry_interval: 1m
    packages:
      infra:
        oci_reference: "ghcr.io/newrelic/infra:1.0.0"
`

func TestRenderOnHost(t *testing.T) {
	at, err := agenttype.Parse([]byte(onHostDoc), agenttype.EnvOnHost)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	// inject a reference to the package dir into the rendered path to
	// exercise sub:packages.<id>.dir
	at.Runtime.OnHost.Executables[0].Path = "${sub:packages.infra.dir}agent"

	values := map[string]interface{}{
		"backoff": map[string]interface{}{"delay": "1s"},
	}

	ctx := Context{HostID: "host1", FleetID: "fleet1", Environ: map[string]string{}}
	out, err := OnHost(at, values, "/var/lib/remote", agentid.MustParse("nr-infra"), ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Executables) != 1 {
		t.Fatalf("expected 1 executable, got %d", len(out.Executables))
	}
	ex := out.Executables[0]
	if ex.Args[1] != "hi" {
		t.Fatalf("expected default greeting 'hi', got %q", ex.Args[1])
	}
	if ex.RestartPolicy.BackoffDelay != time.Second {
		t.Fatalf("expected 1s backoff, got %v", ex.RestartPolicy.BackoffDelay)
	}
	if ex.RestartPolicy.LastRetryInterval != time.Minute {
		t.Fatalf("expected 1m last retry interval, got %v", ex.RestartPolicy.LastRetryInterval)
	}
	wantPrefix := "/var/lib/remote/packages/nr-infra/stored_packages/infra/oci_"
	if len(ex.Path) <= len(wantPrefix) || ex.Path[:len(wantPrefix)] != wantPrefix {
		t.Fatalf("expected package dir prefix %q, got %q", wantPrefix, ex.Path)
	}
}

func TestRenderOnHostMissingRequired(t *testing.T) {
	at, err := agenttype.Parse([]byte(onHostDoc), agenttype.EnvOnHost)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ctx := Context{Environ: map[string]string{}}
	_, err = OnHost(at, map[string]interface{}{}, "/var/lib/remote", agentid.MustParse("nr-infra"), ctx)
	if err == nil {
		t.Fatal("expected ValuesNotPopulatedError")
	}
}

func TestExpandNREnvLeavesOtherNamespaces(t *testing.T) {
	ctx := Context{Environ: map[string]string{"MY_ENV_VAR": "my-value"}}
	values := map[string]interface{}{
		"fake_variable": "${nr-env:MY_ENV_VAR}",
		"other":         "${var:not-touched}",
	}
	expanded, err := ctx.ExpandNREnv(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := expanded.(map[string]interface{})
	if m["fake_variable"] != "my-value" {
		t.Fatalf("expected nr-env expansion, got %v", m["fake_variable"])
	}
	if m["other"] != "${var:not-touched}" {
		t.Fatalf("expected var namespace untouched, got %v", m["other"])
	}
}
