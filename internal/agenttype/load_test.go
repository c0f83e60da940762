package agenttype

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

func TestLoadDirRegistersEveryAgentType(t *testing.T) {
	fsys := fstest.MapFS{
		"nrdot.yaml": &fstest.MapFile{Data: []byte(`
namespace: newrelic
name: nrdot
version: 0.1.0
deployment:
  on_host:
    executables:
      - id: main
        path: /usr/bin/nrdot
`)},
		"nested/otel.yaml": &fstest.MapFile{Data: []byte(`
namespace: newrelic
name: otel
version: 0.2.0
deployment:
  on_host:
    executables:
      - id: main
        path: /usr/bin/otel
`)},
		"README.md": &fstest.MapFile{Data: []byte("not an agent type")},
	}

	registry, err := LoadDir(fsys, EnvOnHost)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if registry.Len() != 2 {
		t.Fatalf("expected 2 registered agent types, got %d", registry.Len())
	}

	fqn, err := agentid.ParseFQN("newrelic/nrdot:0.1.0")
	if err != nil {
		t.Fatalf("parsing fqn: %v", err)
	}
	if _, err := registry.Get(fqn); err != nil {
		t.Fatalf("expected newrelic/nrdot:0.1.0 to be registered: %v", err)
	}
}

func TestLoadDirWrapsParseErrorsWithPath(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.yaml": &fstest.MapFile{Data: []byte(`namespace: ""`)},
	}
	_, err := LoadDir(fsys, EnvOnHost)
	if err == nil {
		t.Fatal("expected an error for an invalid agent type document")
	}
	if !strings.Contains(err.Error(), "broken.yaml") {
		t.Fatalf("expected the error to name the offending path, got %v", err)
	}
}
