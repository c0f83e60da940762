package agenttype

import (
	"fmt"
	"io/fs"
	"strings"
)

// LoadDir walks fsys for *.yaml/*.yml agent-type definitions and parses
// each for env, registering the result into a fresh Registry (spec.md §4.3
// "embedded registry"). One file may declare at most one agent type;
// parse errors are wrapped with the offending path and abort the load.
func LoadDir(fsys fs.FS, env Environment) (*Registry, error) {
	registry := NewRegistry()
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading agent type %s: %w", path, err)
		}
		at, err := Parse(raw, env)
		if err != nil {
			return fmt.Errorf("parsing agent type %s: %w", path, err)
		}
		registry.Register(at)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registry, nil
}
