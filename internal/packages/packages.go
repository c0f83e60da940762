// Package packages computes the on-disk install directory for agent-type
// declared packages and sanitizes OCI references into filesystem-safe path
// segments using github.com/google/go-containerregistry's reference parser.
package packages

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// SanitizeRef normalizes an OCI reference into a filesystem-safe token:
// parse it (validating it's a well-formed reference) and replace every
// character outside [a-zA-Z0-9_.-] with an underscore.
func SanitizeRef(ref string) (string, error) {
	parsed, err := name.ParseReference(ref, name.WeakValidation)
	if err != nil {
		return "", fmt.Errorf("parsing oci reference %q: %w", ref, err)
	}
	return unsafeChars.ReplaceAllString(parsed.String(), "_"), nil
}

// InstallDir computes the deterministic install directory for one package
// (spec.md §4.2): "<remote>/packages/<agent-id>/stored_packages/<pkg-id>/oci_<sanitized-ref>/".
func InstallDir(remoteDir string, agentID agentid.ID, pkg agenttype.Package) (string, error) {
	sanitized, err := SanitizeRef(pkg.OCIRef)
	if err != nil {
		return "", err
	}
	return filepath.Join(remoteDir, "packages", agentID.String(), "stored_packages", pkg.ID, "oci_"+sanitized) + string(filepath.Separator), nil
}

// InjectDirVariables computes sub:packages.<id>.dir for every declared
// package and merges the results into schema as new (already-resolved,
// non-required) variable entries, so the template engine can resolve
// ${sub:packages.<id>.dir} placeholders in the runtime config (spec.md
// §4.2: "inject a reserved variable ... into the variable table before
// templating the runtime config"). Referencing an unknown id is not this
// function's concern -- it surfaces as a normal MissingTemplateKey from the
// template engine when the runtime config references an id not present
// here.
func InjectDirVariables(schema map[string]agenttype.VariableDefinition, remoteDir string, agentID agentid.ID, pkgs map[string]agenttype.Package) (map[string]agenttype.VariableDefinition, error) {
	out := make(map[string]agenttype.VariableDefinition, len(schema)+len(pkgs))
	for k, v := range schema {
		out[k] = v
	}
	for id, pkg := range pkgs {
		dir, err := InstallDir(remoteDir, agentID, pkg)
		if err != nil {
			return nil, fmt.Errorf("package %q: %w", id, err)
		}
		val := agenttype.NewString(dir)
		name := fmt.Sprintf("packages.%s.dir", id)
		out[name] = agenttype.VariableDefinition{
			Kind:  agenttype.KindString,
			Value: &val,
		}
	}
	return out, nil
}
