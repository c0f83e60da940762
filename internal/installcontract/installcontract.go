// Package installcontract defines the pure value types behind the install
// CLI's flag contract (spec.md §6 names it only as a contract; the full
// flag set, labels and timeout grammar come from
// `_examples/original_source/agent-control/src/cli/install.rs`). The
// installer binary itself stays out of this core's scope; this package
// exists so the duration/label grammar it shares with the core is tested
// in one place.
package installcontract

import (
	"fmt"
	"strings"
	"time"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/durationx"
)

// Defaults mirror install.rs's INSTALLATION_CHECK_DEFAULT_* constants.
const (
	DefaultInstallationCheckTimeout        = 5 * time.Minute
	DefaultInstallationCheckInitialDelay   = 10 * time.Second
	DefaultInstallationCheckRetryInterval  = 3 * time.Second
	DefaultRepositoryURL                   = "https://helm-charts.newrelic.com"
)

// InstallOptions is the flag set of the out-of-scope install CLI
// (install.rs's InstallData), kept here as plain data so the duration and
// label/secret grammars are exercised by this core's tests.
type InstallOptions struct {
	ChartName    string
	ChartVersion string
	ReleaseName  string

	Secrets     []SecretRef
	ExtraLabels map[string]string

	SkipInstallationCheck         bool
	InstallationCheckTimeout      time.Duration
	InstallationCheckInitialDelay time.Duration
	RepositoryURL                 string
	RepositorySecretRefName       string
	RepositoryCertSecretRefName   string
}

// SecretRef is one "secret_name=values_key" pair from the --secrets flag.
// Duplicate names are allowed (install.rs's `secrets_to_json`, "duplicate
// names are allowed").
type SecretRef struct {
	Name      string
	ValuesKey string
}

// ParseSecrets parses the "--secrets" flag's
// "name1=key1,name2=key2" format.
func ParseSecrets(flag string) ([]SecretRef, error) {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		return nil, nil
	}
	var out []SecretRef
	for _, pair := range strings.Split(flag, ",") {
		name, key, ok := strings.Cut(pair, "=")
		if !ok || name == "" || key == "" {
			return nil, fmt.Errorf("installcontract: invalid secret pair %q, want name=values_key", pair)
		}
		out = append(out, SecretRef{Name: name, ValuesKey: key})
	}
	return out, nil
}

// ParseLabels parses the "--extra-labels" flag's "k1=v1,k2=v2" format.
// Unlike secrets, duplicate names are NOT allowed (install.rs: "Multiple
// labels with the same name are NOT allowed").
func ParseLabels(flag string) (map[string]string, error) {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		return nil, nil
	}
	out := map[string]string{}
	for _, pair := range strings.Split(flag, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("installcontract: invalid label pair %q, want key=value", pair)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("installcontract: duplicate label name %q", name)
		}
		out[name] = value
	}
	return out, nil
}

// ParseCheckTimeout parses an installation-check duration flag using the
// extended duration grammar (spec.md §6, `durationx.Parse`).
func ParseCheckTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return DefaultInstallationCheckTimeout, nil
	}
	return durationx.Parse(flag)
}

// ParseCheckInitialDelay parses the installation-check initial-delay flag.
func ParseCheckInitialDelay(flag string) (time.Duration, error) {
	if flag == "" {
		return DefaultInstallationCheckInitialDelay, nil
	}
	return durationx.Parse(flag)
}

// MaxRetries derives the retry budget from a timeout the way
// check_installation does: timeout / retry interval, floor division.
func MaxRetries(timeout time.Duration) int64 {
	return int64(timeout / DefaultInstallationCheckRetryInterval)
}
