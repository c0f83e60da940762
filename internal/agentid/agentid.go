// Package agentid implements the identifier grammars used throughout the
// agent-control core: the AgentID of a running sub-agent, the reserved
// "agent-control" id of the top-level controller, and the AgentTypeFQN triple
// that keys the agent-type registry.
package agentid

import (
	"fmt"
	"regexp"
	"strings"
)

// ControllerID is the reserved AgentID designating the top-level controller.
const ControllerID = "agent-control"

const maxLength = 32

// idPattern matches: starts with a lowercase letter, ends with a lowercase
// letter or digit, and contains only lowercase letters, digits and hyphens
// in between. Single-character ids are allowed.
var idPattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ID is a validated AgentID (spec.md §3).
type ID string

// Parse validates s against the AgentID grammar and returns it as an ID.
func Parse(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("agent id must not be empty")
	}
	if len(s) > maxLength {
		return "", fmt.Errorf("agent id %q exceeds %d characters", s, maxLength)
	}
	if !isASCII(s) {
		return "", fmt.Errorf("agent id %q must be ASCII", s)
	}
	if !idPattern.MatchString(s) {
		return "", fmt.Errorf("agent id %q must start with a lowercase letter, end with a lowercase letter or digit, and contain only [a-z0-9-]", s)
	}
	return ID(s), nil
}

// MustParse panics on an invalid id; only meant for literals in tests and
// static registrations.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsController reports whether id is the reserved controller identifier.
func (id ID) IsController() bool {
	return string(id) == ControllerID
}

func (id ID) String() string { return string(id) }

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// FQN is the namespace/name:version triple identifying an AgentType.
type FQN struct {
	Namespace string
	Name      string
	Version   string
}

// ParseFQN parses "namespace/name:version" into its three non-empty parts.
func ParseFQN(s string) (FQN, error) {
	nsRest := strings.SplitN(s, "/", 2)
	if len(nsRest) != 2 {
		return FQN{}, fmt.Errorf("agent type fqn %q must have the form namespace/name:version", s)
	}
	namespace := nsRest[0]
	nameVersion := strings.SplitN(nsRest[1], ":", 2)
	if len(nameVersion) != 2 {
		return FQN{}, fmt.Errorf("agent type fqn %q must have the form namespace/name:version", s)
	}
	name, version := nameVersion[0], nameVersion[1]
	if namespace == "" || name == "" || version == "" {
		return FQN{}, fmt.Errorf("agent type fqn %q: namespace, name and version must all be non-empty", s)
	}
	return FQN{Namespace: namespace, Name: name, Version: version}, nil
}

// String renders the FQN back to its canonical "namespace/name:version" form,
// also used as the registry key.
func (f FQN) String() string {
	return f.Namespace + "/" + f.Name + ":" + f.Version
}

// MarshalText implements encoding.TextMarshaler so FQN round-trips through
// YAML/JSON as the canonical string form.
func (f FQN) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FQN) UnmarshalText(text []byte) error {
	parsed, err := ParseFQN(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
