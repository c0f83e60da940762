package agenttype

import (
	"fmt"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

// Registry is an in-memory mapping AgentTypeFQN -> parsed AgentType
// (spec.md §4.3). LoadDir populates one from a bundle of agent-type files
// via Register; Registry itself only provides the lookup contract.
type Registry struct {
	types map[string]*AgentType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]*AgentType{}}
}

// Register adds a parsed AgentType, keyed by its FQN. Re-registering the
// same FQN overwrites the previous entry; the registry is expected to be
// populated once at startup and treated as immutable thereafter.
func (r *Registry) Register(at *AgentType) {
	r.types[at.FQN.String()] = at
}

// Get returns the AgentType for fqn, or an error if it is not registered.
func (r *Registry) Get(fqn agentid.FQN) (*AgentType, error) {
	at, ok := r.types[fqn.String()]
	if !ok {
		return nil, fmt.Errorf("agent type %s not found in registry", fqn)
	}
	return at, nil
}

// Iter calls f for every registered AgentType. Iteration order is
// unspecified.
func (r *Registry) Iter(f func(*AgentType)) {
	for _, at := range r.types {
		f(at)
	}
}

// Len reports how many agent types are registered.
func (r *Registry) Len() int {
	return len(r.types)
}
