package reflector

import (
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/k8sclient"
)

// GVRResolver turns a TypeMeta (group/version/kind) into the GroupVersion
// Resource the dynamic client needs, typically backed by the RESTMapper
// (spec.md §4.9).
type GVRResolver func(tm TypeMeta) (schema.GroupVersionResource, error)

// Managers is the DynamicObjectManagers registry (spec.md §4.9): it maps
// (TypeMeta, namespace) to a lazily-constructed Manager.
type Managers struct {
	clients  *k8sclient.Clients
	resolve  GVRResolver
	mu       sync.Mutex
	managers map[Key]*Manager
}

// NewManagers constructs an empty registry.
func NewManagers(clients *k8sclient.Clients, resolve GVRResolver) *Managers {
	return &Managers{clients: clients, resolve: resolve, managers: map[Key]*Manager{}}
}

// Get returns the Manager for key, constructing it on first access (spec.md
// §4.9 "constructs managers lazily on first access").
func (r *Managers) Get(key Key) (*Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[key]; ok {
		return m, nil
	}

	gvr, err := r.resolve(key.TypeMeta)
	if err != nil {
		return nil, fmt.Errorf("resolving %s/%s: %w", key.TypeMeta.APIVersion, key.TypeMeta.Kind, err)
	}
	m := newManager(r.clients, gvr, key.Namespace)
	r.managers[key] = m
	return m, nil
}

// StopAll stops every constructed manager's reflector loop.
func (r *Managers) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.managers {
		m.Stop()
	}
}
