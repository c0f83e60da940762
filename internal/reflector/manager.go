// Package reflector implements the cached list+watch dynamic-object
// managers described in spec.md §4.9: a DynamicObjectManagers registry
// keyed by (TypeMeta, namespace) that lazily constructs one Manager per
// key, each owning a client-go cache.Reflector feeding a thread-safe store.
package reflector

import (
	"context"
	"fmt"
	"sync"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/tools/cache"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/k8sclient"
)

// TypeMeta identifies a Kubernetes kind by apiVersion (group/version) and
// kind, the same granularity the controller config's CRTypeMeta declares
// (spec.md §6).
type TypeMeta struct {
	APIVersion string
	Kind       string
}

// Key is the (TypeMeta, namespace) pair a Manager is cached under.
type Key struct {
	TypeMeta  TypeMeta
	Namespace string
}

// ErrMissingAPIResource is returned by Manager.Apply when the API server
// answers NotFound, e.g. because the backing CRD has been removed at
// runtime. Get and List do not report it: they serve whatever the cache
// holds.
var ErrMissingAPIResource = fmt.Errorf("reflector: missing API resource")

// shortListTimeout bounds the initial list so a temporarily misbehaving
// API server doesn't head-of-line block manager construction (spec.md
// §4.9); watches thereafter use a long timeout.
const shortListTimeout = 5 * time.Second
const watchTimeout = 30 * time.Minute

// Manager owns a cached list+watch reflector for one GVR+namespace plus
// apply/get/delete operations against it (spec.md §4.9).
type Manager struct {
	clients   *k8sclient.Clients
	gvr       schema.GroupVersionResource
	namespace string

	store     cache.Store
	reflector *cache.Reflector

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
}

func newManager(clients *k8sclient.Clients, gvr schema.GroupVersionResource, namespace string) *Manager {
	store := cache.NewStore(cache.DeletionHandlingMetaNamespaceKeyFunc)
	lw := &cache.ListWatch{
		ListFunc: func(options metav1.ListOptions) (runtime.Object, error) {
			ctx, cancel := context.WithTimeout(context.Background(), shortListTimeout)
			defer cancel()
			return clients.Dynamic.Resource(gvr).Namespace(namespace).List(ctx, options)
		},
		WatchFunc: func(options metav1.ListOptions) (watch.Interface, error) {
			timeoutSeconds := int64(watchTimeout / time.Second)
			options.TimeoutSeconds = &timeoutSeconds
			return clients.Dynamic.Resource(gvr).Namespace(namespace).Watch(context.Background(), options)
		},
	}
	r := cache.NewReflector(lw, &unstructured.Unstructured{}, store, 0)
	return &Manager{clients: clients, gvr: gvr, namespace: namespace, store: store, reflector: r}
}

// ensureStarted lazily starts the reflector's background list+watch loop on
// first access (spec.md §4.9 "constructs managers lazily on first access").
func (m *Manager) ensureStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.stopCh = make(chan struct{})
	go m.reflector.Run(m.stopCh)
}

// Stop halts the background reflector loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		close(m.stopCh)
		m.started = false
	}
}

// List returns a snapshot of every cached object (spec.md §4.9 "list()").
func (m *Manager) List() []*unstructured.Unstructured {
	m.ensureStarted()
	items := m.store.List()
	out := make([]*unstructured.Unstructured, 0, len(items))
	for _, item := range items {
		if u, ok := item.(*unstructured.Unstructured); ok {
			out = append(out, u)
		}
	}
	return out
}

// Get returns the cached object named name, or nil if absent (spec.md §4.9
// "get(name) -> cached object or None").
func (m *Manager) Get(name string) *unstructured.Unstructured {
	m.ensureStarted()
	key := name
	if m.namespace != "" {
		key = m.namespace + "/" + name
	}
	obj, ok, err := m.store.GetByKey(key)
	if err != nil || !ok {
		return nil
	}
	u, ok := obj.(*unstructured.Unstructured)
	if !ok {
		return nil
	}
	return u
}

// Apply issues a server-side apply of obj (spec.md §4.9 "apply(obj)"); the
// cache updates asynchronously through the watch.
func (m *Manager) Apply(ctx context.Context, obj *unstructured.Unstructured) error {
	m.ensureStarted()
	fieldManager := "agent-control"
	data, err := obj.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = m.clients.Dynamic.Resource(m.gvr).Namespace(m.namespace).Patch(
		ctx, obj.GetName(), types.ApplyPatchType, data,
		metav1.PatchOptions{FieldManager: fieldManager, Force: boolPtr(true)},
	)
	if apierrors.IsNotFound(err) {
		return ErrMissingAPIResource
	}
	return err
}

// Delete removes name from namespace.
func (m *Manager) Delete(ctx context.Context, namespace, name string) error {
	err := m.clients.Dynamic.Resource(m.gvr).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

// DeleteCollection removes every object in namespace matching labelSelector.
func (m *Manager) DeleteCollection(ctx context.Context, namespace, labelSelector string) error {
	return m.clients.Dynamic.Resource(m.gvr).Namespace(namespace).DeleteCollection(
		ctx, metav1.DeleteOptions{}, metav1.ListOptions{LabelSelector: labelSelector},
	)
}

func boolPtr(b bool) *bool { return &b }
