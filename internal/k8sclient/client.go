// Package k8sclient builds the dynamic client, discovery client and
// RESTMapper the k8s supervisor and reflector packages share (spec.md §1
// "a Kubernetes client library ... assumed available"; §4.9).
package k8sclient

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
)

// Clients bundles the handles needed to read/write arbitrary typed and
// dynamic Kubernetes objects.
type Clients struct {
	Config     *rest.Config
	Dynamic    dynamic.Interface
	Discovery  discovery.DiscoveryInterface
	RESTMapper *restmapper.DeferredDiscoveryRESTMapper
}

// NewInCluster builds Clients from the in-cluster service account config
// (the default runtime for the k8s supervisor, spec.md §6 "K8s
// environment").
func NewInCluster() (*Clients, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, err
	}
	return newFromConfig(cfg)
}

// NewFromKubeconfig builds Clients from an on-disk kubeconfig, used when an
// explicit kubeconfig path is given (e.g. for local development).
func NewFromKubeconfig(path string) (*Clients, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, err
	}
	return newFromConfig(cfg)
}

func newFromConfig(cfg *rest.Config) (*Clients, error) {
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, err
	}
	disco, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, err
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(disco))
	return &Clients{Config: cfg, Dynamic: dyn, Discovery: disco, RESTMapper: mapper}, nil
}

// GVRFor resolves an apiVersion/kind pair to its GroupVersionResource via
// the RESTMapper (spec.md §4.9: the reflector's Manager registry resolves a
// TypeMeta to the resource it needs to list/watch).
func (c *Clients) GVRFor(apiVersion, kind string) (schema.GroupVersionResource, error) {
	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return schema.GroupVersionResource{}, err
	}
	mapping, err := c.RESTMapper.RESTMapping(schema.GroupKind{Group: gv.Group, Kind: kind}, gv.Version)
	if err != nil {
		return schema.GroupVersionResource{}, err
	}
	return mapping.Resource, nil
}
