package reflector

import (
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func newUnstructured(kind string, spec map[string]interface{}, labels map[string]string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       kind,
		"metadata":   map[string]interface{}{"name": "demo"},
	}}
	if labels != nil {
		ll := make(map[string]interface{}, len(labels))
		for k, v := range labels {
			ll[k] = v
		}
		_ = unstructured.SetNestedMap(u.Object, ll, "metadata", "labels")
	}
	if spec != nil {
		_ = unstructured.SetNestedMap(u.Object, spec, "spec")
	}
	return u
}

func TestApplyIfChangedNeededNilCurrent(t *testing.T) {
	desired := newUnstructured("ConfigMap", map[string]interface{}{"a": "b"}, nil)
	if !ApplyIfChangedNeeded(nil, desired) {
		t.Fatal("expected apply needed when current is nil")
	}
}

func TestApplyIfChangedNeededIdenticalSpec(t *testing.T) {
	current := newUnstructured("ConfigMap", map[string]interface{}{"a": "b"}, map[string]string{"x": "y"})
	desired := newUnstructured("ConfigMap", map[string]interface{}{"a": "b"}, map[string]string{"x": "y"})
	if ApplyIfChangedNeeded(current, desired) {
		t.Fatal("expected no apply needed for identical objects")
	}
}

func TestApplyIfChangedNeededDifferentSpec(t *testing.T) {
	current := newUnstructured("ConfigMap", map[string]interface{}{"a": "b"}, nil)
	desired := newUnstructured("ConfigMap", map[string]interface{}{"a": "c"}, nil)
	if !ApplyIfChangedNeeded(current, desired) {
		t.Fatal("expected apply needed for different spec")
	}
}

func TestApplyIfChangedNeededDifferentLabels(t *testing.T) {
	current := newUnstructured("ConfigMap", map[string]interface{}{"a": "b"}, map[string]string{"x": "y"})
	desired := newUnstructured("ConfigMap", map[string]interface{}{"a": "b"}, map[string]string{"x": "z"})
	if !ApplyIfChangedNeeded(current, desired) {
		t.Fatal("expected apply needed for different labels")
	}
}

func TestApplyIfChangedSecretStringDataComparison(t *testing.T) {
	current := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata":   map[string]interface{}{"name": "demo"},
		"data":       map[string]interface{}{"password": "c2VjcmV0"}, // base64("secret")
	}}
	desired := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata":   map[string]interface{}{"name": "demo"},
		"data":       map[string]interface{}{"password": "c2VjcmV0"},
	}}
	if ApplyIfChangedNeeded(current, desired) {
		t.Fatal("expected identical secret data to need no apply")
	}
}
