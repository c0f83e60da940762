package reflector

import (
	"encoding/base64"
	"reflect"

	jsonpatch "github.com/evanphx/json-patch"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// serverManagedFields are stripped from both sides before comparison, since
// the API server populates them independently of what was last applied
// (spec.md §4.9 "modulo server-managed fields such as resourceVersion,
// managedFields, creationTimestamp").
var serverManagedFields = []string{"resourceVersion", "managedFields", "creationTimestamp", "uid", "generation", "selfLink"}

// ApplyIfChangedNeeded reports whether desired differs from current enough
// to warrant a fresh apply (spec.md §4.9 "apply_if_changed(obj)"). A nil
// current always needs an apply.
func ApplyIfChangedNeeded(current, desired *unstructured.Unstructured) bool {
	if current == nil {
		return true
	}

	left := stripManaged(current.DeepCopy())
	right := stripManaged(desired.DeepCopy())

	if kind, _, _ := unstructured.NestedString(right.Object, "kind"); kind == "Secret" {
		normalizeSecretData(left)
		normalizeSecretData(right)
	}

	if labelsOrAnnotationsDiffer(left, right) {
		return true
	}

	// Compare everything but apiVersion/kind/metadata (name/namespace
	// already matched by the caller fetching by name; labels/annotations
	// were just compared above): this covers "spec" for typical workload
	// kinds and "data"/"stringData" for ConfigMaps and Secrets alike,
	// rather than hard-coding "spec" (spec.md §4.9 "compare obj against
	// cache ... spec equivalence").
	delete(left.Object, "apiVersion")
	delete(left.Object, "kind")
	delete(left.Object, "metadata")
	delete(right.Object, "apiVersion")
	delete(right.Object, "kind")
	delete(right.Object, "metadata")

	return !specEquivalent(left.Object, right.Object)
}

func stripManaged(u *unstructured.Unstructured) *unstructured.Unstructured {
	meta, ok, _ := unstructured.NestedMap(u.Object, "metadata")
	if ok {
		for _, f := range serverManagedFields {
			delete(meta, f)
		}
		_ = unstructured.SetNestedMap(u.Object, meta, "metadata")
	}
	delete(u.Object, "status")
	return u
}

func labelsOrAnnotationsDiffer(left, right *unstructured.Unstructured) bool {
	ll, _, _ := unstructured.NestedStringMap(left.Object, "metadata", "labels")
	rl, _, _ := unstructured.NestedStringMap(right.Object, "metadata", "labels")
	if !reflect.DeepEqual(ll, rl) {
		return true
	}
	la, _, _ := unstructured.NestedStringMap(left.Object, "metadata", "annotations")
	ra, _, _ := unstructured.NestedStringMap(right.Object, "metadata", "annotations")
	return !reflect.DeepEqual(la, ra)
}

// specEquivalent marshals both sides to JSON and compares them with
// json-patch's Equal (spec.md §4.9) rather than reflect.DeepEqual on the
// Go values, so type-equivalent-but-differently-typed numeric
// encodings don't cause spurious diffs.
func specEquivalent(left, right map[string]interface{}) bool {
	leftJSON, err := toJSON(left)
	if err != nil {
		return reflect.DeepEqual(left, right)
	}
	rightJSON, err := toJSON(right)
	if err != nil {
		return reflect.DeepEqual(left, right)
	}
	return jsonpatch.Equal(leftJSON, rightJSON)
}

func toJSON(m map[string]interface{}) ([]byte, error) {
	u := &unstructured.Unstructured{Object: map[string]interface{}{"v": m}}
	return u.MarshalJSON()
}

// normalizeSecretData decodes a Secret's base64 "data" field into
// "stringData" for comparison purposes (spec.md §4.9 "for Secret the
// encoded data is compared by decoded stringData").
func normalizeSecretData(u *unstructured.Unstructured) {
	data, ok, _ := unstructured.NestedStringMap(u.Object, "data")
	if !ok {
		return
	}
	decoded := map[string]interface{}{}
	for k, v := range data {
		raw, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			decoded[k] = v
			continue
		}
		decoded[k] = string(raw)
	}
	delete(u.Object, "data")
	_ = unstructured.SetNestedMap(u.Object, decoded, "stringData")
}
