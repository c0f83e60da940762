package k8shealth

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Image returns the first container image found in a workload's pod
// template spec, used by the version checker to report a release's
// deployed version (spec.md §4.8 "Version checker: reads container images
// of those same resources and emits a version string").
func Image(obj *unstructured.Unstructured) (string, bool) {
	containers, found, err := unstructured.NestedSlice(obj.Object, "spec", "template", "spec", "containers")
	if err != nil || !found || len(containers) == 0 {
		return "", false
	}
	c, ok := containers[0].(map[string]interface{})
	if !ok {
		return "", false
	}
	image, ok := c["image"].(string)
	if !ok || image == "" {
		return "", false
	}
	return image, true
}
