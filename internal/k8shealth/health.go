// Package k8shealth implements the Kubernetes health-checker thread
// (spec.md §4.8): combining the health of Deployment/DaemonSet/StatefulSet
// resources belonging to a release, falling back to generic kstatus
// reasoning for any other kind.
package k8shealth

import (
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/cli-utils/pkg/kstatus/status"
)

// MissingFieldError reports a required status field the object did not
// carry yet (spec.md §4.8 "Missing required status fields =>
// MissingK8sObjectField").
type MissingFieldError struct {
	Object string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("object %s missing required status field %s", e.Object, e.Field)
}

// InvalidFieldError reports a status field that could not be parsed
// (spec.md §4.8 "unparseable values => InvalidK8sObject").
type InvalidFieldError struct {
	Object string
	Field  string
	Err    error
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("object %s field %s: %v", e.Object, e.Field, e.Err)
}

// Result is one object's health verdict.
type Result struct {
	Healthy bool
	Message string
}

// Check dispatches to the kind-specific rule (spec.md §4.8), falling back
// to kstatus's generic Compute for any kind other than the three this core
// understands explicitly.
func Check(obj *unstructured.Unstructured) (Result, error) {
	switch obj.GetKind() {
	case "Deployment":
		return checkDeployment(obj)
	case "DaemonSet":
		return checkDaemonSet(obj)
	case "StatefulSet":
		return checkStatefulSet(obj)
	default:
		return checkGeneric(obj)
	}
}

func checkGeneric(obj *unstructured.Unstructured) (Result, error) {
	res, err := status.Compute(obj)
	if err != nil {
		return Result{}, &InvalidFieldError{Object: obj.GetName(), Field: "status", Err: err}
	}
	healthy := res.Status == status.CurrentStatus
	return Result{Healthy: healthy, Message: res.Message}, nil
}

func checkDeployment(obj *unstructured.Unstructured) (Result, error) {
	name := obj.GetName()
	replicas, ok, err := unstructured.NestedInt64(obj.Object, "spec", "replicas")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "spec.replicas", Err: err}
	}
	if !ok {
		replicas = 1 // k8s defaults spec.replicas to 1 when unset
	}

	updated, ok, err := unstructured.NestedInt64(obj.Object, "status", "updatedReplicas")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "status.updatedReplicas", Err: err}
	}
	if !ok {
		return Result{}, &MissingFieldError{Object: name, Field: "status.updatedReplicas"}
	}

	available, ok, err := unstructured.NestedInt64(obj.Object, "status", "availableReplicas")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "status.availableReplicas", Err: err}
	}
	if !ok {
		available = 0
	}

	if updated != replicas {
		return Result{Healthy: false, Message: fmt.Sprintf("deployment %s: updatedReplicas %d != spec.replicas %d", name, updated, replicas)}, nil
	}

	maxUnavailable, hasMaxUnavailable, err := resolveMaxUnavailable(obj, "spec", "strategy", "rollingUpdate", "maxUnavailable")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "spec.strategy.rollingUpdate.maxUnavailable", Err: err}
	}
	if !hasMaxUnavailable {
		return Result{Healthy: true, Message: fmt.Sprintf("deployment %s: no maxUnavailable configured, not expecting available replicas", name)}, nil
	}
	threshold, err := intstr.GetScaledValueFromIntOrPercent(maxUnavailable, int(replicas), true)
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "maxUnavailable", Err: err}
	}

	if available < replicas-int64(threshold) {
		return Result{Healthy: false, Message: fmt.Sprintf("deployment %s: availableReplicas %d below threshold", name, available)}, nil
	}
	return Result{Healthy: true}, nil
}

func checkDaemonSet(obj *unstructured.Unstructured) (Result, error) {
	name := obj.GetName()
	strategyType, _, _ := unstructured.NestedString(obj.Object, "spec", "updateStrategy", "type")
	if strategyType == "OnDelete" {
		return Result{Healthy: true}, nil
	}

	desired, ok, err := unstructured.NestedInt64(obj.Object, "status", "desiredNumberScheduled")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "status.desiredNumberScheduled", Err: err}
	}
	if !ok {
		return Result{}, &MissingFieldError{Object: name, Field: "status.desiredNumberScheduled"}
	}
	updated, ok, err := unstructured.NestedInt64(obj.Object, "status", "updatedNumberScheduled")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "status.updatedNumberScheduled", Err: err}
	}
	if !ok {
		return Result{}, &MissingFieldError{Object: name, Field: "status.updatedNumberScheduled"}
	}
	ready, ok, err := unstructured.NestedInt64(obj.Object, "status", "numberReady")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "status.numberReady", Err: err}
	}
	if !ok {
		ready = 0
	}

	if updated != desired {
		return Result{Healthy: false, Message: fmt.Sprintf("daemonset %s: updatedNumberScheduled %d != desired %d", name, updated, desired)}, nil
	}

	maxUnavailable, hasMaxUnavailable, err := resolveMaxUnavailable(obj, "spec", "updateStrategy", "rollingUpdate", "maxUnavailable")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "maxUnavailable", Err: err}
	}
	if !hasMaxUnavailable {
		return Result{Healthy: true, Message: fmt.Sprintf("daemonset %s healthy: this daemon set does not expect to have healthy pods", name)}, nil
	}
	threshold, err := intstr.GetScaledValueFromIntOrPercent(maxUnavailable, int(desired), true)
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "maxUnavailable", Err: err}
	}

	if ready < desired-int64(threshold) {
		return Result{Healthy: false, Message: fmt.Sprintf("daemonset %s: numberReady %d below threshold", name, ready)}, nil
	}
	return Result{Healthy: true}, nil
}

func checkStatefulSet(obj *unstructured.Unstructured) (Result, error) {
	name := obj.GetName()
	replicas, ok, err := unstructured.NestedInt64(obj.Object, "spec", "replicas")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "spec.replicas", Err: err}
	}
	if !ok {
		replicas = 1
	}
	ready, ok, err := unstructured.NestedInt64(obj.Object, "status", "readyReplicas")
	if err != nil {
		return Result{}, &InvalidFieldError{Object: name, Field: "status.readyReplicas", Err: err}
	}
	if !ok {
		return Result{}, &MissingFieldError{Object: name, Field: "status.readyReplicas"}
	}
	if ready < replicas {
		return Result{Healthy: false, Message: fmt.Sprintf("statefulset %s: readyReplicas %d < spec.replicas %d", name, ready, replicas)}, nil
	}
	return Result{Healthy: true}, nil
}

// resolveMaxUnavailable reads an IntOrString maxUnavailable field. A genuinely
// absent field reports found=false: per the `rolling_update.max_unavailable`
// `None` branch of
// `_examples/original_source/super-agent/src/sub_agent/health/k8s/daemon_set.rs`,
// "this daemon set does not expect to have healthy pods" and the caller must
// short-circuit to healthy rather than fall back to Kubernetes's implicit
// default of 1 and still run the ready-count threshold check.
func resolveMaxUnavailable(obj *unstructured.Unstructured, path ...string) (value intstr.IntOrString, found bool, err error) {
	raw, found, err := unstructured.NestedFieldNoCopy(obj.Object, path...)
	if err != nil {
		return intstr.IntOrString{}, false, err
	}
	if !found || raw == nil {
		return intstr.IntOrString{}, false, nil
	}
	switch v := raw.(type) {
	case int64:
		return intstr.FromInt(int(v)), true, nil
	case string:
		if strings.HasSuffix(v, "%") {
			return intstr.FromString(v), true, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return intstr.IntOrString{}, false, err
		}
		return intstr.FromInt(n), true, nil
	default:
		return intstr.IntOrString{}, false, fmt.Errorf("unsupported maxUnavailable type %T", raw)
	}
}

// AggregateMessage shortcircuits to the first unhealthy result's message,
// naming the offending object (spec.md §4.8 "Any per-item unhealthy result
// shortcircuits aggregate to unhealthy with a message naming the offending
// object").
func AggregateMessage(results map[string]Result) (healthy bool, message string) {
	for _, r := range results {
		if !r.Healthy {
			return false, r.Message
		}
	}
	return true, ""
}
