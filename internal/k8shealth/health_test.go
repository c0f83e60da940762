package k8shealth

import (
	"errors"
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func newObj(kind string, spec, statusFields map[string]interface{}) *unstructured.Unstructured {
	u := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       kind,
		"metadata":   map[string]interface{}{"name": "demo"},
	}}
	if spec != nil {
		_ = unstructured.SetNestedMap(u.Object, spec, "spec")
	}
	if statusFields != nil {
		_ = unstructured.SetNestedMap(u.Object, statusFields, "status")
	}
	return u
}

func TestCheckDeploymentHealthy(t *testing.T) {
	obj := newObj("Deployment",
		map[string]interface{}{"replicas": int64(3)},
		map[string]interface{}{"updatedReplicas": int64(3), "availableReplicas": int64(3)},
	)
	res, err := Check(obj)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Healthy {
		t.Fatalf("expected healthy, got %+v", res)
	}
}

func TestCheckDeploymentUnhealthyUpdated(t *testing.T) {
	obj := newObj("Deployment",
		map[string]interface{}{"replicas": int64(3)},
		map[string]interface{}{"updatedReplicas": int64(2), "availableReplicas": int64(3)},
	)
	res, err := Check(obj)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Healthy {
		t.Fatal("expected unhealthy due to updatedReplicas mismatch")
	}
}

func TestCheckDeploymentMissingField(t *testing.T) {
	obj := newObj("Deployment", map[string]interface{}{"replicas": int64(3)}, map[string]interface{}{})
	_, err := Check(obj)
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %T: %v", err, err)
	}
}

func TestCheckDeploymentHealthyWhenMaxUnavailableAbsentDespiteLowAvailability(t *testing.T) {
	// No spec.strategy.rollingUpdate at all: per the original this package is
	// grounded on, a deployment/daemonset with no maxUnavailable configured
	// "does not expect to have healthy pods" and short-circuits to healthy,
	// rather than falling back to Kubernetes's implicit default of 1 and
	// still failing the availability threshold check below.
	obj := newObj("Deployment",
		map[string]interface{}{"replicas": int64(3)},
		map[string]interface{}{"updatedReplicas": int64(3), "availableReplicas": int64(0)},
	)
	res, err := Check(obj)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Healthy {
		t.Fatalf("expected healthy when maxUnavailable is absent, got %+v", res)
	}
}

func TestCheckDaemonSetOnDeleteAlwaysHealthy(t *testing.T) {
	obj := newObj("DaemonSet",
		map[string]interface{}{"updateStrategy": map[string]interface{}{"type": "OnDelete"}},
		map[string]interface{}{},
	)
	res, err := Check(obj)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Healthy {
		t.Fatal("expected OnDelete daemonset to always be healthy")
	}
}

func TestCheckDaemonSetRollingUpdate(t *testing.T) {
	obj := newObj("DaemonSet",
		map[string]interface{}{"updateStrategy": map[string]interface{}{"type": "RollingUpdate"}},
		map[string]interface{}{
			"desiredNumberScheduled": int64(5),
			"updatedNumberScheduled": int64(5),
			"numberReady":            int64(5),
		},
	)
	res, err := Check(obj)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Healthy {
		t.Fatalf("expected healthy, got %+v", res)
	}
}

func TestCheckStatefulSet(t *testing.T) {
	obj := newObj("StatefulSet",
		map[string]interface{}{"replicas": int64(2)},
		map[string]interface{}{"readyReplicas": int64(1)},
	)
	res, err := Check(obj)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Healthy {
		t.Fatal("expected unhealthy: readyReplicas below replicas")
	}
}

func TestAggregateMessageAllHealthy(t *testing.T) {
	healthy, msg := AggregateMessage(map[string]Result{"a": {Healthy: true}, "b": {Healthy: true}})
	if !healthy || msg != "" {
		t.Fatalf("expected healthy with no message, got %v %q", healthy, msg)
	}
}

func TestAggregateMessageOneUnhealthy(t *testing.T) {
	healthy, msg := AggregateMessage(map[string]Result{"a": {Healthy: true}, "b": {Healthy: false, Message: "boom"}})
	if healthy || msg != "boom" {
		t.Fatalf("expected unhealthy boom, got %v %q", healthy, msg)
	}
}
