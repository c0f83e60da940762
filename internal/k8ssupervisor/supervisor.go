// Package k8ssupervisor assembles the three cooperating per-sub-agent
// threads of the Kubernetes supervisor (spec.md §4.8): the objects
// reconciler, the health checker, and the version checker.
package k8ssupervisor

import (
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/eventbus"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/k8shealth"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/k8sreconcile"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/reflector"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/render"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/subagent"
)

// healthKinds are the resource kinds the health/version checkers inspect
// directly (spec.md §4.8 "kinds Deployment, DaemonSet, StatefulSet").
var healthKinds = map[string]bool{"Deployment": true, "DaemonSet": true, "StatefulSet": true}

// Supervisor is the k8s NotStartedSupervisor/StartedSupervisor for one
// sub-agent.
type Supervisor struct {
	AgentType string
	Namespace string
	Rendered  *render.RenderedK8s
	Managers  *reflector.Managers
	Interval  time.Duration

	reconciler *k8sreconcile.Reconciler
	healthT    *eventbus.ThreadContext
	versionT   *eventbus.ThreadContext
	wg         sync.WaitGroup
	logErr     func(objectID string, err error)
}

// NewSupervisor builds a not-yet-started k8s Supervisor.
func NewSupervisor(agentType, namespace string, rendered *render.RenderedK8s, managers *reflector.Managers, logErr func(string, error)) *Supervisor {
	return &Supervisor{
		AgentType: agentType,
		Namespace: namespace,
		Rendered:  rendered,
		Managers:  managers,
		Interval:  k8sreconcile.DefaultInterval,
		logErr:    logErr,
	}
}

func (s *Supervisor) Start(publisher subagent.EventPublisher) (subagent.StartedSupervisor, error) {
	s.reconciler = k8sreconcile.NewReconciler(s.Namespace, s.Rendered.Objects, s.Managers, s.logErr)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reconciler.Run()
	}()

	s.healthT = eventbus.NewThreadContext()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runHealth(publisher)
	}()

	s.versionT = eventbus.NewThreadContext()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runVersion(publisher)
	}()

	return s, nil
}

func (s *Supervisor) Stop() {
	s.reconciler.Thread.Stop()
	s.healthT.Stop()
	s.versionT.Stop()
	s.wg.Wait()
}

// healthRelevantObjects returns the cached, live objects for every rendered
// resource of a kind the health/version checkers understand.
func (s *Supervisor) healthRelevantObjects() map[string]*unstructured.Unstructured {
	out := map[string]*unstructured.Unstructured{}
	for id, obj := range s.Rendered.Objects {
		if !healthKinds[obj.Kind] {
			continue
		}
		key := reflector.Key{TypeMeta: reflector.TypeMeta{APIVersion: obj.APIVersion, Kind: obj.Kind}, Namespace: s.Namespace}
		manager, err := s.Managers.Get(key)
		if err != nil {
			continue
		}
		name, _, _ := unstructured.NestedString(obj.Metadata, "name")
		if name == "" {
			continue
		}
		if live := manager.Get(name); live != nil {
			out[id] = live
		}
	}
	return out
}

func (s *Supervisor) runHealth(publisher subagent.EventPublisher) {
	defer s.healthT.MarkDone()
	for {
		results := map[string]k8shealth.Result{}
		for id, obj := range s.healthRelevantObjects() {
			res, err := k8shealth.Check(obj)
			if err != nil {
				res = k8shealth.Result{Healthy: false, Message: err.Error()}
			}
			results[id] = res
		}
		healthy, message := k8shealth.AggregateMessage(results)
		publisher.PublishHealth(events.SubAgentHealthInfo{
			AgentType: s.AgentType,
			Health:    events.Health{Healthy: healthy, StatusTime: time.Now(), LastError: message},
		})
		if s.healthT.CancelOrElapse(s.Interval) {
			return
		}
	}
}

func (s *Supervisor) runVersion(publisher subagent.EventPublisher) {
	defer s.versionT.MarkDone()
	for {
		for _, obj := range s.healthRelevantObjects() {
			if image, ok := k8shealth.Image(obj); ok {
				publisher.PublishVersion(events.SubAgentVersionInfo{AgentType: s.AgentType, Version: image})
				break
			}
		}
		if s.versionT.CancelOrElapse(s.Interval) {
			return
		}
	}
}
