package onhostsupervisor

import (
	"sync"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/render"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/subagent"
)

// Supervisor is the on-host NotStartedSupervisor/StartedSupervisor for one
// sub-agent (spec.md §4.6, §4.7): a worker per executable plus optional
// health and version checkers.
type Supervisor struct {
	AgentType string
	Rendered  *render.RenderedOnHost

	workers  []*ExecutableWorker
	health   *HealthChecker
	version  *VersionChecker
	wg       sync.WaitGroup
}

// NewSupervisor builds a not-yet-started Supervisor from a rendered on-host
// descriptor.
func NewSupervisor(agentType string, rendered *render.RenderedOnHost) *Supervisor {
	return &Supervisor{AgentType: agentType, Rendered: rendered}
}

// Start launches one goroutine per executable plus the health/version
// checkers if configured (spec.md §4.6 "Start").
func (s *Supervisor) Start(publisher subagent.EventPublisher) (subagent.StartedSupervisor, error) {
	for _, ex := range s.Rendered.Executables {
		w := NewExecutableWorker(s.AgentType, ex, publisher)
		s.workers = append(s.workers, w)
		s.wg.Add(1)
		go func(w *ExecutableWorker) {
			defer s.wg.Done()
			w.Run()
		}(w)
	}

	if s.Rendered.Health != nil {
		s.health = NewHealthChecker(s.AgentType, s.Rendered.Health, publisher)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.health.Run()
		}()
	}

	if s.Rendered.Version != nil {
		s.version = NewVersionChecker(s.AgentType, s.Rendered.Version, publisher)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.version.Run()
		}()
	}

	return s, nil
}

// Stop cancels every worker and checker thread and blocks until all have
// exited (spec.md §4.6 "blocking join of its threads").
func (s *Supervisor) Stop() {
	for _, w := range s.workers {
		w.Thread.Stop()
	}
	if s.health != nil {
		s.health.Thread.Stop()
	}
	if s.version != nil {
		s.version.Thread.Stop()
	}
	s.wg.Wait()
}
