// Package onhostsupervisor implements the on-host executable supervisor
// (spec.md §4.7): one worker goroutine per executable running
// start-child→wait→observe-exit→compute-backoff→sleep-or-exit, plus
// independent health and version checker goroutines.
package onhostsupervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/jpillora/backoff"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agenttype"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/eventbus"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/render"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/subagent"
)

// ExecState is the executable state-machine's current phase (spec.md
// §4.10 "Executable (per-id, on host)").
type ExecState string

const (
	StateStarting ExecState = "starting"
	StateRunning  ExecState = "running"
	StateExited   ExecState = "exited"
	StateBackoff  ExecState = "backoff"
	StateFailed   ExecState = "failed"
)

// computeDelay implements spec.md §4.7's backoff scaling: linear scales
// BackoffDelay by the attempt index, exponential by 2^(attempt-1), both
// capped at LastRetryInterval; fixed never scales. For the exponential
// case this defers to jpillora/backoff's Duration computation (Factor 2),
// which implements the same 2^n growth; linear and fixed are simple enough
// that no third-party scaling helper models them, so they are computed
// directly.
func computeDelay(rp render.RenderedRestartPolicy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	cap := rp.LastRetryInterval
	var delay time.Duration
	switch rp.Type {
	case agenttype.RestartFixed:
		delay = rp.BackoffDelay
	case agenttype.RestartLinear:
		delay = rp.BackoffDelay * time.Duration(attempt)
	case agenttype.RestartExponential:
		b := &backoff.Backoff{
			Min:    rp.BackoffDelay,
			Max:    cap,
			Factor: 2,
		}
		for i := 1; i < attempt; i++ {
			b.Duration()
		}
		delay = b.Duration()
	default:
		delay = rp.BackoffDelay
	}
	if cap > 0 && delay > cap {
		delay = cap
	}
	return delay
}

// ExecutableWorker runs one executable's restart loop (spec.md §4.7).
type ExecutableWorker struct {
	AgentType string
	Spec      render.RenderedExecutable
	Publisher subagent.EventPublisher
	Thread    *eventbus.ThreadContext
}

// NewExecutableWorker constructs a worker for spec, ready to have Run
// invoked in its own goroutine. publisher may be nil in tests that don't
// care about the terminal-failure event.
func NewExecutableWorker(agentType string, spec render.RenderedExecutable, publisher subagent.EventPublisher) *ExecutableWorker {
	return &ExecutableWorker{AgentType: agentType, Spec: spec, Publisher: publisher, Thread: eventbus.NewThreadContext()}
}

// Run executes the restart loop until Thread.Stop() is called or the
// executable enters the terminal failed state (spec.md §4.10). ran
// tracks how long the most recent run of the child lasted; a run lasting at
// least LastRetryInterval resets the consecutive-failure counter (spec.md
// §4.7 "A successful run of at least last_retry_interval resets the attempt
// counter.").
func (w *ExecutableWorker) Run() {
	defer w.Thread.MarkDone()

	attempt := 0
	rp := w.Spec.RestartPolicy

	for {
		start := time.Now()
		err := w.runOnce()
		ran := time.Since(start)

		if ran >= rp.LastRetryInterval && rp.LastRetryInterval > 0 {
			attempt = 0
		}

		if err == nil && ran >= rp.LastRetryInterval {
			// clean, long-lived exit: treat like a fresh start next time.
			attempt = 0
		} else {
			attempt++
		}

		if rp.MaxRetries > 0 && attempt > rp.MaxRetries {
			w.publishTerminalFailure(err)
			return // terminal failed state (spec.md §4.10)
		}

		delay := computeDelay(rp, attempt)
		if w.Thread.CancelOrElapse(delay) {
			return
		}
	}
}

// publishTerminalFailure emits the unhealthy SubAgentHealthInfo spec.md
// §4.7 requires once an executable has exceeded max_retries consecutive
// failures: "the worker enters a terminal failed state and emits an
// unhealthy event."
func (w *ExecutableWorker) publishTerminalFailure(lastErr error) {
	if w.Publisher == nil {
		return
	}
	reason := fmt.Sprintf("executable %s exceeded max_retries", w.Spec.ID)
	if lastErr != nil {
		reason = fmt.Sprintf("%s: %s", reason, lastErr)
	}
	w.Publisher.PublishHealth(events.SubAgentHealthInfo{
		AgentType: w.AgentType,
		Health: events.Health{
			Healthy:    false,
			StatusTime: time.Now(),
			Status:     string(StateFailed),
			LastError:  reason,
		},
	})
}

// runOnce spawns the child process and blocks until it exits or
// cancellation is requested, in which case the child is killed.
func (w *ExecutableWorker) runOnce() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-w.Thread.Cancelled():
			cancel()
		case <-ctx.Done():
		}
	}()

	cmd := exec.CommandContext(ctx, w.Spec.Path, w.Spec.Args...)
	cmd.Env = envSlice(w.Spec.Env)
	return cmd.Run()
}

// envSlice merges env on top of the current process environment, so a
// rendered executable inherits PATH and friends unless explicitly
// overridden (spec.md §4.7 says nothing about env isolation).
func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := append([]string{}, os.Environ()...)
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
