package eventbus

import (
	"sync"
	"time"
)

// ThreadContext pairs a worker goroutine with a one-shot cancellation
// signal and join handle (spec.md §5, §9 "Cancellation across blocking
// I/O"): every supervised goroutine (executable worker, health checker,
// version checker, k8s reconciler) is modeled as
// `loop { work; if cancel_or_elapse(interval) break }`.
type ThreadContext struct {
	once   sync.Once
	cancel chan struct{}
	done   chan struct{}
}

// NewThreadContext returns a ThreadContext ready to hand to a worker
// goroutine; the caller should `defer tc.MarkDone()` inside the goroutine
// (or call it explicitly on every exit path).
func NewThreadContext() *ThreadContext {
	return &ThreadContext{cancel: make(chan struct{}), done: make(chan struct{})}
}

// Cancelled returns a channel closed once cancellation has been requested.
func (t *ThreadContext) Cancelled() <-chan struct{} { return t.cancel }

// CancelOrElapse waits for either cancellation or the given interval to
// elapse, whichever comes first, returning true if the wait ended because
// of cancellation (spec.md §9).
func (t *ThreadContext) CancelOrElapse(interval time.Duration) bool {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-t.cancel:
		return true
	case <-timer.C:
		return false
	}
}

// MarkDone signals that the worker goroutine has exited; Stop blocks on
// this.
func (t *ThreadContext) MarkDone() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

// Stop publishes the cancellation signal and blocks until the worker calls
// MarkDone (spec.md §5: "stop_blocking() publishes the signal and joins").
func (t *ThreadContext) Stop() {
	t.once.Do(func() { close(t.cancel) })
	<-t.done
}
