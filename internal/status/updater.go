package status

import (
	"context"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
)

// Buses groups the event channels the updater loop multiplexes, mirroring
// `status_updater.rs`'s `on_agent_control_event_update_status` select loop.
type Buses struct {
	AgentControlHealthy   <-chan events.AgentControlBecameHealthy
	AgentControlUnhealthy <-chan events.AgentControlBecameUnhealthy
	OpAMPConnected        <-chan events.OpAMPConnected
	OpAMPConnectFailed    <-chan events.OpAMPConnectFailed
	SubAgentRemoved       <-chan events.SubAgentRemoved
	SubAgentHealth        <-chan events.SubAgentHealthInfo
	SubAgentVersion       <-chan events.SubAgentVersionInfo
}

// Run consumes every bus in b until ctx is cancelled or any of the buses is
// closed, applying each event to s. It never blocks the dispatcher: consumption happens on its own
// goroutine, started by the caller.
func Run(ctx context.Context, s *Status, b Buses) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-b.AgentControlHealthy:
			if !ok {
				return
			}
			s.ApplyAgentControlHealthy(e)
		case e, ok := <-b.AgentControlUnhealthy:
			if !ok {
				return
			}
			s.ApplyAgentControlUnhealthy(e)
		case _, ok := <-b.OpAMPConnected:
			if !ok {
				return
			}
			s.ApplyOpAMPConnected()
		case e, ok := <-b.OpAMPConnectFailed:
			if !ok {
				return
			}
			s.ApplyOpAMPConnectFailed(e)
		case e, ok := <-b.SubAgentRemoved:
			if !ok {
				return
			}
			s.ApplySubAgentRemoved(e)
		case e, ok := <-b.SubAgentHealth:
			if !ok {
				return
			}
			s.ApplySubAgentHealth(e)
		case e, ok := <-b.SubAgentVersion:
			if !ok {
				return
			}
			s.ApplySubAgentVersion(e)
		}
	}
}
