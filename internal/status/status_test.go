package status

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/events"
)

func TestAgentControlHealthyThenUnhealthy(t *testing.T) {
	s := New()
	s.ApplyAgentControlHealthy(events.AgentControlBecameHealthy{Status: "running"})
	if snap := s.Snapshot(); !snap.AgentControl.Healthy {
		t.Fatal("expected healthy")
	}

	s.ApplyAgentControlUnhealthy(events.AgentControlBecameUnhealthy{Status: "running", LastError: "boom"})
	snap := s.Snapshot()
	if snap.AgentControl.Healthy || snap.AgentControl.LastError != "boom" {
		t.Fatalf("expected unhealthy with last_error boom, got %+v", snap.AgentControl)
	}
}

func TestSubAgentHealthUpsertThenRemoved(t *testing.T) {
	s := New()
	id := agentid.ID("nginx")

	s.ApplySubAgentHealth(events.SubAgentHealthInfo{AgentID: id, AgentType: "nr/nginx:0.1.0", Health: events.Health{Healthy: true}})
	if snap := s.Snapshot(); len(snap.SubAgents) != 1 || !snap.SubAgents[id].Healthy {
		t.Fatalf("expected one healthy sub-agent, got %+v", snap.SubAgents)
	}

	s.ApplySubAgentHealth(events.SubAgentHealthInfo{AgentID: id, AgentType: "nr/nginx:0.1.0", Health: events.Health{Healthy: false, LastError: "crashed"}})
	snap := s.Snapshot()
	if snap.SubAgents[id].Healthy || snap.SubAgents[id].LastError != "crashed" {
		t.Fatalf("expected updated unhealthy entry, got %+v", snap.SubAgents[id])
	}

	s.ApplySubAgentRemoved(events.SubAgentRemoved{AgentID: id})
	if snap := s.Snapshot(); len(snap.SubAgents) != 0 {
		t.Fatalf("expected sub-agent removed, got %+v", snap.SubAgents)
	}
}

func TestOpAMPConnectedAndFailed(t *testing.T) {
	s := New()
	s.ApplyOpAMPConnected()
	if snap := s.Snapshot(); !snap.OpAMP.Reachable {
		t.Fatal("expected reachable")
	}
	s.ApplyOpAMPConnectFailed(events.OpAMPConnectFailed{Code: 503, Reason: "unreachable"})
	snap := s.Snapshot()
	if snap.OpAMP.Reachable || snap.OpAMP.ErrorCode != 503 {
		t.Fatalf("expected unreachable 503, got %+v", snap.OpAMP)
	}
}

func TestServeStatusServesJSONSnapshot(t *testing.T) {
	s := New()
	s.ApplyAgentControlHealthy(events.AgentControlBecameHealthy{Status: "running"})

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	ServeStatus(s).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.AgentControl.Healthy {
		t.Fatalf("expected healthy in served snapshot, got %+v", snap.AgentControl)
	}
}

func TestServeStatusRejectsNonGet(t *testing.T) {
	s := New()
	req := httptest.NewRequest("POST", "/status", nil)
	rec := httptest.NewRecorder()
	ServeStatus(s).ServeHTTP(rec, req)
	if rec.Code != 405 {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
