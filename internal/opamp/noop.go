package opamp

import "github.com/sirupsen/logrus"

// NoopClient logs every outbound report instead of sending it anywhere; it
// is the placeholder Client a process wires in until a real OpAMP wire
// client (the external collaborator named in spec.md §1) is plugged in at
// this same interface seam.
type NoopClient struct {
	Log *logrus.Entry
}

func (c NoopClient) ReportRemoteConfigStatus(agentID string, status RemoteConfigStatus) error {
	c.Log.WithField("agent_id", agentID).WithField("state", status.State).Debug("remote config status (no-op opamp client)")
	return nil
}

func (c NoopClient) ReportEffectiveConfig(agentID string, _ EffectiveConfig) error {
	c.Log.WithField("agent_id", agentID).Debug("effective config reported (no-op opamp client)")
	return nil
}

func (c NoopClient) ReportHealth(agentID string, health Health) error {
	c.Log.WithField("agent_id", agentID).WithField("healthy", health.Healthy).Debug("health reported (no-op opamp client)")
	return nil
}
