// Package remoteconfig implements the OpAMP remote-config handler (spec.md
// §4.5): decoding an inbound MessageData into a RemoteConfig, verifying its
// optional signature, and driving the per-agent received→applying→
// applied|failed state machine (spec.md §4.10).
package remoteconfig

import (
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

// State is the remote-config lifecycle state for one agent id.
type State string

const (
	StateReceived State = "received"
	StateApplying State = "applying"
	StateApplied  State = "applied"
	StateFailed   State = "failed"
)

// RemoteConfig is the decoded, not-yet-processed inbound remote config for
// one agent id (spec.md §4.5 step 4: "Emit RemoteConfigReceived").
type RemoteConfig struct {
	AgentID agentid.ID
	Hash    []byte
	// Config is the decoded single config blob ("" in the wire map), or nil
	// if the message carried no blob for this agent (a delete/empty config).
	Config []byte
	// Signatures is nil unless a matching signature custom-message was
	// present and successfully parsed (spec.md §4.5 step 3).
	Signatures []Signature

	// State/FailureReason record the outcome of decoding itself (steps 1-3);
	// a RemoteConfig already in StateFailed skips straight to reporting
	// failed without further processing by the per-agent processor.
	State         State
	FailureReason string
}

// Failed constructs a RemoteConfig already in the terminal failed state,
// used when hash/blob/signature decoding itself fails (spec.md §4.5 steps
// 1-3).
func Failed(id agentid.ID, hash []byte, reason string) RemoteConfig {
	return RemoteConfig{
		AgentID:       id,
		Hash:          hash,
		State:         StateFailed,
		FailureReason: reason,
	}
}

// Received constructs a successfully decoded RemoteConfig ready for the
// per-agent processor (spec.md §4.5 step 4).
func Received(id agentid.ID, hash, config []byte, sigs []Signature) RemoteConfig {
	return RemoteConfig{
		AgentID:    id,
		Hash:       hash,
		Config:     config,
		Signatures: sigs,
		State:      StateReceived,
	}
}
