// Package opamp defines the thin message/callback surface the core needs
// from the OpAMP client library (spec.md §1: "the OpAMP wire codec itself
// ... assumed available as a client library that invokes callbacks and
// accepts status messages"). Nothing here implements the wire protocol;
// these are the shapes internal/remoteconfig and internal/status consume
// and produce.
package opamp

// AgentRemoteConfig is the incoming remote-config payload (spec.md §3, §4.5):
// a map of named config blobs plus an opaque revision hash. The OpAMP
// convention collapses single-blob messages to one entry named "".
type AgentRemoteConfig struct {
	ConfigMap map[string][]byte
	Hash      []byte
}

// SignatureAlgorithm enumerates the signing algorithms the core recognizes;
// spec.md §4.5 accepts only ED25519.
type SignatureAlgorithm string

const AlgorithmED25519 SignatureAlgorithm = "ED25519"

// Signature is one entry of the JSON array carried by a config.signature
// CustomMessage (spec.md §4.5).
type Signature struct {
	Signature        string             `json:"signature"`
	SigningAlgorithm SignatureAlgorithm `json:"signingAlgorithm"`
	KeyID            string             `json:"keyId"`
}

// CustomMessageCapability / Type identify the one custom message this core
// understands (spec.md §4.5, §6 "OpAMP surface").
const (
	CapabilityConfigSignature = "config.signature"
	CustomMessageTypeSignatures = "signatures"
)

// CustomMessage is an OpAMP custom message envelope.
type CustomMessage struct {
	Capability string
	Type       string
	Data       []byte
}

// MessageData is the subset of an inbound OpAMP message this core acts on.
type MessageData struct {
	RemoteConfig  *AgentRemoteConfig
	CustomMessage *CustomMessage
}

// RemoteConfigStatusState mirrors the OpAMP RemoteConfigStatus enum
// (spec.md §4.10, §6).
type RemoteConfigStatusState string

const (
	StatusApplying RemoteConfigStatusState = "applying"
	StatusApplied  RemoteConfigStatusState = "applied"
	StatusFailed   RemoteConfigStatusState = "failed"
)

// RemoteConfigStatus is the status message reported back over OpAMP.
type RemoteConfigStatus struct {
	State        RemoteConfigStatusState
	Hash         []byte
	ErrorMessage string
}

// EffectiveConfig is the document returned by the effective-config callback
// (spec.md §4.4, §8 scenarios A-C).
type EffectiveConfig struct {
	ConfigMap map[string][]byte
}

// Client is the minimal surface the core needs from an OpAMP client
// implementation: reporting status and pushing health/effective-config.
// The concrete client (wire codec, transport, reconnection) is an external
// collaborator (spec.md §1) -- only this interface is in scope here.
type Client interface {
	ReportRemoteConfigStatus(agentID string, status RemoteConfigStatus) error
	ReportEffectiveConfig(agentID string, cfg EffectiveConfig) error
	ReportHealth(agentID string, health Health) error
}

// Health mirrors OpAMP component-health semantics (spec.md §3).
type Health struct {
	Healthy    bool
	StatusTime int64 // unix nanos
	Status     string
	LastError  string
}
