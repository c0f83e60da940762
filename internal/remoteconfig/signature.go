package remoteconfig

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/opamp"
)

// Signature is one parsed entry of a config.signature custom message
// (spec.md §4.5 step 3).
type Signature struct {
	Signature        []byte
	SigningAlgorithm opamp.SignatureAlgorithm
	KeyID            string
}

// wireSignature mirrors the JSON shape carried on the wire, before the
// signature is base64-decoded and the algorithm is checked.
type wireSignature struct {
	Signature        string                   `json:"signature"`
	SigningAlgorithm opamp.SignatureAlgorithm `json:"signingAlgorithm"`
	KeyID            string                   `json:"keyId"`
}

// ParseSignatures decodes the JSON array carried by a config.signature
// custom-message (spec.md §4.5 step 3). Only opamp.AlgorithmED25519 is
// accepted; any other algorithm present in the array is rejected.
func ParseSignatures(data []byte) ([]Signature, error) {
	var wire []wireSignature
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("invalid remote config signature format: %w", err)
	}
	out := make([]Signature, 0, len(wire))
	for _, w := range wire {
		if w.SigningAlgorithm != opamp.AlgorithmED25519 {
			return nil, fmt.Errorf("unsupported signature algorithm: %s", w.SigningAlgorithm)
		}
		raw, err := base64.StdEncoding.DecodeString(w.Signature)
		if err != nil {
			return nil, fmt.Errorf("invalid remote config signature format: %w", err)
		}
		out = append(out, Signature{Signature: raw, SigningAlgorithm: w.SigningAlgorithm, KeyID: w.KeyID})
	}
	return out, nil
}

// IsConfigSignatureMessage reports whether msg is the one custom message
// this core understands (spec.md §4.5: "capability = config.signature, type
// = signatures").
func IsConfigSignatureMessage(msg *opamp.CustomMessage) bool {
	return msg != nil &&
		msg.Capability == opamp.CapabilityConfigSignature &&
		msg.Type == opamp.CustomMessageTypeSignatures
}

// KeyProvider resolves a signing key id to the ED25519 public key that
// should have produced it; the concrete key source (embedded trust bundle,
// fetched from a key service) is an external collaborator (spec.md §1).
type KeyProvider interface {
	PublicKey(keyID string) (ed25519.PublicKey, error)
}

// Verify checks that at least one of sigs verifies payload under a key
// resolved through provider. An empty sigs slice is treated as "no
// signature was required of this payload" and verifies trivially; callers
// that require a signature to be present enforce that separately.
func Verify(provider KeyProvider, payload []byte, sigs []Signature) error {
	for _, sig := range sigs {
		key, err := provider.PublicKey(sig.KeyID)
		if err != nil {
			continue
		}
		if ed25519.Verify(key, payload, sig.Signature) {
			return nil
		}
	}
	if len(sigs) == 0 {
		return nil
	}
	return fmt.Errorf("no signature verified against a known key")
}
