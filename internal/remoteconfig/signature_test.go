package remoteconfig

import (
	"crypto/ed25519"
	"fmt"
	"testing"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/opamp"
)

type staticKeyProvider map[string]ed25519.PublicKey

func (s staticKeyProvider) PublicKey(keyID string) (ed25519.PublicKey, error) {
	key, ok := s[keyID]
	if !ok {
		return nil, fmt.Errorf("unknown key %q", keyID)
	}
	return key, nil
}

func TestParseSignaturesRejectsUnknownAlgorithm(t *testing.T) {
	_, err := ParseSignatures([]byte(`[{"signature":"ZmFrZQ==","signingAlgorithm":"RSA","keyId":"k1"}]`))
	if err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestVerifySucceedsWithValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	payload := []byte("agents: {}\n")
	sig := ed25519.Sign(priv, payload)

	sigs := []Signature{{Signature: sig, SigningAlgorithm: opamp.AlgorithmED25519, KeyID: "k1"}}
	provider := staticKeyProvider{"k1": pub}

	if err := Verify(provider, payload, sigs); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyFailsOnTamperedPayload(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sig := ed25519.Sign(priv, []byte("agents: {}\n"))

	sigs := []Signature{{Signature: sig, SigningAlgorithm: opamp.AlgorithmED25519, KeyID: "k1"}}
	provider := staticKeyProvider{"k1": pub}

	if err := Verify(provider, []byte("agents: {tampered: true}\n"), sigs); err == nil {
		t.Fatal("expected verification failure for tampered payload")
	}
}

func TestIsConfigSignatureMessage(t *testing.T) {
	if IsConfigSignatureMessage(nil) {
		t.Fatal("nil message must not match")
	}
	if !IsConfigSignatureMessage(&opamp.CustomMessage{
		Capability: opamp.CapabilityConfigSignature,
		Type:       opamp.CustomMessageTypeSignatures,
	}) {
		t.Fatal("matching capability+type must match")
	}
	if IsConfigSignatureMessage(&opamp.CustomMessage{Capability: "other", Type: opamp.CustomMessageTypeSignatures}) {
		t.Fatal("mismatched capability must not match")
	}
}
