package remoteconfig

import (
	"fmt"
	"unicode/utf8"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/opamp"
)

// Decode turns an inbound opamp.MessageData for id into a RemoteConfig,
// following the four steps of spec.md §4.5: hash decode, config-blob
// decode, optional signature decode, and construction of the received
// event payload.
func Decode(id agentid.ID, msg opamp.MessageData) RemoteConfig {
	if msg.RemoteConfig == nil {
		return Received(id, nil, nil, nil)
	}

	hashBytes := msg.RemoteConfig.Hash
	if !utf8.Valid(hashBytes) {
		return Failed(id, nil, fmt.Sprintf("Invalid hash: %q is not valid UTF-8", hashBytes))
	}

	config, err := decodeConfigBlob(msg.RemoteConfig.ConfigMap)
	if err != nil {
		return Failed(id, hashBytes, fmt.Sprintf("Invalid remote config format: %s", err))
	}

	var sigs []Signature
	if IsConfigSignatureMessage(msg.CustomMessage) {
		parsed, err := ParseSignatures(msg.CustomMessage.Data)
		if err != nil {
			return Failed(id, hashBytes, err.Error())
		}
		sigs = parsed
	}

	return Received(id, hashBytes, config, sigs)
}

// decodeConfigBlob collapses the OpAMP multi-blob convention: a well-formed
// message carries exactly one entry, named "" (spec.md §4.5 step 2). More
// than one named blob, or a blob not named "", is a format error.
func decodeConfigBlob(blobs map[string][]byte) ([]byte, error) {
	if len(blobs) == 0 {
		return nil, nil
	}
	if len(blobs) > 1 {
		return nil, fmt.Errorf("expected a single config blob, got %d", len(blobs))
	}
	blob, ok := blobs[""]
	if !ok {
		return nil, fmt.Errorf("expected the single config blob to be named \"\"")
	}
	return blob, nil
}
