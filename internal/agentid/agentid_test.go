package agentid

import "testing"

func TestParseValid(t *testing.T) {
	cases := []string{"a", "agent-control", "nr-sleep-agent", "a1-b2", "x23456789012345678901234567890a"}
	for _, c := range cases {
		if _, err := Parse(c); err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", c, err)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	tooLong := make([]byte, 40)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	cases := []string{"", "Agent", "1agent", "agent-", "-agent", "agent_bad", string(tooLong)}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) expected error, got none", c)
		}
	}
}

func TestParseFQN(t *testing.T) {
	fqn, err := ParseFQN("newrelic/com.newrelic.infra:0.1.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fqn.Namespace != "newrelic" || fqn.Name != "com.newrelic.infra" || fqn.Version != "0.1.0" {
		t.Fatalf("unexpected fields: %+v", fqn)
	}
	if fqn.String() != "newrelic/com.newrelic.infra:0.1.0" {
		t.Fatalf("round-trip mismatch: %s", fqn.String())
	}
}

func TestParseFQNInvalid(t *testing.T) {
	cases := []string{"", "noslash", "ns/nocolon", "/name:1", "ns/:1", "ns/name:"}
	for _, c := range cases {
		if _, err := ParseFQN(c); err == nil {
			t.Errorf("ParseFQN(%q) expected error, got none", c)
		}
	}
}
