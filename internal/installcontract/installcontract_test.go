package installcontract

import (
	"testing"
	"time"
)

func TestParseSecretsAllowsDuplicateNames(t *testing.T) {
	secrets, err := ParseSecrets("secret1=fixed.yaml,secret1=global.yaml")
	if err != nil {
		t.Fatalf("ParseSecrets: %v", err)
	}
	if len(secrets) != 2 || secrets[0].Name != secrets[1].Name {
		t.Fatalf("expected two entries with same name, got %+v", secrets)
	}
}

func TestParseSecretsEmpty(t *testing.T) {
	secrets, err := ParseSecrets("")
	if err != nil || secrets != nil {
		t.Fatalf("expected nil, nil, got %+v, %v", secrets, err)
	}
}

func TestParseSecretsInvalid(t *testing.T) {
	if _, err := ParseSecrets("no-equals-sign"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseLabelsRejectsDuplicates(t *testing.T) {
	if _, err := ParseLabels("label1=a,label1=b"); err == nil {
		t.Fatal("expected duplicate-label error")
	}
}

func TestParseLabelsOK(t *testing.T) {
	labels, err := ParseLabels("label1=value1,label2=value2")
	if err != nil {
		t.Fatalf("ParseLabels: %v", err)
	}
	if labels["label1"] != "value1" || labels["label2"] != "value2" {
		t.Fatalf("unexpected labels: %+v", labels)
	}
}

func TestParseCheckTimeoutDefault(t *testing.T) {
	d, err := ParseCheckTimeout("")
	if err != nil || d != DefaultInstallationCheckTimeout {
		t.Fatalf("got %v, %v", d, err)
	}
}

func TestParseCheckTimeoutExtended(t *testing.T) {
	d, err := ParseCheckTimeout("10m + 30s")
	if err != nil || d != 10*time.Minute+30*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
}

func TestMaxRetries(t *testing.T) {
	if got := MaxRetries(5 * time.Minute); got != 100 {
		t.Fatalf("expected 100 retries for a 5m timeout at 3s interval, got %d", got)
	}
}
