package durationx

import (
	"testing"
	"time"
)

func TestParsePlain(t *testing.T) {
	d, err := Parse("5m")
	if err != nil || d != 5*time.Minute {
		t.Fatalf("got %v, %v", d, err)
	}
}

func TestParseExtended(t *testing.T) {
	d, err := Parse("10m + 30s")
	if err != nil || d != 10*time.Minute+30*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("not-a-duration"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Parse("10m +"); err == nil {
		t.Fatal("expected error for trailing +")
	}
}
