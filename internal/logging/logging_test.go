package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewDefaultsToInfoAndText(t *testing.T) {
	logger := New(Config{})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter, got %T", logger.Formatter)
	}
}

func TestNewHonorsLevelAndJSONFormat(t *testing.T) {
	logger := New(Config{Level: "debug", Format: "json"})
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", logger.Formatter)
	}
}

func TestNewFallsBackOnInvalidLevel(t *testing.T) {
	logger := New(Config{Level: "not-a-level"})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected fallback to info, got %v", logger.GetLevel())
	}
}

func TestForAddsComponentField(t *testing.T) {
	logger := New(Config{})
	entry := For(logger, "dispatcher")
	if entry.Data["component"] != "dispatcher" {
		t.Fatalf("expected component field, got %+v", entry.Data)
	}
}
