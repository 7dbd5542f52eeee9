package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerForwardsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := Wrap(zap.New(core))

	log.Info("tool executed", map[string]interface{}{"tool": "executeCommand"})
	log.Error("tool failed", errors.New("boom"), nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["tool"]; got != "executeCommand" {
		t.Fatalf("expected tool field, got %v", got)
	}
	if got := entries[1].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected error field, got %v", got)
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	log := NewNop()
	log.Debug("ignored", nil)
	log.Warn("ignored", map[string]interface{}{"k": 1})
}
