package monitoring

import (
	"testing"

	"github.com/kilianp07/swapstation/config"
	coremon "github.com/kilianp07/swapstation/core/monitoring"
)

func TestNewSentryMonitorDisabled(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{}, "bmh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	if _, err := NewSentryMonitor(config.SentryConfig{DSN: "not a dsn"}, "bmh-1"); err == nil {
		t.Fatal("expected error for malformed DSN")
	}
}
