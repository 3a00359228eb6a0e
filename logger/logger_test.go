package logger

import (
	"testing"
)

func TestNewZapLogger(t *testing.T) {
	l, err := NewZapLogger()
	if err != nil {
		t.Fatalf("NewZapLogger failed: %v", err)
	}
	// Smoke test – must not panic.
	l.Info("startup", String("market", "ETH-USD"), Float64("price", 2000))
	l.Warn("warn", Int("n", 1))
	l.Error("err", Err(nil))
}
