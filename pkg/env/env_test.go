package env

import "testing"

func TestGetPrefersPrefixedVariable(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PROCUREFLOW_LOG_FORMAT", "console")

	if got := Get("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected prefixed value, got %q", got)
	}
}

func TestGetReadsBareVariable(t *testing.T) {
	t.Setenv("LOG_FORMAT", "console")

	if got := Get("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected bare value, got %q", got)
	}
}

func TestGetFallsBack(t *testing.T) {
	if got := Get("PROCUREFLOW_TEST_UNSET_KEY", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
