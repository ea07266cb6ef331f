package config

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	if got := String("TEST_STR", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := String("TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestRequiredString(t *testing.T) {
	if _, err := RequiredString("TEST_REQ_MISSING"); err == nil {
		t.Fatal("expected error for missing var")
	}
	t.Setenv("TEST_REQ", "x")
	v, err := RequiredString("TEST_REQ")
	if err != nil || v != "x" {
		t.Fatalf("unexpected result: %q, %v", v, err)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := Int("TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("TEST_INT_BAD", "nope")
	if got := Int("TEST_INT_BAD", 7); got != 7 {
		t.Fatalf("expected fallback, got %d", got)
	}
}

func TestMinutes(t *testing.T) {
	t.Setenv("TEST_MIN", "10")
	if got := Minutes("TEST_MIN", time.Minute); got != 10*time.Minute {
		t.Fatalf("expected 10m, got %v", got)
	}
	t.Setenv("TEST_MIN_NEG", "-5")
	if got := Minutes("TEST_MIN_NEG", 3*time.Minute); got != 3*time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("TEST_PORT", "8081")
	if p, err := Port("TEST_PORT", "8080"); err != nil || p != "8081" {
		t.Fatalf("unexpected result: %q, %v", p, err)
	}
	t.Setenv("TEST_PORT_BAD", "70000")
	if _, err := Port("TEST_PORT_BAD", "8080"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}
