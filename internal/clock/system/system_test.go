// Package system exercises the real-time clock adapter.
package system

import (
	"testing"
	"time"
)

// TestClockNowUTC ensures the clock reports the configured location.
func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	clk := New(time.UTC)
	requireNotNil(t, clk)

	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

// TestClockDefaultsToLocal checks a nil location falls back to the host zone.
func TestClockDefaultsToLocal(t *testing.T) {
	t.Parallel()

	if got := New(nil).Location(); got != time.Local {
		t.Fatalf("expected time.Local, got %v", got)
	}
}

// TestNewInZone resolves named zones and rejects unknown ones.
func TestNewInZone(t *testing.T) {
	t.Parallel()

	clk, err := NewInZone("")
	if err != nil {
		t.Fatalf("NewInZone(\"\") error = %v", err)
	}
	if clk.Location() != time.Local {
		t.Fatalf("expected local zone, got %v", clk.Location())
	}

	clk, err = NewInZone("UTC")
	if err != nil {
		t.Fatalf("NewInZone(UTC) error = %v", err)
	}
	if clk.Now().Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %v", clk.Now().Location())
	}

	if _, err := NewInZone("Mars/Olympus_Mons"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}

// TestClockNowMonotonic checks successive timestamps are non-decreasing.
func TestClockNowMonotonic(t *testing.T) {
	t.Parallel()

	clk := New(nil)
	first := clk.Now()
	second := clk.Now()
	if second.Before(first) {
		t.Fatalf("expected second call %v to be >= first %v", second, first)
	}
}

func requireNotNil(t *testing.T, v any) {
	t.Helper()
	if v == nil {
		t.Fatal("expected value to be non-nil")
	}
}
