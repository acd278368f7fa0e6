package scan_test

import (
	"errors"
	"testing"

	"bellastore/internal/scan"
)

func TestLifecycleAdvancesInOrder(t *testing.T) {
	var l scan.Lifecycle
	if l.Current() != scan.None {
		t.Fatalf("zero lifecycle should be none, got %s", l.Current())
	}
	want := []scan.State{scan.Validated, scan.Hashed, scan.Stored, scan.Cataloged}
	for _, s := range want {
		if l.Has(s) {
			t.Fatalf("reached %s before advancing", s)
		}
		if err := l.Advance(); err != nil {
			t.Fatalf("advance to %s: %v", s, err)
		}
		if l.Current() != s {
			t.Fatalf("current = %s, want %s", l.Current(), s)
		}
		for _, earlier := range want {
			if earlier > s {
				break
			}
			if !l.Has(earlier) {
				t.Fatalf("at %s but Has(%s) false", s, earlier)
			}
		}
	}
	if err := l.Advance(); !errors.Is(err, scan.ErrInvalidTransition) {
		t.Fatalf("advance past terminal: got %v, want ErrInvalidTransition", err)
	}
	if l.Current() != scan.Cataloged {
		t.Fatalf("failed advance changed state to %s", l.Current())
	}
}

func TestLifecycleAdvanceToRejectsBackwards(t *testing.T) {
	var l scan.Lifecycle
	if err := l.AdvanceTo(scan.Stored); err != nil {
		t.Fatalf("AdvanceTo(stored): %v", err)
	}
	if !l.Has(scan.Validated) || !l.Has(scan.Hashed) {
		t.Fatal("AdvanceTo skipped intermediate states")
	}
	if err := l.AdvanceTo(scan.Hashed); !errors.Is(err, scan.ErrInvalidTransition) {
		t.Fatalf("AdvanceTo backwards: got %v", err)
	}
	if l.Current() != scan.Stored {
		t.Fatalf("state changed on rejected transition: %s", l.Current())
	}
}
