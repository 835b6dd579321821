package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestFakeOutputRecordsSets(t *testing.T) {
	f := NewFakeOutput()

	if err := f.Set(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.States) != 2 {
		t.Fatalf("expected 2 recorded states, got %d", len(f.States))
	}
	if !f.States[0] || f.States[1] {
		t.Errorf("unexpected states: %v", f.States)
	}
}

func TestFakeOutputRecordsPulses(t *testing.T) {
	f := NewFakeOutput()

	if err := f.Pulse(300 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Pulse(200 * time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Pulses) != 2 {
		t.Fatalf("expected 2 pulses, got %d", len(f.Pulses))
	}
	if f.Pulses[0] != 300*time.Millisecond {
		t.Errorf("pulse 0: got %v, want 300ms", f.Pulses[0])
	}
	if f.Pulses[1] != 200*time.Millisecond {
		t.Errorf("pulse 1: got %v, want 200ms", f.Pulses[1])
	}

	// Each pulse drives high then low.
	want := []bool{true, false, true, false}
	if len(f.States) != len(want) {
		t.Fatalf("expected %d states, got %d", len(want), len(f.States))
	}
	for i, s := range want {
		if f.States[i] != s {
			t.Errorf("state %d: got %v, want %v", i, f.States[i], s)
		}
	}
}

func TestFakeOutputSetError(t *testing.T) {
	f := NewFakeOutput()
	wantErr := errors.New("line stuck")
	f.SetError = wantErr

	if err := f.Pulse(time.Millisecond); !errors.Is(err, wantErr) {
		t.Errorf("expected injected error, got %v", err)
	}
	if len(f.Pulses) != 0 {
		t.Errorf("expected no recorded pulses, got %d", len(f.Pulses))
	}
}

func TestFakeOutputCloseAndReset(t *testing.T) {
	f := NewFakeOutput()
	f.Set(true)
	f.Pulse(time.Millisecond)
	f.Close()

	if !f.Closed {
		t.Error("expected Closed=true")
	}

	f.Reset()
	if f.Closed || len(f.States) != 0 || len(f.Pulses) != 0 {
		t.Error("expected cleared state after Reset")
	}
}
