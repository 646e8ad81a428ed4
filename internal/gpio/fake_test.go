package gpio

import (
	"errors"
	"testing"
)

func TestFakeIndicatorSet(t *testing.T) {
	f := NewFakeIndicator()

	if f.On() {
		t.Error("should be off initially")
	}

	for _, on := range []bool{true, false, true} {
		if err := f.Set(on); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if !f.On() {
		t.Error("expected on after last Set(true)")
	}
	if len(f.States) != 3 {
		t.Fatalf("expected 3 states, got %d", len(f.States))
	}
	if f.States[1] != false {
		t.Errorf("state 1: expected false, got %v", f.States[1])
	}
}

func TestFakeIndicatorError(t *testing.T) {
	f := NewFakeIndicator()
	f.SetError = errors.New("simulated error")

	err := f.Set(true)
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
	if len(f.States) != 0 {
		t.Errorf("expected no states recorded on error, got %d", len(f.States))
	}
}

func TestFakeIndicatorClose(t *testing.T) {
	f := NewFakeIndicator()
	f.Set(true)

	if f.Closed {
		t.Error("should not be closed initially")
	}

	err := f.Close()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	if f.On() {
		t.Error("Close should turn the LED off")
	}
}

func TestFakeIndicatorReset(t *testing.T) {
	f := NewFakeIndicator()
	f.Set(true)
	f.Close()

	f.Reset()

	if len(f.States) != 0 || f.Closed {
		t.Errorf("after reset: got states=%v closed=%v", f.States, f.Closed)
	}
}

func TestNop(t *testing.T) {
	var ind Indicator = Nop{}
	if err := ind.Set(true); err != nil {
		t.Errorf("Set: %v", err)
	}
	if err := ind.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestIndicatorImplementations(t *testing.T) {
	var _ Indicator = (*FakeIndicator)(nil)
	var _ Indicator = (*RealIndicator)(nil)
}
