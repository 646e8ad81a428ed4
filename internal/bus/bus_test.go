package bus

import (
	"errors"
	"testing"
	"time"
)

func TestParseAddress(t *testing.T) {
	want := Address{0x28, 0xFF, 0x4B, 0x1D, 0x63, 0x16, 0x03, 0x7B}
	for _, in := range []string{
		"28FF4B1D6316037B",
		"28ff4b1d6316037b",
		"28 FF 4B 1D 63 16 03 7B",
		"  28FF 4B1D 6316 037B  ",
	} {
		got, err := ParseAddress(in)
		if err != nil {
			t.Errorf("ParseAddress(%q): unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAddress(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestParseAddressErrors(t *testing.T) {
	tests := []struct {
		in     string
		reason string
	}{
		{"28FF4B1D6316037", "got 15 hex digits, want 16"},
		{"", "got 0 hex digits, want 16"},
		{"28FF4B1D6316037B00", "too many digits"},
		{"28FF4B1D6316037G", `illegal character 'G'`},
		{"28-FF4B1D6316037B", `illegal character '-'`},
	}
	for _, tt := range tests {
		_, err := ParseAddress(tt.in)
		var ae *AddressError
		if !errors.As(err, &ae) {
			t.Errorf("ParseAddress(%q): expected *AddressError, got %v", tt.in, err)
			continue
		}
		if ae.Input != tt.in {
			t.Errorf("ParseAddress(%q): Input got %q", tt.in, ae.Input)
		}
		if ae.Reason != tt.reason {
			t.Errorf("ParseAddress(%q): Reason got %q, want %q", tt.in, ae.Reason, tt.reason)
		}
	}
}

func TestAddressString(t *testing.T) {
	a := Address{0x28, 0x0A, 0x4B, 0x1D, 0x63, 0x16, 0x03, 0x7B}
	if got := a.String(); got != "280A4B1D6316037B" {
		t.Errorf("String: got %q, want 280A4B1D6316037B", got)
	}
	if a.Family() != 0x28 {
		t.Errorf("Family: got %#x, want 0x28", a.Family())
	}
	if a.IsZero() {
		t.Error("non-zero address reported as zero")
	}
	if !(Address{}).IsZero() {
		t.Error("zero address not reported as zero")
	}
}

func TestAddressStringRoundTrip(t *testing.T) {
	a := MustParseAddress("28 01 02 03 04 05 06 07")
	b, err := ParseAddress(a.String())
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if a != b {
		t.Errorf("round trip: got %v, want %v", b, a)
	}
}

func TestMustParseAddressPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParseAddress("nope")
}

func TestFormatAddresses(t *testing.T) {
	addrs := []Address{MustParseAddress("2800000000000001"), MustParseAddress("2800000000000002")}
	if got := FormatAddresses(addrs); got != "2800000000000001, 2800000000000002" {
		t.Errorf("FormatAddresses: got %q", got)
	}
}

func TestConversionDelay(t *testing.T) {
	tests := map[int]time.Duration{
		9:  94 * time.Millisecond,
		10: 188 * time.Millisecond,
		11: 375 * time.Millisecond,
		12: 750 * time.Millisecond,
		0:  750 * time.Millisecond,
	}
	for bits, want := range tests {
		if got := ConversionDelay(bits); got != want {
			t.Errorf("ConversionDelay(%d): got %v, want %v", bits, got, want)
		}
	}
}

func TestFakeBusScriptedRequests(t *testing.T) {
	a := MustParseAddress("2800000000000001")
	b := MustParseAddress("2800000000000002")
	f := NewFakeBus(750 * time.Millisecond)
	f.Requests[a] = []bool{false, false, true}

	want := []bool{false, false, true, true}
	for i, w := range want {
		if got := f.RequestConversion(a); got != w {
			t.Errorf("call %d: got %v, want %v", i, got, w)
		}
	}
	if !f.RequestConversion(b) {
		t.Error("unscripted address should succeed")
	}
	if len(f.RequestLog) != 5 {
		t.Errorf("RequestLog: got %d entries, want 5", len(f.RequestLog))
	}

	f.Reset()
	if f.RequestConversion(a) {
		t.Error("after reset: script should rewind")
	}
	if len(f.RequestLog) != 1 {
		t.Errorf("RequestLog after reset: got %d entries, want 1", len(f.RequestLog))
	}
}

func TestFakeBusRead(t *testing.T) {
	a := MustParseAddress("2800000000000001")
	f := NewFakeBus(0)
	f.Temps[a] = 23.5

	if got := f.ReadCelsius(a); got != 23.5 {
		t.Errorf("ReadCelsius: got %v, want 23.5", got)
	}
	if got := f.ReadCelsius(MustParseAddress("2800000000000002")); got != DisconnectedCelsius {
		t.Errorf("unknown address: got %v, want %v", got, DisconnectedCelsius)
	}
}

func TestFakeBusSetResolution(t *testing.T) {
	a := MustParseAddress("2800000000000001")
	f := NewFakeBus(0)

	if err := f.SetResolution(a, 10); err != nil {
		t.Fatalf("SetResolution: %v", err)
	}
	if f.Resolutions[a] != 10 {
		t.Errorf("Resolutions: got %d, want 10", f.Resolutions[a])
	}
	if err := f.SetResolution(a, 13); err == nil {
		t.Error("expected error for 13 bits")
	}

	f.ResolutionError = errors.New("simulated error")
	if err := f.SetResolution(a, 9); err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeBusZeroValue(t *testing.T) {
	var f FakeBus
	a := MustParseAddress("2800000000000001")
	f.Requests = map[Address][]bool{a: {false, true}}

	if f.RequestConversion(a) {
		t.Error("first call should fail")
	}
	if !f.RequestConversion(a) {
		t.Error("second call should succeed")
	}
	if err := f.SetResolution(a, 9); err != nil {
		t.Errorf("SetResolution on zero value: %v", err)
	}
}
