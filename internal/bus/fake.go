package bus

import (
	"fmt"
	"time"
)

// FakeBus is a test double that returns scripted conversion results.
type FakeBus struct {
	// Requests scripts RequestConversion results per address.
	// Each call consumes the next value; once exhausted the last value
	// repeats. Addresses without a script always succeed.
	Requests map[Address][]bool

	// Temps contains the value ReadCelsius returns per address.
	// Addresses without a value read as DisconnectedCelsius.
	Temps map[Address]float64

	// Delay is returned by ConversionDelay.
	Delay time.Duration

	// Resolutions records SetResolution calls.
	Resolutions map[Address]int

	// ResolutionError, if set, will be returned by SetResolution.
	ResolutionError error

	// RequestLog and ReadLog record the addresses passed to
	// RequestConversion and ReadCelsius, in call order.
	RequestLog []Address
	ReadLog    []Address

	index map[Address]int
}

// NewFakeBus creates a FakeBus with the given conversion delay.
func NewFakeBus(delay time.Duration) *FakeBus {
	return &FakeBus{
		Requests:    make(map[Address][]bool),
		Temps:       make(map[Address]float64),
		Delay:       delay,
		Resolutions: make(map[Address]int),
		index:       make(map[Address]int),
	}
}

// RequestConversion returns the next scripted result for addr.
func (f *FakeBus) RequestConversion(addr Address) bool {
	f.RequestLog = append(f.RequestLog, addr)

	script := f.Requests[addr]
	if len(script) == 0 {
		return true
	}
	if f.index == nil {
		f.index = make(map[Address]int)
	}
	i := f.index[addr]
	if i < len(script)-1 {
		f.index[addr]++
	}
	return script[i]
}

// ReadCelsius returns the configured value for addr.
func (f *FakeBus) ReadCelsius(addr Address) float64 {
	f.ReadLog = append(f.ReadLog, addr)

	if v, ok := f.Temps[addr]; ok {
		return v
	}
	return DisconnectedCelsius
}

// ConversionDelay returns Delay.
func (f *FakeBus) ConversionDelay() time.Duration {
	return f.Delay
}

// SetResolution records the requested resolution.
func (f *FakeBus) SetResolution(addr Address, bits int) error {
	if f.ResolutionError != nil {
		return f.ResolutionError
	}
	if bits < MinResolution || bits > MaxResolution {
		return fmt.Errorf("bus: resolution %d out of range [%d, %d]", bits, MinResolution, MaxResolution)
	}
	if f.Resolutions == nil {
		f.Resolutions = make(map[Address]int)
	}
	f.Resolutions[addr] = bits
	return nil
}

// Reset clears the call logs and rewinds every request script.
func (f *FakeBus) Reset() {
	f.RequestLog = nil
	f.ReadLog = nil
	f.index = make(map[Address]int)
}
