// Package bus provides access to a shared bus of addressable temperature
// sensors, with hardware abstraction.
// The real implementation talks to DS18B20 devices over 1-Wire via periph.io.
// The fake implementation allows testing without hardware.
package bus

import (
	"fmt"
	"strings"
	"time"
)

// Bus starts conversions on, and reads results from, individual sensors.
//
// RequestConversion must not block: it kicks off the conversion and returns.
// Results are available after ConversionDelay.
type Bus interface {
	// RequestConversion starts a conversion on the device at addr.
	// Returns false if the device did not respond.
	RequestConversion(addr Address) bool

	// ReadCelsius returns the last converted value of the device at addr,
	// in degrees Celsius. DisconnectedCelsius is returned when the device
	// cannot be read; the value is garbage if no conversion has completed.
	ReadCelsius(addr Address) float64

	// ConversionDelay is the worst-case conversion time for the current
	// resolution, shared by every device on the bus.
	ConversionDelay() time.Duration

	// SetResolution configures the conversion resolution of one device.
	SetResolution(addr Address, bits int) error
}

// DisconnectedCelsius is the value reported for a device that did not
// answer a read. It is outside every sensible valid range.
const DisconnectedCelsius = -127.0

// Resolution limits, in bits.
const (
	MinResolution     = 9
	MaxResolution     = 12
	DefaultResolution = 12
)

// ConversionDelay returns the worst-case conversion time for a resolution.
// Out-of-range resolutions are treated as the maximum.
func ConversionDelay(bits int) time.Duration {
	switch bits {
	case 9:
		return 94 * time.Millisecond
	case 10:
		return 188 * time.Millisecond
	case 11:
		return 375 * time.Millisecond
	default:
		return 750 * time.Millisecond
	}
}

// Address is the 64-bit ROM code of a device, family code first.
type Address [8]byte

// Family returns the device family code (0x28 for DS18B20).
func (a Address) Family() byte { return a[0] }

// String returns the address as 16 upper-case hex digits.
func (a Address) String() string {
	return fmt.Sprintf("%X", a[:])
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool { return a == Address{} }

// AddressError describes a malformed address string.
type AddressError struct {
	Input  string
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("bus: invalid address %q: %s", e.Input, e.Reason)
}

// ParseAddress parses 16 hex digits, optionally separated by spaces,
// e.g. "28FF4B1D6316037B" or "28 FF 4B 1D 63 16 03 7B".
func ParseAddress(s string) (Address, error) {
	var a Address
	n := 0
	for _, c := range s {
		if c == ' ' {
			continue
		}
		v, ok := hexValue(c)
		if !ok {
			return Address{}, &AddressError{Input: s, Reason: fmt.Sprintf("illegal character %q", c)}
		}
		if n == 2*len(a) {
			return Address{}, &AddressError{Input: s, Reason: "too many digits"}
		}
		a[n/2] = a[n/2]<<4 | v
		n++
	}
	if n != 2*len(a) {
		return Address{}, &AddressError{Input: s, Reason: fmt.Sprintf("got %d hex digits, want %d", n, 2*len(a))}
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
// Intended for tests and compile-time constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func hexValue(c rune) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return byte(c - '0'), true
	case c >= 'a' && c <= 'f':
		return byte(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return byte(c-'A') + 10, true
	}
	return 0, false
}

// FormatAddresses joins addresses for log output.
func FormatAddresses(addrs []Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
