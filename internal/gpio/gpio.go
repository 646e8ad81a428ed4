// Package gpio drives the status LED with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Indicator is a single on/off output.
type Indicator interface {
	// Set drives the output. on=true lights the LED.
	Set(on bool) error

	// Close turns the output off and releases GPIO resources.
	Close() error
}

// PinLED is the default status LED pin (BCM numbering).
const PinLED = 17

// Nop is an Indicator that does nothing, used when no LED is configured.
type Nop struct{}

// Set does nothing.
func (Nop) Set(bool) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
