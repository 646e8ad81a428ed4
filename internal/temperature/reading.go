package temperature

import (
	"math"
	"time"
)

// Uptime is a monotonic point in time measured from process boot.
// Uptime(0) is boot itself.
type Uptime time.Duration

// Add returns u shifted by d.
func (u Uptime) Add(d time.Duration) Uptime { return u + Uptime(d) }

// Sub returns the duration u - v.
func (u Uptime) Sub(v Uptime) time.Duration { return time.Duration(u - v) }

// Duration returns the time elapsed since boot.
func (u Uptime) Duration() time.Duration { return time.Duration(u) }

// Clock reports the current uptime.
type Clock interface {
	Now() Uptime
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() Uptime

// Now calls f.
func (f ClockFunc) Now() Uptime { return f() }

// SystemClock measures uptime from the moment it was created.
type SystemClock struct {
	boot time.Time
}

// NewSystemClock returns a clock whose boot is now.
func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

// Now returns the uptime, using the monotonic clock reading.
func (c *SystemClock) Now() Uptime { return Uptime(time.Since(c.boot)) }

// Boot returns the wall-clock time of boot.
func (c *SystemClock) Boot() time.Time { return c.boot }

// WallTime converts an uptime to wall-clock time.
func (c *SystemClock) WallTime(u Uptime) time.Time { return c.boot.Add(u.Duration()) }

// Reading is a thermometer's last known state: a value and when it was taken.
type Reading struct {
	Value Temperature
	Time  Uptime
}

// NoReading returns the state of a thermometer that has never measured
// anything: an unknown value stamped at boot.
func NoReading() Reading {
	return Reading{Value: Unknown()}
}

// Age returns how long before now the reading was taken.
func (r Reading) Age(now Uptime) time.Duration {
	return now.Sub(r.Time)
}

// Thermometer is anything that can report its last known temperature.
type Thermometer interface {
	// ReadTemperature returns the last known reading. It has no side effects.
	ReadTemperature() Reading
}

// NeverExpires is the default staleness threshold: readings never go stale.
const NeverExpires = time.Duration(math.MaxInt64)

// Expiring wraps a Thermometer and hides readings that are too old.
// Once a reading is at least Threshold old its value becomes Unknown; the
// original timestamp is kept so callers can still tell when it was taken.
type Expiring struct {
	src       Thermometer
	clock     Clock
	threshold time.Duration
}

// NewExpiring wraps src. A threshold <= 0 means NeverExpires.
// The wrapped thermometer is not owned and is never modified.
func NewExpiring(src Thermometer, clock Clock, threshold time.Duration) *Expiring {
	e := &Expiring{src: src, clock: clock}
	e.SetThreshold(threshold)
	return e
}

// Threshold returns the age at which readings expire.
func (e *Expiring) Threshold() time.Duration { return e.threshold }

// SetThreshold changes the expiry age. A threshold <= 0 means NeverExpires.
func (e *Expiring) SetThreshold(threshold time.Duration) {
	if threshold <= 0 {
		threshold = NeverExpires
	}
	e.threshold = threshold
}

// ReadTemperature returns the wrapped reading, with an Unknown value if it
// has expired.
func (e *Expiring) ReadTemperature() Reading {
	r := e.src.ReadTemperature()
	if r.Age(e.clock.Now()) >= e.threshold {
		r.Value = Unknown()
	}
	return r
}

// IsStale reports whether the wrapped reading has expired.
func (e *Expiring) IsStale() bool {
	return e.src.ReadTemperature().Age(e.clock.Now()) >= e.threshold
}
