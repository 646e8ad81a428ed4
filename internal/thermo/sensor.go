// Package thermo drives a set of bus-attached thermometers through
// request/await/collect conversion cycles.
// This package does no I/O of its own: the bus, scheduler and clock are
// all injected, and nothing here sleeps or logs.
package thermo

import (
	"github.com/sweeney/thermobus/internal/bus"
	"github.com/sweeney/thermobus/internal/temperature"
)

// Range is the span of plausible values for a sensor. Samples outside it
// are treated as bus noise and discarded.
type Range struct {
	Min temperature.Temperature
	Max temperature.Temperature
}

// DefaultRange rejects the DS18B20 disconnected (-127°C) and power-on
// reset (85°C) values.
func DefaultRange() Range {
	return Range{Min: temperature.Celsius(-120), Max: temperature.Celsius(80)}
}

// Contains reports whether t lies within [Min, Max]. Unknown is never
// contained.
func (r Range) Contains(t temperature.Temperature) bool {
	if t.IsUnknown() {
		return false
	}
	return t.GreaterOrEqual(r.Min) && t.LessOrEqual(r.Max)
}

// SensorConfig describes one device on the bus.
type SensorConfig struct {
	Address bus.Address
	// Range is the valid range. The zero Range means DefaultRange.
	Range Range
	// CalibrationOffset, in degrees Celsius, is added to every accepted sample.
	CalibrationOffset float64
	Label             string
}

// Sensor is a single thermometer on the bus. It is owned by one Controller,
// which drives its state; everything else only observes it.
type Sensor struct {
	addr      bus.Address
	valid     Range
	label     string
	offset    float64
	connected bool
	requested bool
	misses    int

	// Last correctly measured temperature, or unknown if never measured.
	reading temperature.Reading
}

// NewSensor creates a sensor that has not measured anything yet.
func NewSensor(cfg SensorConfig) *Sensor {
	valid := cfg.Range
	if valid == (Range{}) {
		valid = DefaultRange()
	}
	label := cfg.Label
	if label == "" {
		label = cfg.Address.String()
	}
	return &Sensor{
		addr:    cfg.Address,
		valid:   valid,
		label:   label,
		offset:  cfg.CalibrationOffset,
		reading: temperature.NoReading(),
	}
}

// ReadTemperature returns the last accepted reading.
func (s *Sensor) ReadTemperature() temperature.Reading { return s.reading }

// Label returns the human-assigned name, or the address if none was given.
func (s *Sensor) Label() string { return s.label }

// Address returns the bus address.
func (s *Sensor) Address() bus.Address { return s.addr }

// ValidRange returns the range of accepted samples.
func (s *Sensor) ValidRange() Range { return s.valid }

// IsConnected reports whether the last conversion request was acknowledged.
func (s *Sensor) IsConnected() bool { return s.connected }

// IsRequested reports whether a conversion is in flight.
func (s *Sensor) IsRequested() bool { return s.requested }

// Misses returns the number of consecutive cycles without an accepted sample.
func (s *Sensor) Misses() int { return s.misses }

// CalibrationOffset returns the offset added to accepted samples.
func (s *Sensor) CalibrationOffset() float64 { return s.offset }

// SetCalibrationOffset changes the offset for future samples.
func (s *Sensor) SetCalibrationOffset(offset float64) { s.offset = offset }

// requestConversion starts a conversion unless one is already in flight.
// A failed start leaves the sensor unrequested so the next round retries it.
func (s *Sensor) requestConversion(b bus.Bus) bool {
	if s.requested {
		return true
	}
	ok := b.RequestConversion(s.addr)
	s.connected = ok
	s.requested = ok
	return ok
}

// update collects the conversion result. The sensor always returns to idle,
// so one that never answers cannot block later cycles. A sample outside the
// valid range keeps the previous reading.
func (s *Sensor) update(b bus.Bus, now temperature.Uptime) bool {
	s.requested = false
	raw := temperature.Celsius(b.ReadCelsius(s.addr))
	if !s.valid.Contains(raw) {
		s.misses++
		return false
	}
	s.misses = 0
	s.reading = temperature.Reading{
		Value: raw.Add(temperature.Celsius(s.offset)),
		Time:  now,
	}
	return true
}
