// Package temperature contains the value types shared by every thermometer:
// Temperature, Reading and the Thermometer capability.
// This package has NO external dependencies (no bus, MQTT, OS, or time.Sleep).
// Time is always injectable via a Clock.
package temperature

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Temperature is an immutable temperature value, stored as degrees Celsius.
//
// Celsius is the internal representation so that integral Celsius values
// (zero in particular) compare equal exactly. The zero value is 0°C; use
// Unknown for "no measurement".
type Temperature struct {
	c float64
}

// Unknown returns a temperature representing an unknown value.
func Unknown() Temperature {
	return Temperature{c: math.NaN()}
}

// Celsius returns a temperature of c degrees Celsius.
func Celsius(c float64) Temperature {
	return Temperature{c: c}
}

// Kelvin returns a temperature of k kelvins.
//
// Since the value is stored in Celsius, Kelvin(x).Kelvin() is generally
// only approximately equal to x.
func Kelvin(k float64) Temperature {
	return Temperature{c: k - 273.15}
}

// Fahrenheit returns a temperature of f degrees Fahrenheit.
//
// Since the value is stored in Celsius, Fahrenheit(x).Fahrenheit() is
// generally only approximately equal to x.
func Fahrenheit(f float64) Temperature {
	return Temperature{c: (f - 32) / 1.8}
}

// Celsius returns the temperature in degrees Celsius.
func (t Temperature) Celsius() float64 { return t.c }

// Kelvin returns the temperature in kelvins.
func (t Temperature) Kelvin() float64 { return t.c + 273.15 }

// Fahrenheit returns the temperature in degrees Fahrenheit.
func (t Temperature) Fahrenheit() float64 { return t.c*1.8 + 32 }

// IsUnknown reports whether t represents an unknown temperature.
func (t Temperature) IsUnknown() bool { return math.IsNaN(t.c) }

// Equal reports whether t and u are the same temperature.
// An unknown temperature is never equal to anything, including itself.
func (t Temperature) Equal(u Temperature) bool { return t.c == u.c }

// Less reports whether t is colder than u. False if either is unknown.
func (t Temperature) Less(u Temperature) bool { return t.c < u.c }

// Greater reports whether t is warmer than u. False if either is unknown.
func (t Temperature) Greater(u Temperature) bool { return u.c < t.c }

// LessOrEqual reports whether t is not warmer than u. False if either is unknown.
func (t Temperature) LessOrEqual(u Temperature) bool { return t.c <= u.c }

// GreaterOrEqual reports whether t is not colder than u. False if either is unknown.
func (t Temperature) GreaterOrEqual(u Temperature) bool { return t.c >= u.c }

// Compare returns -1, 0 or +1 depending on whether t is colder than, equal
// to, or warmer than u. Callers must check IsUnknown first; the result for
// unknown operands is 0 and carries no meaning.
func (t Temperature) Compare(u Temperature) int {
	switch {
	case t.c < u.c:
		return -1
	case t.c > u.c:
		return 1
	default:
		return 0
	}
}

// Add returns t + u, computed in Celsius. An unknown operand yields Unknown.
func (t Temperature) Add(u Temperature) Temperature { return Temperature{c: t.c + u.c} }

// Sub returns t - u, computed in Celsius. An unknown operand yields Unknown.
func (t Temperature) Sub(u Temperature) Temperature { return Temperature{c: t.c - u.c} }

// String formats t in Celsius.
func (t Temperature) String() string { return t.Format(UnitCelsius) }

// Format renders t in the given unit, e.g. "21.5°C", or "?°C" when unknown.
func (t Temperature) Format(u Unit) string {
	var v float64
	switch u {
	case UnitFahrenheit:
		v = t.Fahrenheit()
	case UnitKelvin:
		v = t.Kelvin()
	default:
		u = UnitCelsius
		v = t.Celsius()
	}
	if t.IsUnknown() {
		return "?°" + u.String()
	}
	return fmt.Sprintf("%g°%s", v, u)
}

// In returns the numeric value of t in the given unit.
func (t Temperature) In(u Unit) float64 {
	switch u {
	case UnitFahrenheit:
		return t.Fahrenheit()
	case UnitKelvin:
		return t.Kelvin()
	default:
		return t.Celsius()
	}
}

// Unit selects the scale used when presenting a temperature.
type Unit byte

const (
	UnitCelsius    Unit = 'C'
	UnitFahrenheit Unit = 'F'
	UnitKelvin     Unit = 'K'
)

// ErrUnknownUnit is returned by ParseUnit for unrecognised input.
var ErrUnknownUnit = errors.New("temperature: unknown unit")

// ParseUnit accepts "C", "F", "K" (any case) or the full scale names.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CELSIUS":
		return UnitCelsius, nil
	case "F", "FAHRENHEIT":
		return UnitFahrenheit, nil
	case "K", "KELVIN":
		return UnitKelvin, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

// String returns the single-letter unit symbol.
func (u Unit) String() string { return string(rune(u)) }
