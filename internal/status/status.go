// Package status provides a thread-safe status tracker for the thermobus daemon.
// It is written by the run loop after every conversion cycle and read by
// HTTP handlers and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/thermobus/internal/temperature"
	"github.com/sweeney/thermobus/internal/thermo"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	IntervalMs   int64
	StaleAfterMs int64
	HeartbeatMs  int64
	Resolution   int
	Unit         temperature.Unit
	Bus          string
	Broker       string
	HTTPPort     string
}

// SensorSnapshot is the state of one sensor at the end of a cycle.
type SensorSnapshot struct {
	Label     string
	Address   string
	Value     temperature.Temperature // Unknown if never measured or stale
	ReadAt    time.Time               // zero if never measured
	Stale     bool
	Connected bool
	Misses    int
}

// HasReading reports whether the sensor has ever produced a sample.
func (s SensorSnapshot) HasReading() bool { return !s.ReadAt.IsZero() }

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Sensors       []SensorSnapshot
	Cycle         thermo.Cycle
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether at least one conversion cycle has completed.
func (s Snapshot) Ready() bool { return s.Cycle.Number > 0 }

// Healthy reports whether every sensor currently has a fresh reading.
func (s Snapshot) Healthy() bool {
	if !s.Ready() || len(s.Sensors) == 0 {
		return false
	}
	for _, sn := range s.Sensors {
		if sn.Stale || sn.Value.IsUnknown() {
			return false
		}
	}
	return true
}

// Sensor returns the snapshot of the labelled sensor.
func (s Snapshot) Sensor(label string) (SensorSnapshot, bool) {
	for _, sn := range s.Sensors {
		if sn.Label == label {
			return sn, true
		}
	}
	return SensorSnapshot{}, false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update replaces the sensor states and cycle summary.
// Called from the run loop after every completed cycle.
func (t *Tracker) Update(sensors []SensorSnapshot, cycle thermo.Cycle) {
	cp := make([]SensorSnapshot, len(sensors))
	copy(cp, sensors)
	t.mu.Lock()
	t.snap.Sensors = cp
	t.snap.Cycle = cycle
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Sensors = append([]SensorSnapshot(nil), t.snap.Sensors...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// Collect builds sensor snapshots from thermometers. Each sensor is read
// through an Expiring decorator so stale readings come back Unknown.
// wall converts uptime to wall-clock time.
func Collect(sensors []*thermo.Sensor, clock temperature.Clock, staleAfter time.Duration, wall func(temperature.Uptime) time.Time) []SensorSnapshot {
	out := make([]SensorSnapshot, 0, len(sensors))
	for _, s := range sensors {
		exp := temperature.NewExpiring(s, clock, staleAfter)
		r := exp.ReadTemperature()
		sn := SensorSnapshot{
			Label:     s.Label(),
			Address:   s.Address().String(),
			Value:     r.Value,
			Connected: s.IsConnected(),
			Misses:    s.Misses(),
		}
		// Stale readings still carry the time of the last sample.
		if !s.ReadTemperature().Value.IsUnknown() {
			sn.ReadAt = wall(r.Time)
			sn.Stale = exp.IsStale()
		}
		out = append(out, sn)
	}
	return out
}
