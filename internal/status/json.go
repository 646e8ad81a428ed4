package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/thermobus/internal/temperature"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Ready         bool         `json:"ready"`
	Healthy       bool         `json:"healthy"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Cycle         CycleJSON    `json:"cycle"`
	Sensors       []SensorJSON `json:"sensors"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CycleJSON is the JSON representation of the last conversion cycle.
type CycleJSON struct {
	Number    int `json:"number"`
	Requested int `json:"requested"`
	Rounds    int `json:"rounds"`
	Fresh     int `json:"fresh"`
}

// SensorJSON is the JSON representation of one sensor.
// Value and Celsius are null when no fresh reading is available.
type SensorJSON struct {
	Label     string   `json:"label"`
	Address   string   `json:"address"`
	Value     *float64 `json:"value"`
	Unit      string   `json:"unit"`
	Celsius   *float64 `json:"celsius"`
	Display   string   `json:"display"`
	ReadAt    string   `json:"read_at,omitempty"`
	Stale     bool     `json:"stale"`
	Connected bool     `json:"connected"`
	Misses    int      `json:"misses"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	IntervalMs   int64  `json:"interval_ms"`
	StaleAfterMs int64  `json:"stale_after_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Resolution   int    `json:"resolution"`
	Unit         string `json:"unit"`
	Bus          string `json:"bus"`
	Broker       string `json:"broker"`
	HTTPPort     string `json:"http_port"`
}

// unitOrDefault falls back to Celsius for an unset unit.
func unitOrDefault(u temperature.Unit) temperature.Unit {
	if u == 0 {
		return temperature.UnitCelsius
	}
	return u
}

// FormatSensor returns the JSON representation of one sensor in unit u.
func FormatSensor(s SensorSnapshot, u temperature.Unit) SensorJSON {
	u = unitOrDefault(u)
	out := SensorJSON{
		Label:     s.Label,
		Address:   s.Address,
		Unit:      u.String(),
		Display:   s.Value.Format(u),
		Stale:     s.Stale,
		Connected: s.Connected,
		Misses:    s.Misses,
	}
	if !s.Value.IsUnknown() {
		v := s.Value.In(u)
		c := s.Value.Celsius()
		out.Value = &v
		out.Celsius = &c
	}
	if s.HasReading() {
		out.ReadAt = s.ReadAt.UTC().Format(time.RFC3339)
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	unit := unitOrDefault(snap.Config.Unit)
	sensors := make([]SensorJSON, 0, len(snap.Sensors))
	for _, s := range snap.Sensors {
		sensors = append(sensors, FormatSensor(s, unit))
	}

	return StatusInner{
		Ready:         snap.Ready(),
		Healthy:       snap.Healthy(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Cycle: CycleJSON{
			Number:    snap.Cycle.Number,
			Requested: snap.Cycle.Requested,
			Rounds:    snap.Cycle.Rounds,
			Fresh:     snap.Cycle.Fresh,
		},
		Sensors: sensors,
		Config: ConfigJSON{
			IntervalMs:   snap.Config.IntervalMs,
			StaleAfterMs: snap.Config.StaleAfterMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Resolution:   snap.Config.Resolution,
			Unit:         unit.String(),
			Bus:          snap.Config.Bus,
			Broker:       snap.Config.Broker,
			HTTPPort:     snap.Config.HTTPPort,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
