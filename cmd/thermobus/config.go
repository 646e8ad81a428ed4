package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/thermobus/internal/bus"
	"github.com/sweeney/thermobus/internal/gpio"
	"github.com/sweeney/thermobus/internal/mqtt"
	"github.com/sweeney/thermobus/internal/temperature"
	"github.com/sweeney/thermobus/internal/thermo"
)

// Environment variables providing flag defaults. A .env file in the working
// directory is loaded into the environment first.
const (
	envSensors    = "THERMOBUS_SENSORS"
	envBroker     = "THERMOBUS_BROKER"
	envClientID   = "THERMOBUS_CLIENT_ID"
	envBus        = "THERMOBUS_BUS"
	envParasite   = "THERMOBUS_PARASITE"
	envUnit       = "THERMOBUS_UNIT"
	envInterval   = "THERMOBUS_INTERVAL"
	envStaleAfter = "THERMOBUS_STALE_AFTER"
	envHeartbeat  = "THERMOBUS_HEARTBEAT"
	envResolution = "THERMOBUS_RESOLUTION"
	envHTTP       = "THERMOBUS_HTTP"
	envLEDPin     = "THERMOBUS_LED_PIN"
)

// config is the parsed daemon configuration.
type config struct {
	Sensors    []thermo.SensorConfig
	Broker     string
	ClientID   string
	Bus        string
	Parasite   bool
	Unit       temperature.Unit
	Interval   time.Duration
	StaleAfter time.Duration
	Heartbeat  time.Duration
	Resolution int
	HTTPAddr   string
	LEDPin     int // negative disables the LED
	Locate     bool
}

// parseConfig parses command-line args with defaults from getenv.
func parseConfig(args []string, getenv func(string) string) (config, error) {
	var cfg config
	var errs []string
	env := envLookup{getenv: getenv, errs: &errs}

	fs := flag.NewFlagSet("thermobus", flag.ContinueOnError)
	sensors := fs.String("sensors", getenv(envSensors), "Sensors as label=ADDRESS[:min:max[:offset]], comma-separated")
	fs.StringVar(&cfg.Broker, "broker", env.str(envBroker, "tcp://192.168.1.200:1883"), "MQTT broker address")
	fs.StringVar(&cfg.ClientID, "client-id", getenv(envClientID), "MQTT client ID (default thermobus-<uuid>)")
	fs.StringVar(&cfg.Bus, "bus", getenv(envBus), "1-Wire bus name (empty for the first available)")
	fs.BoolVar(&cfg.Parasite, "parasite", env.boolean(envParasite, false), "Sensors are parasite powered")
	unit := fs.String("unit", env.str(envUnit, "C"), "Display unit: C, F or K")
	fs.DurationVar(&cfg.Interval, "interval", env.duration(envInterval, 10*time.Second), "Conversion cycle interval")
	fs.DurationVar(&cfg.StaleAfter, "stale-after", env.duration(envStaleAfter, time.Minute), "Readings older than this are reported unknown (0 to never expire)")
	fs.DurationVar(&cfg.Heartbeat, "heartbeat", env.duration(envHeartbeat, 15*time.Minute), "Heartbeat interval (0 to disable)")
	fs.IntVar(&cfg.Resolution, "resolution", env.integer(envResolution, bus.DefaultResolution), "Sensor resolution in bits (9-12)")
	fs.StringVar(&cfg.HTTPAddr, "http", env.str(envHTTP, ":80"), "HTTP status address (empty to disable)")
	fs.IntVar(&cfg.LEDPin, "led-pin", env.integer(envLEDPin, gpio.PinLED), "BCM pin number for the status LED (-1 to disable)")
	fs.BoolVar(&cfg.Locate, "locate", false, "List the addresses found on the bus and exit")

	if len(errs) > 0 {
		return config{}, fmt.Errorf("environment: %s", strings.Join(errs, "; "))
	}
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	u, err := temperature.ParseUnit(*unit)
	if err != nil {
		return config{}, fmt.Errorf("unit: %w", err)
	}
	cfg.Unit = u

	if cfg.Resolution < bus.MinResolution || cfg.Resolution > bus.MaxResolution {
		return config{}, fmt.Errorf("resolution %d out of range [%d, %d]", cfg.Resolution, bus.MinResolution, bus.MaxResolution)
	}
	if cfg.Interval <= 0 {
		return config{}, fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}

	cfg.Sensors, err = parseSensors(*sensors)
	if err != nil {
		return config{}, fmt.Errorf("sensors: %w", err)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = mqtt.NewClientID()
	}
	return cfg, nil
}

// parseSensors parses a comma-separated list of sensor specs:
//
//	label=ADDRESS[:min:max[:offset]]
//
// The label may be omitted, in which case the address is used. min and max
// are in degrees Celsius; offset is a calibration offset in degrees Celsius.
func parseSensors(s string) ([]thermo.SensorConfig, error) {
	var out []thermo.SensorConfig
	seen := map[string]bool{}
	for _, spec := range strings.Split(s, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		sc, err := parseSensor(spec)
		if err != nil {
			return nil, err
		}
		label := sc.Label
		if label == "" {
			label = sc.Address.String()
		}
		if seen[label] {
			return nil, fmt.Errorf("duplicate sensor %q", label)
		}
		seen[label] = true
		out = append(out, sc)
	}
	return out, nil
}

func parseSensor(spec string) (thermo.SensorConfig, error) {
	var sc thermo.SensorConfig
	rest := spec
	if label, after, ok := strings.Cut(spec, "="); ok {
		sc.Label = strings.TrimSpace(label)
		if sc.Label == "" {
			return sc, fmt.Errorf("%q: empty label", spec)
		}
		rest = after
	}

	parts := strings.Split(rest, ":")
	addr, err := bus.ParseAddress(parts[0])
	if err != nil {
		return sc, fmt.Errorf("%q: %w", spec, err)
	}
	sc.Address = addr

	switch len(parts) {
	case 1:
	case 3, 4:
		lo, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return sc, fmt.Errorf("%q: min: %w", spec, err)
		}
		hi, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return sc, fmt.Errorf("%q: max: %w", spec, err)
		}
		if lo > hi {
			return sc, fmt.Errorf("%q: min %g above max %g", spec, lo, hi)
		}
		sc.Range = thermo.Range{Min: temperature.Celsius(lo), Max: temperature.Celsius(hi)}
		if len(parts) == 4 {
			sc.CalibrationOffset, err = strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
			if err != nil {
				return sc, fmt.Errorf("%q: offset: %w", spec, err)
			}
		}
	default:
		return sc, fmt.Errorf("%q: want ADDRESS or ADDRESS:min:max[:offset]", spec)
	}
	return sc, nil
}

// envLookup reads typed defaults from the environment, collecting malformed
// values instead of silently ignoring them.
type envLookup struct {
	getenv func(string) string
	errs   *[]string
}

func (e envLookup) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e envLookup) duration(key string, def time.Duration) time.Duration {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s=%q: %v", key, v, err))
		return def
	}
	return d
}

func (e envLookup) integer(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s=%q: %v", key, v, err))
		return def
	}
	return n
}

func (e envLookup) boolean(key string, def bool) bool {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*e.errs = append(*e.errs, fmt.Sprintf("%s=%q: %v", key, v, err))
		return def
	}
	return b
}
