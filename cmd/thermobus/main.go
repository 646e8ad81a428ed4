// Command thermobus reads DS18B20 temperature sensors on a 1-Wire bus and
// publishes their readings to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sweeney/thermobus/internal/bus"
	"github.com/sweeney/thermobus/internal/gpio"
	"github.com/sweeney/thermobus/internal/mqtt"
	"github.com/sweeney/thermobus/internal/sched"
	"github.com/sweeney/thermobus/internal/status"
	"github.com/sweeney/thermobus/internal/temperature"
	"github.com/sweeney/thermobus/internal/thermo"
	"github.com/sweeney/thermobus/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("env: %v", err)
	}

	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	// Initialize the bus
	ow, err := bus.Open(cfg.Bus, cfg.Parasite)
	if err != nil {
		return fmt.Errorf("init bus: %w", err)
	}
	defer ow.Close()

	// Locate mode
	if cfg.Locate {
		addrs, err := ow.Search()
		if err != nil {
			return fmt.Errorf("search bus: %w", err)
		}
		fmt.Printf("%d device(s) on %s\n", len(addrs), ow)
		for _, a := range addrs {
			fmt.Println(a)
		}
		return nil
	}
	if addrs, err := ow.Search(); err != nil {
		log.Printf("bus: search: %v", err)
	} else {
		log.Printf("bus: %d device(s) on %s: %s", len(addrs), ow, bus.FormatAddresses(addrs))
	}

	if len(cfg.Sensors) == 0 {
		return fmt.Errorf("no sensors configured (use --sensors or %s)", envSensors)
	}

	// Initialize the status LED; the daemon runs without one.
	var led gpio.Indicator = gpio.Nop{}
	if cfg.LEDPin >= 0 {
		ind, err := gpio.NewRealIndicator(cfg.LEDPin)
		if err != nil {
			log.Printf("led disabled: %v", err)
		} else {
			led = ind
		}
	}
	defer led.Close()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	clock := temperature.NewSystemClock()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(clock.Boot(), status.Config{
		IntervalMs:   cfg.Interval.Milliseconds(),
		StaleAfterMs: cfg.StaleAfter.Milliseconds(),
		HeartbeatMs:  cfg.Heartbeat.Milliseconds(),
		Resolution:   cfg.Resolution,
		Unit:         cfg.Unit,
		Bus:          ow.String(),
		Broker:       cfg.Broker,
		HTTPPort:     cfg.HTTPAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	queue := sched.NewQueue(1)
	defer queue.Close()

	sensors := make([]*thermo.Sensor, len(cfg.Sensors))
	for i, sc := range cfg.Sensors {
		sensors[i] = thermo.NewSensor(sc)
	}

	d := &daemon{
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		led:        led,
		clock:      clock,
		wall:       clock.WallTime,
		now:        time.Now,
		staleAfter: cfg.StaleAfter,
		heartbeat:  cfg.Heartbeat,
		unit:       cfg.Unit,
	}
	d.ctrl = thermo.NewController(ow, queue, clock, sensors, d.onCycle)

	if err := d.ctrl.Setup(cfg.Resolution); err != nil {
		// Unconfigured sensors keep converting at their stored resolution.
		log.Printf("setup: %v", err)
	}
	for _, s := range sensors {
		r := s.ValidRange()
		log.Printf("sensor %s: address=%s range=[%v, %v] offset=%g", s.Label(), s.Address(), r.Min, r.Max, s.CalibrationOffset())
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: sensors=%d interval=%v stale-after=%v resolution=%d broker=%s heartbeat=%v",
		len(sensors), cfg.Interval, cfg.StaleAfter, cfg.Resolution, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// First cycle immediately rather than one interval after startup.
	d.ctrl.RequestConversion()

	return d.runLoop(ticker.C, queue.C(), sigCh)
}

// daemon wires a Controller's completed cycles to the status tracker,
// MQTT and the status LED. All methods run on the run loop goroutine.
type daemon struct {
	ctrl       *thermo.Controller
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	led        gpio.Indicator
	clock      temperature.Clock
	wall       func(temperature.Uptime) time.Time
	now        func() time.Time
	staleAfter time.Duration
	heartbeat  time.Duration
	unit       temperature.Unit
}

// runLoop owns the Controller: conversions start on tick, scheduled updates
// arrive on tasks, and both run here so the Controller is never shared.
func (d *daemon) runLoop(tick <-chan time.Time, tasks <-chan func(), sig <-chan os.Signal) error {
	lastHeartbeat := d.now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			d.refreshConnection()
			snap := d.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  d.now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			if err := d.led.Set(false); err != nil {
				log.Printf("led: %v", err)
			}
			return nil

		case task := <-tasks:
			task()

		case <-tick:
			d.ctrl.RequestConversion()

			t := d.now()
			if d.heartbeat > 0 && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				d.publishHeartbeat(t)
			}
		}
	}
}

// onCycle is the Controller's completion callback.
func (d *daemon) onCycle() {
	snaps := status.Collect(d.ctrl.Sensors(), d.clock, d.staleAfter, d.wall)
	cycle := d.ctrl.LastCycle()
	d.tracker.Update(snaps, cycle)
	d.refreshConnection()

	ts := d.now()
	fresh, stale, disconnected := 0, 0, 0
	for _, s := range snaps {
		if s.Value.IsUnknown() {
			stale++
		} else {
			fresh++
		}
		if !s.Connected {
			disconnected++
		}
		if err := d.publisher.Publish(mqtt.ReadingEvent{Timestamp: ts, Sensor: s, Unit: d.unit}); err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
	}

	if err := d.led.Set(d.tracker.Snapshot().Healthy()); err != nil {
		log.Printf("led: %v", err)
	}

	log.Printf("cycle %d: fresh=%d stale=%d disconnected=%d", cycle.Number, fresh, stale, disconnected)
}

func (d *daemon) publishHeartbeat(t time.Time) {
	// Refresh network info for heartbeat
	if net := readNetworkInfo(); net != nil {
		d.tracker.SetNetwork(net)
	}
	d.refreshConnection()
	snap := d.tracker.Snapshot()
	log.Printf("heartbeat: uptime=%v cycles=%d healthy=%v", snap.Uptime().Truncate(time.Second), snap.Cycle.Number, snap.Healthy())

	hbEvent := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := d.publisher.PublishSystem(hbEvent); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

func (d *daemon) refreshConnection() {
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
