package thermo

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sweeney/thermobus/internal/bus"
	"github.com/sweeney/thermobus/internal/sched"
	"github.com/sweeney/thermobus/internal/temperature"
)

// MaxRequestRounds bounds the retries of failed conversion requests within
// one cycle. Sensors still unrequested afterwards sit the cycle out.
const MaxRequestRounds = 5

// Cycle summarizes the most recently completed conversion cycle.
type Cycle struct {
	// Number counts completed cycles, starting at 1.
	Number int
	// Requested is how many sensors acknowledged the conversion request.
	Requested int
	// Rounds is how many request rounds were needed (at most MaxRequestRounds).
	Rounds int
	// Fresh is how many sensors produced an accepted sample.
	Fresh int
}

// Controller owns a set of sensors sharing one bus and runs their
// conversion cycles: request on every sensor, wait for the bus conversion
// time, then collect every result.
//
// Controller is not safe for concurrent use. All calls, including the
// scheduled update, must happen on one goroutine.
type Controller struct {
	bus      bus.Bus
	sched    sched.Scheduler
	clock    temperature.Clock
	onUpdate func()
	shuffle  func(n int, swap func(i, j int))

	sensors   []*Sensor
	perm      []int
	requested bool

	pending Cycle
	last    Cycle
}

// Option configures a Controller.
type Option func(*Controller)

// WithShuffle replaces the permutation source, e.g. with a seeded or
// identity shuffle in tests.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(c *Controller) { c.shuffle = shuffle }
}

// NewController creates a controller for the given sensors. onUpdate, if
// non-nil, is called once after every completed cycle.
func NewController(b bus.Bus, s sched.Scheduler, clock temperature.Clock, sensors []*Sensor, onUpdate func(), opts ...Option) *Controller {
	c := &Controller{
		bus:      b,
		sched:    s,
		clock:    clock,
		onUpdate: onUpdate,
		shuffle:  rand.Shuffle,
		sensors:  sensors,
		perm:     make([]int, len(sensors)),
	}
	for i := range c.perm {
		c.perm[i] = i
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Setup sets the conversion resolution of every sensor. Every sensor is
// attempted; the returned error joins the individual failures.
func (c *Controller) Setup(resolution int) error {
	var errs []error
	for _, s := range c.sensors {
		if err := c.bus.SetResolution(s.addr, resolution); err != nil {
			errs = append(errs, fmt.Errorf("sensor %s: %w", s.label, err))
		}
	}
	return errors.Join(errs...)
}

// Sensors returns the sensors in configuration order.
func (c *Controller) Sensors() []*Sensor {
	out := make([]*Sensor, len(c.sensors))
	copy(out, c.sensors)
	return out
}

// Sensor returns the sensor with the given label, or nil.
func (c *Controller) Sensor(label string) *Sensor {
	for _, s := range c.sensors {
		if s.label == label {
			return s
		}
	}
	return nil
}

// IsRequested reports whether a cycle is in flight.
func (c *Controller) IsRequested() bool { return c.requested }

// LastCycle returns the summary of the last completed cycle. The zero Cycle
// means none has completed yet.
func (c *Controller) LastCycle() Cycle { return c.last }

// RequestConversion starts a cycle. It does nothing while a cycle is
// already in flight.
//
// The sensor order is reshuffled every cycle so that, on a flaky bus, the
// failures spread across sensors instead of always hitting the same ones.
// Failed requests are retried for up to MaxRequestRounds rounds, then the
// update is scheduled after the bus conversion delay.
func (c *Controller) RequestConversion() {
	if c.requested {
		return
	}
	c.requested = true

	c.shuffle(len(c.perm), func(i, j int) {
		c.perm[i], c.perm[j] = c.perm[j], c.perm[i]
	})

	rounds := 0
	for rounds < MaxRequestRounds {
		rounds++
		all := true
		for _, i := range c.perm {
			if !c.sensors[i].requestConversion(c.bus) {
				all = false
			}
		}
		if all {
			break
		}
	}

	requested := 0
	for _, s := range c.sensors {
		if s.requested {
			requested++
		}
	}
	c.pending = Cycle{Number: c.last.Number + 1, Requested: requested, Rounds: rounds}

	c.sched.ScheduleAfter(c.bus.ConversionDelay(), c.update)
}

// update collects every sensor, in the same order the requests went out.
func (c *Controller) update() {
	c.requested = false
	now := c.clock.Now()

	cycle := c.pending
	for _, i := range c.perm {
		if c.sensors[i].update(c.bus, now) {
			cycle.Fresh++
		}
	}
	c.last = cycle

	if c.onUpdate != nil {
		c.onUpdate()
	}
}
