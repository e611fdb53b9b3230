package button

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-glowtape/internal/clock"
)

const DefaultWindow = 50 * time.Millisecond

type State uint8

const (
	Idle State = iota
	StartPress
	Pressed
	StartRelease
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case StartPress:
		return "start-press"
	case Pressed:
		return "pressed"
	case StartRelease:
		return "start-release"
	default:
		return "INVALID"
	}
}

type Config struct {
	// PressWindow is how long the button must stay asserted to count.
	PressWindow time.Duration
	// ReleaseWindow is how long it must stay released before the next press
	// can start. Zero accepts the release on the next poll.
	ReleaseWindow time.Duration
	// ActiveLow is set for buttons that pull the line to ground.
	ActiveLow bool
}

// Counter debounces a push button into a press count. Both the press and the
// release edge are debounced; the count moves only on a qualified press.
type Counter struct {
	in  gpio.PinIn
	clk clock.Clock
	cfg Config

	state State
	since time.Time
	count int
}

func New(in gpio.PinIn, clk clock.Clock, cfg Config) (*Counter, error) {
	if in == nil {
		return nil, errors.New("button: input pin required")
	}
	if clk == nil {
		return nil, errors.New("button: clock required")
	}
	if cfg.PressWindow <= 0 {
		cfg.PressWindow = DefaultWindow
	}
	if cfg.ReleaseWindow < 0 {
		cfg.ReleaseWindow = 0
	}
	pull := gpio.PullDown
	if cfg.ActiveLow {
		pull = gpio.PullUp
	}
	if err := in.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("button: configure %s: %w", in, err)
	}
	c := &Counter{in: in, clk: clk, cfg: cfg}
	c.Reset()
	return c, nil
}

func (c *Counter) asserted() bool {
	l := c.in.Read()
	if c.cfg.ActiveLow {
		return l == gpio.Low
	}
	return l == gpio.High
}

func (c *Counter) Poll() {
	down := c.asserted()
	now := c.clk.Now()
	held := now.Sub(c.since)

	switch c.state {
	case Idle:
		if down {
			c.enter(StartPress, now)
		}
	case StartPress:
		switch {
		case !down:
			c.enter(Idle, now)
		case held >= c.cfg.PressWindow:
			c.count++
			c.enter(Pressed, now)
		}
	case Pressed:
		if !down {
			c.enter(StartRelease, now)
		}
	case StartRelease:
		switch {
		case down:
			// Release bounce; the press already counted.
			c.state = Pressed
		case held >= c.cfg.ReleaseWindow:
			c.enter(Idle, now)
		}
	}
}

func (c *Counter) enter(s State, now time.Time) {
	c.state = s
	c.since = now
}

// Reset returns to Idle with a zero count. The pin is left as configured.
func (c *Counter) Reset() {
	c.state = Idle
	c.since = c.clk.Now()
	c.count = 0
}

func (c *Counter) Count() int   { return c.count }
func (c *Counter) State() State { return c.state }
