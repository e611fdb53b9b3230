package encoder

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-glowtape/internal/clock"
)

const (
	DefaultFastThreshold = 7 * time.Millisecond
	DefaultIdleTimeout   = 500 * time.Millisecond
)

// Kind classifies one poll of the motion sensor.
type Kind uint8

const (
	NoTick    Kind = iota // no rising edge since the previous poll
	Tick                  // regular edge
	FastTick              // edge closer than FastThreshold to the previous one
	FirstTick             // edge after the medium was idle for IdleTimeout
)

func (k Kind) String() string {
	switch k {
	case NoTick:
		return "no-tick"
	case Tick:
		return "tick"
	case FastTick:
		return "fast-tick"
	case FirstTick:
		return "first-tick"
	default:
		return "INVALID"
	}
}

// Event is the result of a single Poll.
type Event struct {
	Kind  Kind
	Level gpio.Level
	At    time.Time
}

type Config struct {
	FastThreshold time.Duration
	IdleTimeout   time.Duration
	Pull          gpio.Pull
}

// Encoder turns the sensor line into motion events. It must be polled
// regularly; edges shorter than one poll period are lost.
type Encoder struct {
	in     gpio.PinIn
	status gpio.PinOut
	clk    clock.Clock
	cfg    Config

	lastRead gpio.Level
	lastTick time.Time
}

// New configures in as an input. status is optional.
func New(in gpio.PinIn, status gpio.PinOut, clk clock.Clock, cfg Config) (*Encoder, error) {
	if in == nil {
		return nil, errors.New("encoder: input pin required")
	}
	if clk == nil {
		return nil, errors.New("encoder: clock required")
	}
	if cfg.FastThreshold <= 0 {
		cfg.FastThreshold = DefaultFastThreshold
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if err := in.In(cfg.Pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("encoder: configure %s: %w", in, err)
	}
	e := &Encoder{
		in:       in,
		status:   status,
		clk:      clk,
		cfg:      cfg,
		lastRead: in.Read(),
		lastTick: clk.Now(),
	}
	e.setStatus(gpio.Low)
	return e, nil
}

func (e *Encoder) Poll() Event {
	level := e.in.Read()
	edge := level == gpio.High && e.lastRead == gpio.Low
	e.lastRead = level

	now := e.clk.Now()
	if !edge {
		return Event{Kind: NoTick, Level: level, At: now}
	}

	since := now.Sub(e.lastTick)
	e.lastTick = now

	if since < e.cfg.FastThreshold {
		e.setStatus(gpio.High)
		return Event{Kind: FastTick, Level: level, At: now}
	}
	e.setStatus(gpio.Low)
	if since > e.cfg.IdleTimeout {
		return Event{Kind: FirstTick, Level: level, At: now}
	}
	return Event{Kind: Tick, Level: level, At: now}
}

// LastTick is the time of the most recent rising edge.
func (e *Encoder) LastTick() time.Time { return e.lastTick }

// status LED is best effort; it has no control impact.
func (e *Encoder) setStatus(l gpio.Level) {
	if e.status != nil {
		_ = e.status.Out(l)
	}
}
