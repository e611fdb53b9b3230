package control

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-glowtape/internal/encoder"
)

const (
	DefaultSettleTicks = 4
	DefaultFastLimit   = 4
	DefaultFlash       = 5 * time.Millisecond
)

// Renderer regenerates the frame for a new pull, keyed by the press count.
type Renderer interface {
	Render(presses int)
}

type Transmitter interface {
	SendStart()
	SendNext() bool
	LightFlash(d time.Duration)
}

type Presses interface {
	Count() int
	Reset()
}

// Observer sees every handled event; used for diagnostics only.
type Observer interface {
	Observe(ev encoder.Event, out Outcome)
}

type Config struct {
	// SettleTicks regular ticks pass after a restart before rows go out,
	// so the acceleration at the start of a pull does not ghost.
	SettleTicks int
	// FastLimit fast ticks within one pull stop the flash.
	FastLimit int
	Flash     time.Duration
	Log       zerolog.Logger
	Observer  Observer
}

// Outcome is what one Handle call did.
type Outcome struct {
	Restarted bool
	Presses   int
	Sent      bool
	Flashed   bool
}

// Policy decides, per polled event, whether to restart, advance, flash or idle.
type Policy struct {
	render  Renderer
	tx      Transmitter
	presses Presses
	cfg     Config

	confirmed int
	fast      int
}

func New(r Renderer, tx Transmitter, presses Presses, cfg Config) *Policy {
	if cfg.SettleTicks < 0 {
		cfg.SettleTicks = 0
	}
	if cfg.FastLimit <= 0 {
		cfg.FastLimit = DefaultFastLimit
	}
	if cfg.Flash <= 0 {
		cfg.Flash = DefaultFlash
	}
	return &Policy{render: r, tx: tx, presses: presses, cfg: cfg}
}

func (p *Policy) Handle(ev encoder.Event) Outcome {
	var out Outcome
	switch ev.Kind {
	case encoder.FirstTick:
		out = p.onFirstTick()
	case encoder.Tick:
		out = p.onTick()
	case encoder.FastTick:
		out = p.onFastTick()
	default:
		return out
	}
	if p.cfg.Observer != nil {
		p.cfg.Observer.Observe(ev, out)
	}
	return out
}

func (p *Policy) onFirstTick() Outcome {
	n := p.presses.Count()
	p.render.Render(n)
	p.tx.SendStart()
	p.confirmed = 0
	p.fast = 0
	p.presses.Reset()
	p.cfg.Log.Debug().Int("presses", n).Msg("new pull")
	return Outcome{Restarted: true, Presses: n}
}

func (p *Policy) onTick() Outcome {
	p.confirmed++
	if !p.settled() {
		return Outcome{}
	}
	return p.advance(p.fast < p.cfg.FastLimit)
}

func (p *Policy) onFastTick() Outcome {
	p.fast++
	if !p.settled() {
		return Outcome{}
	}
	return p.advance(p.fast < p.cfg.FastLimit)
}

func (p *Policy) advance(flash bool) Outcome {
	out := Outcome{Sent: p.tx.SendNext()}
	if out.Sent && flash {
		p.tx.LightFlash(p.cfg.Flash)
		out.Flashed = true
	}
	return out
}

func (p *Policy) settled() bool { return p.confirmed > p.cfg.SettleTicks }

// Counters returns the regular and fast ticks seen since the last restart.
func (p *Policy) Counters() (confirmed, fast int) { return p.confirmed, p.fast }
