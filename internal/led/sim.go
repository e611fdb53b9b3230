package led

import (
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/funtimes-glowtape/internal/clock"
)

// SimConfig shapes the simulated pulls: PullTicks encoder periods, then a
// pause long enough to start a new image.
type SimConfig struct {
	TickPeriod time.Duration
	PullTicks  int
	Pause      time.Duration
}

func (c SimConfig) withDefaults() SimConfig {
	if c.TickPeriod <= 0 {
		c.TickPeriod = 10 * time.Millisecond
	}
	if c.PullTicks <= 0 {
		c.PullTicks = 80
	}
	if c.Pause <= 0 {
		c.Pause = time.Second
	}
	return c
}

// NewSim returns hardware without a host: the bus logs every row at debug
// level and the encoder line toggles on clk as if the tape were pulled.
func NewSim(clk clock.Clock, cfg SimConfig, log zerolog.Logger) (*Hardware, error) {
	cfg = cfg.withDefaults()
	rec := spitest.NewRecordRaw(rowLogger{log: log.With().Str("dev", "sim-spi").Logger()})
	bus, err := rec.Connect(DefaultSpeedHz*physic.Hertz, spi.Mode3, 8)
	if err != nil {
		return nil, err
	}
	return &Hardware{
		Encoder: NewPulsePin("SIM_ENC", clk, cfg),
		Status:  &gpiotest.Pin{N: "SIM_STATUS", Num: 1},
		Button:  &gpiotest.Pin{N: "SIM_BUTTON", Num: 2, L: gpio.High},
		Flash:   &gpiotest.Pin{N: "SIM_FLASH", Num: 3, L: gpio.High},
		Bus:     bus,
		closers: []io.Closer{rec},
	}, nil
}

type rowLogger struct {
	log zerolog.Logger
}

func (w rowLogger) Write(p []byte) (int, error) {
	w.log.Debug().Hex("row", p).Msg("tx")
	return len(p), nil
}

// PulsePin is an input whose level follows a simulated pull pattern.
type PulsePin struct {
	*gpiotest.Pin

	mu    sync.Mutex
	clk   clock.Clock
	cfg   SimConfig
	start time.Time
}

func NewPulsePin(name string, clk clock.Clock, cfg SimConfig) *PulsePin {
	return &PulsePin{
		Pin:   &gpiotest.Pin{N: name},
		clk:   clk,
		cfg:   cfg.withDefaults(),
		start: clk.Now(),
	}
}

func (p *PulsePin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	pull := time.Duration(p.cfg.PullTicks) * p.cfg.TickPeriod
	phase := p.clk.Now().Sub(p.start) % (pull + p.cfg.Pause)
	if phase >= pull {
		return gpio.Low
	}
	return phase%p.cfg.TickPeriod >= p.cfg.TickPeriod/2
}
