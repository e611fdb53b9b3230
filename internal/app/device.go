package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-glowtape/internal/button"
	"github.com/coreman2200/funtimes-glowtape/internal/clock"
	"github.com/coreman2200/funtimes-glowtape/internal/config"
	"github.com/coreman2200/funtimes-glowtape/internal/console"
	"github.com/coreman2200/funtimes-glowtape/internal/content"
	"github.com/coreman2200/funtimes-glowtape/internal/control"
	"github.com/coreman2200/funtimes-glowtape/internal/diag"
	"github.com/coreman2200/funtimes-glowtape/internal/encoder"
	"github.com/coreman2200/funtimes-glowtape/internal/frame"
	"github.com/coreman2200/funtimes-glowtape/internal/led"
	"github.com/coreman2200/funtimes-glowtape/internal/printer"
	"github.com/coreman2200/funtimes-glowtape/internal/rtc"
)

// Device is the assembled controller. Everything but Console.Run and the
// diagnostics server belongs to the goroutine calling Run.
type Device struct {
	Frame   *frame.Buffer
	Encoder *encoder.Encoder
	Button  *button.Counter
	Printer *printer.Printer
	Policy  *control.Policy
	Content *content.Renderer
	RTC     *rtc.Clock
	Console *console.Console
	Diag    *diag.State

	clk  clock.Clock
	poll time.Duration
	log  zerolog.Logger
}

// New wires the components from cfg onto hw. consoleOut receives the
// console echo and replies; nil disables the console.
func New(cfg *config.Config, hw *led.Hardware, clk clock.Clock, consoleOut io.Writer, log zerolog.Logger) (*Device, error) {
	if cfg == nil || hw == nil || clk == nil {
		return nil, errors.New("app: config, hardware and clock required")
	}
	pull, err := cfg.EncoderPull()
	if err != nil {
		return nil, err
	}
	modes, err := cfg.ContentModes()
	if err != nil {
		return nil, err
	}
	flush, err := printer.ParseFlushPolicy(cfg.Printer.Flush)
	if err != nil {
		return nil, err
	}

	d := &Device{
		Frame: frame.New(frame.DefaultCapacity),
		RTC:   rtc.New(clk, cfg.Content.TrustSystemClock),
		clk:   clk,
		poll:  cfg.PollInterval,
		log:   log,
	}

	if d.Encoder, err = encoder.New(hw.Encoder, hw.Status, clk, encoder.Config{
		FastThreshold: cfg.Encoder.FastThreshold,
		IdleTimeout:   cfg.Encoder.IdleTimeout,
		Pull:          pull,
	}); err != nil {
		return nil, err
	}
	if d.Button, err = button.New(hw.Button, clk, button.Config{
		PressWindow:   cfg.Button.PressWindow,
		ReleaseWindow: cfg.Button.ReleaseWindow,
		ActiveLow:     cfg.Pins.ButtonActiveLow,
	}); err != nil {
		return nil, err
	}
	if d.Printer, err = printer.New(d.Frame, hw.Bus, hw.Flash, clk, printer.Options{
		Lookahead:       cfg.Printer.Lookahead,
		Flush:           flush,
		FlashActiveHigh: cfg.Pins.FlashActiveHigh,
		Log:             log.With().Str("component", "printer").Logger(),
	}); err != nil {
		return nil, err
	}

	d.Content = content.New(d.Frame, d.RTC, modes)
	d.Diag = diag.NewState(cfg.Driver, diag.Sources{
		Mode:    func() string { return d.Content.Last().String() },
		Printer: d.Printer.Stats,
	}, log.With().Str("component", "diag").Logger())
	d.Policy = control.New(d.Content, d.Printer, d.Button, control.Config{
		SettleTicks: cfg.Policy.SettleTicks,
		FastLimit:   cfg.Policy.FastLimit,
		Flash:       cfg.Printer.Flash,
		Log:         log.With().Str("component", "control").Logger(),
		Observer:    d.Diag,
	})
	if consoleOut != nil {
		d.Console = console.New(consoleOut, d.RTC, log.With().Str("component", "console").Logger())
	}
	return d, nil
}

// Boot arms the printer on the empty frame so the first rows out are blank.
func (d *Device) Boot() {
	d.Printer.SendStart()
	d.log.Info().Int("capacity", d.Frame.Cap()).Msg("device ready")
}

// Step runs one iteration of the poll loop.
func (d *Device) Step() control.Outcome {
	if d.Console != nil {
		d.Console.Poll()
	}
	d.Button.Poll()
	return d.Policy.Handle(d.Encoder.Poll())
}

// Run boots and polls until ctx is done, then blanks the chain and turns the
// backlight off.
func (d *Device) Run(ctx context.Context) error {
	d.Boot()
	for ctx.Err() == nil {
		d.Step()
		if d.poll > 0 {
			d.clk.Sleep(d.poll)
		}
	}
	if err := d.Printer.Halt(); err != nil {
		return fmt.Errorf("app: halt: %w", err)
	}
	d.log.Info().Interface("stats", d.Printer.Stats()).Msg("device stopped")
	return nil
}
