package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-glowtape/internal/content"
	"github.com/coreman2200/funtimes-glowtape/internal/printer"
)

const (
	DriverPeriph = "periph"
	DriverSim    = "sim"
)

type Pins struct {
	Encoder         string `yaml:"encoder"`
	EncoderPull     string `yaml:"encoder_pull"` // "up" | "down" | "float"
	StatusLED       string `yaml:"status_led,omitempty"`
	Button          string `yaml:"button"`
	ButtonActiveLow bool   `yaml:"button_active_low"`
	Flash           string `yaml:"flash"`
	FlashActiveHigh bool   `yaml:"flash_active_high"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. SPI0.0; empty picks the first port
	SpeedHz int64  `yaml:"speed_hz"` // e.g. 1000000
}

type Encoder struct {
	FastThreshold time.Duration `yaml:"fast_threshold"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

type Button struct {
	PressWindow   time.Duration `yaml:"press_window"`
	ReleaseWindow time.Duration `yaml:"release_window"`
}

type Printer struct {
	Lookahead int           `yaml:"lookahead"`
	Flash     time.Duration `yaml:"flash"`
	Flush     string        `yaml:"flush"` // "flush" | "none"
}

type Policy struct {
	SettleTicks int `yaml:"settle_ticks"`
	FastLimit   int `yaml:"fast_limit"`
}

type Content struct {
	Modes            []string `yaml:"modes"`
	TrustSystemClock bool     `yaml:"trust_system_clock"`
}

type Console struct {
	Port string `yaml:"port,omitempty"` // serial device; empty reads stdin
	Baud int    `yaml:"baud"`
}

type Diag struct {
	Addr string `yaml:"addr"` // empty disables the HTTP server
}

type Sim struct {
	TickPeriod time.Duration `yaml:"tick_period"`
	PullTicks  int           `yaml:"pull_ticks"`
	Pause      time.Duration `yaml:"pause"`
}

type Config struct {
	Driver       string        `yaml:"driver"` // "periph" | "sim"
	LogLevel     string        `yaml:"log_level"`
	PollInterval time.Duration `yaml:"poll_interval"`

	Pins    Pins    `yaml:"pins"`
	SPI     SPI     `yaml:"spi"`
	Encoder Encoder `yaml:"encoder"`
	Button  Button  `yaml:"button"`
	Printer Printer `yaml:"printer"`
	Policy  Policy  `yaml:"policy"`
	Content Content `yaml:"content"`
	Console Console `yaml:"console"`
	Diag    Diag    `yaml:"diag"`
	Sim     Sim     `yaml:"sim"`
}

// Default matches the reference board wiring.
func Default() *Config {
	return &Config{
		Driver:       DriverPeriph,
		LogLevel:     "info",
		PollInterval: 500 * time.Microsecond,
		Pins: Pins{
			Encoder:         "GPIO17",
			EncoderPull:     "up",
			StatusLED:       "GPIO23",
			Button:          "GPIO27",
			ButtonActiveLow: true,
			Flash:           "GPIO22",
		},
		SPI:     SPI{SpeedHz: 1_000_000},
		Encoder: Encoder{FastThreshold: 7 * time.Millisecond, IdleTimeout: 500 * time.Millisecond},
		Button:  Button{PressWindow: 50 * time.Millisecond, ReleaseWindow: 50 * time.Millisecond},
		Printer: Printer{Lookahead: printer.DefaultLookahead, Flash: 5 * time.Millisecond, Flush: "flush"},
		Policy:  Policy{SettleTicks: 4, FastLimit: 4},
		Content: Content{Modes: []string{"time", "picture"}},
		Console: Console{Baud: 115200},
		Diag:    Diag{Addr: ":8080"},
		Sim:     Sim{TickPeriod: 10 * time.Millisecond, PullTicks: 80, Pause: time.Second},
	}
}

// Load reads path over the defaults, so a partial file only overrides what
// it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, a ...any) { errs = append(errs, fmt.Errorf(format, a...)) }

	switch c.Driver {
	case DriverPeriph:
		if c.Pins.Encoder == "" || c.Pins.Button == "" || c.Pins.Flash == "" {
			bad("pins: encoder, button and flash are required")
		}
	case DriverSim:
	default:
		bad("driver: %q is not %q or %q", c.Driver, DriverPeriph, DriverSim)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		bad("log_level: %w", err)
	}
	if c.PollInterval < 0 {
		bad("poll_interval: must not be negative")
	}
	if _, err := c.EncoderPull(); err != nil {
		errs = append(errs, err)
	}
	if c.SPI.SpeedHz <= 0 {
		bad("spi.speed_hz: must be positive")
	}
	if c.Encoder.FastThreshold <= 0 || c.Encoder.IdleTimeout <= 0 {
		bad("encoder: thresholds must be positive")
	} else if c.Encoder.FastThreshold >= c.Encoder.IdleTimeout {
		bad("encoder: fast_threshold %s must be below idle_timeout %s", c.Encoder.FastThreshold, c.Encoder.IdleTimeout)
	}
	if c.Button.PressWindow <= 0 || c.Button.ReleaseWindow < 0 {
		bad("button: press_window must be positive and release_window not negative")
	}
	if c.Printer.Lookahead < 0 {
		bad("printer.lookahead: must not be negative")
	}
	if c.Printer.Flash <= 0 {
		bad("printer.flash: must be positive")
	}
	if _, err := printer.ParseFlushPolicy(c.Printer.Flush); err != nil {
		errs = append(errs, err)
	}
	if c.Policy.SettleTicks < 0 || c.Policy.FastLimit <= 0 {
		bad("policy: settle_ticks must not be negative and fast_limit must be positive")
	}
	if _, err := c.ContentModes(); err != nil {
		errs = append(errs, err)
	}
	if c.Console.Baud < 0 {
		bad("console.baud: must not be negative")
	}
	if c.Driver == DriverSim && (c.Sim.TickPeriod <= 0 || c.Sim.PullTicks <= 0 || c.Sim.Pause <= 0) {
		bad("sim: tick_period, pull_ticks and pause must be positive")
	}
	return errors.Join(errs...)
}

func (c *Config) EncoderPull() (gpio.Pull, error) {
	switch strings.ToLower(c.Pins.EncoderPull) {
	case "up":
		return gpio.PullUp, nil
	case "down":
		return gpio.PullDown, nil
	case "float", "none":
		return gpio.Float, nil
	case "":
		return gpio.PullNoChange, nil
	}
	return gpio.PullNoChange, fmt.Errorf("pins.encoder_pull: unknown pull %q", c.Pins.EncoderPull)
}

func (c *Config) ContentModes() ([]content.Mode, error) {
	modes := make([]content.Mode, 0, len(c.Content.Modes))
	for _, s := range c.Content.Modes {
		m, err := content.ParseMode(s)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, nil
}
