package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-glowtape/internal/app"
	"github.com/coreman2200/funtimes-glowtape/internal/clock"
	"github.com/coreman2200/funtimes-glowtape/internal/config"
	"github.com/coreman2200/funtimes-glowtape/internal/console"
	"github.com/coreman2200/funtimes-glowtape/internal/led"
)

func main() {
	// ---- Flags (override config.yaml when set) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "driver: periph | sim")
		addr       = flag.String("addr", "", "diagnostics HTTP listen address")
		logLevel   = flag.String("log-level", "", "trace | debug | info | warn | error")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		writeCfg   = flag.Bool("write-config", false, "write the effective config to -config and exit")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	// ---- Config ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
		cfg = config.Default()
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *simOnly {
		cfg.Driver = config.DriverSim
	}
	if *addr != "" {
		cfg.Diag.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if *writeCfg {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Msg("write config")
		}
		log.Info().Str("path", *configPath).Msg("config written")
		return
	}
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)

	// ---- Hardware: fall back to SIM when the host has no usable pins ----
	clk := clock.System{}
	hw, err := openHardware(cfg, clk)
	if err != nil {
		log.Fatal().Err(err).Msg("hardware init failed")
	}
	defer hw.Close()

	// ---- Console: serial port when configured, stdin otherwise ----
	var (
		conIn  io.Reader = os.Stdin
		conOut io.Writer = os.Stdout
	)
	if cfg.Console.Port != "" {
		port, err := console.Open(cfg.Console.Port, cfg.Console.Baud)
		if err != nil {
			log.Fatal().Err(err).Msg("console")
		}
		defer port.Close()
		conIn, conOut = port, port
	}

	dev, err := app.New(cfg, hw, clk, conOut, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("device init failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := dev.Console.Run(ctx, conIn); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("console stopped")
		}
	}()

	// ---- Diagnostics ----
	var srv *http.Server
	if cfg.Diag.Addr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/diag", dev.Diag.HandleDiagWS)
		mux.HandleFunc("/health", dev.Diag.HandleHealth)
		srv = &http.Server{
			Addr:         cfg.Diag.Addr,
			Handler:      withCORS(mux),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go dev.Diag.Run(ctx, time.Second)
		go func() {
			log.Info().Str("addr", cfg.Diag.Addr).Str("driver", cfg.Driver).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server crashed")
			}
		}()
	}

	// ---- Poll loop until SIGINT/SIGTERM ----
	if err := dev.Run(ctx); err != nil {
		log.Error().Err(err).Msg("device")
	}
	log.Info().Msg("shutting down")
	if srv != nil {
		_ = srv.Close()
	}
}

func openHardware(cfg *config.Config, clk clock.Clock) (*led.Hardware, error) {
	sim := func() (*led.Hardware, error) {
		return led.NewSim(clk, led.SimConfig{
			TickPeriod: cfg.Sim.TickPeriod,
			PullTicks:  cfg.Sim.PullTicks,
			Pause:      cfg.Sim.Pause,
		}, log.Logger.With().Str("driver", config.DriverSim).Logger())
	}
	if cfg.Driver == config.DriverSim {
		return sim()
	}

	hw, err := led.Open(led.Pins{
		Encoder: cfg.Pins.Encoder,
		Status:  cfg.Pins.StatusLED,
		Button:  cfg.Pins.Button,
		Flash:   cfg.Pins.Flash,
	}, led.Bus{Dev: cfg.SPI.Dev, SpeedHz: cfg.SPI.SpeedHz})
	if err != nil {
		log.Warn().Err(err).
			Str("driver", cfg.Driver).
			Str("spi", cfg.SPI.Dev).
			Int64("speed_hz", cfg.SPI.SpeedHz).
			Msg("hardware init failed; falling back to SIM")
		cfg.Driver = config.DriverSim
		return sim()
	}
	return hw, nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
