package led

import (
	"errors"
	"fmt"
	"io"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const DefaultSpeedHz = 1_000_000

// Pins names the GPIO lines as known to gpioreg (e.g. "GPIO7").
type Pins struct {
	Encoder string
	Status  string // optional
	Button  string
	Flash   string
}

type Bus struct {
	Dev     string // spireg name; empty picks the first port
	SpeedHz int64
}

// Hardware holds the capabilities handed to the device components.
type Hardware struct {
	Encoder gpio.PinIn
	Status  gpio.PinOut
	Button  gpio.PinIn
	Flash   gpio.PinOut
	Bus     spi.Conn

	closers []io.Closer
}

func (h *Hardware) Close() error {
	var errs []error
	for _, c := range h.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

// Open initializes the host drivers and resolves the pins and the SPI port.
// The chain shifts on the rising clock with an idle-high clock: mode 3,
// 8 bit words, MSB first.
func Open(pins Pins, bus Bus) (*Hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("led: host init: %w", err)
	}

	h := &Hardware{}
	var err error
	if h.Encoder, err = pinByName(pins.Encoder); err != nil {
		return nil, err
	}
	if h.Button, err = pinByName(pins.Button); err != nil {
		return nil, err
	}
	if h.Flash, err = pinByName(pins.Flash); err != nil {
		return nil, err
	}
	if pins.Status != "" {
		if h.Status, err = pinByName(pins.Status); err != nil {
			return nil, err
		}
	}

	port, err := spireg.Open(bus.Dev)
	if err != nil {
		return nil, fmt.Errorf("led: open spi %q: %w", bus.Dev, err)
	}
	h.closers = append(h.closers, port)

	hz := bus.SpeedHz
	if hz <= 0 {
		hz = DefaultSpeedHz
	}
	conn, err := port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode3, 8)
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("led: spi connect: %w", err)
	}
	h.Bus = conn
	return h, nil
}

func pinByName(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, errors.New("led: pin name required")
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("led: no such pin %q", name)
	}
	return p, nil
}
