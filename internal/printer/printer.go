package printer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"

	"github.com/coreman2200/funtimes-glowtape/internal/clock"
	"github.com/coreman2200/funtimes-glowtape/internal/frame"
)

const (
	// LineOffset is the distance between the two rows sharing one physical
	// scan line: one on the even outputs, one on the odd.
	LineOffset       = 4
	DefaultLookahead = LineOffset

	evenBits frame.Row = 0x5555_5555_5555_5555
	oddBits  frame.Row = 0xAAAA_AAAA_AAAA_AAAA
)

// FlushPolicy decides what goes on the bus once the image is exhausted.
type FlushPolicy uint8

const (
	// FlushOnExhaust sends an all-zero row so no stray LEDs are latched when
	// the backlight comes on next.
	FlushOnExhaust FlushPolicy = iota
	// NoFlush leaves the last row latched.
	NoFlush
)

func (p FlushPolicy) String() string {
	switch p {
	case FlushOnExhaust:
		return "flush"
	case NoFlush:
		return "none"
	default:
		return "INVALID"
	}
}

func ParseFlushPolicy(s string) (FlushPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flush":
		return FlushOnExhaust, nil
	case "none":
		return NoFlush, nil
	}
	return 0, fmt.Errorf("printer: unknown flush policy %q", s)
}

type Options struct {
	Lookahead int
	Flush     FlushPolicy
	// FlashActiveHigh is set when the backlight enable is not wired as ~OE.
	FlashActiveHigh bool
	Log             zerolog.Logger
}

// Stats counts what went out since construction.
type Stats struct {
	Rows      uint64
	Flushes   uint64
	Flashes   uint64
	BusErrors uint64
	PinErrors uint64
}

// Printer streams a frame.Buffer bottom-up into the shift register chain and
// pulses the UV backlight.
//
// Sequence:
//
//	buf.StartNewImage(); buf.SetPixel()...
//	for p.SendStart(); p.SendNext(); {
//		// wait for the next tick
//		p.LightFlash(d)
//	}
type Printer struct {
	buf   *frame.Buffer
	bus   spi.Conn
	flash gpio.PinOut
	clk   clock.Clock
	opts  Options
	log   zerolog.Logger

	sendPos int
	wire    [8]byte
	stats   Stats
}

func New(buf *frame.Buffer, bus spi.Conn, flash gpio.PinOut, clk clock.Clock, opts Options) (*Printer, error) {
	switch {
	case buf == nil:
		return nil, errors.New("printer: frame buffer required")
	case bus == nil:
		return nil, errors.New("printer: spi connection required")
	case flash == nil:
		return nil, errors.New("printer: flash pin required")
	case clk == nil:
		return nil, errors.New("printer: clock required")
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = DefaultLookahead
	}
	p := &Printer{
		buf:     buf,
		bus:     bus,
		flash:   flash,
		clk:     clk,
		opts:    opts,
		log:     opts.Log,
		sendPos: -1,
	}
	if err := flash.Out(p.inactive()); err != nil {
		return nil, fmt.Errorf("printer: flash pin %s: %w", flash, err)
	}
	return p, nil
}

// SendStart rewinds to the last row of the image. When the lookahead rows
// fit, they are zeroed and sent first so the odd phase of the last rows is
// covered and nothing stale from a previous image is read.
func (p *Printer) SendStart() {
	p.sendPos = p.buf.Len() - 1
	if p.buf.Pad(p.opts.Lookahead) {
		p.sendPos += p.opts.Lookahead
	}
}

// SendNext sends the next row. It can be called independently of the flash.
// It returns true when a row went out that is worth flashing.
func (p *Printer) SendNext() bool {
	if p.sendPos < 0 {
		if p.opts.Flush == FlushOnExhaust {
			if p.send(0) {
				p.stats.Flushes++
			}
		}
		return false
	}
	ok := p.send(p.assembleLEDDataAt(p.sendPos))
	p.sendPos--
	if ok {
		p.stats.Rows++
	}
	return ok
}

// Remaining is the number of rows SendNext still has to send.
func (p *Printer) Remaining() int { return p.sendPos + 1 }

// LightFlash enables the backlight for d. It blocks.
func (p *Printer) LightFlash(d time.Duration) {
	if err := p.flash.Out(!p.inactive()); err != nil {
		p.stats.PinErrors++
		p.log.Warn().Err(err).Msg("flash enable failed")
	}
	defer p.release()
	p.clk.Sleep(d)
	p.stats.Flashes++
}

// Halt blanks the chain and forces the backlight off.
func (p *Printer) Halt() error {
	p.sendPos = -1
	var errs []error
	if err := p.write(0); err != nil {
		errs = append(errs, err)
	}
	if err := p.flash.Out(p.inactive()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p *Printer) Stats() Stats { return p.stats }

func (p *Printer) release() {
	if err := p.flash.Out(p.inactive()); err != nil {
		p.stats.PinErrors++
		p.log.Error().Err(err).Msg("flash disable failed")
	}
}

func (p *Printer) inactive() gpio.Level {
	return gpio.Level(!p.opts.FlashActiveHigh)
}

func (p *Printer) send(v frame.Row) bool {
	if err := p.write(v); err != nil {
		p.stats.BusErrors++
		p.log.Warn().Err(err).Int("row", p.sendPos).Msg("spi write failed")
		return false
	}
	return true
}

// write puts v on the bus most significant byte first, the reverse of the
// host's in-memory order.
func (p *Printer) write(v frame.Row) error {
	binary.BigEndian.PutUint64(p.wire[:], uint64(v))
	return p.bus.Tx(p.wire[:], nil)
}

// assembleLEDDataAt returns the physical word for row: interleaved with the
// row four back, then mapped onto the shift register outputs.
func (p *Printer) assembleLEDDataAt(row int) frame.Row {
	return mapToPhysical(p.bitsAtRow(row))
}

// Even and odd pixels are interleaved LineOffset rows apart.
func (p *Printer) bitsAtRow(row int) frame.Row {
	result := p.buf.Row(row) & evenBits
	if row >= LineOffset {
		result |= p.buf.Row(row-LineOffset) & oddBits
	}
	return result
}
