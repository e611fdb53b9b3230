package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"

	"github.com/coreman2200/funtimes-glowtape/internal/rtc"
)

const (
	DefaultBaud = 115200
	maxLine     = 256
)

const usage = "Error: expected YYYY-MM-DD hh:mm:ss dow\n" +
	"With dow: 0=SUN 1=MON 2=TUE 3=WED 4=THU 5=FRI 6=SAT\n"

// Setter accepts a new wall clock time.
type Setter interface {
	Set(rtc.DateTime) error
}

// Console reads command lines in the background and executes them when the
// control loop polls.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	setter Setter
	log    zerolog.Logger
	lines  chan string
}

func New(out io.Writer, setter Setter, log zerolog.Logger) *Console {
	return &Console{
		out:    out,
		setter: setter,
		log:    log,
		lines:  make(chan string, 4),
	}
}

// Open opens a serial port for the console.
func Open(name string, baud int) (io.ReadWriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("console: open %s: %w", name, err)
	}
	return p, nil
}

// Run echoes and splits input into lines until ctx is done or in fails.
// Lines end at CR or LF; overlong lines are cut at the buffer size.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	r := bufio.NewReader(in)
	var line []byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		c.write([]byte{b})

		eol := b == '\r' || b == '\n'
		if !eol {
			line = append(line, b)
		}
		if eol || len(line) >= maxLine {
			if len(line) > 0 {
				c.submit(ctx, string(line))
			}
			line = line[:0]
		}
	}
}

func (c *Console) submit(ctx context.Context, line string) {
	select {
	case c.lines <- line:
	case <-ctx.Done():
	default:
		c.log.Warn().Str("line", line).Msg("console busy, dropping line")
	}
}

// Poll handles at most one pending line. It never blocks.
func (c *Console) Poll() {
	select {
	case line := <-c.lines:
		c.write([]byte(c.Handle(line)))
	default:
	}
}

// Handle executes one command line and returns the reply.
func (c *Console) Handle(line string) string {
	d, err := ParseTime(line)
	if err != nil {
		return usage
	}
	if err := c.setter.Set(d); err != nil {
		c.log.Warn().Err(err).Str("time", d.String()).Msg("clock rejected time")
		return "\nERROR\n"
	}
	c.log.Info().Str("time", d.String()).Msg("clock set")
	return "\nOK\n"
}

func (c *Console) write(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.out.Write(b); err != nil {
		c.log.Debug().Err(err).Msg("console write")
	}
}

// ParseTime parses "YYYY-MM-DD hh:mm:ss dow". Range checks are left to the
// clock.
func ParseTime(line string) (rtc.DateTime, error) {
	var d rtc.DateTime
	n, err := fmt.Sscanf(strings.TrimSpace(line), "%d-%d-%d %d:%d:%d %d",
		&d.Year, &d.Month, &d.Day, &d.Hour, &d.Min, &d.Sec, &d.Dotw)
	if err != nil {
		return rtc.DateTime{}, fmt.Errorf("console: parse %q: %w", line, err)
	}
	if n != 7 {
		return rtc.DateTime{}, fmt.Errorf("console: parse %q: got %d fields", line, n)
	}
	return d, nil
}
