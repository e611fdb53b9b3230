package rtc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coreman2200/funtimes-glowtape/internal/clock"
)

// DateTime mirrors what a hardware RTC keeps. Dotw is 0=Sunday .. 6=Saturday
// and is taken as given, not derived from the date.
type DateTime struct {
	Year, Month, Day int
	Dotw             int
	Hour, Min, Sec   int
}

func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d %d", d.Year, d.Month, d.Day, d.Hour, d.Min, d.Sec, d.Dotw)
}

var ErrInvalid = errors.New("rtc: invalid date/time")

// Clock is a software RTC running off a monotonic clock. It is invalid until
// set, unless it trusts the host wall clock.
type Clock struct {
	mu      sync.Mutex
	mono    clock.Clock
	trust   bool
	valid   bool
	base    time.Time // wall time at setAt
	setAt   time.Time
	dotwAdj int
}

// New returns a clock. With trustSystem it reports the host wall clock until
// it is explicitly set.
func New(mono clock.Clock, trustSystem bool) *Clock {
	return &Clock{mono: mono, trust: trustSystem}
}

func (c *Clock) Set(d DateTime) error {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 ||
		d.Hour < 0 || d.Hour > 23 || d.Min < 0 || d.Min > 59 ||
		d.Sec < 0 || d.Sec > 59 || d.Dotw < 0 || d.Dotw > 6 ||
		d.Year < 0 || d.Year > 4095 {
		return ErrInvalid
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Min, d.Sec, 0, time.UTC)
	if t.Day() != d.Day {
		// Normalized, e.g. February 30th.
		return ErrInvalid
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = t
	c.setAt = c.mono.Now()
	c.dotwAdj = (d.Dotw - int(t.Weekday()) + 7) % 7
	c.valid = true
	return nil
}

// Now reports the current date and time, and whether it can be trusted.
func (c *Clock) Now() (DateTime, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var t time.Time
	switch {
	case c.valid:
		t = c.base.Add(c.mono.Now().Sub(c.setAt))
	case c.trust:
		t = time.Now()
	default:
		return DateTime{}, false
	}
	return DateTime{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
		Dotw:  (int(t.Weekday()) + c.dotwAdj) % 7,
		Hour:  t.Hour(),
		Min:   t.Minute(),
		Sec:   t.Second(),
	}, true
}
