package clock

import (
	"sync"
	"time"
)

// Clock is the monotonic time source shared by the pollers and the printer.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System reads the host monotonic clock.
type System struct{}

func (System) Now() time.Time        { return time.Now() }
func (System) Sleep(d time.Duration) { time.Sleep(d) }

// Fake is a manually advanced clock. Sleep advances it by the slept duration
// and records the call.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration

	// OnSleep, when set, runs at the start of every Sleep call.
	OnSleep func(d time.Duration)
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *Fake) Sleep(d time.Duration) {
	if f.OnSleep != nil {
		f.OnSleep(d)
	}
	f.mu.Lock()
	f.slept = append(f.slept, d)
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Slept returns a copy of every duration passed to Sleep.
func (f *Fake) Slept() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.slept...)
}
