package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-glowtape/internal/rtc"
)

type fakeSetter struct {
	got []rtc.DateTime
	err error
}

func (f *fakeSetter) Set(d rtc.DateTime) error {
	f.got = append(f.got, d)
	return f.err
}

func TestParseTime(t *testing.T) {
	d, err := ParseTime("2026-10-18 09:41:07 0\n")
	require.NoError(t, err)
	assert.Equal(t, rtc.DateTime{Year: 2026, Month: 10, Day: 18, Hour: 9, Min: 41, Sec: 7, Dotw: 0}, d)

	for _, bad := range []string{"", "hello", "2026-10-18", "2026-10-18 09:41:07", "2026/10/18 09:41:07 0"} {
		_, err := ParseTime(bad)
		assert.Error(t, err, "%q", bad)
	}
}

func TestHandleReplies(t *testing.T) {
	s := &fakeSetter{}
	c := New(&bytes.Buffer{}, s, zerolog.Nop())

	assert.Equal(t, "\nOK\n", c.Handle("2026-10-18 09:41:07 0"))
	assert.Len(t, s.got, 1)

	s.err = errors.New("nope")
	assert.Equal(t, "\nERROR\n", c.Handle("2026-02-30 09:41:07 0"))

	reply := c.Handle("what time is it")
	assert.True(t, strings.HasPrefix(reply, "Error: expected YYYY-MM-DD hh:mm:ss dow"))
	assert.Len(t, s.got, 2)
}

func TestRunEchoesAndQueuesLines(t *testing.T) {
	out := &bytes.Buffer{}
	s := &fakeSetter{}
	c := New(out, s, zerolog.Nop())

	in := "2026-10-18 09:41:07 0\r\nbogus\n"
	require.NoError(t, c.Run(context.Background(), strings.NewReader(in)))
	assert.Equal(t, in, out.String())

	c.Poll()
	assert.Len(t, s.got, 1)
	assert.True(t, strings.HasSuffix(out.String(), "\nOK\n"))

	c.Poll()
	assert.Contains(t, out.String(), "Error: expected")

	// Nothing left: Poll returns immediately.
	before := out.Len()
	c.Poll()
	assert.Equal(t, before, out.Len())
}

func TestRunCutsOverlongLines(t *testing.T) {
	c := New(&bytes.Buffer{}, &fakeSetter{}, zerolog.Nop())
	require.NoError(t, c.Run(context.Background(), strings.NewReader(strings.Repeat("x", maxLine+10))))

	first := <-c.lines
	assert.Len(t, first, maxLine)
	assert.Empty(t, c.lines)
}

func TestRunStopsOnCancel(t *testing.T) {
	c := New(&bytes.Buffer{}, &fakeSetter{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Run(ctx, strings.NewReader("x\n")), context.Canceled)
}
