package led

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-glowtape/internal/clock"
)

func TestPulsePinFollowsPullPattern(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := NewPulsePin("ENC", clk, SimConfig{TickPeriod: 10 * time.Millisecond, PullTicks: 2, Pause: 50 * time.Millisecond})

	var got []gpio.Level
	for i := 0; i < 8; i++ {
		got = append(got, p.Read())
		clk.Advance(5 * time.Millisecond)
	}
	assert.Equal(t, []gpio.Level{gpio.Low, gpio.High, gpio.Low, gpio.High, gpio.Low, gpio.Low, gpio.Low, gpio.Low}, got)

	// The pattern repeats after the pause.
	clk.Advance(30 * time.Millisecond)
	assert.Equal(t, gpio.Low, p.Read())
	clk.Advance(5 * time.Millisecond)
	assert.Equal(t, gpio.High, p.Read())
}

func TestSimBusLogsRows(t *testing.T) {
	var out bytes.Buffer
	log := zerolog.New(&out).Level(zerolog.DebugLevel)
	hw, err := NewSim(clock.NewFake(time.Unix(0, 0)), SimConfig{}, log)
	require.NoError(t, err)

	require.NoError(t, hw.Bus.Tx([]byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 1}, nil))
	assert.Contains(t, out.String(), `"row":"deadbeef00000001"`)
	assert.Contains(t, out.String(), `"dev":"sim-spi"`)

	assert.Equal(t, gpio.High, hw.Flash.(gpio.PinIO).Read())
	assert.NoError(t, hw.Close())
}

func TestOpenRequiresPins(t *testing.T) {
	_, err := Open(Pins{}, Bus{})
	assert.Error(t, err)
}
