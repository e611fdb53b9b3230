package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetPixelAlongWidth(t *testing.T) {
	b := New(16)
	b.StartNewImage(AlongWidth)

	b.SetPixel(0, 0, true)
	b.SetPixel(63, 2, true)
	b.SetPixel(1, 2, true)

	assert.Equal(t, Row(1<<63), b.Row(0))
	assert.Equal(t, Row(0), b.Row(1))
	assert.Equal(t, Row(1|1<<62), b.Row(2))
	assert.Equal(t, 3, b.Len())

	b.SetPixel(1, 2, false)
	assert.Equal(t, Row(1), b.Row(2))
	assert.Equal(t, 3, b.Len())
}

func TestSetPixelOutOfRangeIsNoop(t *testing.T) {
	b := New(16)
	b.StartNewImage(AlongWidth)

	for _, p := range [][2]int{{-1, 0}, {64, 0}, {1000, 3}, {0, -1}, {0, 16}, {0, 1 << 20}} {
		b.SetPixel(p[0], p[1], true)
	}
	assert.Equal(t, 0, b.Len())
	for r := 0; r < b.Cap(); r++ {
		assert.Equal(t, Row(0), b.Row(r))
	}
}

func TestSetPixelAlongLength(t *testing.T) {
	b := New(128)
	b.StartNewImage(AlongLength)

	// x runs along the pull and becomes the row; y is mirrored across the strip.
	b.SetPixel(10, 0, true)
	assert.Equal(t, Row(1), b.Row(10))
	assert.Equal(t, 11, b.Len())

	b.SetPixel(20, 63, true)
	assert.Equal(t, Row(1<<63), b.Row(20))

	b.SetPixel(5, 64, true)
	assert.Equal(t, Row(0), b.Row(5))
	assert.Equal(t, AlongLength, b.Aspect())
}

func TestPushBackSaturates(t *testing.T) {
	b := New(4)
	for i := 0; i < 10; i++ {
		b.PushBack(Row(i + 1))
	}
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, Row(4), b.Row(3))
}

func TestAtGrowsAndFallsBack(t *testing.T) {
	b := New(8)
	*b.At(5) = 0xff
	assert.Equal(t, 6, b.Len())
	*b.At(2) = 0x1
	assert.Equal(t, 6, b.Len())

	*b.At(8) = 0xdead
	*b.At(-1) = 0xbeef
	assert.Equal(t, 6, b.Len())
	assert.Equal(t, Row(0), b.Row(7))
	assert.Equal(t, Row(0), b.Row(8))
	assert.Equal(t, Row(0), *b.At(100), "fallback slot is cleared on each use")
}

func TestStartNewImageClears(t *testing.T) {
	b := New(32)
	b.StartNewImage(AlongWidth)
	for i := 0; i < 20; i++ {
		b.PushBack(^Row(0))
	}
	b.StartNewImage(AlongLength)
	assert.Equal(t, 0, b.Len())
	for r := 0; r < b.Cap(); r++ {
		assert.Equal(t, Row(0), b.Row(r), "row %d", r)
	}
}

func TestPad(t *testing.T) {
	b := New(8)
	b.PushBack(1)
	b.PushBack(2)
	*b.At(4) = 3
	b.StartNewImage(AlongWidth)
	b.PushBack(7)

	assert.True(t, b.Pad(4))
	assert.Equal(t, 1, b.Len())
	for r := 1; r < 5; r++ {
		assert.Equal(t, Row(0), b.Row(r))
	}

	b.PushBack(8)
	b.PushBack(9)
	b.PushBack(10)
	b.PushBack(11)
	assert.False(t, b.Pad(4))
	assert.True(t, b.Pad(3))
}
