package content

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/coreman2200/funtimes-glowtape/internal/frame"
	"github.com/coreman2200/funtimes-glowtape/internal/rtc"
)

type Mode uint8

const (
	Time Mode = iota
	Picture
)

func (m Mode) String() string {
	switch m {
	case Time:
		return "time"
	case Picture:
		return "picture"
	default:
		return "INVALID"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "time":
		return Time, nil
	case "picture":
		return Picture, nil
	}
	return 0, fmt.Errorf("content: unknown mode %q", s)
}

// WallClock is the date/time source for the Time mode.
type WallClock interface {
	Now() (rtc.DateTime, bool)
}

var weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Renderer regenerates the frame buffer for each new pull.
type Renderer struct {
	buf   *frame.Buffer
	wall  WallClock
	modes []Mode
	face  font.Face

	last Mode
}

// New returns a renderer cycling through modes by press count. An empty
// mode list means Time then Picture.
func New(buf *frame.Buffer, wall WallClock, modes []Mode) *Renderer {
	if len(modes) == 0 {
		modes = []Mode{Time, Picture}
	}
	return &Renderer{buf: buf, wall: wall, modes: modes, face: basicfont.Face7x13}
}

func (r *Renderer) ModeFor(presses int) Mode {
	if presses < 0 {
		presses = 0
	}
	return r.modes[presses%len(r.modes)]
}

// Render implements control.Renderer.
func (r *Renderer) Render(presses int) {
	r.last = r.ModeFor(presses)
	r.buf.StartNewImage(frame.AlongWidth)
	switch r.last {
	case Picture:
		for _, row := range picture {
			r.buf.PushBack(bitmap(row))
		}
	default:
		r.renderTime()
	}
}

// Last is the mode of the most recent Render.
func (r *Renderer) Last() Mode { return r.last }

func (r *Renderer) renderTime() {
	var now rtc.DateTime
	ok := r.wall != nil
	if ok {
		now, ok = r.wall.Now()
	}
	if !ok {
		r.WriteText(0, 0, "Set Time!", false)
		return
	}
	day := "-"
	if now.Dotw >= 0 && now.Dotw < len(weekdays) {
		day = weekdays[now.Dotw]
	}
	line := r.face.Metrics().Height.Ceil() + 1
	r.WriteText(62, 0, day, true)
	r.WriteText(2, line, fmt.Sprintf("%02d-%02d-%02d", now.Year%100, now.Month, now.Day), false)
	r.WriteText(2, 2*line, fmt.Sprintf("%02d:%02d", now.Hour, now.Min), false)
}

// WriteText draws s with its top left corner at (x, y), or its top right
// corner when rightAligned. Pixels off the strip are dropped.
func (r *Renderer) WriteText(x, y int, s string, rightAligned bool) {
	m := r.face.Metrics()
	w := font.MeasureString(r.face, s).Ceil()
	h := m.Height.Ceil()
	if w <= 0 || h <= 0 {
		return
	}
	if rightAligned {
		x -= w
	}

	img := image1bit.NewVerticalLSB(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(image1bit.On),
		Face: r.face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(s)

	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if img.BitAt(dx, dy) == image1bit.On {
				r.buf.SetPixel(x+dx, y+dy, true)
			}
		}
	}
}

// bitmap turns a picture row into a Row, first character at pixel 0.
func bitmap(s string) frame.Row {
	var r frame.Row
	for i := 0; i < frame.Width; i++ {
		r <<= 1
		if i < len(s) && s[i] != ' ' {
			r |= 1
		}
	}
	return r
}
