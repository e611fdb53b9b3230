package frame

// Row is one line of the image as it is clocked into the LED chain.
// Pixel x lives at bit 63-x.
type Row uint64

const (
	Width           = 64
	DefaultCapacity = 1024

	leftMostBit Row = 1 << (Width - 1)
)

// Aspect selects how (x, y) maps onto (bit, row).
type Aspect uint8

const (
	AlongWidth  Aspect = iota // x across the strip; (0, 0) top left after a full pull
	AlongLength               // x along the pull; (0, 0) first in the pull, at the top
)

func (a Aspect) String() string {
	switch a {
	case AlongWidth:
		return "width"
	case AlongLength:
		return "length"
	default:
		return "INVALID"
	}
}

// Buffer holds the current image. Rows past Len read as zero; writes never
// fail, out of range coordinates are dropped.
type Buffer struct {
	rows   []Row
	end    int // like an end() iterator: the row beyond the last
	aspect Aspect

	// fallback absorbs writes through At for rows that do not exist.
	fallback Row
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{rows: make([]Row, capacity)}
}

// StartNewImage clears the previous image.
func (b *Buffer) StartNewImage(a Aspect) {
	clear(b.rows[:b.end])
	b.end = 0
	b.aspect = a
}

func (b *Buffer) SetPixel(x, y int, on bool) {
	if b.aspect == AlongLength {
		x, y = y, x
		x = Width - 1 - x
	}
	if x < 0 || x >= Width || y < 0 || y >= len(b.rows) {
		return
	}
	r := b.At(y)
	if on {
		*r |= leftMostBit >> x
	} else {
		*r &^= leftMostBit >> x
	}
}

// At gives access to row r, growing the image to include it.
func (b *Buffer) At(r int) *Row {
	if r < 0 || r >= len(b.rows) {
		b.fallback = 0
		return &b.fallback
	}
	if r >= b.end {
		b.end = r + 1
	}
	return &b.rows[r]
}

// Row reads row r without growing the image.
func (b *Buffer) Row(r int) Row {
	if r < 0 || r >= len(b.rows) {
		return 0
	}
	return b.rows[r]
}

func (b *Buffer) PushBack(r Row) {
	if b.end >= len(b.rows) {
		return
	}
	b.rows[b.end] = r
	b.end++
}

// Pad zeroes the n rows following the image without making them part of it.
// It reports false, writing nothing, if they do not fit.
func (b *Buffer) Pad(n int) bool {
	if n < 0 || b.end+n > len(b.rows) {
		return false
	}
	clear(b.rows[b.end : b.end+n])
	return true
}

func (b *Buffer) Len() int       { return b.end }
func (b *Buffer) Cap() int       { return len(b.rows) }
func (b *Buffer) Aspect() Aspect { return b.aspect }
