package printer

import "github.com/coreman2200/funtimes-glowtape/internal/frame"

// chipBitPos maps bit i of a shift register chip to the output driving the
// LED at that position. The outputs alternate between the top and bottom
// half of the chip, fanning out from the middle.
var chipBitPos = [16]uint8{7, 8, 6, 9, 5, 10, 4, 11, 3, 12, 2, 13, 1, 14, 0, 15}

// mapToPhysical applies the chip mapping to each of the four 16-bit chips.
func mapToPhysical(data frame.Row) frame.Row {
	return frame.Row(mapChipBits(uint16(data>>48)))<<48 |
		frame.Row(mapChipBits(uint16(data>>32)))<<32 |
		frame.Row(mapChipBits(uint16(data>>16)))<<16 |
		frame.Row(mapChipBits(uint16(data)))
}

func mapChipBits(data uint16) uint16 {
	var result uint16
	for i, pos := range chipBitPos {
		if data&(1<<i) != 0 {
			result |= 1 << pos
		}
	}
	return result
}
