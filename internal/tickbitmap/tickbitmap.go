// Package tickbitmap maps tick indices onto the 256-slot words used to batch
// on-chain tick queries. It is pure index arithmetic and holds no state.
package tickbitmap

import "fmt"

// WordSize is the number of compressed ticks per bitmap word.
const WordSize = 256

// Compress converts a tick into its spacing-compressed index, flooring toward
// negative infinity so negative ticks land in the right slot.
func Compress(tick, tickSpacing int32) int32 {
	compressed := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		compressed--
	}
	return compressed
}

// WordIndex returns the bitmap word a tick belongs to.
func WordIndex(tick, tickSpacing int32) int32 {
	compressed := Compress(tick, tickSpacing)
	word := compressed >> 8
	return word
}

// BitPos returns the position of a tick within its word.
func BitPos(tick, tickSpacing int32) uint8 {
	compressed := Compress(tick, tickSpacing)
	return uint8(compressed & (WordSize - 1))
}

// TickAt returns the tick index for a bit position within a word.
func TickAt(wordIndex int32, bitPos uint8, tickSpacing int32) int32 {
	return (wordIndex*WordSize + int32(bitPos)) * tickSpacing
}

// WordRange returns the closed interval of word indices needed to cover
// [tickLow, tickHigh]. The tick-data loader uses it to decide which words to
// fetch; the function itself performs no I/O.
func WordRange(tickLow, tickHigh, tickSpacing int32) ([]int32, error) {
	if tickSpacing <= 0 {
		return nil, fmt.Errorf("tick spacing must be positive, got %d", tickSpacing)
	}
	if tickHigh < tickLow {
		return nil, fmt.Errorf("tick range inverted: [%d, %d]", tickLow, tickHigh)
	}

	first := WordIndex(tickLow, tickSpacing)
	last := WordIndex(tickHigh, tickSpacing)

	words := make([]int32, 0, last-first+1)
	for word := first; word <= last; word++ {
		words = append(words, word)
	}
	return words, nil
}
