package board

import (
	"github.com/mcoot/bingopot/internal/model"
)

// ZeroSubstitute replaces a zero seed byte so that only the free cell starts marked
const ZeroSubstitute uint8 = 88

// Generate deterministically derives a board from a seed.
// Cell i takes seed byte i; the free cell is pre-marked.
func Generate(seed model.Seed) model.Board {
	var b model.Board
	for i := 0; i < model.BoardCells; i++ {
		if i == model.FreeCell {
			b[i] = model.Marked
			continue
		}
		v := seed[i]
		if v == 0 {
			v = ZeroSubstitute
		}
		b[i] = v
	}
	return b
}

// DrawNumber derives the drawn number from a draw seed
func DrawNumber(seed model.Seed) uint8 {
	return seed[0]
}

// Mark zeroes every cell whose value appears in drawn and returns the
// marked board along with how many cells were newly marked.
// Marking is idempotent and independent of draw order.
func Mark(b model.Board, drawn []uint8) (model.Board, int) {
	var seen [256]bool
	for _, n := range drawn {
		seen[n] = true
	}

	newly := 0
	for i, v := range b {
		if v != model.Marked && seen[v] {
			b[i] = model.Marked
			newly++
		}
	}
	return b, newly
}
