package win

import (
	"fmt"

	"github.com/mcoot/bingopot/internal/model"
)

// LineKind distinguishes rows, columns and diagonals
type LineKind string

const (
	LineRow      LineKind = "row"
	LineColumn   LineKind = "column"
	LineDiagonal LineKind = "diagonal"
)

// Line is one of the twelve winning lines on a board.
// Diagonal 0 runs top-left to bottom-right, diagonal 1 top-right to bottom-left.
type Line struct {
	Kind  LineKind `json:"kind"`
	Index int      `json:"index"`
}

func (l Line) String() string {
	return fmt.Sprintf("%s %d", l.Kind, l.Index)
}

// Cells returns the board indices covered by the line
func (l Line) Cells() [model.GridWidth]int {
	var cells [model.GridWidth]int
	for k := 0; k < model.GridWidth; k++ {
		switch l.Kind {
		case LineRow:
			cells[k] = l.Index*model.GridWidth + k
		case LineColumn:
			cells[k] = k*model.GridWidth + l.Index
		case LineDiagonal:
			if l.Index == 0 {
				cells[k] = k*model.GridWidth + k
			} else {
				cells[k] = k*model.GridWidth + (model.GridWidth - 1 - k)
			}
		}
	}
	return cells
}

// AllLines lists every winning line: five rows, five columns, two diagonals
func AllLines() []Line {
	lines := make([]Line, 0, 2*model.GridWidth+2)
	for i := 0; i < model.GridWidth; i++ {
		lines = append(lines, Line{Kind: LineRow, Index: i})
	}
	for i := 0; i < model.GridWidth; i++ {
		lines = append(lines, Line{Kind: LineColumn, Index: i})
	}
	lines = append(lines, Line{Kind: LineDiagonal, Index: 0}, Line{Kind: LineDiagonal, Index: 1})
	return lines
}

// Complete reports whether every cell on the line is marked
func Complete(b model.Board, l Line) bool {
	for _, i := range l.Cells() {
		if !b.IsMarked(i) {
			return false
		}
	}
	return true
}

// WinningLines returns every fully marked line on the board
func WinningLines(b model.Board) []Line {
	var won []Line
	for _, l := range AllLines() {
		if Complete(b, l) {
			won = append(won, l)
		}
	}
	return won
}

// HasWon reports whether any row, column or diagonal is fully marked
func HasWon(b model.Board) bool {
	for _, l := range AllLines() {
		if Complete(b, l) {
			return true
		}
	}
	return false
}
