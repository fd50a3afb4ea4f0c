package model

import "time"

const (
	// GridWidth is the number of cells per row and column
	GridWidth = 5

	// BoardCells is the total number of cells on a board
	BoardCells = GridWidth * GridWidth

	// FreeCell is the index of the pre-marked centre cell
	FreeCell = 12

	// Marked is the value a cell holds once it has been matched (or is the free cell)
	Marked uint8 = 0
)

// Seed is the opaque 32-byte value consumed by board generation and draws
type Seed [32]byte

// Board is a row-major 5x5 grid of cell values
type Board [BoardCells]uint8

// Cell returns the value at the given row and column
func (b Board) Cell(row, col int) uint8 {
	return b[row*GridWidth+col]
}

// IsMarked reports whether the cell at index i has been marked
func (b Board) IsMarked(i int) bool {
	return b[i] == Marked
}

// MarkedCount returns the number of marked cells, including the free cell
func (b Board) MarkedCount() int {
	n := 0
	for _, v := range b {
		if v == Marked {
			n++
		}
	}
	return n
}

// MembershipKey identifies a player's seat in a game
type MembershipKey struct {
	GameID   GameID
	PlayerID PlayerID
}

// Membership records that a player paid into a game and holds a board for it
type Membership struct {
	GameID   GameID
	PlayerID PlayerID
	Joined   bool
	Board    Board
	JoinedAt time.Time
}

// Key returns the membership's identifying pair
func (m *Membership) Key() MembershipKey {
	return MembershipKey{GameID: m.GameID, PlayerID: m.PlayerID}
}

// Clone returns a copy of the membership
func (m *Membership) Clone() *Membership {
	c := *m
	return &c
}
