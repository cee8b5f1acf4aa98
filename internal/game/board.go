package game

import "errors"

const (
	Columns = 7
	Rows    = 6
	// Connect is the run length that wins.
	Connect = 4
)

// Cell is the content of one board square.
type Cell uint8

const (
	Empty Cell = iota
	PlayerOne
	PlayerTwo
)

// Human always holds PlayerOne and the computer PlayerTwo; the search
// maximizes for Computer.
const (
	Human    = PlayerOne
	Computer = PlayerTwo
)

var (
	ErrInvalidColumn    = errors.New("invalid column")
	ErrIllegalMove      = errors.New("column is full")
	ErrInvalidPlayer    = errors.New("invalid player")
	ErrEmptySearchSpace = errors.New("no legal column to search")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrGameFinished     = errors.New("game already finished")
	ErrSessionNotFound  = errors.New("game not found")
	ErrNotYourGame      = errors.New("game belongs to another player")
	ErrInvalidDepth     = errors.New("search depth must be at least 1")
)

// Opponent returns the other player. Empty maps to Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	}
	return Empty
}

func (c Cell) String() string {
	switch c {
	case PlayerOne:
		return "1"
	case PlayerTwo:
		return "2"
	}
	return "."
}

// Board is the grid, row 0 at the top. Pieces settle on the highest
// numbered empty row of their column.
type Board [Rows][Columns]Cell

// NewGame returns an empty board.
func NewGame() Board {
	return Board{}
}

// IsLegal reports whether a piece can be dropped into col.
func (b *Board) IsLegal(col int) bool {
	return col >= 0 && col < Columns && b[0][col] == Empty
}

// ApplyMove drops player's piece into col and returns the row it landed on.
func (b *Board) ApplyMove(col int, player Cell) (int, error) {
	if col < 0 || col >= Columns {
		return -1, ErrInvalidColumn
	}
	if player != PlayerOne && player != PlayerTwo {
		return -1, ErrInvalidPlayer
	}
	row := b.drop(col, player)
	if row < 0 {
		return -1, ErrIllegalMove
	}
	return row, nil
}

// drop is ApplyMove without argument checks, for the search hot path.
// It returns -1 when the column is full.
func (b *Board) drop(col int, player Cell) int {
	for row := Rows - 1; row >= 0; row-- {
		if b[row][col] == Empty {
			b[row][col] = player
			return row
		}
	}
	return -1
}

// RetractMove empties a cell filled by ApplyMove. It is only meant for
// backtracking the most recent move in a column.
func (b *Board) RetractMove(row, col int) {
	b[row][col] = Empty
}

// LegalColumns lists the playable columns in ascending order.
func (b *Board) LegalColumns() []int {
	cols := make([]int, 0, Columns)
	for col := 0; col < Columns; col++ {
		if b[0][col] == Empty {
			cols = append(cols, col)
		}
	}
	return cols
}

// Full reports whether no column is playable.
func (b *Board) Full() bool {
	for col := 0; col < Columns; col++ {
		if b[0][col] == Empty {
			return false
		}
	}
	return true
}

// Count returns how many cells hold c.
func (b *Board) Count(c Cell) int {
	n := 0
	for r := 0; r < Rows; r++ {
		for col := 0; col < Columns; col++ {
			if b[r][col] == c {
				n++
			}
		}
	}
	return n
}
