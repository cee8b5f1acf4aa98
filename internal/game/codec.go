package game

import (
	"fmt"
	"strings"
)

// ParseBoard builds a board from Rows strings of Columns symbols, top row
// first. '.' is empty, '1' and '2' are the players.
func ParseBoard(rows ...string) (Board, error) {
	var b Board
	if len(rows) != Rows {
		return b, fmt.Errorf("board needs %d rows, got %d", Rows, len(rows))
	}
	for r, line := range rows {
		if len(line) != Columns {
			return b, fmt.Errorf("row %d needs %d cells, got %d", r, Columns, len(line))
		}
		for c, ch := range line {
			switch ch {
			case '.', '0':
				b[r][c] = Empty
			case '1':
				b[r][c] = PlayerOne
			case '2':
				b[r][c] = PlayerTwo
			default:
				return b, fmt.Errorf("row %d col %d: unknown symbol %q", r, c, ch)
			}
		}
	}
	if err := b.Valid(); err != nil {
		return b, err
	}
	return b, nil
}

// Valid checks that no empty cell sits below a piece.
func (b *Board) Valid() error {
	for c := 0; c < Columns; c++ {
		seen := false
		for r := 0; r < Rows; r++ {
			if b[r][c] != Empty {
				seen = true
			} else if seen {
				return fmt.Errorf("col %d: floating piece above row %d", c, r)
			}
		}
	}
	return nil
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			sb.WriteString(b[r][c].String())
		}
		if r < Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
