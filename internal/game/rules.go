package game

import "fmt"

// window is one run of Connect cells, stored as (row, col) pairs.
type window [Connect][2]int

// windows holds every horizontal, vertical and diagonal run on the board.
// Both CheckWin and the evaluator walk this list.
var windows = buildWindows()

func buildWindows() []window {
	directions := [][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}}
	var ws []window
	for _, d := range directions {
		for r := 0; r < Rows; r++ {
			for c := 0; c < Columns; c++ {
				endR, endC := r+d[0]*(Connect-1), c+d[1]*(Connect-1)
				if endR < 0 || endR >= Rows || endC < 0 || endC >= Columns {
					continue
				}
				var w window
				for i := 0; i < Connect; i++ {
					w[i] = [2]int{r + d[0]*i, c + d[1]*i}
				}
				ws = append(ws, w)
			}
		}
	}
	return ws
}

// CheckWin scans the whole board for four of player's pieces in a row.
func (b *Board) CheckWin(player Cell) bool {
	return b.WinningLine(player) != nil
}

// WinningLine returns the cells of the first winning run for player, or nil.
func (b *Board) WinningLine(player Cell) [][2]int {
	if player == Empty {
		return nil
	}
	for _, w := range windows {
		if b[w[0][0]][w[0][1]] == player &&
			b[w[1][0]][w[1][1]] == player &&
			b[w[2][0]][w[2][1]] == player &&
			b[w[3][0]][w[3][1]] == player {
			return append([][2]int(nil), w[:]...)
		}
	}
	return nil
}

// IsTerminal reports a win for either player or a full board.
func (b *Board) IsTerminal() bool {
	return b.CheckWin(PlayerOne) || b.CheckWin(PlayerTwo) || b.Full()
}

// Outcome is the derived state of a board.
type Outcome uint8

const (
	InProgress Outcome = iota
	WinPlayerOne
	WinPlayerTwo
	Tie
)

var outcomeNames = map[Outcome]string{
	InProgress:   "in_progress",
	WinPlayerOne: "win_player_one",
	WinPlayerTwo: "win_player_two",
	Tie:          "tie",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for k, v := range outcomeNames {
		if v == string(text) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Finished reports whether the game is over.
func (o Outcome) Finished() bool {
	return o != InProgress
}

// Winner returns the winning player, or Empty for a tie or running game.
func (o Outcome) Winner() Cell {
	switch o {
	case WinPlayerOne:
		return PlayerOne
	case WinPlayerTwo:
		return PlayerTwo
	}
	return Empty
}

// Outcome derives the game state from the board alone.
func (b *Board) Outcome() Outcome {
	switch {
	case b.CheckWin(PlayerOne):
		return WinPlayerOne
	case b.CheckWin(PlayerTwo):
		return WinPlayerTwo
	case b.Full():
		return Tie
	}
	return InProgress
}
