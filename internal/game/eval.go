package game

// Evaluator weights.
const (
	centerWeight    = 3
	fourWeight      = 100
	threeWeight     = 5
	twoWeight       = 2
	oppThreePenalty = 4
)

// ScorePosition is the static evaluation of b for player. The search only
// calls it at the depth cutoff, always for the computer.
func ScorePosition(b *Board, player Cell) int64 {
	var score int64
	center := Columns / 2
	for r := 0; r < Rows; r++ {
		if b[r][center] == player {
			score += centerWeight
		}
	}
	for _, w := range windows {
		score += scoreWindow(b, w, player)
	}
	return score
}

func scoreWindow(b *Board, w window, player Cell) int64 {
	opp := player.Opponent()
	own, theirs, empty := 0, 0, 0
	for _, rc := range w {
		switch b[rc[0]][rc[1]] {
		case player:
			own++
		case opp:
			theirs++
		default:
			empty++
		}
	}

	var score int64
	switch {
	case own == Connect:
		// unreachable below a terminal check, kept for score parity
		score += fourWeight
	case own == 3 && empty == 1:
		score += threeWeight
	case own == 2 && empty == 2:
		score += twoWeight
	}
	if theirs == 3 && empty == 1 {
		score -= oppThreePenalty
	}
	return score
}
