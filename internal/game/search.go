package game

import "math"

const (
	DefaultDepth = 4

	WinScore  int64 = 100_000_000_000_000
	LossScore int64 = -10_000_000_000_000
	TieScore  int64 = 0

	NegInf int64 = math.MinInt64
	PosInf int64 = math.MaxInt64

	// NoColumn marks a result that carries no move.
	NoColumn = -1
)

// SearchResult is the column chosen for the side to move and its score
// from the computer's point of view.
type SearchResult struct {
	Column int   `json:"column"`
	Score  int64 `json:"score"`
	Nodes  int   `json:"nodes"`
}

// HasColumn reports whether the result names a move.
func (r SearchResult) HasColumn() bool {
	return r.Column >= 0 && r.Column < Columns
}

// ColumnScore is the full-width value of one root move.
type ColumnScore struct {
	Column int   `json:"column"`
	Score  int64 `json:"score"`
}

type searcher struct {
	prune bool
	nodes int
}

// Search runs depth-limited minimax with alpha-beta pruning. The computer
// (PlayerTwo) maximizes and the human minimizes. Every move tried is
// retracted before returning, so b is unchanged afterwards.
func Search(b *Board, depth int, alpha, beta int64, maximizing bool) SearchResult {
	s := searcher{prune: true}
	res := s.minimax(b, depth, alpha, beta, maximizing)
	res.Nodes = s.nodes
	return res
}

// SearchFullWidth is Search without pruning.
func SearchFullWidth(b *Board, depth int, maximizing bool) SearchResult {
	s := searcher{}
	res := s.minimax(b, depth, NegInf, PosInf, maximizing)
	res.Nodes = s.nodes
	return res
}

// BestMove picks the computer's column at the given depth.
func BestMove(b *Board, depth int) (SearchResult, error) {
	if err := checkSearchable(b, depth); err != nil {
		return SearchResult{Column: NoColumn}, err
	}
	return Search(b, depth, NegInf, PosInf, true), nil
}

// AnalyzeColumns scores every legal computer move with a full-width search
// of the remaining depth-1 plies.
func AnalyzeColumns(b *Board, depth int) ([]ColumnScore, error) {
	if err := checkSearchable(b, depth); err != nil {
		return nil, err
	}
	s := searcher{}
	cols := b.LegalColumns()
	out := make([]ColumnScore, 0, len(cols))
	for _, col := range cols {
		out = append(out, ColumnScore{
			Column: col,
			Score:  s.child(b, col, Computer, depth, NegInf, PosInf, true),
		})
	}
	return out, nil
}

func checkSearchable(b *Board, depth int) error {
	if depth < 1 {
		return ErrInvalidDepth
	}
	if b.Full() {
		return ErrEmptySearchSpace
	}
	if b.CheckWin(PlayerOne) || b.CheckWin(PlayerTwo) {
		return ErrGameFinished
	}
	return nil
}

func (s *searcher) minimax(b *Board, depth int, alpha, beta int64, maximizing bool) SearchResult {
	s.nodes++

	computerWon := b.CheckWin(Computer)
	humanWon := !computerWon && b.CheckWin(Human)
	cols := b.LegalColumns()
	terminal := computerWon || humanWon || len(cols) == 0

	if depth == 0 || terminal {
		switch {
		case computerWon:
			return SearchResult{Column: NoColumn, Score: WinScore}
		case humanWon:
			return SearchResult{Column: NoColumn, Score: LossScore}
		case terminal:
			return SearchResult{Column: NoColumn, Score: TieScore}
		}
		return SearchResult{Column: NoColumn, Score: ScorePosition(b, Computer)}
	}

	if maximizing {
		best := SearchResult{Column: cols[0], Score: NegInf}
		for _, col := range cols {
			score := s.child(b, col, Computer, depth, alpha, beta, true)
			if score > best.Score {
				best = SearchResult{Column: col, Score: score}
			}
			alpha = max(alpha, best.Score)
			if s.prune && alpha >= beta {
				break
			}
		}
		return best
	}

	best := SearchResult{Column: cols[0], Score: PosInf}
	for _, col := range cols {
		score := s.child(b, col, Human, depth, alpha, beta, false)
		if score < best.Score {
			best = SearchResult{Column: col, Score: score}
		}
		beta = min(beta, best.Score)
		if s.prune && alpha >= beta {
			break
		}
	}
	return best
}

// child plays col for mover, searches the reply and takes the move back,
// also when the recursion unwinds early.
func (s *searcher) child(b *Board, col int, mover Cell, depth int, alpha, beta int64, maximizing bool) int64 {
	row := b.drop(col, mover)
	defer b.RetractMove(row, col)
	return s.minimax(b, depth-1, alpha, beta, !maximizing).Score
}
