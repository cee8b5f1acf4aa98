package game

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelBestMove searches each root column on its own copy of the board.
// Ties go to the lowest column, so the result matches BestMove.
func ParallelBestMove(ctx context.Context, b *Board, depth int) (SearchResult, error) {
	if err := checkSearchable(b, depth); err != nil {
		return SearchResult{Column: NoColumn}, err
	}

	cols := b.LegalColumns()
	scores := make([]int64, len(cols))
	nodes := make([]int, len(cols))

	g, ctx := errgroup.WithContext(ctx)
	for i, col := range cols {
		i, col := i, col
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			local := *b
			s := searcher{prune: true}
			scores[i] = s.child(&local, col, Computer, depth, NegInf, PosInf, true)
			nodes[i] = s.nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResult{Column: NoColumn}, err
	}

	best := SearchResult{Column: cols[0], Score: NegInf, Nodes: 1}
	for i, col := range cols {
		best.Nodes += nodes[i]
		if scores[i] > best.Score {
			best.Column = col
			best.Score = scores[i]
		}
	}
	return best, nil
}
