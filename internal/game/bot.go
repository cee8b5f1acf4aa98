package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Bot is the computer opponent. It always plays PlayerTwo and picks its
// column with a fixed-depth alpha-beta search.
type Bot struct {
	Depth    int
	Parallel bool
}

func NewBot(depth int, parallel bool) *Bot {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &Bot{Depth: depth, Parallel: parallel}
}

// ChooseMove blocks until the search finishes. board is left as it was.
func (b *Bot) ChooseMove(ctx context.Context, board *Board) (SearchResult, error) {
	start := time.Now()
	var (
		res SearchResult
		err error
	)
	if b.Parallel {
		res, err = ParallelBestMove(ctx, board, b.Depth)
	} else {
		res, err = BestMove(board, b.Depth)
	}
	if err != nil {
		return res, err
	}
	log.Debug().
		Int("column", res.Column).
		Int64("score", res.Score).
		Int("nodes", res.Nodes).
		Int("depth", b.Depth).
		Bool("parallel", b.Parallel).
		Dur("elapsed", time.Since(start)).
		Msg("computer move chosen")
	return res, nil
}
