package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Result summarizes one finished game. Boards are never stored. ID is unique
// per game; SessionID groups the games replayed in one session.
type Result struct {
	ID            string
	SessionID     string
	Human         string
	Outcome       string
	Winner        string
	Forfeit       bool
	Moves         int
	Depth         int
	ComputerFirst bool
	StartedAt     time.Time
	EndedAt       time.Time
}

type LeaderboardRow struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Ties     int    `json:"ties"`
}

type Store interface {
	SaveResult(ctx context.Context, res Result) error
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

func (p *PostgresStore) EnsureTables(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS results (
	id TEXT PRIMARY KEY,
	session_id TEXT,
	human TEXT NOT NULL,
	outcome TEXT NOT NULL,
	winner TEXT,
	forfeit BOOLEAN NOT NULL DEFAULT FALSE,
	moves INT NOT NULL,
	depth INT NOT NULL,
	computer_first BOOLEAN NOT NULL DEFAULT FALSE,
	started_at TIMESTAMP,
	ended_at TIMESTAMP
);
ALTER TABLE results ADD COLUMN IF NOT EXISTS session_id TEXT;
ALTER TABLE results ADD COLUMN IF NOT EXISTS forfeit BOOLEAN NOT NULL DEFAULT FALSE;
`)
	return errors.Wrap(err, "create results table")
}

func (p *PostgresStore) SaveResult(ctx context.Context, res Result) error {
	if p == nil || p.pool == nil {
		return nil
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO results (id, session_id, human, outcome, winner, forfeit, moves, depth, computer_first, started_at, ended_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) ON CONFLICT (id) DO NOTHING`,
		res.ID, res.SessionID, res.Human, res.Outcome, res.Winner, res.Forfeit, res.Moves, res.Depth,
		res.ComputerFirst, res.StartedAt, res.EndedAt)
	if err != nil {
		log.Error().Err(err).Str("gameId", res.ID).Msg("failed to save result")
		return errors.Wrap(err, "insert result")
	}
	return nil
}

func (p *PostgresStore) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows, err := p.pool.Query(ctx, `
SELECT human,
	COUNT(*) FILTER (WHERE winner = human) AS wins,
	COUNT(*) FILTER (WHERE outcome = 'win_player_two') AS losses,
	COUNT(*) FILTER (WHERE outcome = 'tie') AS ties
FROM results
GROUP BY human
ORDER BY wins DESC, losses ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query leaderboard")
	}
	defer rows.Close()
	var res []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.Username, &row.Wins, &row.Losses, &row.Ties); err != nil {
			return nil, errors.Wrap(err, "scan leaderboard row")
		}
		res = append(res, row)
	}
	return res, errors.Wrap(rows.Err(), "iterate leaderboard")
}
