package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const winsKey = "fourinarow:wins"

// Tally counts human wins against the computer.
type Tally interface {
	RecordWin(ctx context.Context, username string) error
	Top(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

// MemoryTally is the fallback used when Redis is not configured.
type MemoryTally struct {
	mu   sync.Mutex
	wins map[string]int
}

func NewMemoryTally() *MemoryTally {
	return &MemoryTally{wins: make(map[string]int)}
}

func (m *MemoryTally) RecordWin(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wins[username]++
	return nil
}

func (m *MemoryTally) Top(_ context.Context, limit int) ([]LeaderboardRow, error) {
	m.mu.Lock()
	res := make([]LeaderboardRow, 0, len(m.wins))
	for k, v := range m.wins {
		res = append(res, LeaderboardRow{Username: k, Wins: v})
	}
	m.mu.Unlock()
	sort.Slice(res, func(i, j int) bool {
		if res[i].Wins != res[j].Wins {
			return res[i].Wins > res[j].Wins
		}
		return res[i].Username < res[j].Username
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// RedisTally keeps wins in a sorted set.
type RedisTally struct {
	client *redis.Client
}

// NewRedisTally connects and pings; callers fall back to MemoryTally on error.
func NewRedisTally(ctx context.Context, addr, password string) (*RedisTally, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	log.Info().Str("addr", addr).Msg("redis tally enabled")
	return &RedisTally{client: client}, nil
}

func (r *RedisTally) RecordWin(ctx context.Context, username string) error {
	return errors.Wrap(r.client.ZIncrBy(ctx, winsKey, 1, username).Err(), "redis zincrby")
}

func (r *RedisTally) Top(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	entries, err := r.client.ZRevRangeWithScores(ctx, winsKey, 0, stop).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis zrevrange")
	}
	res := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		name, _ := e.Member.(string)
		res = append(res, LeaderboardRow{Username: name, Wins: int(e.Score)})
	}
	return res, nil
}

func (r *RedisTally) Close() error {
	return r.client.Close()
}
