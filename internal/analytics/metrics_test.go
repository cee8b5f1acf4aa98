package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Event {
	t.Helper()
	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	return e
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.Record(decode(t, `{"event":"game_finished","timestamp":"2026-10-17T10:15:00Z",
		"payload":{"gameId":"g1","human":"alice","winner":"alice","outcome":"win_player_one","duration":30}}`))
	m.Record(decode(t, `{"event":"game_finished","timestamp":"2026-10-17T11:05:00Z",
		"payload":{"gameId":"g2","human":"alice","winner":"computer","outcome":"win_player_two","duration":10}}`))
	m.Record(decode(t, `{"event":"computer_moved","timestamp":"2026-10-17T11:04:00Z",
		"payload":{"gameId":"g2","column":3,"nodes":100,"elapsedMs":4}}`))
	m.Record(decode(t, `{"event":"computer_moved","timestamp":"2026-10-17T11:04:30Z",
		"payload":{"gameId":"g2","column":2,"nodes":300,"elapsedMs":8}}`))
	m.Record(Event{Event: EventMovePlayed, Timestamp: time.Now()})

	s := m.Summary()
	assert.Equal(t, 2, s.TotalGames)
	assert.Equal(t, map[string]int{"win_player_one": 1, "win_player_two": 1}, s.Outcomes)
	assert.InDelta(t, 20.0, s.AverageDuration, 1e-9)
	assert.Equal(t, map[string]int{"2026-10-17": 2}, s.GamesPerDay)
	assert.Len(t, s.GamesPerHour, 2)
	assert.Equal(t, 2, s.UserGames["alice"])
	assert.Equal(t, 1, s.UserWins["alice"])
	assert.Equal(t, 2, s.ComputerMoves)
	assert.InDelta(t, 200.0, s.AverageNodes, 1e-9)
	assert.InDelta(t, 6.0, s.AverageSearchMs, 1e-9)
}

func TestNilProducerIsNoop(t *testing.T) {
	var p *Producer
	assert.NotPanics(t, func() {
		p.Publish(context.TODO(), EventMovePlayed, map[string]any{"gameId": "g"})
		p.Close()
	})
	assert.Nil(t, NewProducer(nil, "topic"))
}
