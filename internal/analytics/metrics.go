package analytics

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Metrics aggregates events read back from the topic.
type Metrics struct {
	mu            sync.Mutex
	totalGames    int
	outcomes      map[string]int
	gameDurations []float64
	gamesPerDay   map[string]int
	gamesPerHour  map[string]int
	userGames     map[string]int
	userWins      map[string]int
	computerMoves int
	computerNodes int
	searchMillis  float64
}

func NewMetrics() *Metrics {
	return &Metrics{
		outcomes:     make(map[string]int),
		gamesPerDay:  make(map[string]int),
		gamesPerHour: make(map[string]int),
		userGames:    make(map[string]int),
		userWins:     make(map[string]int),
	}
}

// Record folds one event into the totals.
func (m *Metrics) Record(e Event) {
	switch e.Event {
	case EventGameFinished:
		m.recordGameFinished(e.Payload, e.Timestamp)
	case EventComputerMoved:
		m.recordComputerMove(e.Payload)
	}
}

func (m *Metrics) recordGameFinished(payload map[string]any, timestamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalGames++
	if outcome, ok := payload["outcome"].(string); ok {
		m.outcomes[outcome]++
	}
	human, _ := payload["human"].(string)
	if human != "" {
		m.userGames[human]++
	}
	if winner, ok := payload["winner"].(string); ok && winner != "" && winner == human {
		m.userWins[winner]++
	}
	if duration, ok := payload["duration"].(float64); ok {
		m.gameDurations = append(m.gameDurations, duration)
	}
	m.gamesPerDay[timestamp.Format("2006-01-02")]++
	m.gamesPerHour[timestamp.Format("2006-01-02 15:00")]++
}

func (m *Metrics) recordComputerMove(payload map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computerMoves++
	// JSON numbers decode as float64
	if nodes, ok := payload["nodes"].(float64); ok {
		m.computerNodes += int(nodes)
	}
	if ms, ok := payload["elapsedMs"].(float64); ok {
		m.searchMillis += ms
	}
}

// Summary is a point-in-time copy of the totals.
type Summary struct {
	TotalGames      int
	Outcomes        map[string]int
	AverageDuration float64
	GamesPerDay     map[string]int
	GamesPerHour    map[string]int
	UserGames       map[string]int
	UserWins        map[string]int
	ComputerMoves   int
	AverageNodes    float64
	AverageSearchMs float64
}

func (m *Metrics) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		TotalGames:    m.totalGames,
		Outcomes:      copyCounts(m.outcomes),
		GamesPerDay:   copyCounts(m.gamesPerDay),
		GamesPerHour:  copyCounts(m.gamesPerHour),
		UserGames:     copyCounts(m.userGames),
		UserWins:      copyCounts(m.userWins),
		ComputerMoves: m.computerMoves,
	}
	if len(m.gameDurations) > 0 {
		sum := 0.0
		for _, d := range m.gameDurations {
			sum += d
		}
		s.AverageDuration = sum / float64(len(m.gameDurations))
	}
	if m.computerMoves > 0 {
		s.AverageNodes = float64(m.computerNodes) / float64(m.computerMoves)
		s.AverageSearchMs = m.searchMillis / float64(m.computerMoves)
	}
	return s
}

func (m *Metrics) Print() {
	s := m.Summary()
	log.Info().
		Int("totalGames", s.TotalGames).
		Interface("outcomes", s.Outcomes).
		Float64("avgDurationSec", s.AverageDuration).
		Interface("gamesPerDay", s.GamesPerDay).
		Interface("gamesPerHour", s.GamesPerHour).
		Interface("userGames", s.UserGames).
		Interface("userWins", s.UserWins).
		Int("computerMoves", s.ComputerMoves).
		Float64("avgNodes", s.AverageNodes).
		Float64("avgSearchMs", s.AverageSearchMs).
		Msg("analytics summary")
}

func copyCounts(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
