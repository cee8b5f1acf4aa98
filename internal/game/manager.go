package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Reply is what a caller sees after a turn: the state plus the moves made.
type Reply struct {
	GameID   string        `json:"gameId"`
	State    Snapshot      `json:"state"`
	Human    *Move         `json:"human,omitempty"`
	Computer *SearchResult `json:"computer,omitempty"`
	Resumed  bool          `json:"resumed,omitempty"`

	// ThinkTime is how long the computer's search took, zero if it did not move.
	ThinkTime time.Duration `json:"-"`
}

// GameRecord describes one finished game. It is captured when the game ends,
// so a later restart of the session does not change it.
type GameRecord struct {
	GameID        string
	SessionID     string
	Human         string
	ComputerFirst bool
	Outcome       Outcome
	Forfeit       bool
	Moves         int
	StartedAt     time.Time
	EndedAt       time.Time
}

type ManagerConfig struct {
	Depth       int
	Parallel    bool
	IdleTimeout time.Duration
	OnFinish    func(GameRecord)
}

// Manager keeps the running sessions, at most one per human.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	userToGame map[string]string
	bot        *Bot
	idleAfter  time.Duration
	onFinish   func(GameRecord)
}

func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		userToGame: make(map[string]string),
		bot:        NewBot(cfg.Depth, cfg.Parallel),
		idleAfter:  cfg.IdleTimeout,
		onFinish:   cfg.OnFinish,
	}
}

// Start returns the human's running session, or opens a new one. When the
// computer moves first its opening move is already played.
func (m *Manager) Start(ctx context.Context, human string, computerFirst bool) (Reply, error) {
	m.mu.Lock()
	if gid, ok := m.userToGame[human]; ok {
		if s, exists := m.sessions[gid]; exists && !s.Outcome().Finished() {
			m.mu.Unlock()
			return m.resume(ctx, s)
		}
	}
	s := NewSession(uuid.NewString(), human, m.bot, computerFirst)
	m.sessions[s.ID] = s
	m.userToGame[human] = s.ID
	m.mu.Unlock()

	log.Info().Str("gameId", s.ID).Str("human", human).Bool("computerFirst", computerFirst).Msg("game started")
	return m.computerTurn(ctx, s, Reply{GameID: s.ID, State: s.Snapshot()})
}

// Resume reattaches the human to one of their sessions.
func (m *Manager) Resume(ctx context.Context, gameID, human string) (Reply, error) {
	s, ok := m.Get(gameID)
	if !ok {
		return Reply{}, ErrSessionNotFound
	}
	if s.Human != human {
		return Reply{}, ErrNotYourGame
	}
	return m.resume(ctx, s)
}

// resume also plays a computer move that an interrupted request still owes.
func (m *Manager) resume(ctx context.Context, s *Session) (Reply, error) {
	return m.computerTurn(ctx, s, Reply{GameID: s.ID, State: s.Snapshot(), Resumed: true})
}

// computerTurn plays the computer's move when reply.State says it is owed one.
func (m *Manager) computerTurn(ctx context.Context, s *Session, reply Reply) (Reply, error) {
	if reply.State.Mover != Computer || reply.State.Outcome.Finished() {
		return reply, nil
	}
	start := time.Now()
	snap, res, err := s.PlayComputer(ctx)
	reply.State = snap
	if err != nil {
		return reply, err
	}
	reply.Computer = &res
	reply.ThinkTime = time.Since(start)
	if snap.Outcome.Finished() {
		m.finished(s, snap)
	}
	return reply, nil
}

// Move plays the human's column and, if the game goes on, the computer's
// answer. If an earlier request was cancelled before the computer answered,
// the computer moves now and col is ignored: the human picks again on the
// new board.
func (m *Manager) Move(ctx context.Context, gameID, human string, col int) (Reply, error) {
	s, ok := m.Get(gameID)
	if !ok {
		return Reply{}, ErrSessionNotFound
	}
	if s.Human != human {
		return Reply{GameID: gameID, State: s.Snapshot()}, ErrNotYourGame
	}

	reply := Reply{GameID: gameID, State: s.Snapshot()}
	if reply.State.Mover == Computer && !reply.State.Outcome.Finished() {
		return m.computerTurn(ctx, s, reply)
	}

	snap, err := s.PlayHuman(col)
	reply.State = snap
	if err != nil {
		return reply, err
	}
	reply.Human = snap.LastMove
	if snap.Outcome.Finished() {
		m.finished(s, snap)
		return reply, nil
	}
	return m.computerTurn(ctx, s, reply)
}

// Restart clears the board of an existing session ("play again").
func (m *Manager) Restart(ctx context.Context, gameID, human string) (Reply, error) {
	s, ok := m.Get(gameID)
	if !ok {
		return Reply{}, ErrSessionNotFound
	}
	if s.Human != human {
		return Reply{}, ErrNotYourGame
	}
	snap := s.Reset()
	m.mu.Lock()
	m.userToGame[s.Human] = s.ID
	m.mu.Unlock()
	return m.computerTurn(ctx, s, Reply{GameID: s.ID, State: snap})
}

// finished hands a record of the game in snap to the finish hook. snap must
// be the state returned by the move that ended the game.
func (m *Manager) finished(s *Session, snap Snapshot) {
	rec := GameRecord{
		GameID:        snap.GameID,
		SessionID:     s.ID,
		Human:         s.Human,
		ComputerFirst: s.ComputerFirst,
		Outcome:       snap.Outcome,
		Forfeit:       snap.Forfeit,
		Moves:         snap.Moves,
		StartedAt:     snap.StartedAt,
		EndedAt:       snap.EndedAt,
	}
	log.Info().
		Str("gameId", s.ID).
		Str("round", rec.GameID).
		Str("human", s.Human).
		Stringer("outcome", rec.Outcome).
		Bool("forfeit", rec.Forfeit).
		Int("moves", rec.Moves).
		Msg("game finished")
	if m.onFinish != nil {
		go m.onFinish(rec)
	}
}

func (m *Manager) Get(gameID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[gameID]
	return s, ok
}

// GetByUser returns the latest session of a human.
func (m *Manager) GetByUser(human string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.userToGame[human]; ok {
		if s, exists := m.sessions[id]; exists {
			return s, true
		}
	}
	return nil, false
}

// Abandon forgets the human's session.
func (m *Manager) Abandon(human string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.userToGame[human]; ok {
		delete(m.sessions, id)
	}
	delete(m.userToGame, human)
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepIdle drops sessions with no move for longer than the idle timeout
// and returns how many were removed. Games still running are forfeited to
// the computer and recorded like any other finished game.
func (m *Manager) SweepIdle(now time.Time) int {
	if m.idleAfter <= 0 {
		return 0
	}
	cutoff := now.Add(-m.idleAfter)

	m.mu.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.RUnlock()

	removed := 0
	for _, s := range candidates {
		snap, idle, forfeited := s.expire(cutoff)
		if !idle {
			continue
		}
		m.mu.Lock()
		if m.sessions[s.ID] == s {
			delete(m.sessions, s.ID)
			if m.userToGame[s.Human] == s.ID {
				delete(m.userToGame, s.Human)
			}
			removed++
		}
		m.mu.Unlock()
		log.Info().Str("gameId", s.ID).Str("human", s.Human).Bool("forfeit", forfeited).Msg("idle game dropped")
		if forfeited {
			m.finished(s, snap)
		}
	}
	return removed
}
