package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Move is one applied move.
type Move struct {
	Column int  `json:"column"`
	Row    int  `json:"row"`
	Player Cell `json:"player"`
}

// Snapshot is a copy of a session's state taken after a mutation.
type Snapshot struct {
	GameID    string    `json:"game"`
	Board     Board     `json:"board"`
	Mover     Cell      `json:"mover"`
	Outcome   Outcome   `json:"outcome"`
	Forfeit   bool      `json:"forfeit,omitempty"`
	LastMove  *Move     `json:"lastMove,omitempty"`
	Winning   [][2]int  `json:"winning,omitempty"`
	Moves     int       `json:"moves"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// Session is one human-vs-computer game. It is safe for concurrent use.
type Session struct {
	ID            string
	Human         string
	ComputerFirst bool

	mu         sync.Mutex
	bot        *Bot
	gameID     string
	board      Board
	mover      Cell
	outcome    Outcome
	forfeit    bool
	moves      []Move
	startedAt  time.Time
	endedAt    time.Time
	lastMoveAt time.Time
}

func NewSession(id, human string, bot *Bot, computerFirst bool) *Session {
	if bot == nil {
		bot = NewBot(DefaultDepth, false)
	}
	s := &Session{
		ID:            id,
		Human:         human,
		ComputerFirst: computerFirst,
		bot:           bot,
	}
	s.reset()
	return s
}

// reset starts a new game with its own id, so every game played in a session
// is recorded separately.
func (s *Session) reset() {
	now := time.Now()
	s.gameID = uuid.NewString()
	s.board = NewGame()
	s.mover = Human
	if s.ComputerFirst {
		s.mover = Computer
	}
	s.outcome = InProgress
	s.forfeit = false
	s.moves = nil
	s.startedAt = now
	s.lastMoveAt = now
	s.endedAt = time.Time{}
}

// Reset starts a new game in the same session.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return s.snapshot()
}

// PlayHuman applies the human's move in col.
func (s *Session) PlayHuman(col int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome.Finished() {
		return s.snapshot(), ErrGameFinished
	}
	if s.mover != Human {
		return s.snapshot(), ErrNotYourTurn
	}
	if col < 0 || col >= Columns {
		return s.snapshot(), ErrInvalidColumn
	}
	if !s.board.IsLegal(col) {
		return s.snapshot(), ErrIllegalMove
	}
	if err := s.apply(col, Human); err != nil {
		return s.snapshot(), err
	}
	return s.snapshot(), nil
}

// PlayComputer searches for the computer's column and applies it.
func (s *Session) PlayComputer(ctx context.Context) (Snapshot, SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome.Finished() {
		return s.snapshot(), SearchResult{Column: NoColumn}, ErrGameFinished
	}
	if s.mover != Computer {
		return s.snapshot(), SearchResult{Column: NoColumn}, ErrNotYourTurn
	}
	res, err := s.bot.ChooseMove(ctx, &s.board)
	if err != nil {
		return s.snapshot(), res, err
	}
	if err := s.apply(res.Column, Computer); err != nil {
		return s.snapshot(), res, err
	}
	return s.snapshot(), res, nil
}

func (s *Session) apply(col int, player Cell) error {
	row, err := s.board.ApplyMove(col, player)
	if err != nil {
		return err
	}
	now := time.Now()
	s.moves = append(s.moves, Move{Column: col, Row: row, Player: player})
	s.lastMoveAt = now
	s.outcome = s.board.Outcome()
	if s.outcome.Finished() {
		s.endedAt = now
		return nil
	}
	s.mover = player.Opponent()
	return nil
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		GameID:    s.gameID,
		Board:     s.board,
		Mover:     s.mover,
		Outcome:   s.outcome,
		Forfeit:   s.forfeit,
		Moves:     len(s.moves),
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
	if n := len(s.moves); n > 0 {
		last := s.moves[n-1]
		snap.LastMove = &last
	}
	if w := s.outcome.Winner(); w != Empty {
		snap.Winning = s.board.WinningLine(w)
	}
	return snap
}

// expire reports whether the session saw no move since before cutoff. A game
// still running at that point is forfeited to the computer; forfeited tells
// the caller to record it.
func (s *Session) expire(cutoff time.Time) (snap Snapshot, idle, forfeited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.lastMoveAt.Before(cutoff) {
		return s.snapshot(), false, false
	}
	if !s.outcome.Finished() {
		s.outcome = WinPlayerTwo
		s.forfeit = true
		s.endedAt = time.Now()
		forfeited = true
	}
	return s.snapshot(), true, forfeited
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Moves returns the moves played so far.
func (s *Session) Moves() []Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Move(nil), s.moves...)
}

// Analyze rates every computer move on the current board.
func (s *Session) Analyze() ([]ColumnScore, error) {
	s.mu.Lock()
	board := s.board
	depth := s.bot.Depth
	s.mu.Unlock()
	return AnalyzeColumns(&board, depth)
}

// StartedAt is when the current game began.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// EndedAt is zero while the game runs.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// LastMoveAt is the time of the last move, or of the start.
func (s *Session) LastMoveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMoveAt
}

// Outcome returns the current outcome.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}
