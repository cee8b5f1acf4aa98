package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"fourinarow/internal/analytics"
	"fourinarow/internal/game"
	"fourinarow/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Server struct {
	router        *gin.Engine
	manager       *game.Manager
	store         storage.Store
	tally         storage.Tally
	analytics     analytics.Publisher
	depth         int
	connections   map[string]*wsClient
	connMu        sync.RWMutex
	sweepInterval time.Duration
}

type Config struct {
	Depth         int
	Parallel      bool
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	StaticDir     string
	Store         storage.Store
	Tally         storage.Tally
	Analytics     analytics.Publisher
}

func New(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	if cfg.Depth < 1 {
		cfg.Depth = game.DefaultDepth
	}
	if cfg.Tally == nil {
		cfg.Tally = storage.NewMemoryTally()
	}
	s := &Server{
		router:        router,
		store:         cfg.Store,
		tally:         cfg.Tally,
		analytics:     cfg.Analytics,
		depth:         cfg.Depth,
		connections:   make(map[string]*wsClient),
		sweepInterval: cfg.SweepInterval,
	}
	s.manager = game.NewManager(game.ManagerConfig{
		Depth:       cfg.Depth,
		Parallel:    cfg.Parallel,
		IdleTimeout: cfg.IdleTimeout,
		OnFinish:    s.onFinish,
	})

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/leaderboard", s.handleLeaderboard)
	router.POST("/games", s.handleStart)
	router.GET("/games/:id", s.handleGet)
	router.POST("/games/:id/moves", s.handleMove)
	router.POST("/games/:id/restart", s.handleRestart)
	router.GET("/games/:id/analysis", s.handleAnalysis)
	router.GET("/ws", s.handleWS)

	if cfg.StaticDir != "" {
		router.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))
		router.Static("/static", cfg.StaticDir)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Manager exposes the session registry.
func (s *Server) Manager() *game.Manager {
	return s.manager
}

// Sweep drops idle sessions every sweep interval until ctx is done.
func (s *Server) Sweep(ctx context.Context) {
	if s.sweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.manager.SweepIdle(now); n > 0 {
				log.Info().Int("removed", n).Msg("swept idle games")
			}
		}
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

type startRequest struct {
	Username      string `json:"username" binding:"required"`
	ComputerFirst bool   `json:"computerFirst"`
}

type restartRequest struct {
	Username string `json:"username" binding:"required"`
}

type moveRequest struct {
	Username string `json:"username" binding:"required"`
	Column   *int   `json:"column" binding:"required"`
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply, err := s.manager.Start(c.Request.Context(), req.Username, req.ComputerFirst)
	if err != nil {
		writeError(c, err)
		return
	}
	if !reply.Resumed {
		s.publish(analytics.EventGameStarted, map[string]any{
			"gameId":        reply.GameID,
			"round":         reply.State.GameID,
			"human":         req.Username,
			"computerFirst": req.ComputerFirst,
			"depth":         s.depth,
		})
	}
	s.afterTurn(req.Username, reply)
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleGet(c *gin.Context) {
	sess, ok := s.manager.Get(c.Param("id"))
	if !ok {
		writeError(c, game.ErrSessionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"gameId": sess.ID,
		"human":  sess.Human,
		"state":  sess.Snapshot(),
		"moves":  sess.Moves(),
	})
}

func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply, err := s.playMove(c.Request.Context(), c.Param("id"), req.Username, *req.Column)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) playMove(ctx context.Context, gameID, username string, col int) (game.Reply, error) {
	reply, err := s.manager.Move(ctx, gameID, username, col)
	if err != nil {
		return reply, err
	}
	s.afterTurn(username, reply)
	return reply, nil
}

func (s *Server) handleRestart(c *gin.Context) {
	var req restartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply, err := s.restart(c.Request.Context(), c.Param("id"), req.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) restart(ctx context.Context, gameID, username string) (game.Reply, error) {
	reply, err := s.manager.Restart(ctx, gameID, username)
	if err != nil {
		return reply, err
	}
	if sess, ok := s.manager.Get(reply.GameID); ok {
		s.publish(analytics.EventGameStarted, map[string]any{
			"gameId":        reply.GameID,
			"round":         reply.State.GameID,
			"human":         username,
			"computerFirst": sess.ComputerFirst,
			"depth":         s.depth,
			"restart":       true,
		})
	}
	s.afterTurn(username, reply)
	return reply, nil
}

func (s *Server) handleAnalysis(c *gin.Context) {
	sess, ok := s.manager.Get(c.Param("id"))
	if !ok {
		writeError(c, game.ErrSessionNotFound)
		return
	}
	scores, err := sess.Analyze()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gameId": sess.ID, "depth": s.depth, "columns": scores})
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	ctx := c.Request.Context()
	if s.store != nil {
		rows, err := s.store.GetLeaderboard(ctx, 10)
		if err == nil {
			c.JSON(http.StatusOK, rows)
			return
		}
		log.Warn().Err(err).Msg("leaderboard db error, using tally")
	}
	rows, err := s.tally.Top(ctx, 10)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// afterTurn publishes the moves in reply and pushes the new state to the
// human's socket, if one is open.
func (s *Server) afterTurn(username string, reply game.Reply) {
	if reply.Human != nil {
		s.publish(analytics.EventMovePlayed, map[string]any{
			"gameId":  reply.GameID,
			"human":   username,
			"column":  reply.Human.Column,
			"row":     reply.Human.Row,
			"outcome": reply.State.Outcome.String(),
		})
	}
	if reply.Computer != nil {
		s.publish(analytics.EventComputerMoved, map[string]any{
			"gameId":    reply.GameID,
			"column":    reply.Computer.Column,
			"score":     reply.Computer.Score,
			"nodes":     reply.Computer.Nodes,
			"depth":     s.depth,
			"elapsedMs": float64(reply.ThinkTime.Microseconds()) / 1000,
			"outcome":   reply.State.Outcome.String(),
		})
	}
	s.sendToUser(username, stateMessage(reply))
}

func (s *Server) publish(event string, payload map[string]any) {
	if s.analytics == nil {
		return
	}
	s.analytics.Publish(context.Background(), event, payload)
}

func (s *Server) onFinish(rec game.GameRecord) {
	winner := ""
	switch rec.Outcome.Winner() {
	case game.Human:
		winner = rec.Human
	case game.Computer:
		winner = "computer"
	}

	ctx := context.Background()
	if rec.Outcome.Winner() == game.Human {
		if err := s.tally.RecordWin(ctx, rec.Human); err != nil {
			log.Warn().Err(err).Str("human", rec.Human).Msg("record win failed")
		}
	}
	if s.store != nil {
		_ = s.store.SaveResult(ctx, storage.Result{
			ID:            rec.GameID,
			SessionID:     rec.SessionID,
			Human:         rec.Human,
			Outcome:       rec.Outcome.String(),
			Winner:        winner,
			Forfeit:       rec.Forfeit,
			Moves:         rec.Moves,
			Depth:         s.depth,
			ComputerFirst: rec.ComputerFirst,
			StartedAt:     rec.StartedAt,
			EndedAt:       rec.EndedAt,
		})
	}
	s.publish(analytics.EventGameFinished, map[string]any{
		"gameId":    rec.SessionID,
		"round":     rec.GameID,
		"human":     rec.Human,
		"winner":    winner,
		"outcome":   rec.Outcome.String(),
		"forfeit":   rec.Forfeit,
		"moves":     rec.Moves,
		"duration":  rec.EndedAt.Sub(rec.StartedAt).Seconds(),
		"startedAt": rec.StartedAt,
		"endedAt":   rec.EndedAt,
	})
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrNotYourGame):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrInvalidColumn), errors.Is(err, game.ErrIllegalMove):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrNotYourTurn), errors.Is(err, game.ErrGameFinished),
		errors.Is(err, game.ErrEmptySearchSpace):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
