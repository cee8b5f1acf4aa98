package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fourinarow/internal/analytics"
	"fourinarow/internal/game"
	"fourinarow/internal/storage"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

type memoryStore struct {
	mu      sync.Mutex
	results []storage.Result
}

func (m *memoryStore) SaveResult(_ context.Context, res storage.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, res)
	return nil
}

func (m *memoryStore) GetLeaderboard(context.Context, int) ([]storage.LeaderboardRow, error) {
	return nil, nil
}

func (m *memoryStore) saved() []storage.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Result(nil), m.results...)
}

func newTestServer(t *testing.T, depth int) (*Server, *recorder, *storage.MemoryTally) {
	t.Helper()
	rec := &recorder{}
	tally := storage.NewMemoryTally()
	s := New(Config{Depth: depth, Tally: tally, Analytics: rec})
	return s, rec, tally
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeReply(t *testing.T, w *httptest.ResponseRecorder) game.Reply {
	t.Helper()
	var reply game.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	return reply
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, 2)
	w := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPlayOverHTTP(t *testing.T) {
	s, rec, _ := newTestServer(t, 2)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPost, "/games", map[string]any{"username": "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decodeReply(t, w)
	require.NotEmpty(t, reply.GameID)
	assert.Equal(t, game.Human, reply.State.Mover)

	w = doJSON(t, h, http.MethodPost, "/games/"+reply.GameID+"/moves", map[string]any{"username": "alice", "column": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply = decodeReply(t, w)
	require.NotNil(t, reply.Computer)
	assert.Equal(t, 3, reply.Computer.Column)
	assert.Equal(t, game.Human, reply.State.Board[game.Rows-1][3])
	assert.Equal(t, game.Computer, reply.State.Board[game.Rows-2][3])

	w = doJSON(t, h, http.MethodGet, "/games/"+reply.GameID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Human string      `json:"human"`
		Moves []game.Move `json:"moves"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "alice", got.Human)
	assert.Len(t, got.Moves, 2)

	w = doJSON(t, h, http.MethodGet, "/games/"+reply.GameID+"/analysis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"columns"`)

	assert.True(t, rec.has(analytics.EventGameStarted))
	assert.True(t, rec.has(analytics.EventMovePlayed))
	assert.True(t, rec.has(analytics.EventComputerMoved))
}

func TestHTTPErrors(t *testing.T) {
	s, _, _ := newTestServer(t, 2)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPost, "/games", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/games/nope/moves", map[string]any{"username": "a", "column": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	reply := decodeReply(t, doJSON(t, h, http.MethodPost, "/games", map[string]any{"username": "bob"}))

	w = doJSON(t, h, http.MethodPost, "/games/"+reply.GameID+"/moves", map[string]any{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "column missing")

	w = doJSON(t, h, http.MethodPost, "/games/"+reply.GameID+"/moves", map[string]any{"username": "bob", "column": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), game.ErrInvalidColumn.Error())

	w = doJSON(t, h, http.MethodPost, "/games/"+reply.GameID+"/moves", map[string]any{"username": "eve", "column": 2})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, h, http.MethodPost, "/games/"+reply.GameID+"/restart", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "username missing")

	w = doJSON(t, h, http.MethodPost, "/games/"+reply.GameID+"/restart", map[string]any{"username": "eve"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, h, http.MethodPost, "/games/nope/restart", map[string]any{"username": "bob"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHumanWinIsRecorded(t *testing.T) {
	// a one ply search does not see the vertical threat in column 0
	s, rec, tally := newTestServer(t, 1)
	h := s.Handler()

	reply := decodeReply(t, doJSON(t, h, http.MethodPost, "/games", map[string]any{"username": "amy"}))
	for i := 0; i < 4; i++ {
		w := doJSON(t, h, http.MethodPost, "/games/"+reply.GameID+"/moves", map[string]any{"username": "amy", "column": 0})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		reply = decodeReply(t, w)
	}
	assert.Equal(t, game.WinPlayerOne, reply.State.Outcome)
	assert.Len(t, reply.State.Winning, 4)

	assert.Eventually(t, func() bool { return rec.has(analytics.EventGameFinished) }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		rows, _ := tally.Top(context.Background(), 10)
		return len(rows) == 1 && rows[0].Username == "amy" && rows[0].Wins == 1
	}, time.Second, 10*time.Millisecond)

	w := doJSON(t, h, http.MethodGet, "/leaderboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"username":"amy","wins":1,"losses":0,"ties":0}]`, w.Body.String())

	w = doJSON(t, h, http.MethodPost, "/games/"+reply.GameID+"/moves", map[string]any{"username": "amy", "column": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, h, http.MethodPost, "/games/"+reply.GameID+"/restart", map[string]any{"username": "amy"})
	require.Equal(t, http.StatusOK, w.Code)
	reply = decodeReply(t, w)
	assert.Equal(t, game.InProgress, reply.State.Outcome)
	assert.Zero(t, reply.State.Moves)
}

func TestWebSocketPlay(t *testing.T) {
	s, _, _ := newTestServer(t, 2)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?username=zoe"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var init struct {
		Type   string        `json:"type"`
		GameID string        `json:"gameId"`
		State  game.Snapshot `json:"state"`
	}
	require.NoError(t, conn.ReadJSON(&init))
	assert.Equal(t, "init", init.Type)
	assert.NotEmpty(t, init.GameID)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "move", "column": 3}))
	var state struct {
		Type     string             `json:"type"`
		State    game.Snapshot      `json:"state"`
		Computer *game.SearchResult `json:"computer"`
	}
	require.NoError(t, conn.ReadJSON(&state))
	assert.Equal(t, "state", state.Type)
	require.NotNil(t, state.Computer)
	assert.Equal(t, 3, state.Computer.Column)
	assert.Equal(t, 2, state.State.Moves)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "move", "column": 42}))
	var errMsg map[string]any
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "error", errMsg["type"])
	assert.Equal(t, game.ErrInvalidColumn.Error(), errMsg["message"])
}

func TestWebSocketNeedsUsername(t *testing.T) {
	s, _, _ := newTestServer(t, 2)
	w := doJSON(t, s.Handler(), http.MethodGet, "/ws", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEachGameInSessionIsSaved(t *testing.T) {
	store := &memoryStore{}
	s := New(Config{Depth: 1, Store: store, Analytics: &recorder{}})
	h := s.Handler()

	reply := decodeReply(t, doJSON(t, h, http.MethodPost, "/games", map[string]any{"username": "lee"}))
	sessionID := reply.GameID
	for round := 0; round < 2; round++ {
		for i := 0; i < 4; i++ {
			w := doJSON(t, h, http.MethodPost, "/games/"+sessionID+"/moves", map[string]any{"username": "lee", "column": 0})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			reply = decodeReply(t, w)
		}
		require.Equal(t, game.WinPlayerOne, reply.State.Outcome)
		w := doJSON(t, h, http.MethodPost, "/games/"+sessionID+"/restart", map[string]any{"username": "lee"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.Eventually(t, func() bool { return len(store.saved()) == 2 }, time.Second, 10*time.Millisecond)
	results := store.saved()
	assert.NotEqual(t, results[0].ID, results[1].ID)
	for _, res := range results {
		assert.Equal(t, sessionID, res.SessionID)
		assert.Equal(t, game.WinPlayerOne.String(), res.Outcome)
		assert.Equal(t, "lee", res.Winner)
		assert.Equal(t, 7, res.Moves)
	}
}
