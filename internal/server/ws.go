package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fourinarow/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

type wsClient struct {
	username string
	conn     *websocket.Conn
	send     chan []byte
	server   *Server
	gameID   string
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inbound is a message from the browser.
type inbound struct {
	Type          string `json:"type"`
	Column        *int   `json:"column,omitempty"`
	ComputerFirst bool   `json:"computerFirst,omitempty"`
}

func (s *Server) handleWS(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("websocket upgrade failed")
		return
	}
	client := &wsClient{
		username: username,
		conn:     conn,
		send:     make(chan []byte, 8),
		server:   s,
		gameID:   c.Query("gameId"),
	}
	s.register(client)

	go client.writePump()
	go client.readPump(c.Query("computerFirst") == "true")
}

func (s *Server) register(c *wsClient) {
	s.connMu.Lock()
	if old, ok := s.connections[c.username]; ok && old != c {
		close(old.send)
	}
	s.connections[c.username] = c
	s.connMu.Unlock()
}

func (s *Server) unregister(c *wsClient) {
	s.connMu.Lock()
	if cur, ok := s.connections[c.username]; ok && cur == c {
		delete(s.connections, c.username)
		close(c.send)
	}
	s.connMu.Unlock()
	c.conn.Close()
}

func (c *wsClient) writePump() {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *wsClient) readPump(computerFirst bool) {
	defer c.server.unregister(c)
	s := c.server
	ctx := context.Background()

	gameID, err := s.attach(ctx, c, computerFirst)
	if err != nil {
		c.sendJSON(errorMessage(err))
		return
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "move":
			if msg.Column == nil {
				c.sendJSON(errorMessage(game.ErrInvalidColumn))
				continue
			}
			if _, err := s.playMove(ctx, gameID, c.username, *msg.Column); err != nil {
				c.sendJSON(errorMessage(err))
			}
		case "restart":
			if _, err := s.restart(ctx, gameID, c.username); err != nil {
				c.sendJSON(errorMessage(err))
			}
		case "analysis":
			sess, ok := s.manager.Get(gameID)
			if !ok {
				c.sendJSON(errorMessage(game.ErrSessionNotFound))
				continue
			}
			scores, err := sess.Analyze()
			if err != nil {
				c.sendJSON(errorMessage(err))
				continue
			}
			c.sendJSON(map[string]any{"type": "analysis", "gameId": gameID, "columns": scores})
		}
	}
}

// attach joins the requested game, the user's running game, or a new one,
// and sends the init message.
func (s *Server) attach(ctx context.Context, c *wsClient, computerFirst bool) (string, error) {
	var (
		reply game.Reply
		err   error
	)
	if c.gameID != "" {
		reply, err = s.manager.Resume(ctx, c.gameID, c.username)
	}
	if c.gameID == "" || errors.Is(err, game.ErrSessionNotFound) || errors.Is(err, game.ErrNotYourGame) {
		reply, err = s.manager.Start(ctx, c.username, computerFirst)
	}
	if err != nil {
		return "", err
	}
	c.sendJSON(s.initMessage(reply.GameID, c.username, reply.State))
	if reply.Computer != nil {
		s.afterTurn(c.username, reply)
	}
	return reply.GameID, nil
}

func (s *Server) initMessage(gameID, username string, state game.Snapshot) map[string]any {
	return map[string]any{
		"type":      "init",
		"gameId":    gameID,
		"you":       username,
		"slot":      game.Human,
		"depth":     s.depth,
		"state":     state,
		"timestamp": time.Now().UTC(),
	}
}

func stateMessage(reply game.Reply) map[string]any {
	msg := map[string]any{
		"type":   "state",
		"gameId": reply.GameID,
		"state":  reply.State,
	}
	if reply.Human != nil {
		msg["human"] = reply.Human
	}
	if reply.Computer != nil {
		msg["computer"] = reply.Computer
	}
	return msg
}

func errorMessage(err error) map[string]any {
	return map[string]any{"type": "error", "message": err.Error()}
}

func (s *Server) sendToUser(username string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	client, ok := s.connections[username]
	if !ok {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (c *wsClient) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.server.connMu.RLock()
	defer c.server.connMu.RUnlock()
	if cur, ok := c.server.connections[c.username]; !ok || cur != c {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
