package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/bot"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/game"
	"github.com/iamasit07/tic-tac-toe/backend/pkg/auth"
	"github.com/rs/zerolog/log"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

type Matchmaker interface {
	Join(userID int64, username string) bool
	Leave(userID int64) bool
}

type Handler struct {
	ConnManager    *ConnectionManager
	SessionManager *game.SessionManager
	Matchmaker     Matchmaker // Optional, can be nil
	Auth           TokenValidator
	Upgrader       websocket.Upgrader
}

// NewHandler builds the socket handler. Browser origins must be listed in
// allowedOrigins; requests without an Origin header are accepted.
func NewHandler(cm *ConnectionManager, sm *game.SessionManager, mm Matchmaker, validator TokenValidator, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		ConnManager:    cm,
		SessionManager: sm,
		Matchmaker:     mm,
		Auth:           validator,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("[WS] Upgrade error")
		return
	}

	h.handleConnection(conn)
}

// handleConnection expects an init message carrying the JWT, then serves
// game messages until the socket closes.
func (h *Handler) handleConnection(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	var init domain.ClientMessage
	if err := conn.ReadJSON(&init); err != nil {
		log.Debug().Err(err).Msg("[WS] Read error during init")
		conn.Close()
		return
	}
	if init.Type != "init" || init.JWT == "" {
		log.Debug().Msg("[WS] Missing initialization or token")
		conn.WriteJSON(domain.ErrorMessage{Type: "error", Message: "First message must be init with a token"})
		conn.Close()
		return
	}

	claims, err := h.Auth.ValidateToken(context.Background(), init.JWT)
	if err != nil {
		log.Debug().Err(err).Msg("[WS] Invalid token during init")
		conn.WriteJSON(domain.ErrorMessage{Type: "error", Message: "Invalid token or session expired"})
		conn.Close()
		return
	}

	userID, username, token := claims.UserID, claims.Username, init.JWT
	h.ConnManager.AddConnection(userID, conn, username)
	h.ConnManager.SendMessage(userID, domain.ServerMessage{Type: "connected", Message: username})
	log.Info().Int64("user_id", userID).Msgf("[WS] Connection initialized for user: %s", username)

	defer func() {
		log.Info().Int64("user_id", userID).Msgf("[WS] Connection closed for user %s", username)
		if h.ConnManager.RemoveConnectionIfMatching(userID, conn) {
			if h.Matchmaker != nil {
				h.Matchmaker.Leave(userID)
			}
			h.SessionManager.HandleDisconnect(userID)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Int64("user_id", userID).Msg("[WS] User disconnected unexpectedly")
			}
			return
		}

		var msg domain.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.ConnManager.SendError(userID, "Invalid message format")
			continue
		}

		// A logout elsewhere revokes the session; check on every message.
		if msg.JWT != "" {
			token = msg.JWT
		}
		claims, err := h.Auth.ValidateToken(context.Background(), token)
		if err != nil || claims.UserID != userID {
			h.ConnManager.SendError(userID, "Session invalidated")
			return
		}

		h.processMessage(userID, username, msg)
	}
}

func (h *Handler) processMessage(userID int64, username string, msg domain.ClientMessage) {
	var err error

	switch msg.Type {
	case "new_game":
		playAs := domain.Player1
		if msg.PlayAs != "" {
			p, ok := domain.ParseSymbol(msg.PlayAs)
			if !ok {
				h.ConnManager.SendError(userID, "playAs must be X or O")
				return
			}
			playAs = p
		}
		if h.Matchmaker != nil {
			h.Matchmaker.Leave(userID)
		}
		_, err = h.SessionManager.StartGame(userID, username, bot.ParseDifficulty(msg.Difficulty), playAs)

	case "find_match":
		if h.Matchmaker == nil {
			h.ConnManager.SendError(userID, "Matchmaking is not available")
			return
		}
		if !h.Matchmaker.Join(userID, username) {
			h.ConnManager.SendMessage(userID, domain.ServerMessage{Type: "queued"})
		}

	case "cancel_match":
		if h.Matchmaker != nil && h.Matchmaker.Leave(userID) {
			h.ConnManager.SendMessage(userID, domain.ServerMessage{Type: "match_cancelled"})
		}

	case "make_move":
		err = h.SessionManager.HandleMove(userID, msg.Cell)

	case "hint":
		_, err = h.SessionManager.Hint(userID)

	case "abandon_game":
		err = h.SessionManager.Abandon(userID)

	case "rematch":
		_, err = h.SessionManager.Rematch(userID)

	case "ping":
		h.ConnManager.SendMessage(userID, domain.ServerMessage{Type: "pong"})

	default:
		h.ConnManager.SendError(userID, "Unknown message type: "+msg.Type)
	}

	if err != nil {
		h.ConnManager.SendError(userID, clientError(err))
	}
}

// clientError strips wrapping context from domain errors.
func clientError(err error) string {
	var de domain.Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return err.Error()
}

func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
