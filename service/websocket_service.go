package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/types"
)

const (
	wsReadLimit   = 512 * 1024
	wsIdleTimeout = 60 * time.Second
)

// Answerer answers one chat question against one document.
type Answerer interface {
	Answer(ctx context.Context, documentID, question string) (string, error)
}

// WebSocketService serves the chat protocol over a websocket: each "chat"
// message is routed like POST /api/chat and "ping" is answered with "pong".
type WebSocketService struct {
	answerer    Answerer
	upgrader    websocket.Upgrader
	idleTimeout time.Duration
	logger      *slog.Logger
}

func NewWebSocketService(answerer Answerer) *WebSocketService {
	return &WebSocketService{
		answerer: answerer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		idleTimeout: wsIdleTimeout,
		logger:      logger.NewModuleLogger("service", "websocket"),
	}
}

func (s *WebSocketService) HandleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if err := conn.WriteJSON(s.dispatch(ctx, p)); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			return
		}
		// Idle time counts from the reply, not from the request.
		conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
	}
}

func (s *WebSocketService) dispatch(ctx context.Context, p []byte) types.WebSocketResponse {
	var req types.WebsocketRequest
	if err := json.Unmarshal(p, &req); err != nil {
		return wsError("invalid message")
	}

	switch req.Type {
	case types.TypeWebsocketPing:
		return types.WebSocketResponse{Type: types.TypeWebsocketPong}
	case types.TypeWebsocketChat:
		var payload types.WebSocketChatPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return wsError("invalid chat payload")
		}
		if payload.PdfID == "" || payload.Question == "" {
			return wsError("pdf_id and question are required")
		}
		answer, err := s.answerer.Answer(ctx, payload.PdfID, payload.Question)
		if err != nil {
			s.logger.Error("chat failed", "pdf_id", payload.PdfID, "error", err)
			if errors.Is(err, types.ErrNotFound) {
				return wsError("Invalid pdf_id")
			}
			return wsError("Error processing message")
		}
		return types.WebSocketResponse{
			Type:    types.TypeWebsocketChat,
			Payload: types.WebSocketChatResponse{Answer: answer},
		}
	default:
		return wsError("unknown message type " + req.Type)
	}
}

func wsError(msg string) types.WebSocketResponse {
	return types.WebSocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: types.WebSocketErrorResponse{Error: msg},
	}
}
