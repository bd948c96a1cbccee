package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"okeears-server/internal/session"
	"okeears-server/internal/websocket"
	"okeears-server/pkg/jwt"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	manager   *websocket.Manager
	sessions  session.Lookuper
	jwtSecret string
	upgrader  ws.Upgrader
	logger    *zap.Logger
}

func NewWebSocketHandler(manager *websocket.Manager, sessions session.Lookuper, jwtSecret string, readBuffer, writeBuffer int, allowedOrigins string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:   manager,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBuffer,
			WriteBufferSize: writeBuffer,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowedOrigins string) func(*http.Request) bool {
	allowed := make(map[string]bool)
	for _, o := range strings.Split(allowedOrigins, ",") {
		allowed[strings.TrimSpace(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// HandleConnection upgrades an authenticated request. Browsers cannot set
// headers on websocket requests, so the token may come as a query parameter.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	if token == "" {
		http.Error(w, "missing authorization token", http.StatusUnauthorized)
		return
	}

	claims, err := jwt.ValidateToken(token, h.jwtSecret)
	if err != nil {
		h.logger.Debug("websocket token rejected", zap.Error(err))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if _, err := h.sessions.Lookup(r.Context(), claims.SessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			http.Error(w, "session expired", http.StatusUnauthorized)
			return
		}
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}

	client := websocket.NewClient(uuid.New().String(), claims.UserID, conn, h.manager)
	if !h.manager.Add(client) {
		conn.Close()
		return
	}

	if subjectID := r.URL.Query().Get("subject_id"); subjectID != "" {
		h.manager.Subscribe(client, subjectID)
	}

	go client.WritePump()
	go client.ReadPump()
}

// WebSocketMessageHandler answers subscribe, unsubscribe and ping messages.
type WebSocketMessageHandler struct {
	manager *websocket.Manager
}

func NewWebSocketMessageHandler(manager *websocket.Manager) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{manager: manager}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeSubscribe, websocket.TypeUnsubscribe:
		return h.handleSubscription(client, msg)

	case websocket.TypePing:
		return h.reply(client, websocket.TypePong, nil)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (h *WebSocketMessageHandler) handleSubscription(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.SubscribePayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
	}
	if payload.SubjectID == "" {
		return fmt.Errorf("%s requires subject_id", msg.Type)
	}

	var watching []string
	if msg.Type == websocket.TypeSubscribe {
		watching = h.manager.Subscribe(client, payload.SubjectID)
	} else {
		watching = h.manager.Unsubscribe(client, payload.SubjectID)
	}

	return h.reply(client, websocket.TypeSubscribed, &websocket.SubscribedPayload{
		SubjectID: payload.SubjectID,
		Watching:  watching,
	})
}

func (h *WebSocketMessageHandler) reply(client *websocket.Client, msgType websocket.MessageType, payload interface{}) error {
	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return h.manager.SendToClient(client, msg)
}

