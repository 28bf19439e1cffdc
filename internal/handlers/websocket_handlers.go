package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"chatsphere/internal/auth"
	"chatsphere/internal/config"
	"chatsphere/internal/delivery"
	"chatsphere/internal/events"
	"chatsphere/internal/ingest"
	"chatsphere/internal/models"
	"chatsphere/internal/session"
	ws "chatsphere/internal/websocket"
	"chatsphere/pkg/logger"

	"github.com/gorilla/websocket"
)

// WebSocketHandlers is the connection gatekeeper: it upgrades the
// connection, verifies the presented credential and either establishes a
// session or closes with a distinct rejection reason. A rejected
// connection never touches the registry.
type WebSocketHandlers struct {
	verifier   auth.Verifier
	registry   *session.Registry
	pipeline   *ingest.Pipeline
	backfiller *delivery.Backfiller
	bus        *events.Bus
	cfg        *config.Config
	upgrader   websocket.Upgrader
}

func NewWebSocketHandlers(verifier auth.Verifier, registry *session.Registry, pipeline *ingest.Pipeline, backfiller *delivery.Backfiller, bus *events.Bus, cfg *config.Config) *WebSocketHandlers {
	return &WebSocketHandlers{
		verifier:   verifier,
		registry:   registry,
		pipeline:   pipeline,
		backfiller: backfiller,
		bus:        bus,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	claims, rejectReason := h.authenticate(r)
	if rejectReason != "" {
		reject(conn, rejectReason)
		return
	}

	sess := session.New(claims, h.cfg.Realtime.SendQueueCapacity)
	if err := h.registry.Register(sess); err != nil {
		logger.Error("Register failed for connection %s: %v", sess.ID, err)
		reject(conn, session.ReasonInternal)
		return
	}

	h.welcome(sess)
	h.bus.Publish(events.SessionConnected{
		ConnID:   sess.ID,
		UserID:   sess.UserID,
		Username: sess.Username,
	})
	logger.Info("Session %s established for user %s", sess.ID, sess.UserID)

	client := ws.NewClient(sess, conn, h.registry, h.pipeline, h.backfiller, h.bus)
	go client.Run()
}

// authenticate resolves the bearer credential from the query string
// (browser clients) or the Authorization header. Returns claims or a
// close reason.
func (h *WebSocketHandlers) authenticate(r *http.Request) (*models.Claims, string) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}

	if token == "" {
		if h.cfg.JWT.AllowAnonymous {
			return auth.GuestClaims(), ""
		}
		return nil, session.ReasonMissingToken
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			return nil, session.ReasonExpiredToken
		default:
			return nil, session.ReasonInvalidToken
		}
	}
	return claims, ""
}

func (h *WebSocketHandlers) welcome(sess *session.Session) {
	frame := models.WelcomeFrame{
		Type:         models.FrameTypeWelcome,
		ConnectionID: sess.ID,
		UserID:       sess.UserID,
		ServerTime:   time.Now().UTC(),
	}
	if data, err := json.Marshal(frame); err == nil {
		sess.Enqueue(data)
	}
}

func reject(conn *websocket.Conn, reason string) {
	code := ws.ClosePolicy
	if reason == session.ReasonInternal {
		code = ws.CloseInternal
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	conn.Close()
}
