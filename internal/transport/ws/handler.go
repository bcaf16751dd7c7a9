package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	messagesvc "github.com/filsammy/dating-app-whitecloak/internal/services/messages"
	ratesvc "github.com/filsammy/dating-app-whitecloak/internal/services/rate"
	"github.com/filsammy/dating-app-whitecloak/internal/services/realtime"
	httperrors "github.com/filsammy/dating-app-whitecloak/internal/transport/http/errors"
)

const (
	ActionJoin  = "join"
	ActionLeave = "leave"
	ActionSend  = "send"

	maxFrameBytes = 8 << 10
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// Gate authorizes room membership and message sends for a connection.
type Gate interface {
	CanJoin(ctx context.Context, userID, matchID uuid.UUID) error
	Send(ctx context.Context, senderID uuid.UUID, in messagesvc.SendInput) (model.Message, error)
}

type Config struct {
	Buffer         int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	AllowedOrigins []string
}

type clientFrame struct {
	Action     string `json:"action"`
	MatchID    string `json:"matchId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

type Handler struct {
	auth     TokenVerifier
	gate     Gate
	hub      *realtime.Hub
	cfg      Config
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(auth TokenVerifier, gate Gate, hub *realtime.Hub, cfg Config, log *zap.Logger) *Handler {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	h := &Handler{auth: auth, gate: gate, hub: hub, cfg: cfg, log: log}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil || h.gate == nil || h.hub == nil {
		httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{
			Code:    "REALTIME_UNAVAILABLE",
			Message: "realtime relay is unavailable",
		})
		return
	}

	token := bearerOrQueryToken(r)
	if token == "" {
		httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: "UNAUTHORIZED", Message: "missing token"})
		return
	}
	userID, err := h.auth.Verify(r.Context(), token)
	if err != nil {
		httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: "UNAUTHORIZED", Message: "invalid access token"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := realtime.NewSubscriber(userID, h.cfg.Buffer)
	ctx, cancel := context.WithCancel(context.Background())

	go h.writePump(ctx, conn, sub)
	h.readPump(ctx, conn, sub)

	cancel()
	h.hub.LeaveAll(sub)
}

func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, sub *realtime.Subscriber) {
	pongWait := 2 * h.cfg.PingInterval
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read failed", zap.String("user_id", sub.UserID.String()), zap.Error(err))
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.reply(sub, realtime.ErrorFrame("INVALID_FRAME", "frame must be a JSON object"))
			continue
		}
		h.handleFrame(ctx, sub, frame)
	}
}

func (h *Handler) handleFrame(ctx context.Context, sub *realtime.Subscriber, frame clientFrame) {
	switch frame.Action {
	case ActionJoin, ActionLeave, ActionSend:
	default:
		h.reply(sub, realtime.ErrorFrame("INVALID_ACTION", "unknown action"))
		return
	}

	matchID, err := uuid.Parse(strings.TrimSpace(frame.MatchID))
	if err != nil {
		h.reply(sub, realtime.ErrorFrame("MISSING_FIELDS", "matchId is required"))
		return
	}

	switch frame.Action {
	case ActionJoin:
		if h.hub.InRoom(matchID, sub) {
			return
		}
		if err := h.gate.CanJoin(ctx, sub.UserID, matchID); err != nil {
			h.replyError(sub, err)
			return
		}
		h.hub.Join(matchID, sub)
	case ActionLeave:
		h.hub.Leave(matchID, sub)
	case ActionSend:
		receiverID, err := uuid.Parse(strings.TrimSpace(frame.ReceiverID))
		if err != nil {
			h.reply(sub, realtime.ErrorFrame("MISSING_FIELDS", "receiverId is required"))
			return
		}
		// delivery to the room arrives through the relay once the message is stored
		if _, err := h.gate.Send(ctx, sub.UserID, messagesvc.SendInput{
			MatchID:    matchID,
			ReceiverID: receiverID,
			Content:    frame.Content,
		}); err != nil {
			h.replyError(sub, err)
		}
	}
}

func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, sub *realtime.Subscriber) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-sub.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.Debug("websocket write failed", zap.String("user_id", sub.UserID.String()), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) replyError(sub *realtime.Subscriber, err error) {
	var tooFast ratesvc.TooFastError
	switch {
	case errors.As(err, &tooFast):
		h.reply(sub, realtime.ErrorFrame("TOO_FAST", tooFast.Error()))
	default:
		if domainErr, ok := errs.As(err); ok {
			h.reply(sub, realtime.ErrorFrame(domainErr.Code, domainErr.Message))
			return
		}
		h.log.Error("websocket action failed", zap.String("user_id", sub.UserID.String()), zap.Error(err))
		h.reply(sub, realtime.ErrorFrame("INTERNAL_ERROR", "internal server error"))
	}
}

func (h *Handler) reply(sub *realtime.Subscriber, payload []byte) {
	select {
	case sub.Send <- payload:
	default:
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func bearerOrQueryToken(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	parts := strings.SplitN(strings.TrimSpace(r.Header.Get("Authorization")), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
