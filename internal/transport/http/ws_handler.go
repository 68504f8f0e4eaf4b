package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
)

const (
	maxMessageBytes = 4096
	writeWait       = 10 * time.Second
)

// WSHandler runs one quiz session per websocket connection. While a
// connection is open it pings the client and every pong or inbound message
// keeps the session from being reaped as idle.
type WSHandler struct {
	service      *app.SessionService
	logger       *zap.Logger
	limit        rate.Limit
	burst        int
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewWSHandler builds a handler that allows each connection limit inbound
// messages per second with the given burst.
func NewWSHandler(service *app.SessionService, logger *zap.Logger, limit rate.Limit, burst int) *WSHandler {
	return &WSHandler{
		service:      service,
		logger:       logger,
		limit:        limit,
		burst:        burst,
		pingInterval: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// selectPayload fields are pointers so a missing index is rejected instead of
// decoding to zero.
type selectPayload struct {
	QuestionIndex *int `json:"questionIndex"`
	ChoiceIndex   *int `json:"choiceIndex"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades the request, starts a session for ?quizId= and serves
// select/submit messages until the client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.URL.Query().Get("quizId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	ctx := r.Context()
	view, err := h.service.Start(ctx, quizID)
	if err != nil {
		h.logger.Info("ws session not started", zap.Int64("quiz", quizID), zap.Error(err))
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	sessionID := view.SessionID
	log := h.logger.With(zap.String("session", sessionID), zap.Int64("quiz", quizID))
	defer h.service.Discard(context.Background(), sessionID)

	if err := conn.WriteJSON(outboundMessage{Type: "session", Payload: view}); err != nil {
		return
	}

	conn.SetPongHandler(func(string) error {
		_ = h.service.Touch(ctx, sessionID)
		return nil
	})
	done := make(chan struct{})
	defer close(done)
	go h.ping(conn, log, done)

	limiter := rate.NewLimiter(h.limit, h.burst)
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("ws read ended", zap.Error(err))
			}
			break
		}
		_ = h.service.Touch(ctx, sessionID)
		if !limiter.Allow() {
			if !h.send(conn, log, outboundMessage{Type: "error", Payload: errorBody{Code: "rate_limited", Message: "too many messages"}}) {
				break
			}
			continue
		}

		var replies []outboundMessage
		switch inbound.Type {
		case "select":
			replies = h.handleSelect(ctx, log, sessionID, inbound.Payload)
		case "submit":
			replies = h.handleSubmit(ctx, log, sessionID)
		default:
			replies = []outboundMessage{{Type: "error", Payload: errorBody{Code: "bad_request", Message: "unsupported message type"}}}
		}

		ok := true
		for _, msg := range replies {
			if ok = h.send(conn, log, msg); !ok {
				break
			}
		}
		if !ok {
			break
		}
	}
}

func (h *WSHandler) handleSelect(ctx context.Context, log *zap.Logger, sessionID string, raw json.RawMessage) []outboundMessage {
	var payload selectPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.QuestionIndex == nil || payload.ChoiceIndex == nil {
		return []outboundMessage{{Type: "error", Payload: errorBody{Code: "bad_request", Message: "select needs questionIndex and choiceIndex"}}}
	}
	view, err := h.service.SelectAnswer(ctx, sessionID, *payload.QuestionIndex, *payload.ChoiceIndex)
	if err != nil {
		return h.rejected(log, view, err)
	}
	return []outboundMessage{{Type: "session", Payload: view}}
}

func (h *WSHandler) handleSubmit(ctx context.Context, log *zap.Logger, sessionID string) []outboundMessage {
	view, err := h.service.Submit(ctx, sessionID)
	if err != nil {
		return h.rejected(log, view, err)
	}
	log.Info("session submitted", zap.Int("score", *view.Score), zap.Int("total", view.Total))
	return []outboundMessage{
		{Type: "session", Payload: view},
		{Type: "result", Payload: domain.Result{SessionID: sessionID, Score: *view.Score, Total: view.Total}},
	}
}

// rejected turns a refused transition into replies. A locked session is not
// reported to the client; it gets the unchanged view instead.
func (h *WSHandler) rejected(log *zap.Logger, view domain.SessionView, err error) []outboundMessage {
	if errors.Is(err, domain.ErrSessionLocked) {
		log.Debug("ignored message for submitted session")
		return []outboundMessage{{Type: "session", Payload: view}}
	}
	log.Debug("ws message rejected", zap.Error(err))
	return []outboundMessage{errorMessage(err)}
}

// ping sends control pings until done is closed. WriteControl may run
// alongside the read loop's writes.
func (h *WSHandler) ping(conn *websocket.Conn, log *zap.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("ws ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *WSHandler) send(conn *websocket.Conn, log *zap.Logger, msg outboundMessage) bool {
	if err := conn.WriteJSON(msg); err != nil {
		log.Debug("ws write failed", zap.Error(err))
		return false
	}
	return true
}

func errorMessage(err error) outboundMessage {
	_, code := statusFor(err)
	return outboundMessage{Type: "error", Payload: errorBody{Code: code, Message: err.Error()}}
}
