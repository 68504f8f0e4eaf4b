package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

func TestWebSocketSessionFlow(t *testing.T) {
	server, store := newWSServer(t, rate.Inf, 1)
	conn := dial(t, server, "/ws?quizId=1")

	_, payload := readNext(conn, t, "session")
	if payload["sessionId"] == "" || payload["total"] != float64(2) {
		t.Fatalf("unexpected session payload %v", payload)
	}

	writeMsg(t, conn, map[string]any{
		"type":    "select",
		"payload": map[string]any{"questionIndex": 0, "choiceIndex": 1},
	})
	_, payload = readNext(conn, t, "session")
	if payload["answered"] != float64(1) {
		t.Fatalf("expected one answer recorded, got %v", payload["answered"])
	}

	writeMsg(t, conn, map[string]any{"type": "submit"})
	_, payload = readNext(conn, t, "session")
	if payload["submitted"] != true {
		t.Fatalf("expected submitted view, got %v", payload)
	}
	_, result := readNext(conn, t, "result")
	if result["score"] != float64(1) || result["total"] != float64(2) {
		t.Fatalf("unexpected result %v", result)
	}

	// selecting after submit is not reported as an error
	writeMsg(t, conn, map[string]any{
		"type":    "select",
		"payload": map[string]any{"questionIndex": 1, "choiceIndex": 0},
	})
	_, payload = readNext(conn, t, "session")
	if payload["answered"] != float64(1) {
		t.Fatalf("expected locked session unchanged, got %v", payload)
	}

	conn.Close()
	waitFor(t, func() bool { return store.Len() == 0 })
}

func TestWebSocketReportsRejections(t *testing.T) {
	server, _ := newWSServer(t, rate.Inf, 1)
	conn := dial(t, server, "/ws?quizId=1")
	readNext(conn, t, "session")

	writeMsg(t, conn, map[string]any{
		"type":    "select",
		"payload": map[string]any{"questionIndex": 9, "choiceIndex": 0},
	})
	_, payload := readNext(conn, t, "error")
	if payload["code"] != "index_out_of_range" {
		t.Fatalf("expected index_out_of_range, got %v", payload)
	}

	writeMsg(t, conn, map[string]any{"type": "shout"})
	_, payload = readNext(conn, t, "error")
	if payload["code"] != "bad_request" {
		t.Fatalf("expected bad_request, got %v", payload)
	}
}

func TestWebSocketRejectsIncompleteSelect(t *testing.T) {
	server, _ := newWSServer(t, rate.Inf, 1)
	conn := dial(t, server, "/ws?quizId=1")
	readNext(conn, t, "session")

	for _, payload := range []map[string]any{
		{},
		{"questionIndex": 0},
		{"choiceIndex": 1},
	} {
		writeMsg(t, conn, map[string]any{"type": "select", "payload": payload})
		_, reply := readNext(conn, t, "error")
		if reply["code"] != "bad_request" {
			t.Fatalf("expected bad_request for payload %v, got %v", payload, reply)
		}
	}

	writeMsg(t, conn, map[string]any{"type": "submit"})
	_, view := readNext(conn, t, "session")
	if view["answered"] != float64(0) {
		t.Fatalf("expected no answers recorded, got %v", view["answered"])
	}
}

func TestWebSocketPongsKeepSessionAlive(t *testing.T) {
	var clock atomic.Int64
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	clock.Store(start.UnixNano())
	now := func() time.Time { return time.Unix(0, clock.Load()).UTC() }

	store := memory.NewSessionStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewSessionServiceWithClock(store, quizRepo, now)
	wsHandler := NewWSHandler(service, zap.NewNop(), rate.Inf, 1)
	wsHandler.pingInterval = 10 * time.Millisecond

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	conn := dial(t, server, "/ws?quizId=1")
	_, view := readNext(conn, t, "session")
	sessionID, _ := view["sessionId"].(string)

	later := start.Add(time.Hour)
	clock.Store(later.UnixNano())

	// the client answers pings only while it is reading
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	waitFor(t, func() bool {
		session, ok := store.Get(sessionID)
		return ok && !session.LastActive().Before(later)
	})

	if n := service.ReapIdle(10 * time.Minute); n != 0 {
		t.Fatalf("expected connected session kept, reaped %d", n)
	}
	if _, err := service.Get(context.Background(), sessionID); err != nil {
		t.Fatalf("expected session still present: %v", err)
	}
}

func TestWebSocketUnknownQuiz(t *testing.T) {
	server, _ := newWSServer(t, rate.Inf, 1)
	conn := dial(t, server, "/ws?quizId=99")

	_, payload := readNext(conn, t, "error")
	if payload["code"] != "quiz_not_found" {
		t.Fatalf("expected quiz_not_found, got %v", payload)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	server, _ := newWSServer(t, rate.Every(time.Hour), 1)
	conn := dial(t, server, "/ws?quizId=1")
	readNext(conn, t, "session")

	sel := map[string]any{
		"type":    "select",
		"payload": map[string]any{"questionIndex": 0, "choiceIndex": 0},
	}
	writeMsg(t, conn, sel)
	readNext(conn, t, "session")

	writeMsg(t, conn, sel)
	_, payload := readNext(conn, t, "error")
	if payload["code"] != "rate_limited" {
		t.Fatalf("expected rate_limited, got %v", payload)
	}
}

func TestServeWSRequiresQuizID(t *testing.T) {
	server, _ := newWSServer(t, rate.Inf, 1)
	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func newWSServer(t *testing.T, limit rate.Limit, burst int) (*httptest.Server, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewSessionService(store, quizRepo)
	wsHandler := NewWSHandler(service, zap.NewNop(), limit, burst)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeMsg(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func sampleQuizzes() map[int64]domain.Quiz {
	return map[int64]domain.Quiz{
		1: {
			ID:    1,
			Title: "Arithmetic",
			Questions: []domain.Question{
				{ID: 10, Text: "What is 2 + 2?", Choices: []string{"3", "4", "5"}, CorrectIndex: 1},
				{ID: 11, Text: "What is 3 * 3?", Choices: []string{"6", "9"}, CorrectIndex: 1},
			},
		},
	}
}
