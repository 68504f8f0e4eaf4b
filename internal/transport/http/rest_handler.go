package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"quiz-session-service/internal/app"
)

// RESTHandler exposes session use cases as JSON endpoints.
type RESTHandler struct {
	service *app.SessionService
	logger  *zap.Logger
}

func NewRESTHandler(service *app.SessionService, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{service: service, logger: logger}
}

// Register mounts the session routes on mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.start)
	mux.HandleFunc("GET /api/sessions/{id}", h.get)
	mux.HandleFunc("PUT /api/sessions/{id}/answers/{questionIndex}", h.selectAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/submit", h.submit)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.discard)
}

type startRequest struct {
	QuizID int64 `json:"quizId"`
}

type selectRequest struct {
	ChoiceIndex *int `json:"choiceIndex"`
}

func (h *RESTHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid body")
		return
	}
	view, err := h.service.Start(r.Context(), req.QuizID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("session started", zap.String("session", view.SessionID), zap.Int64("quiz", req.QuizID))
	writeJSON(w, http.StatusCreated, view)
}

func (h *RESTHandler) get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) selectAnswer(w http.ResponseWriter, r *http.Request) {
	questionIndex, err := strconv.Atoi(r.PathValue("questionIndex"))
	if err != nil {
		badRequest(w, "questionIndex must be an integer")
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChoiceIndex == nil {
		badRequest(w, "choiceIndex is required")
		return
	}
	view, err := h.service.SelectAnswer(r.Context(), r.PathValue("id"), questionIndex, *req.ChoiceIndex)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) submit(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("session submitted",
		zap.String("session", view.SessionID),
		zap.Int("score", *view.Score),
		zap.Int("total", view.Total),
	)
	writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) discard(w http.ResponseWriter, r *http.Request) {
	h.service.Discard(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, err)
}
