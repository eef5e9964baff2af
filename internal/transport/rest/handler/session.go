package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"studyhall/internal/engine"
	"studyhall/internal/service"
	"studyhall/internal/transport/rest/middleware"
)

// SessionHandler handles tutoring session endpoints
type SessionHandler struct {
	tutorSvc *service.TutorService
	metrics  *service.Metrics
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(tutorSvc *service.TutorService, metrics *service.Metrics) *SessionHandler {
	return &SessionHandler{tutorSvc: tutorSvc, metrics: metrics}
}

type createSessionRequest struct {
	Subject    string   `json:"subject"`
	Difficulty string   `json:"difficulty"`
	Goals      []string `json:"goals"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.tutorSvc.CreateSession(r.Context(), userID, req.Subject, req.Difficulty, req.Goals)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// SendMessage handles POST /v1/sessions/{sessionId}/messages
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply, err := h.tutorSvc.SendMessage(r.Context(), sessionID, userID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// A nil reply means the utterance was a suppressed duplicate.
	writeJSON(w, http.StatusOK, map[string]interface{}{"reply": reply})
}

// GetMessages handles GET /v1/sessions/{sessionId}/messages
func (h *SessionHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	messages, err := h.tutorSvc.GetMessages(r.Context(), sessionID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// End handles POST /v1/sessions/{sessionId}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	summary, err := h.tutorSvc.EndSession(r.Context(), sessionID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Stats handles GET /v1/users/me/stats
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.tutorSvc.GetStats(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load stats")
		return
	}

	resp := map[string]interface{}{"stats": stats}
	if h.metrics != nil {
		resp["engine"] = h.metrics.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Leaderboard handles GET /v1/leaderboard
func (h *SessionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.tutorSvc.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, "session belongs to another learner")
	case errors.Is(err, engine.ErrBusy):
		writeError(w, http.StatusConflict, "a reply is being generated, try again")
	case errors.Is(err, engine.ErrNotActive):
		writeError(w, http.StatusConflict, "session is not active")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
