package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/apperrors"
	"github.com/pairplay/sync-server-go/internal/engine"
	"github.com/pairplay/sync-server-go/internal/model"
)

type SessionHandler struct {
	engine *engine.Engine
}

func NewSessionHandler(eng *engine.Engine) *SessionHandler {
	return &SessionHandler{engine: eng}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/ensure", h.EnsureSession)
	r.Get("/", h.ListSessions)
	r.Get("/{sessionID}", h.GetSession)
	r.Post("/{sessionID}/moves", h.SubmitMove)
	r.Post("/{sessionID}/yield", h.Yield)

	return r
}

type ensureRequest struct {
	Kind model.Kind `json:"kind"`
}

// POST /v1/sessions/ensure
func (h *SessionHandler) EnsureSession(w http.ResponseWriter, r *http.Request) {
	var req ensureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("invalid request body"))
		return
	}

	session, err := h.engine.EnsureSession(r.Context(), req.Kind)
	if err != nil {
		log.Error().Err(err).Str("kind", string(req.Kind)).Msg("failed to ensure session")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// GET /v1/sessions?kind=ladder
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	kind := model.Kind(r.URL.Query().Get("kind"))
	sessions, err := h.engine.List(r.Context(), kind)
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// GET /v1/sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, apperrors.InvalidInput("session ID is required"))
		return
	}

	session, err := h.engine.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type moveRequest struct {
	Submitter string   `json:"submitter"`
	Word      string   `json:"word,omitempty"`
	Answers   []string `json:"answers,omitempty"`
	CardIDs   []string `json:"cardIds,omitempty"`
}

// POST /v1/sessions/{sessionID}/moves
func (h *SessionHandler) SubmitMove(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("invalid request body"))
		return
	}
	if req.Submitter == "" {
		writeError(w, apperrors.InvalidInput("submitter is required"))
		return
	}

	session, err := h.engine.SubmitMove(r.Context(), model.Move{
		SessionID: sessionID,
		Submitter: req.Submitter,
		Word:      req.Word,
		Answers:   req.Answers,
		CardIDs:   req.CardIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type yieldRequest struct {
	Participant string `json:"participant"`
}

// POST /v1/sessions/{sessionID}/yield
func (h *SessionHandler) Yield(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req yieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("invalid request body"))
		return
	}
	if req.Participant == "" {
		writeError(w, apperrors.InvalidInput("participant is required"))
		return
	}

	session, err := h.engine.Yield(r.Context(), sessionID, req.Participant)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}
