package handlers

import (
	"net/http"
	"strings"

	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/services"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/go-chi/chi/v5"
)

// MatchHandler serves outfit-matching sessions.
type MatchHandler struct {
	matchService *services.MatchService
	log          logging.Logger
}

func NewMatchHandler(matchService *services.MatchService, log logging.Logger) *MatchHandler {
	return &MatchHandler{matchService: matchService, log: log}
}

// MatchRouter registers match session routes.
func MatchRouter(
	r chi.Router,
	matchService *services.MatchService,
	log logging.Logger,
	authMiddleware func(http.Handler) http.Handler,
	limiter *RateLimiter,
) {
	handler := NewMatchHandler(matchService, log)

	r.Use(authMiddleware)
	r.Post("/", handler.StartSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", handler.GetSession)
		r.Delete("/", handler.EndSession)
		r.Put("/category", handler.SwitchCategory)
		r.With(limiter.Middleware).Post("/match", handler.Match)
		r.With(limiter.Middleware).Post("/alternate", handler.Alternate)
	})
}

// StartSession opens a matching session for the posted category.
func (h *MatchHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	username, category, ok := h.categoryRequest(w, r)
	if !ok {
		return
	}

	session, err := h.matchService.StartSession(username, category)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// GetSession returns the session state.
func (h *MatchHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	session, err := h.matchService.Session(chi.URLParam(r, "sessionID"), username)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// SwitchCategory refocuses the session and clears its exclusions.
func (h *MatchHandler) SwitchCategory(w http.ResponseWriter, r *http.Request) {
	username, category, ok := h.categoryRequest(w, r)
	if !ok {
		return
	}

	session, err := h.matchService.SwitchCategory(chi.URLParam(r, "sessionID"), username, category)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// EndSession discards the session.
func (h *MatchHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.matchService.EndSession(chi.URLParam(r, "sessionID"), username); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Match asks for the best pairing without exclusions.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	h.match(w, r, false)
}

// Alternate asks for a pairing other than the ones already suggested.
func (h *MatchHandler) Alternate(w http.ResponseWriter, r *http.Request) {
	h.match(w, r, true)
}

func (h *MatchHandler) match(w http.ResponseWriter, r *http.Request, alternate bool) {
	username, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req MatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Color) == "" {
		writeError(w, http.StatusBadRequest, "color is required")
		return
	}

	result, err := h.matchService.Match(r.Context(), chi.URLParam(r, "sessionID"), username, req.Color, alternate)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MatchHandler) categoryRequest(w http.ResponseWriter, r *http.Request) (string, types.Category, bool) {
	username, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", "", false
	}

	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return "", "", false
	}
	category, err := types.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category")
		return "", "", false
	}
	return username, category, true
}

type CategoryRequest struct {
	Category string `json:"category"`
}

type MatchRequest struct {
	Color string `json:"color"`
}
