package handlers

import (
	"context"
	"net/http"
	"time"

	"pats-app-go/logging"
	"pats-app-go/models"
	"pats-app-go/services"

	"github.com/gorilla/mux"
)

// SessionServiceInterface defines the session operations used by handlers.
type SessionServiceInterface interface {
	CreateSession(ctx context.Context, games []models.Game, participants []string, kind models.SessionKind, ownerID, seasonID string, date time.Time) (*models.Session, error)
	RecordPick(ctx context.Context, sessionID, userID, gameID string, side models.Side, doubleDown bool) (*models.Pick, error)
	ApplyResultUpdate(ctx context.Context, sessionID string, update models.GameResultUpdate) (services.ResultApplication, error)
	RefreshSpreads(ctx context.Context, sessionID string, updatedGames []models.Game) error
	CloseSession(ctx context.Context, sessionID string, fallbackResults map[string]models.GameResultUpdate) (map[string]models.SessionResult, error)
	ReopenSession(ctx context.Context, sessionID string) (*models.Session, error)
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	GetActiveSession(ctx context.Context, kind models.SessionKind, ownerID string) (*models.Session, error)
	GetActiveSessionAny(ctx context.Context) (*models.Session, error)
	GetHistory(ctx context.Context) ([]*models.Session, error)
}

// StandingsServiceInterface defines the standings operations used by handlers.
type StandingsServiceInterface interface {
	GetStandings(ctx context.Context, sessionID string, force bool) (*models.Standings, error)
}

// SessionHandler handles session lifecycle, pick, and result requests.
type SessionHandler struct {
	sessions  SessionServiceInterface
	standings StandingsServiceInterface
	logger    *logging.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions SessionServiceInterface, standings StandingsServiceInterface) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		standings: standings,
		logger:    logging.WithPrefix("SessionHandler"),
	}
}

// createSessionRequest is the body for POST /sessions.
type createSessionRequest struct {
	Kind         models.SessionKind `json:"kind"`
	OwnerID      string             `json:"owner_id"`
	SeasonID     string             `json:"season_id"`
	Date         *time.Time         `json:"date"`
	Participants []string           `json:"participants"`
	Games        []models.Game      `json:"games"`
}

// CreateSession handles POST /sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	date := time.Time{}
	if req.Date != nil {
		date = *req.Date
	}

	session, err := h.sessions.CreateSession(r.Context(), req.Games, req.Participants, req.Kind, req.OwnerID, req.SeasonID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Infof("HTTP: created session %s", session.ID)
	writeJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /sessions/{id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetActiveSession handles GET /sessions/active?kind=&owner=.
// With no kind it returns "the" active session (global preferred).
func (h *SessionHandler) GetActiveSession(w http.ResponseWriter, r *http.Request) {
	kind := models.SessionKind(r.URL.Query().Get("kind"))
	ownerID := r.URL.Query().Get("owner")

	var session *models.Session
	var err error
	if kind == "" {
		session, err = h.sessions.GetActiveSessionAny(r.Context())
	} else if !kind.IsValid() {
		writeError(w, models.NewValidationError("get active session", "unknown session kind %q", kind))
		return
	} else {
		session, err = h.sessions.GetActiveSession(r.Context(), kind, ownerID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetHistory handles GET /sessions/history.
func (h *SessionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.sessions.GetHistory(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// recordPickRequest is the body for POST /sessions/{id}/picks.
type recordPickRequest struct {
	UserID     string      `json:"user_id"`
	GameID     string      `json:"game_id"`
	Side       models.Side `json:"side"`
	DoubleDown bool        `json:"double_down"`
}

// RecordPick handles POST /sessions/{id}/picks.
func (h *SessionHandler) RecordPick(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req recordPickRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	pick, err := h.sessions.RecordPick(r.Context(), sessionID, req.UserID, req.GameID, req.Side, req.DoubleDown)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pick)
}

// resultResponse reports what a result update did.
type resultResponse struct {
	Application services.ResultApplication `json:"application"`
}

// ApplyResult handles POST /sessions/{id}/results — the score poller's
// entry point for live and final updates.
func (h *SessionHandler) ApplyResult(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var update models.GameResultUpdate
	if err := decodeBody(r, &update); err != nil {
		writeError(w, err)
		return
	}

	application, err := h.sessions.ApplyResultUpdate(r.Context(), sessionID, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Application: application})
}

// refreshSpreadsRequest is the body for POST /sessions/{id}/spreads.
type refreshSpreadsRequest struct {
	Games []models.Game `json:"games"`
}

// RefreshSpreads handles POST /sessions/{id}/spreads.
func (h *SessionHandler) RefreshSpreads(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req refreshSpreadsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessions.RefreshSpreads(r.Context(), sessionID, req.Games); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// closeSessionRequest is the body for POST /sessions/{id}/close.
type closeSessionRequest struct {
	FallbackResults map[string]models.GameResultUpdate `json:"fallback_results"`
}

// CloseSession handles POST /sessions/{id}/close.
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req closeSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := h.sessions.CloseSession(r.Context(), sessionID, req.FallbackResults)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// ReopenSession handles POST /sessions/{id}/reopen.
func (h *SessionHandler) ReopenSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := h.sessions.ReopenSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetStandings handles GET /sessions/{id}/standings?refresh=.
func (h *SessionHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	force := r.URL.Query().Get("refresh") == "true"

	standings, err := h.standings.GetStandings(r.Context(), sessionID, force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}
