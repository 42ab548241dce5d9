package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gamehub-ledger/internal/domain"
	"github.com/gamehub-ledger/internal/service"
	"github.com/gamehub-ledger/internal/websocket"
)

// Handler provides HTTP handlers for the score ledger API
type Handler struct {
	service *service.LedgerService
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.LedgerService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Score operations
		r.Post("/scores", h.RecordScore)
		r.Post("/scores/batch", h.RecordScoreBatch)

		// Leaderboard and rankings
		r.Get("/leaderboard", h.GetLeaderboard)

		// User operations
		r.Post("/users", h.CreateUser)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/", h.GetUser)
			r.Get("/stats", h.GetUserStats)
			r.Get("/rank", h.GetUserRank)
			r.Get("/notifications", h.ListNotifications)
			r.Get("/notifications/unread-count", h.UnreadCount)
			r.Post("/notifications/read", h.MarkAllNotificationsRead)
		})
		r.Post("/notifications/{notificationID}/read", h.MarkNotificationRead)

		// Admin operations; authorization is decided upstream
		r.Route("/admin", func(r chi.Router) {
			r.Get("/players", h.ListPlayers)
			r.Post("/players/{userID}/deactivate", h.DeactivatePlayer)
			r.Post("/players/{userID}/reactivate", h.ReactivatePlayer)
			r.Post("/reset", h.ResetScores)
			r.Post("/reconcile", h.ReconcileTotals)
			r.Post("/broadcast", h.Broadcast)
			r.Get("/stats", h.HubStats)
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps domain errors to HTTP statuses
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrUserArchived):
		h.writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domain.ErrInvalidActivity), errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrUsernameTaken):
		h.writeError(w, http.StatusConflict, err)
	default:
		h.logger.Error(logMsg, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// userIDParam parses the userID URL parameter
func userIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "userID"))
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// RecordScore handles score submission and returns the refreshed aggregate
func (h *Handler) RecordScore(w http.ResponseWriter, r *http.Request) {
	var submission domain.ScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if submission.UserID == uuid.Nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	stats, err := h.service.RecordScore(r.Context(), submission)
	if err != nil {
		h.writeServiceError(w, err, "failed to record score")
		return
	}

	h.writeSuccess(w, stats)
}

// RecordScoreBatch handles batch score submission
func (h *Handler) RecordScoreBatch(w http.ResponseWriter, r *http.Request) {
	var batch domain.BatchScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if len(batch.Scores) == 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.RecordScoreBatch(r.Context(), batch); err != nil {
		h.logger.Error("failed to record score batch", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]interface{}{
		"status":   "accepted",
		"received": len(batch.Scores),
	})
}

// GetLeaderboard returns the ranked leaderboard, optionally for one activity
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	activity := r.URL.Query().Get("activity")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	rows, err := h.service.GetLeaderboard(r.Context(), activity, limit)
	if err != nil {
		h.logger.Error("failed to get leaderboard", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, rows)
}

// CreateUser handles player registration
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "failed to create user")
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    user,
	})
}

// GetUser returns a user by ID
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "failed to get user")
		return
	}

	h.writeSuccess(w, user)
}

// GetUserStats returns a user's aggregate ledger view
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	stats, err := h.service.GetUserStats(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "failed to get user stats")
		return
	}

	h.writeSuccess(w, stats)
}

// GetUserRank returns the user's competition rank, or unranked
func (h *Handler) GetUserRank(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	activity := r.URL.Query().Get("activity")

	rank, err := h.service.GetUserRank(r.Context(), userID, activity)
	if err != nil {
		if errors.Is(err, domain.ErrUnranked) {
			h.writeSuccess(w, map[string]interface{}{"ranked": false})
			return
		}
		h.writeServiceError(w, err, "failed to get user rank")
		return
	}

	h.writeSuccess(w, map[string]interface{}{"ranked": true, "rank": rank})
}

// ListNotifications returns a user's notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.service.ListNotifications(r.Context(), userID, unreadOnly)
	if err != nil {
		h.writeServiceError(w, err, "failed to list notifications")
		return
	}

	h.writeSuccess(w, notifications)
}

// UnreadCount returns the number of unread notifications for a user
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "failed to count unread notifications")
		return
	}

	h.writeSuccess(w, map[string]int64{"unread": count})
}

// MarkAllNotificationsRead flags all of a user's notifications as read
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.MarkAllNotificationsRead(r.Context(), userID); err != nil {
		h.writeServiceError(w, err, "failed to mark notifications read")
		return
	}

	h.writeSuccess(w, map[string]string{"status": "read"})
}

// MarkNotificationRead flags one notification as read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), notificationID); err != nil {
		h.writeServiceError(w, err, "failed to mark notification read")
		return
	}

	h.writeSuccess(w, map[string]string{"status": "read"})
}

// ListPlayers returns player accounts for the admin panel
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	status := domain.Status(r.URL.Query().Get("status"))
	search := r.URL.Query().Get("search")

	players, err := h.service.ListPlayers(r.Context(), status, search)
	if err != nil {
		h.writeServiceError(w, err, "failed to list players")
		return
	}

	h.writeSuccess(w, players)
}

// DeactivatePlayer archives a player account
func (h *Handler) DeactivatePlayer(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.DeactivatePlayer(r.Context(), userID); err != nil {
		h.writeServiceError(w, err, "failed to deactivate player")
		return
	}

	h.writeSuccess(w, map[string]string{"status": "deactivated"})
}

// ReactivatePlayer restores an archived player account
func (h *Handler) ReactivatePlayer(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.ReactivatePlayer(r.Context(), userID); err != nil {
		h.writeServiceError(w, err, "failed to reactivate player")
		return
	}

	h.writeSuccess(w, map[string]string{"status": "reactivated"})
}

// resetRequest carries the explicit reset scope
type resetRequest struct {
	Scope string `json:"scope"`
}

// ResetScores wipes the ledger for the requested scope
func (h *Handler) ResetScores(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	result, err := h.service.ResetScores(r.Context(), req.Scope)
	if err != nil {
		h.writeServiceError(w, err, "failed to reset scores")
		return
	}

	h.writeSuccess(w, result)
}

// ReconcileTotals triggers a cached-total repair pass
func (h *Handler) ReconcileTotals(w http.ResponseWriter, r *http.Request) {
	repaired, err := h.service.ReconcileTotals(r.Context())
	if err != nil {
		h.logger.Error("failed to reconcile totals", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, map[string]interface{}{"repaired": repaired})
}

// Broadcast sends an admin notification to one or all active players
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req domain.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	notified, err := h.service.Broadcast(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "failed to broadcast")
		return
	}

	h.writeSuccess(w, map[string]interface{}{"notified": notified})
}

// HubStats returns the admin dashboard counters
func (h *Handler) HubStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.HubStats(r.Context())
	if err != nil {
		h.logger.Error("failed to get hub stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, stats)
}
