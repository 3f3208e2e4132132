package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BTreeMap/NimaCare/internal/models"
	"github.com/BTreeMap/NimaCare/internal/session"
)

// chatHandler handles POST /chat.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "chatHandler", err)
		return
	}

	res, err := s.manager.HandleMessage(r.Context(), req.SessionID, req.UserID, req.Message)
	if errors.Is(err, session.ErrWorkflowComplete) {
		// The closing result is returned alongside the conflict.
		writeJSONResponse(w, http.StatusConflict, models.NewAPIResponseBuilder().
			WithStatus(models.APIStatusError).
			WithMessage(err.Error()).
			WithResult(res).
			Build())
		return
	}
	if err != nil {
		writeError(w, "chatHandler", err)
		return
	}
	slog.Debug("Server.chatHandler: message processed", "sessionID", res.SessionID, "stage", res.ActiveStage)
	writeJSONResponse(w, http.StatusOK, models.Success(res))
}

// getSessionHandler handles GET /sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sum, err := s.manager.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "getSessionHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sum))
}

// messagesHandler handles GET /sessions/{id}/messages.
func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request) {
	state, err := s.manager.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "messagesHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(state.Messages))
}

// deleteSessionHandler handles DELETE /sessions/{id}.
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.DeleteSession(r.Context(), id); err != nil {
		writeError(w, "deleteSessionHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", map[string]string{"session_id": id}))
}

// contributionsHandler handles GET /sessions/{id}/contributions.
func (s *Server) contributionsHandler(w http.ResponseWriter, r *http.Request) {
	contributions, err := s.manager.Contributions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "contributionsHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(contributions))
}

// privacyHandler handles POST /privacy.
func (s *Server) privacyHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PrivacyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "privacyHandler", err)
		return
	}
	state, err := s.manager.SetPrivacyTier(r.Context(), req.SessionID, req.PrivacyTier)
	if err != nil {
		writeError(w, "privacyHandler", err)
		return
	}
	tier := state.Facts.Privacy.Selection.Tier
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Privacy tier set to "+tier.DisplayName(), map[string]string{
		"session_id":   req.SessionID,
		"privacy_tier": string(tier),
	}))
}

// categoryHandler handles POST /category.
func (s *Server) categoryHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "categoryHandler", err)
		return
	}
	state, err := s.manager.SetCategory(r.Context(), req.SessionID, req.Category)
	if err != nil {
		writeError(w, "categoryHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Category updated", map[string]string{
		"session_id": req.SessionID,
		"category":   string(state.Facts.SelectedCategory),
	}))
}

// habitsHandler handles GET /sessions/{id}/habits.
func (s *Server) habitsHandler(w http.ResponseWriter, r *http.Request) {
	habits, err := s.manager.Habits(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "habitsHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(habits))
}

// completeHabitHandler handles POST /habits/complete.
func (s *Server) completeHabitHandler(w http.ResponseWriter, r *http.Request) {
	var req models.HabitCompletionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	res, err := s.manager.CompleteHabit(r.Context(), req)
	if err != nil {
		writeError(w, "completeHabitHandler", err)
		return
	}
	msg := "Habit progress recorded"
	if res.StreakMessage != "" {
		msg = res.StreakMessage
	}
	slog.Info("Server.completeHabitHandler: habit recorded", "sessionID", req.SessionID, "habitID", req.HabitID,
		"completed", req.Completed, "streak", res.Progress.CurrentStreak)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(msg, res))
}

// habitStatsHandler handles GET /sessions/{id}/habits/stats.
func (s *Server) habitStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.HabitStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "habitStatsHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

// habitHistoryHandler handles GET /sessions/{id}/habits/{habitID}/history?limit=N.
func (s *Server) habitHistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("limit must be a positive integer"))
			return
		}
		limit = n
	}
	history, err := s.manager.HabitHistory(r.Context(), r.PathValue("id"), r.PathValue("habitID"), limit)
	if err != nil {
		writeError(w, "habitHistoryHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(history))
}

// healthHandler provides a health check endpoint for monitoring and load balancing.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), DefaultHealthTimeout)
	defer cancel()

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"sms":       s.sms != nil,
	}

	if count, err := s.st.Count(ctx); err != nil {
		slog.Warn("Server.healthHandler: failed to count sessions", "error", err)
		healthData["status"] = "degraded"
		healthData["error"] = "Failed to reach session store"
	} else {
		healthData["active_sessions"] = count
	}

	statusCode := http.StatusOK
	if healthData["status"] == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, statusCode, healthData)
}
