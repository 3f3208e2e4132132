package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/NimaCare/internal/models"
	"github.com/BTreeMap/NimaCare/internal/session"
	"github.com/BTreeMap/NimaCare/internal/store"
)

// Pre-marshaled fallback response used when encoding fails.
var fallbackErrorResponse []byte

func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// validationErrors are the request errors reported to clients as 400.
var validationErrors = []error{
	models.ErrEmptyMessage,
	models.ErrMessageTooLong,
	models.ErrEmptyUserID,
	models.ErrEmptySessionID,
	models.ErrEmptyHabitID,
	models.ErrNotesTooLong,
	models.ErrEmptyPrivacyTier,
	models.ErrEmptyCategory,
	models.ErrInvalidCategory,
	models.ErrInvalidPrivacyTier,
	models.ErrEmptyTherapistID,
	models.ErrEmptyAppointmentID,
	models.ErrMissingScheduledTime,
	models.ErrInvalidAppointmentStatus,
	models.ErrUnknownGroupPreference,
	models.ErrTooManyAvailableTimeSlots,
}

// writeJSONResponse marshals response before writing headers so encoding
// failures still produce a well-formed 500.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrSessionNotFound), errors.Is(err, session.ErrHabitNotFound),
		errors.Is(err, session.ErrCounselorNotFound), errors.Is(err, session.ErrAppointmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrWorkflowComplete), errors.Is(err, session.ErrNoCounselorAvailable),
		errors.Is(err, session.ErrSlotUnavailable), errors.Is(err, models.ErrInvalidStatusTransition):
		return http.StatusConflict
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError writes the error envelope for err. Internal errors are logged
// and reported without detail.
func writeError(w http.ResponseWriter, handler string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.Error("Server."+handler+": request failed", "error", err)
		writeJSONResponse(w, status, models.Error("Internal server error"))
		return
	}
	slog.Warn("Server."+handler+": request rejected", "status", status, "error", err)
	writeJSONResponse(w, status, models.Error(err.Error()))
}

// decodeJSON decodes a size-limited request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(v)
}
