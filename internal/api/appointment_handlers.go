package api

import (
	"log/slog"
	"net/http"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// bookSessionHandler handles POST /appointments/book.
func (s *Server) bookSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	appt, err := s.manager.BookSession(r.Context(), req)
	if err != nil {
		writeError(w, "bookSessionHandler", err)
		return
	}
	slog.Info("Server.bookSessionHandler: session booked", "sessionID", req.SessionID, "appointmentID", appt.ID)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Session booked with "+appt.TherapistName, appt))
}

// createAppointmentHandler handles POST /appointments.
func (s *Server) createAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AppointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	appt, err := s.manager.CreateAppointment(r.Context(), req)
	if err != nil {
		writeError(w, "createAppointmentHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Appointment requested", appt))
}

// updateAppointmentHandler handles PUT /appointments.
func (s *Server) updateAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AppointmentUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	appt, err := s.manager.UpdateAppointment(r.Context(), req)
	if err != nil {
		writeError(w, "updateAppointmentHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Appointment "+string(appt.Status), appt))
}

// appointmentsHandler handles GET /sessions/{id}/appointments.
func (s *Server) appointmentsHandler(w http.ResponseWriter, r *http.Request) {
	appts, err := s.manager.Appointments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "appointmentsHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(appts))
}

// availableSlotsHandler handles GET /sessions/{id}/appointments/slots?therapist_id=ID.
func (s *Server) availableSlotsHandler(w http.ResponseWriter, r *http.Request) {
	slots, err := s.manager.AvailableSlots(r.Context(), r.PathValue("id"), r.URL.Query().Get("therapist_id"))
	if err != nil {
		writeError(w, "availableSlotsHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(slots))
}

// matchSupportGroupsHandler handles POST /support-groups/match.
func (s *Server) matchSupportGroupsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SupportGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	match, err := s.manager.MatchSupportGroups(r.Context(), req)
	if err != nil {
		writeError(w, "matchSupportGroupsHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(match))
}
