package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/NimaCare/internal/flow"
	"github.com/BTreeMap/NimaCare/internal/models"
	"github.com/BTreeMap/NimaCare/internal/util"
)

var (
	ErrCounselorNotFound    = errors.New("counselor not found")
	ErrNoCounselorAvailable = errors.New("no counselor has room for a new client")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrSlotUnavailable      = errors.New("requested time is not available")
)

// Roster is the counselor and support group lookup used for booking;
// *catalog.Catalog implements it.
type Roster interface {
	Counselor(id string) (models.Counselor, bool)
	CounselorsFor(category models.Category) []models.Counselor
	GroupsFor(category models.Category) []models.SupportGroup
}

// Slot generation: weekday sessions at these UTC hours over the coming week.
var slotHours = []int{10, 14, 18}

const slotDays = 7

const slotDisplayLayout = "Monday • 3:04 PM"

// AvailableSlots lists the open times of a counselor over the next week,
// skipping times that clash with the session's active appointments.
func (m *Manager) AvailableSlots(ctx context.Context, sessionID, therapistID string) ([]models.AvailableSlot, error) {
	if therapistID == "" {
		return nil, models.ErrEmptyTherapistID
	}
	co, ok := m.roster.Counselor(therapistID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCounselorNotFound, therapistID)
	}
	state, err := m.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	slots := []models.AvailableSlot{}
	for d := 1; d <= slotDays; d++ {
		day := today.AddDate(0, 0, d)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		for _, h := range slotHours {
			start := day.Add(time.Duration(h) * time.Hour)
			if clashes(state.Facts.Appointments, start, models.DefaultAppointmentMinutes) {
				continue
			}
			slots = append(slots, models.AvailableSlot{
				TherapistID:     co.ID,
				TherapistName:   co.Name,
				StartTime:       start,
				DurationMinutes: models.DefaultAppointmentMinutes,
				DisplayTime:     start.Format(slotDisplayLayout),
			})
		}
	}
	return slots, nil
}

// BookSession books a confirmed session with a matched counselor. Without a
// therapist id the first matched counselor with room is chosen.
func (m *Manager) BookSession(ctx context.Context, req models.BookingRequest) (*models.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var booked models.Appointment
	_, err := m.update(ctx, req.SessionID, func(state *models.ConversationState) error {
		if req.Category != "" {
			category, _ := models.ValidateCategory(req.Category)
			state.Facts.SelectedCategory = category
		}
		category := state.ResolvedCategory()

		var co models.Counselor
		if req.TherapistID != "" {
			found, ok := m.roster.Counselor(req.TherapistID)
			if !ok {
				return fmt.Errorf("%w: %s", ErrCounselorNotFound, req.TherapistID)
			}
			if !hasRoom(found) {
				return fmt.Errorf("%w: %s is at capacity", ErrNoCounselorAvailable, found.ID)
			}
			co = found
		} else {
			candidates := m.candidates(state, category)
			if len(candidates) == 0 {
				return fmt.Errorf("%w: category %s", ErrNoCounselorAvailable, category)
			}
			co = candidates[0]
		}

		if err := m.checkSlot(state, req.ScheduledTime); err != nil {
			return err
		}
		now := m.now()
		booked = models.Appointment{
			ID:              util.GenerateAppointmentID(),
			TherapistID:     co.ID,
			TherapistName:   co.Name,
			Category:        category,
			ScheduledTime:   req.ScheduledTime.UTC(),
			DurationMinutes: models.DefaultAppointmentMinutes,
			Status:          models.AppointmentConfirmed,
			SessionType:     models.DefaultSessionType,
			CreatedAt:       now,
			ConfirmedAt:     &now,
		}
		state.Facts.Appointments = append(state.Facts.Appointments, booked)
		slog.Info("SessionManager.BookSession: session booked", "sessionID", req.SessionID, "appointmentID", booked.ID, "therapistID", co.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booked, nil
}

// CreateAppointment records a pending appointment with a named counselor.
func (m *Manager) CreateAppointment(ctx context.Context, req models.AppointmentRequest) (*models.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	co, ok := m.roster.Counselor(req.TherapistID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCounselorNotFound, req.TherapistID)
	}
	sessionType := req.SessionType
	if sessionType == "" {
		sessionType = models.DefaultSessionType
	}

	var created models.Appointment
	_, err := m.update(ctx, req.SessionID, func(state *models.ConversationState) error {
		if err := m.checkSlot(state, req.ScheduledTime); err != nil {
			return err
		}
		created = models.Appointment{
			ID:              util.GenerateAppointmentID(),
			TherapistID:     co.ID,
			TherapistName:   co.Name,
			Category:        state.ResolvedCategory(),
			ScheduledTime:   req.ScheduledTime.UTC(),
			DurationMinutes: models.DefaultAppointmentMinutes,
			Status:          models.AppointmentPending,
			SessionType:     sessionType,
			Notes:           req.Notes,
			CreatedAt:       m.now(),
		}
		state.Facts.Appointments = append(state.Facts.Appointments, created)
		slog.Info("SessionManager.CreateAppointment: appointment created", "sessionID", req.SessionID, "appointmentID", created.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateAppointment moves an appointment to a new status. Cancelled,
// completed and no-show appointments cannot change again.
func (m *Manager) UpdateAppointment(ctx context.Context, req models.AppointmentUpdateRequest) (*models.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	status, _ := models.ValidateAppointmentStatus(req.Status)

	var updated models.Appointment
	_, err := m.update(ctx, req.SessionID, func(state *models.ConversationState) error {
		for i := range state.Facts.Appointments {
			a := &state.Facts.Appointments[i]
			if a.ID != req.AppointmentID {
				continue
			}
			if a.Status.Final() && a.Status != status {
				return fmt.Errorf("%w: %s is %s", models.ErrInvalidStatusTransition, a.ID, a.Status)
			}
			now := m.now()
			switch status {
			case models.AppointmentConfirmed:
				if a.ConfirmedAt == nil {
					a.ConfirmedAt = &now
				}
			case models.AppointmentCancelled:
				if a.CancelledAt == nil {
					a.CancelledAt = &now
				}
			}
			a.Status = status
			updated = *a
			slog.Info("SessionManager.UpdateAppointment: status changed", "sessionID", req.SessionID, "appointmentID", a.ID, "status", status)
			return nil
		}
		return fmt.Errorf("%w: %s", ErrAppointmentNotFound, req.AppointmentID)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Appointments lists the appointments of a session in booking order.
func (m *Manager) Appointments(ctx context.Context, sessionID string) ([]models.Appointment, error) {
	state, err := m.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := append([]models.Appointment{}, state.Facts.Appointments...)
	return out, nil
}

// MatchSupportGroups ranks the open groups of a category by the request's
// preferences and records the match on the session.
func (m *Manager) MatchSupportGroups(ctx context.Context, req models.SupportGroupRequest) (*models.GroupMatch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var match models.GroupMatch
	_, err := m.update(ctx, req.SessionID, func(state *models.ConversationState) error {
		category := state.ResolvedCategory()
		if req.Category != "" {
			category, _ = models.ValidateCategory(req.Category)
		}
		match = models.GroupMatch{
			ID:          util.GenerateGroupMatchID(),
			Category:    category,
			Preferences: req.GroupPreferences,
			Groups:      flow.MatchGroups(m.roster.GroupsFor(category), req.GroupPreferences),
			Notes:       req.Notes,
			CreatedAt:   m.now(),
		}
		state.Facts.GroupMatches = append(state.Facts.GroupMatches, match)
		slog.Info("SessionManager.MatchSupportGroups: groups matched", "sessionID", req.SessionID, "category", category, "matches", len(match.Groups))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// candidates returns the counselors with room for category, preferring the
// ones the resource stage already presented.
func (m *Manager) candidates(state *models.ConversationState, category models.Category) []models.Counselor {
	var pool []models.Counselor
	if rm := state.Facts.Resource; rm != nil && rm.Found && rm.Category == category {
		for _, id := range rm.TherapistIDs {
			if co, ok := m.roster.Counselor(id); ok {
				pool = append(pool, co)
			}
		}
	}
	if len(pool) == 0 {
		pool = m.roster.CounselorsFor(category)
	}
	out := []models.Counselor{}
	for _, co := range pool {
		if hasRoom(co) {
			out = append(out, co)
		}
	}
	return out
}

func (m *Manager) checkSlot(state *models.ConversationState, start time.Time) error {
	if !start.After(m.now()) {
		return fmt.Errorf("%w: %s is in the past", ErrSlotUnavailable, start.Format(time.RFC3339))
	}
	if clashes(state.Facts.Appointments, start, models.DefaultAppointmentMinutes) {
		return fmt.Errorf("%w: %s overlaps an existing appointment", ErrSlotUnavailable, start.Format(time.RFC3339))
	}
	return nil
}

func hasRoom(co models.Counselor) bool {
	return co.CurrentLoad < co.Capacity
}

func clashes(appts []models.Appointment, start time.Time, minutes int) bool {
	for _, a := range appts {
		if a.Status.Active() && a.Overlaps(start, minutes) {
			return true
		}
	}
	return false
}
