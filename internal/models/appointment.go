package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultAppointmentMinutes is the length of a counseling session.
const DefaultAppointmentMinutes = 60

// DefaultSessionType is used when an appointment request names none.
const DefaultSessionType = "initial_consultation"

var (
	ErrEmptyTherapistID          = errors.New("therapist_id is required")
	ErrEmptyAppointmentID        = errors.New("appointment_id is required")
	ErrMissingScheduledTime      = errors.New("scheduled_time is required")
	ErrInvalidAppointmentStatus  = errors.New("invalid appointment status")
	ErrInvalidStatusTransition   = errors.New("appointment status cannot change")
	ErrUnknownGroupPreference    = errors.New("unknown group preference")
	ErrTooManyAvailableTimeSlots = errors.New("too many available_times")
)

// MaxAvailableTimes bounds the availability list of a support group request.
const MaxAvailableTimes = 21

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// AppointmentStatuses lists every status in lifecycle order.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentPending, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted, AppointmentNoShow,
}

// ValidateAppointmentStatus returns an error naming the allowed values when s is not a status.
func ValidateAppointmentStatus(s string) (AppointmentStatus, error) {
	st := AppointmentStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AppointmentStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w %q: allowed values are %s", ErrInvalidAppointmentStatus, s, joinValues(AppointmentStatuses))
}

// Final reports whether no further status change is allowed.
func (s AppointmentStatus) Final() bool {
	return s == AppointmentCancelled || s == AppointmentCompleted || s == AppointmentNoShow
}

// Active reports whether the appointment still holds its time slot.
func (s AppointmentStatus) Active() bool {
	return s == AppointmentPending || s == AppointmentConfirmed
}

// Appointment is a counseling session with a volunteer counselor.
type Appointment struct {
	ID              string            `json:"id"`
	TherapistID     string            `json:"therapist_id"`
	TherapistName   string            `json:"therapist_name"`
	Category        Category          `json:"category"`
	ScheduledTime   time.Time         `json:"scheduled_time"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          AppointmentStatus `json:"status"`
	SessionType     string            `json:"session_type"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ConfirmedAt     *time.Time        `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
}

// Overlaps reports whether a and the slot starting at start with the given
// duration share any time.
func (a Appointment) Overlaps(start time.Time, minutes int) bool {
	aEnd := a.ScheduledTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
	end := start.Add(time.Duration(minutes) * time.Minute)
	return a.ScheduledTime.Before(end) && start.Before(aEnd)
}

// AvailableSlot is an open time with one counselor.
type AvailableSlot struct {
	TherapistID     string    `json:"therapist_id"`
	TherapistName   string    `json:"therapist_name"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	DisplayTime     string    `json:"display_time"`
}

// BookingRequest books the best available matched counselor at a time.
type BookingRequest struct {
	SessionID     string    `json:"session_id"`
	Category      string    `json:"category,omitempty"`     // defaults to the session's resolved category
	TherapistID   string    `json:"therapist_id,omitempty"` // defaults to the first matched counselor with room
	ScheduledTime time.Time `json:"scheduled_time"`
}

// Validate checks required fields of a BookingRequest.
func (r *BookingRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.ScheduledTime.IsZero() {
		return ErrMissingScheduledTime
	}
	if r.Category != "" {
		if _, err := ValidateCategory(r.Category); err != nil {
			return err
		}
	}
	return nil
}

// AppointmentRequest creates a pending appointment with a named counselor.
type AppointmentRequest struct {
	SessionID     string    `json:"session_id"`
	TherapistID   string    `json:"therapist_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	SessionType   string    `json:"session_type,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// Validate checks required fields of an AppointmentRequest.
func (r *AppointmentRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.TherapistID == "" {
		return ErrEmptyTherapistID
	}
	if r.ScheduledTime.IsZero() {
		return ErrMissingScheduledTime
	}
	if len(r.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// AppointmentUpdateRequest moves an appointment to a new status.
type AppointmentUpdateRequest struct {
	SessionID     string `json:"session_id"`
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

// Validate checks required fields and the status value.
func (r *AppointmentUpdateRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.AppointmentID == "" {
		return ErrEmptyAppointmentID
	}
	_, err := ValidateAppointmentStatus(r.Status)
	return err
}

// GroupStyle is how much a support group expects members to share.
type GroupStyle string

const (
	GroupStyleQuiet    GroupStyle = "quiet"
	GroupStyleBalanced GroupStyle = "balanced"
	GroupStyleActive   GroupStyle = "active"
)

// GroupPreferences describe the kind of support group a user wants.
// Available times are "<day>", "<period>" or "<day>_<period>", for example
// "monday_evening"; periods are morning, afternoon and evening.
type GroupPreferences struct {
	AvailableTimes    []string   `json:"available_times,omitempty"`
	PreferredSize     GroupSize  `json:"preferred_size,omitempty"`
	PreferredStyle    GroupStyle `json:"preferred_style,omitempty"`
	WantsProfessional bool       `json:"wants_professional,omitempty"`
}

// SupportGroupRequest asks for groups ranked by preference.
type SupportGroupRequest struct {
	SessionID string `json:"session_id"`
	Category  string `json:"category,omitempty"` // defaults to the session's resolved category
	GroupPreferences
	Notes string `json:"notes,omitempty"`
}

// Validate checks the session id, the category and the preference values.
func (r *SupportGroupRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.Category != "" {
		if _, err := ValidateCategory(r.Category); err != nil {
			return err
		}
	}
	if r.PreferredSize != "" && r.PreferredSize.Capacity() == 0 {
		return fmt.Errorf("%w: preferred_size %q", ErrUnknownGroupPreference, r.PreferredSize)
	}
	switch r.PreferredStyle {
	case "", GroupStyleQuiet, GroupStyleBalanced, GroupStyleActive:
	default:
		return fmt.Errorf("%w: preferred_style %q", ErrUnknownGroupPreference, r.PreferredStyle)
	}
	if len(r.AvailableTimes) > MaxAvailableTimes {
		return ErrTooManyAvailableTimeSlots
	}
	if len(r.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// ScoredGroup is a support group with its preference score.
type ScoredGroup struct {
	Group SupportGroup `json:"group"`
	Score int          `json:"score"`
}

// GroupMatch records one preference-based support group search.
type GroupMatch struct {
	ID          string           `json:"id"`
	Category    Category         `json:"category"`
	Preferences GroupPreferences `json:"preferences"`
	Groups      []ScoredGroup    `json:"matched_groups"`
	Notes       string           `json:"notes,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
