// Package models defines the core data structures for NimaCare.
//
// It includes the conversation state, workflow enums, catalog records and the
// API request/response envelopes shared across modules.
package models

import (
	"errors"
	"strings"
)

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for an inbound chat message
	MaxMessageLength = 4096
	// MaxNotesLength defines the maximum allowed length for habit completion notes
	MaxNotesLength = 1000
)

// Error variables for request validation
var (
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrMessageTooLong   = errors.New("message exceeds maximum length")
	ErrEmptyUserID      = errors.New("user_id is required")
	ErrEmptySessionID   = errors.New("session_id is required")
	ErrEmptyHabitID     = errors.New("habit_id is required")
	ErrNotesTooLong     = errors.New("notes exceed maximum length")
	ErrEmptyPrivacyTier = errors.New("privacy_tier is required")
	ErrEmptyCategory    = errors.New("category is required")
)

// ChatRequest is one inbound user message.
type ChatRequest struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"` // empty on first contact
}

// Validate checks required fields of a ChatRequest.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// PrivacyRequest sets a privacy tier directly, bypassing the conversation.
type PrivacyRequest struct {
	SessionID   string `json:"session_id"`
	PrivacyTier string `json:"privacy_tier"`
}

// Validate checks the session id and the tier value.
func (r *PrivacyRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.PrivacyTier == "" {
		return ErrEmptyPrivacyTier
	}
	_, err := ValidatePrivacyTier(r.PrivacyTier)
	return err
}

// CategoryRequest overrides the counseling category directly.
type CategoryRequest struct {
	SessionID string `json:"session_id"`
	Category  string `json:"category"`
}

// Validate checks the session id and the category value.
func (r *CategoryRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.Category == "" {
		return ErrEmptyCategory
	}
	_, err := ValidateCategory(r.Category)
	return err
}

// HabitCompletionRequest reports whether a recommended habit was done.
type HabitCompletionRequest struct {
	SessionID string `json:"session_id"`
	HabitID   string `json:"habit_id"`
	Completed bool   `json:"completed"`
	Notes     string `json:"notes,omitempty"`
}

// Validate checks required fields of a HabitCompletionRequest.
func (r *HabitCompletionRequest) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.HabitID == "" {
		return ErrEmptyHabitID
	}
	if len(r.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// API Response types for consistent JSON responses

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
