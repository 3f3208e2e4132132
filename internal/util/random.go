// Package util provides identifier generation and environment helpers for NimaCare.
package util

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// Identifier prefixes.
const (
	SessionIDPrefix     = "session_"
	SignupRefPrefix     = "signup_"
	AppointmentIDPrefix = "appt_"
	GroupMatchIDPrefix  = "group_"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
// Not suitable for secrets.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateSessionID returns a new session identifier: "session_" followed by a random UUID.
func GenerateSessionID() string {
	return SessionIDPrefix + uuid.NewString()
}

// GenerateSignupRef returns a support group waitlist reference with "signup_" prefix.
func GenerateSignupRef() string {
	return GenerateRandomID(SignupRefPrefix, 16)
}

// GenerateAppointmentID returns an appointment identifier with "appt_" prefix.
func GenerateAppointmentID() string {
	return GenerateRandomID(AppointmentIDPrefix, 8)
}

// GenerateGroupMatchID returns a support group match identifier with "group_" prefix.
func GenerateGroupMatchID() string {
	return GenerateRandomID(GroupMatchIDPrefix, 12)
}
