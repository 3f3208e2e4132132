package util

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateRandomHex(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"zero length", 0, 0},
		{"negative length", -1, 0},
		{"small length", 8, 8},
		{"medium length", 16, 16},
		{"large length", 64, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateRandomHex(tt.length)

			if len(got) != tt.want {
				t.Errorf("GenerateRandomHex() length = %v, want %v", len(got), tt.want)
			}

			if tt.want > 0 && !isValidHex(got) {
				t.Errorf("GenerateRandomHex() = %v is not valid hex", got)
			}
		})
	}
}

func TestGenerateSessionID(t *testing.T) {
	got := GenerateSessionID()

	if !strings.HasPrefix(got, SessionIDPrefix) {
		t.Errorf("GenerateSessionID() = %v, want prefix %v", got, SessionIDPrefix)
	}

	if _, err := uuid.Parse(strings.TrimPrefix(got, SessionIDPrefix)); err != nil {
		t.Errorf("GenerateSessionID() suffix is not a UUID: %v", err)
	}

	if got == GenerateSessionID() {
		t.Error("GenerateSessionID() returned the same id twice")
	}
}

func TestGenerateSignupRef(t *testing.T) {
	got := GenerateSignupRef()

	if !strings.HasPrefix(got, SignupRefPrefix) {
		t.Errorf("GenerateSignupRef() = %v, want prefix %v", got, SignupRefPrefix)
	}

	if len(got) != len(SignupRefPrefix)+16 {
		t.Errorf("GenerateSignupRef() length = %v, want %v", len(got), len(SignupRefPrefix)+16)
	}

	if !isValidHex(got[len(SignupRefPrefix):]) {
		t.Errorf("GenerateSignupRef() hex part = %v is not valid hex", got)
	}
}

func TestSignupRefsDoNotRepeat(t *testing.T) {
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		ref := GenerateSignupRef()
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate signup ref %s after %d draws", ref, i)
		}
		seen[ref] = struct{}{}
	}
}

func isValidHex(s string) bool {
	return strings.Trim(s, "0123456789abcdef") == ""
}

func TestAppointmentAndGroupMatchIDs(t *testing.T) {
	appt := GenerateAppointmentID()
	if !strings.HasPrefix(appt, AppointmentIDPrefix) || !isValidHex(appt[len(AppointmentIDPrefix):]) || len(appt) != len(AppointmentIDPrefix)+8 {
		t.Errorf("GenerateAppointmentID() = %v", appt)
	}
	match := GenerateGroupMatchID()
	if !strings.HasPrefix(match, GroupMatchIDPrefix) || !isValidHex(match[len(GroupMatchIDPrefix):]) {
		t.Errorf("GenerateGroupMatchID() = %v", match)
	}
}
