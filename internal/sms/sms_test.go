package sms

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMockClient_SendMessage(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()

	if err := mock.SendMessage(ctx, "+15551234567", "Hello Test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := mock.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}
	if sent[0].Body != "Hello Test" {
		t.Errorf("expected body %q, got %q", "Hello Test", sent[0].Body)
	}
}

func TestMockClient_Error(t *testing.T) {
	mock := NewMockClient()
	mock.Err = errors.New("boom")
	if err := mock.SendMessage(context.Background(), "+1", "x"); err == nil {
		t.Fatal("expected error")
	}
	if len(mock.Sent()) != 0 {
		t.Error("failed sends should not be recorded")
	}
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{"missing credentials", []Option{WithFromNumber("+15550000000")}, true},
		{"missing from", []Option{WithAccountSID("AC123"), WithAuthToken("tok")}, true},
		{"complete", []Option{WithAccountSID("AC123"), WithAuthToken("tok"), WithFromNumber("+15550000000")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && c.fromNumber != "+15550000000" {
				t.Errorf("unexpected from number %q", c.fromNumber)
			}
		})
	}
}

func TestSplitMessage(t *testing.T) {
	if got := SplitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("short message should not be split: %q", got)
	}

	body := "first paragraph here\n\nsecond paragraph here"
	got := SplitMessage(body, 25)
	if len(got) != 2 || got[0] != "first paragraph here" || got[1] != "second paragraph here" {
		t.Errorf("expected paragraph split, got %q", got)
	}

	long := strings.Repeat("a", 25)
	got = SplitMessage(long, 10)
	if len(got) != 3 || got[2] != "aaaaa" {
		t.Errorf("expected hard split into 3 chunks, got %q", got)
	}

	for _, chunk := range SplitMessage(strings.Repeat("word ", 500), MaxSegmentLength) {
		if len([]rune(chunk)) > MaxSegmentLength {
			t.Errorf("chunk exceeds limit: %d", len(chunk))
		}
	}
}

func TestSessionIDForPhone(t *testing.T) {
	if got := SessionIDForPhone("+1 (555) 123-4567"); got != "sms_15551234567" {
		t.Errorf("unexpected id %q", got)
	}
	if got := SessionIDForPhone("whatsapp:+15551234567"); got != "sms_15551234567" {
		t.Errorf("channel prefix should be ignored, got %q", got)
	}
	if got := SessionIDForPhone("unknown"); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}

func TestSignatureValidatorRejectsBadSignature(t *testing.T) {
	v := NewSignatureValidator("token")
	if v.Validate("https://example.com/sms/webhook", map[string]string{"Body": "hi"}, "bogus") {
		t.Error("expected bogus signature to fail validation")
	}
}
