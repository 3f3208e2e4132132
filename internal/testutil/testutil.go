// Package testutil provides common test utilities and helpers for NimaCare tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/BTreeMap/NimaCare/internal/genai"
)

// ErrScriptExhausted is returned by ScriptedGenerator once every reply is used.
var ErrScriptExhausted = errors.New("scripted generator: no replies left")

// Reply is one scripted generation outcome.
type Reply struct {
	Text string
	Err  error
}

// ScriptedGenerator implements genai.ClientInterface by replaying replies in
// order and recording every request it receives.
type ScriptedGenerator struct {
	mu       sync.Mutex
	replies  []Reply
	requests []genai.Request
}

// NewScriptedGenerator returns a generator that answers with texts in order.
func NewScriptedGenerator(texts ...string) *ScriptedGenerator {
	g := &ScriptedGenerator{}
	for _, text := range texts {
		g.replies = append(g.replies, Reply{Text: text})
	}
	return g
}

// Push queues more replies.
func (g *ScriptedGenerator) Push(replies ...Reply) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, replies...)
}

// Generate returns the next scripted reply.
func (g *ScriptedGenerator) Generate(ctx context.Context, req genai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(g.replies) == 0 {
		return "", ErrScriptExhausted
	}
	next := g.replies[0]
	g.replies = g.replies[1:]
	return next.Text, next.Err
}

// Calls returns how many times Generate was invoked.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// Requests returns a copy of the recorded requests.
func (g *ScriptedGenerator) Requests() []genai.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]genai.Request(nil), g.requests...)
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t testing.TB, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t testing.TB, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t testing.TB, method, url string, body interface{}) *http.Request {
	t.Helper()
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		reqBody = bytes.NewBuffer(MustMarshalJSON(t, body))
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t testing.TB, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t testing.TB, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
