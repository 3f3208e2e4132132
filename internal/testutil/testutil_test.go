package testutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BTreeMap/NimaCare/internal/genai"
)

func TestScriptedGenerator(t *testing.T) {
	boom := errors.New("boom")
	g := NewScriptedGenerator("first")
	g.Push(Reply{Err: boom})

	text, err := g.Generate(context.Background(), genai.Request{SystemPrompt: "a"})
	if err != nil || text != "first" {
		t.Fatalf("expected first reply, got %q, %v", text, err)
	}
	if _, err := g.Generate(context.Background(), genai.Request{SystemPrompt: "b"}); !errors.Is(err, boom) {
		t.Fatalf("expected scripted error, got %v", err)
	}
	if _, err := g.Generate(context.Background(), genai.Request{}); !errors.Is(err, ErrScriptExhausted) {
		t.Fatalf("expected ErrScriptExhausted, got %v", err)
	}

	if g.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", g.Calls())
	}
	if reqs := g.Requests(); reqs[1].SystemPrompt != "b" {
		t.Errorf("expected second request to be recorded, got %+v", reqs[1])
	}
}

func TestScriptedGeneratorCancelledContext(t *testing.T) {
	g := NewScriptedGenerator("unused")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Generate(ctx, genai.Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCreateHTTPRequestAndJSONHelpers(t *testing.T) {
	req := CreateHTTPRequest(t, http.MethodPost, "/chat", map[string]string{"message": "hi"})
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON content type, got %q", req.Header.Get("Content-Type"))
	}

	var decoded map[string]string
	MustUnmarshalJSON(t, MustMarshalJSON(t, map[string]string{"a": "b"}), &decoded)
	if decoded["a"] != "b" {
		t.Errorf("round trip lost data: %+v", decoded)
	}
}

func TestAssertJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.WriteString(`{"status":"ok","result":{"x":1}}`)

	resp := AssertJSONResponse(t, rr, "ok")
	if _, ok := resp["result"]; !ok {
		t.Error("expected result field")
	}
	AssertHTTPStatus(t, http.StatusOK, rr.Code, "recorder default")
}
