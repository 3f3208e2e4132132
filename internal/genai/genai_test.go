package genai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp       openai.ChatCompletion
	err        error
	lastParams openai.ChatCompletionNewParams
	delay      time.Duration
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	m.lastParams = params
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return openai.ChatCompletion{}, ctx.Err()
		}
	}
	return m.resp, m.err
}

func completion(content, finishReason string) openai.ChatCompletion {
	return openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{FinishReason: finishReason, Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func newTestClient(svc chatService) *Client {
	return &Client{chat: svc, model: "test-model", temperature: 0.7, maxTokens: 100}
}

func TestGenerate_Success(t *testing.T) {
	mock := &mockChatService{resp: completion("  Hello World  ", "stop")}
	client := newTestClient(mock)

	out, err := client.Generate(context.Background(), Request{
		SystemPrompt: "system prompt",
		ExtraContext: "greet them",
		History: []Turn{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
			{Role: RoleUser, Content: "how are you"},
		},
		Temperature: 0.85,
		MaxTokens:   250,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}

	if got := len(mock.lastParams.Messages); got != 5 {
		t.Errorf("expected 5 messages (2 system + 3 history), got %d", got)
	}
	if got := mock.lastParams.Temperature.Value; got != 0.85 {
		t.Errorf("expected temperature 0.85, got %v", got)
	}
	if got := mock.lastParams.MaxTokens.Value; got != 250 {
		t.Errorf("expected max tokens 250, got %v", got)
	}
	if mock.lastParams.Model != "test-model" {
		t.Errorf("expected model test-model, got %s", mock.lastParams.Model)
	}
}

func TestGenerate_UsesClientDefaults(t *testing.T) {
	mock := &mockChatService{resp: completion("ok", "stop")}
	client := newTestClient(mock)

	if _, err := client.Generate(context.Background(), Request{History: []Turn{{Role: RoleUser, Content: "hi"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mock.lastParams.Temperature.Value; got != 0.7 {
		t.Errorf("expected default temperature 0.7, got %v", got)
	}
	if got := mock.lastParams.MaxTokens.Value; got != 100 {
		t.Errorf("expected default max tokens 100, got %v", got)
	}
	if got := len(mock.lastParams.Messages); got != 1 {
		t.Errorf("expected only the history message, got %d", got)
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	client := newTestClient(&mockChatService{err: errors.New("service failure")})
	_, err := client.Generate(context.Background(), Request{})
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
	if errors.Is(err, ErrContentFiltered) {
		t.Error("transport failure must not be reported as content filtering")
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	client := newTestClient(&mockChatService{resp: openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}})
	_, err := client.Generate(context.Background(), Request{})
	if err != ErrNoChoicesReturned {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestGenerate_ContentFiltered(t *testing.T) {
	tests := []struct {
		name string
		resp openai.ChatCompletion
	}{
		{"finish reason", completion("partial", "content_filter")},
		{"empty content", completion("   ", "stop")},
		{"refusal", openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{
			{FinishReason: "stop", Message: openai.ChatCompletionMessage{Refusal: "I can't help with that."}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(&mockChatService{resp: tt.resp})
			_, err := client.Generate(context.Background(), Request{})
			if !errors.Is(err, ErrContentFiltered) {
				t.Errorf("expected ErrContentFiltered, got %v", err)
			}
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	client := newTestClient(&mockChatService{resp: completion("late", "stop"), delay: time.Second})
	client.timeout = 20 * time.Millisecond

	_, err := client.Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestGenerate_NilClient(t *testing.T) {
	var client *Client
	if _, err := client.Generate(context.Background(), Request{}); !errors.Is(err, ErrClientNotConfigured) {
		t.Errorf("expected ErrClientNotConfigured, got %v", err)
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if !errors.Is(err, ErrClientNotConfigured) {
		t.Errorf("expected ErrClientNotConfigured when API key not provided, got %v", err)
	}
}

func TestNewClient_WithKey(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"), WithModel("gpt-4o"), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli == nil {
		t.Fatal("expected client instance, got nil")
	}
	if cli.model != "gpt-4o" || cli.timeout != 5*time.Second {
		t.Errorf("options not applied: model=%s timeout=%v", cli.model, cli.timeout)
	}
}
