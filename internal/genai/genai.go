// Package genai provides text generation for the workflow stages using the OpenAI API.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default generation settings, used when a request leaves them unset.
const (
	DefaultModel       = openai.ChatModelGPT4oMini
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
	DefaultTimeout     = 30 * time.Second
)

// Errors returned by Generate.
var (
	ErrNoChoicesReturned   = errors.New("no choices returned")
	ErrContentFiltered     = errors.New("response withheld by content filter")
	ErrClientNotConfigured = errors.New("genai client not configured")
)

// Conversation roles accepted in Request.History.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged history entry.
type Turn struct {
	Role    string
	Content string
}

// Request describes one generation call.
type Request struct {
	SystemPrompt string
	History      []Turn
	ExtraContext string  // stage instruction, sent as a second system message
	Temperature  float64 // 0 uses the client default
	MaxTokens    int     // 0 uses the client default
	// NoRecords keeps the conversation out of debug logs; only call metadata is written.
	NoRecords bool
}

// ClientInterface is the text-generation collaborator consumed by the workflow.
type ClientInterface interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// chatService defines minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// completionsService adapts the SDK completion service to chatService.
type completionsService struct {
	svc *openai.ChatCompletionService
}

func (s completionsService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := s.svc.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	DebugMode   bool
	StateDir    string
}

// Option defines a function that configures Opts.
type Option func(*Opts)

// WithAPIKey overrides the OPENAI_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTemperature sets the default temperature.
func WithTemperature(temp float64) Option {
	return func(o *Opts) { o.Temperature = temp }
}

// WithMaxTokens sets the default maximum output tokens.
func WithMaxTokens(n int) Option {
	return func(o *Opts) { o.MaxTokens = n }
}

// WithTimeout bounds each generation call. Expiry is reported as an error.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithDebugMode writes every request and response under StateDir/debug.
// Requests marked NoRecords are logged without prompts or replies.
func WithDebugMode(enabled bool) Option {
	return func(o *Opts) { o.DebugMode = enabled }
}

// WithStateDir sets the directory used for debug logs.
func WithStateDir(dir string) Option {
	return func(o *Opts) { o.StateDir = dir }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat        chatService
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	debugMode   bool
	stateDir    string
}

// NewClient initializes a GenAI client. The API key comes from WithAPIKey or OPENAI_API_KEY.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		slog.Error("GenAI client: API key not set")
		return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrClientNotConfigured)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	cli := openai.NewClient(reqOpts...)

	slog.Debug("GenAI client initialized", "model", cfg.Model, "timeout", cfg.Timeout, "debugMode", cfg.DebugMode)
	return &Client{
		chat:        completionsService{svc: &cli.Chat.Completions},
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		debugMode:   cfg.DebugMode,
		stateDir:    cfg.StateDir,
	}, nil
}

// Generate produces one reply for req.
// A provider safety refusal or empty content yields ErrContentFiltered.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c == nil || c.chat == nil {
		return "", ErrClientNotConfigured
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := c.buildParams(req)
	slog.Debug("GenAI.Generate: calling chat completion", "model", c.model, "messages", len(params.Messages))

	resp, err := c.chat.Create(ctx, params)
	c.logDebugCall("Generate", params, resp, err, req.NoRecords)
	if err != nil {
		slog.Warn("GenAI.Generate: chat completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("GenAI.Generate: no choices returned")
		return "", ErrNoChoicesReturned
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" || choice.Message.Refusal != "" {
		slog.Error("GenAI.Generate: response withheld by content filter", "finishReason", choice.FinishReason)
		return "", ErrContentFiltered
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		slog.Error("GenAI.Generate: empty content returned", "finishReason", choice.FinishReason)
		return "", ErrContentFiltered
	}
	return content, nil
}

func (c *Client) buildParams(req Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	if req.ExtraContext != "" {
		messages = append(messages, openai.SystemMessage(req.ExtraContext))
	}
	for _, turn := range req.History {
		switch turn.Role {
		case RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		}
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	return openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	}
}

// debugLogEntry is written to stateDir/debug for every call in debug mode.
type debugLogEntry struct {
	Timestamp string                          `json:"timestamp"`
	Method    string                          `json:"method"`
	Model     string                          `json:"model"`
	Params    *openai.ChatCompletionNewParams `json:"params,omitempty"`
	Response  *openai.ChatCompletion          `json:"response,omitempty"`
	Error     string                          `json:"error,omitempty"`
	Redacted  bool                            `json:"redacted,omitempty"`
}

func (c *Client) logDebugCall(method string, params openai.ChatCompletionNewParams, resp openai.ChatCompletion, callErr error, redact bool) {
	if !c.debugMode || c.stateDir == "" {
		return
	}

	debugDir := filepath.Join(c.stateDir, "debug")
	if err := os.MkdirAll(debugDir, 0o755); err != nil {
		slog.Warn("GenAI.logDebugCall: failed to create debug directory", "dir", debugDir, "error", err)
		return
	}

	now := time.Now()
	entry := debugLogEntry{
		Timestamp: now.Format(time.RFC3339Nano),
		Method:    method,
		Model:     c.model,
		Redacted:  redact,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if !redact {
		entry.Params = &params
		if callErr == nil {
			entry.Response = &resp
		}
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		slog.Warn("GenAI.logDebugCall: failed to marshal debug entry", "error", err)
		return
	}

	name := fmt.Sprintf("%s_%s.json", now.Format("20060102T150405.000000000"), method)
	if err := os.WriteFile(filepath.Join(debugDir, name), data, 0o644); err != nil {
		slog.Warn("GenAI.logDebugCall: failed to write debug file", "error", err)
	}
}
