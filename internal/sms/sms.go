// Package sms wraps the Twilio Programmable Messaging API used to reply to
// text-message conversations.
package sms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MaxSegmentLength is the longest body Twilio accepts in a single message.
const MaxSegmentLength = 1600

// SessionIDPrefix prefixes session ids derived from phone numbers.
const SessionIDPrefix = "sms_"

// Sender delivers text replies to a phone number.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Opts holds configuration options for the Twilio client.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Option defines a configuration option for the Twilio client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token, also used to verify webhook signatures.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the sending phone number in E.164 form.
func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

// Client sends SMS through the Twilio REST API.
type Client struct {
	client     *twilio.RestClient
	fromNumber string
	authToken  string
}

// NewClient validates the options and builds a Twilio REST client.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("sms.NewClient: config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(
		twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		},
	)
	return &Client{client: client, fromNumber: cfg.FromNumber, authToken: cfg.AuthToken}, nil
}

// SendMessage sends body to the given number, splitting it into segments
// Twilio will accept.
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	for i, segment := range SplitMessage(body, MaxSegmentLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		params := &twilioApi.CreateMessageParams{}
		params.SetTo(to)
		params.SetFrom(c.fromNumber)
		params.SetBody(segment)

		resp, err := c.client.Api.CreateMessage(params)
		if err != nil {
			slog.Error("sms.Client.SendMessage: send failed", "to", to, "segment", i, "error", err)
			return fmt.Errorf("failed to send message to %s: %w", to, err)
		}
		if resp != nil && resp.Sid != nil {
			slog.Debug("sms.Client.SendMessage: sent", "to", to, "segment", i, "sid", *resp.Sid)
		}
	}
	return nil
}

// SignatureValidator returns a webhook validator bound to the client's auth token.
func (c *Client) SignatureValidator() *SignatureValidator {
	return NewSignatureValidator(c.authToken)
}

// SplitMessage breaks body into chunks of at most limit runes, preferring to
// cut at paragraph breaks, then line breaks, then spaces.
func SplitMessage(body string, limit int) []string {
	runes := []rune(body)
	if limit <= 0 || len(runes) <= limit {
		return []string{body}
	}
	var out []string
	for len(runes) > limit {
		window := string(runes[:limit])
		cut := -1
		for _, sep := range []string{"\n\n", "\n", " "} {
			if idx := strings.LastIndex(window, sep); idx > 0 {
				cut = len([]rune(window[:idx]))
				break
			}
		}
		if cut <= 0 {
			cut = limit
		}
		chunk := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
		if chunk != "" {
			out = append(out, chunk)
		}
		runes = []rune(strings.TrimLeftFunc(string(runes[cut:]), unicode.IsSpace))
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// SessionIDForPhone derives a stable session id from a phone number so that
// every text from the same number continues one conversation.
func SessionIDForPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return SessionIDPrefix + b.String()
}

// SignatureValidator checks the X-Twilio-Signature header of webhook requests.
type SignatureValidator struct {
	validator twilioclient.RequestValidator
}

// NewSignatureValidator creates a validator for the account's auth token.
func NewSignatureValidator(authToken string) *SignatureValidator {
	return &SignatureValidator{validator: twilioclient.NewRequestValidator(authToken)}
}

// Validate reports whether signature matches the full request URL and form parameters.
func (v *SignatureValidator) Validate(url string, params map[string]string, signature string) bool {
	return v.validator.Validate(url, params, signature)
}

// MockClient records messages instead of sending them.
type MockClient struct {
	mu           sync.Mutex
	SentMessages []SentMessage
	Err          error
}

// SentMessage is one recorded send.
type SentMessage struct {
	To   string
	Body string
}

// NewMockClient returns an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{SentMessages: []SentMessage{}}
}

// SendMessage records the message, or returns Err when set.
func (m *MockClient) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body})
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockClient) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.SentMessages...)
}
