package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/KaramelBytes/datalicious/internal/prompt"
)

// DefaultTimeout bounds one gateway call when the config does not set one.
const DefaultTimeout = 20 * time.Second

const maxResponseBytes = 4 << 20

// contentPaths are tried in order; the first non-empty string wins.
var contentPaths = []string{
	"choices.0.message.content",
	"output",
	"text",
	"message.content",
}

// Client talks to any OpenAI-compatible chat completions endpoint.
// It makes exactly one attempt per call.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	keyless    bool
	headers    map[string]string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// Config carries everything the client needs; no provider is assumed.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	HTTPTimeout time.Duration
	// Keyless allows calls without an API key (local runtimes such as Ollama).
	Keyless bool
	Headers map[string]string
}

// NewClient builds a gateway client. Zero timeout selects DefaultTimeout.
func NewClient(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hdrs := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		hdrs[k] = v
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		keyless:    cfg.Keyless,
		headers:    hdrs,
	}
}

// NewClientForProvider fills base URL, model and headers from a preset when
// the config leaves them empty.
func NewClientForProvider(name string, cfg Config) (*Client, error) {
	p, ok := LookupProvider(name)
	if !ok {
		return nil, &UnknownProviderError{Name: name}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = p.DefaultModel
	}
	if !p.RequiresKey {
		cfg.Keyless = true
	}
	merged := map[string]string{}
	for k, v := range p.Headers {
		merged[k] = v
	}
	for k, v := range cfg.Headers {
		merged[k] = v
	}
	cfg.Headers = merged
	return NewClient(cfg), nil
}

// Model returns the model the client sends.
func (c *Client) Model() string { return c.model }

// Ready reports a MissingCredential error when no key is configured. Callers
// use it to skip the network entirely.
func (c *Client) Ready() error {
	if c.apiKey == "" && !c.keyless {
		return &GatewayError{Kind: KindMissingCredential, Message: "no API key configured"}
	}
	if c.baseURL == "" || c.model == "" {
		return &GatewayError{Kind: KindMissingCredential, Message: "base URL and model must be set", Err: ErrNotConfigured}
	}
	return nil
}

// Generate sends the envelope once and returns the extracted text. Every
// non-nil error is a *GatewayError.
func (c *Client) Generate(ctx context.Context, env *prompt.Envelope) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	if env == nil {
		return "", &GatewayError{Kind: KindNetwork, Message: "nil envelope"}
	}
	payload, err := json.Marshal(ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: env.System},
			{Role: "user", Content: env.User},
		},
		MaxTokens:   env.MaxTokens,
		Temperature: env.Temperature,
	})
	if err != nil {
		return "", &GatewayError{Kind: KindNetwork, Message: "marshal request", Err: err}
	}
	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &GatewayError{Kind: KindNetwork, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classifyTransportErr(err)
	}
	defer resp.Body.Close()
	rid := extractRequestID(resp)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		ge := classifyTransportErr(err)
		ge.RequestID = rid
		return "", ge
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &GatewayError{
			Kind:       KindNonSuccessStatus,
			StatusCode: resp.StatusCode,
			Message:    providerMessage(body),
			RequestID:  rid,
		}
	}
	text, ok := extractContent(body)
	if !ok {
		return "", &GatewayError{Kind: KindUnrecognizedShape, RequestID: rid, Message: snippet(body)}
	}
	return text, nil
}

func extractContent(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	for _, path := range contentPaths {
		r := gjson.GetBytes(body, path)
		if r.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(r.String()); s != "" {
			return s, true
		}
	}
	return "", false
}

// providerMessage reads {"error":{"message"}} or {"message"} bodies.
func providerMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return snippet(body)
	}
	for _, path := range []string{"error.message", "error", "message", "detail"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func classifyTransportErr(err error) *GatewayError {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return &GatewayError{Kind: KindTimeout, Err: err}
	}
	return &GatewayError{Kind: KindNetwork, Err: err}
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	keys := []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"}
	for _, k := range keys {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}
