package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/KaramelBytes/datalicious/internal/prompt"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

// countingServer replies with status and body and counts the calls it saw.
func countingServer(t *testing.T, status int, body string, hdr http.Header) (*ipv4Server, *int32) {
	t.Helper()
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&calls, 1)
		for k, vals := range hdr {
			for _, v := range vals {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	return srv, &calls
}

func testEnvelope() *prompt.Envelope {
	return &prompt.Envelope{Kind: prompt.KindQuestion, System: "sys", User: "usr", MaxTokens: 42, Temperature: 0.5}
}

func newTestClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(Config{APIKey: "test", BaseURL: baseURL, Model: "test-model", HTTPTimeout: timeout})
}

func asGatewayError(t *testing.T, err error) *GatewayError {
	t.Helper()
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GatewayError, got %T: %v", err, err)
	}
	return ge
}

func TestGenerateExtractsChoicesContent(t *testing.T) {
	var got ChatRequest
	var auth string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "  three rows  "}}},
		})
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL, 2*time.Second).Generate(context.Background(), testEnvelope())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "three rows" {
		t.Fatalf("unexpected text: %q", text)
	}
	if auth != "Bearer test" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	if got.Model != "test-model" || got.MaxTokens != 42 || got.Temperature != 0.5 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "usr" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestGenerateAlternateShapes(t *testing.T) {
	cases := []struct{ body, want string }{
		{`{"output":"hello"}`, "hello"},
		{`{"text":"plain"}`, "plain"},
		{`{"message":{"content":"nested"}}`, "nested"},
		{`{"choices":[{"message":{"content":""}}],"output":"second"}`, "second"},
	}
	for _, c := range cases {
		body, want := c.body, c.want
		srv, _ := countingServer(t, http.StatusOK, body, nil)
		text, err := newTestClient(srv.URL, 2*time.Second).Generate(context.Background(), testEnvelope())
		srv.Close()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", body, err)
		}
		if text != want {
			t.Fatalf("%s: got %q want %q", body, text, want)
		}
	}
}

func TestGenerateUnrecognizedShape(t *testing.T) {
	for _, body := range []string{`{"foo":"bar"}`, `not json`, `{"output":42}`} {
		srv, _ := countingServer(t, http.StatusOK, body, nil)
		_, err := newTestClient(srv.URL, 2*time.Second).Generate(context.Background(), testEnvelope())
		srv.Close()
		if ge := asGatewayError(t, err); ge.Kind != KindUnrecognizedShape {
			t.Fatalf("%s: kind = %s", body, ge.Kind)
		}
	}
}

func TestGenerateNonSuccessIsNotRetried(t *testing.T) {
	hdr := http.Header{"X-Request-Id": {"req_test_123"}}
	srv, calls := countingServer(t, http.StatusInternalServerError, `{"error":{"message":"boom"}}`, hdr)
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2*time.Second).Generate(context.Background(), testEnvelope())
	ge := asGatewayError(t, err)
	if ge.Kind != KindNonSuccessStatus || ge.StatusCode != 500 {
		t.Fatalf("unexpected error: %+v", ge)
	}
	if ge.Message != "boom" || ge.RequestID != "req_test_123" {
		t.Fatalf("provider details not captured: %+v", ge)
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Fatalf("expected exactly one attempt, got %d", n)
	}
	if !errors.Is(err, &GatewayError{Kind: KindNonSuccessStatus, StatusCode: 500}) {
		t.Fatalf("errors.Is should match kind and status")
	}
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(srv.URL, 100*time.Millisecond).Generate(context.Background(), testEnvelope())
	if ge := asGatewayError(t, err); ge.Kind != KindTimeout {
		t.Fatalf("kind = %s (%v)", ge.Kind, err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout was not honored")
	}
}

func TestGenerateNetworkError(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot open local listener (%v)", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	_, err = newTestClient("http://"+addr, time.Second).Generate(context.Background(), testEnvelope())
	if ge := asGatewayError(t, err); ge.Kind != KindNetwork {
		t.Fatalf("kind = %s (%v)", ge.Kind, err)
	}
}

func TestMissingCredentialNeverCallsNetwork(t *testing.T) {
	srv, calls := countingServer(t, http.StatusOK, `{"output":"x"}`, nil)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "m"})
	if ge := asGatewayError(t, c.Ready()); ge.Kind != KindMissingCredential {
		t.Fatalf("kind = %s", ge.Kind)
	}
	_, err := c.Generate(context.Background(), testEnvelope())
	if ge := asGatewayError(t, err); ge.Kind != KindMissingCredential {
		t.Fatalf("kind = %s", ge.Kind)
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Fatalf("expected no network calls, got %d", n)
	}
}

func TestUnconfiguredGatewayWrapsErrNotConfigured(t *testing.T) {
	ready := NewClient(Config{APIKey: "k"}).Ready()
	if ge := asGatewayError(t, ready); ge.Kind != KindMissingCredential {
		t.Fatalf("kind = %s", ge.Kind)
	}
	if !errors.Is(ready, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", ready)
	}
	if err := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "m"}).Ready(); errors.Is(err, ErrNotConfigured) {
		t.Fatalf("a missing key is not a configuration error: %v", err)
	}
}

func TestProviderPresets(t *testing.T) {
	for _, name := range []string{"openrouter", "openai", "together", "ollama"} {
		p, ok := LookupProvider(name)
		if !ok || p.BaseURL == "" || p.DefaultModel == "" {
			t.Fatalf("missing preset %s: %+v", name, p)
		}
	}
	if _, ok := LookupProvider("local"); !ok {
		t.Fatalf("expected local alias for ollama")
	}
	if _, err := NewClientForProvider("nope", Config{}); err == nil {
		t.Fatalf("expected unknown provider error")
	}
	c, err := NewClientForProvider("ollama", Config{})
	if err != nil {
		t.Fatalf("NewClientForProvider: %v", err)
	}
	if c.Ready() != nil {
		t.Fatalf("ollama should not require a key")
	}
	if c.Model() != "llama3.1:8b-instruct" {
		t.Fatalf("unexpected default model %q", c.Model())
	}
}

func TestProviderHeadersAreSent(t *testing.T) {
	var title string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("X-Title")
		_, _ = w.Write([]byte(`{"output":"ok"}`))
	}))
	defer srv.Close()

	c, err := NewClientForProvider("openrouter", Config{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClientForProvider: %v", err)
	}
	if _, err := c.Generate(context.Background(), testEnvelope()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if title != "Datalicious" {
		t.Fatalf("expected preset header, got %q", title)
	}
}
