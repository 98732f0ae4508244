package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/goccy/go-json"
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

const testModel = "gemini-test"

func okBody(parts ...string) map[string]any {
	ps := make([]map[string]any, len(parts))
	for i, p := range parts {
		ps[i] = map[string]any{"text": p}
	}
	return map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": ps},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15},
		"modelVersion":  testModel,
	}
}

func TestGenerateSendsGeminiPayload(t *testing.T) {
	var got map[string]any
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/models/"+testModel+":generateContent" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-goog-api-key") != "k-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_ = json.NewEncoder(w).Encode(okBody(`{"a":`, `1}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(StaticCredential("k-123"), 2*time.Second, srv.URL)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:             testModel,
		SystemInstruction: "be precise",
		Prompt:            "hello",
		ResponseMIMEType:  "application/json",
		ResponseSchema:    map[string]any{"type": "OBJECT"},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Text != `{"a":1}` {
		t.Fatalf("parts not concatenated: %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 15 || resp.FinishReason != "STOP" {
		t.Fatalf("unexpected metadata: %+v", resp)
	}
	si, _ := got["systemInstruction"].(map[string]any)
	if si == nil || !strings.Contains(fmt.Sprint(si["parts"]), "be precise") {
		t.Fatalf("system instruction not sent: %v", got)
	}
	gc, _ := got["generationConfig"].(map[string]any)
	if gc == nil || gc["responseMimeType"] != "application/json" || gc["responseSchema"] == nil {
		t.Fatalf("generation config not sent: %v", got)
	}
	contents, _ := got["contents"].([]any)
	if len(contents) != 1 || !strings.Contains(fmt.Sprint(contents[0]), "hello") {
		t.Fatalf("prompt not sent: %v", got)
	}
}

func TestGenerateMissingCredentialMakesNoCall(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(okBody("{}"))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(StaticCredential("  "), time.Second, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: testModel, Prompt: "x"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("expected no network call, got %d", n)
	}
}

func TestGenerateResolvesCredentialPerCall(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(okBody("{}"))
	}))
	defer srv.Close()

	key := ""
	c := NewClientWithBaseURL(func() string { return key }, time.Second, srv.URL)
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: testModel}); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	key = "now-set"
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: testModel}); err != nil {
		t.Fatalf("expected success once key is set: %v", err)
	}
}

func TestGenerateDoesNotRetry(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 503, "message": "overloaded", "status": "UNAVAILABLE"}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(StaticCredential("k"), 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: testModel})
	var sErr *ServerError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if sErr.Code != "UNAVAILABLE" || sErr.Message != "overloaded" {
		t.Fatalf("error envelope not decoded: %+v", sErr.APIError)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one call, got %d", n)
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad req", "status": "INVALID_ARGUMENT"}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(StaticCredential("k"), 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: testModel})
	if err == nil {
		t.Fatalf("expected error")
	}
	var brErr *BadRequestError
	if !errors.As(err, &brErr) {
		t.Fatalf("expected BadRequestError, got %T", err)
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
}

func TestGenerateBlockedPrompt(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"promptFeedback": map[string]any{"blockReason": "SAFETY"}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(StaticCredential("k"), time.Second, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: testModel})
	var bErr *BlockedError
	if !errors.As(err, &bErr) || bErr.Reason != "SAFETY" {
		t.Fatalf("expected BlockedError(SAFETY), got %v", err)
	}
}

func TestClassifyAPIError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		msg    string
		code   string
		header http.Header
		check  func(error) bool
	}{
		{"unauthorized", 401, "nope", "", nil, func(e error) bool { var x *AuthError; return errors.As(e, &x) }},
		{"bad key", 400, "API key not valid. Please pass a valid API key.", "INVALID_ARGUMENT", nil, func(e error) bool { var x *AuthError; return errors.As(e, &x) }},
		{"quota", 429, "You exceeded your current quota", "RESOURCE_EXHAUSTED", nil, func(e error) bool { var x *QuotaExceededError; return errors.As(e, &x) }},
		{"rate", 429, "slow down", "", http.Header{"Retry-After": {"7"}}, func(e error) bool {
			var x *RateLimitError
			return errors.As(e, &x) && x.RetryAfter == 7*time.Second
		}},
		{"model", 404, "models/gemini-x is not found", "NOT_FOUND", nil, func(e error) bool { var x *ModelNotFoundError; return errors.As(e, &x) }},
		{"bad request", 400, "invalid schema", "INVALID_ARGUMENT", nil, func(e error) bool { var x *BadRequestError; return errors.As(e, &x) }},
		{"server", 500, "boom", "INTERNAL", nil, func(e error) bool { var x *ServerError; return errors.As(e, &x) }},
		{"other", 418, "teapot", "", nil, func(e error) bool { var x *APIError; return errors.As(e, &x) }},
	}
	for _, c := range cases {
		h := c.header
		if h == nil {
			h = http.Header{}
		}
		err := classifyAPIError(&APIError{StatusCode: c.status, Message: c.msg, Code: c.code}, &http.Response{Header: h})
		if !c.check(err) {
			t.Errorf("%s: unexpected classification %T (%v)", c.name, err, err)
		}
	}
}
