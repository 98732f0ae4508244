package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultBaseURL is the public Gemini REST endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// CredentialSource resolves the API key at call time.
type CredentialSource func() string

// StaticCredential returns a CredentialSource for a fixed key.
func StaticCredential(key string) CredentialSource {
	return func() string { return key }
}

// Client talks to the Gemini generateContent endpoint. It makes exactly one
// HTTP request per Generate call.
type Client struct {
	httpClient *http.Client
	credential CredentialSource
	baseURL    string
}

// NewClient returns a client for the public endpoint.
func NewClient(cred CredentialSource, httpTimeout time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 180 * time.Second
	}
	if cred == nil {
		cred = StaticCredential("")
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		credential: cred,
		baseURL:    DefaultBaseURL,
	}
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(cred CredentialSource, httpTimeout time.Duration, baseURL string) *Client {
	c := NewClient(cred, httpTimeout)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

func (c *Client) ValidateModel(model string) error {
	if strings.TrimSpace(model) == "" {
		return errors.New("model cannot be empty")
	}
	return nil
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
	ResponseSchema   any    `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// Generate performs one generateContent call. A missing credential fails
// before anything is sent.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	apiKey := strings.TrimSpace(c.credential())
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	if err := c.ValidateModel(req.Model); err != nil {
		return nil, err
	}
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}
	if req.ResponseMIMEType != "" || req.ResponseSchema != nil {
		body.GenerationConfig = &geminiGenerationConfig{
			ResponseMIMEType: req.ResponseMIMEType,
			ResponseSchema:   req.ResponseSchema,
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/models/" + url.PathEscape(req.Model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyAPIError(decodeAPIError(resp), resp)
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return nil, &BlockedError{Reason: out.PromptFeedback.BlockReason}
		}
		return nil, ErrEmptyResponse
	}
	cand := out.Candidates[0]
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	return &GenerateResponse{
		Text:         sb.String(),
		FinishReason: cand.FinishReason,
		ModelVersion: out.ModelVersion,
		Usage: Usage{
			PromptTokens:     out.UsageMetadata.PromptTokenCount,
			CompletionTokens: out.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      out.UsageMetadata.TotalTokenCount,
		},
		RequestID: extractRequestID(resp),
	}, nil
}

// decodeAPIError reads a Google-style error envelope:
// {"error":{"code":400,"message":"...","status":"INVALID_ARGUMENT"}}.
func decodeAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: extractRequestID(resp)}
	src := raw
	if v, ok := raw["error"].(map[string]any); ok {
		src = v
	}
	if msg, ok := src["message"].(string); ok {
		apiErr.Message = msg
	}
	if status, ok := src["status"].(string); ok {
		apiErr.Code = status
	} else if code, ok := src["code"].(string); ok {
		apiErr.Code = code
	}
	if apiErr.Message == "" && len(raw) == 0 {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// parseRetryAfterSeconds interprets a Retry-After header as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// classifyAPIError maps generic APIError to typed errors for better UX.
func classifyAPIError(apiErr *APIError, resp *http.Response) error {
	sc := apiErr.StatusCode
	msg := apiErr.Message
	code := apiErr.Code
	switch {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden || code == "UNAUTHENTICATED" || code == "PERMISSION_DENIED":
		return &AuthError{APIError: apiErr}
	// Gemini reports a bad key as 400 INVALID_ARGUMENT
	case sc == http.StatusBadRequest && containsAnyFold(msg, "api key not valid", "api_key_invalid"):
		return &AuthError{APIError: apiErr}
	case containsAnyFold(msg, "quota", "billing"):
		return &QuotaExceededError{APIError: apiErr}
	case sc == http.StatusTooManyRequests || code == "RESOURCE_EXHAUSTED":
		var ra time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
				ra = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: ra}
	case sc == http.StatusNotFound:
		if containsAllFold(msg, "model") || containsAllFold(msg, "not", "found") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return apiErr
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

func containsAllFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if !containsFold(s, sub) {
			return false
		}
	}
	return true
}

func containsAnyFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if containsFold(s, sub) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	if s == "" || sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "X-Goog-Request-Id", "X-Cloud-Trace-Context"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}
