package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/datamind-studio/datamind/internal/analysis"
)

var (
	// ErrMissingCredential is returned before any request is built when no
	// API key can be resolved.
	ErrMissingCredential = errors.New("API key not found in environment variables")
	// ErrEmptyResponse means the model answered with no text.
	ErrEmptyResponse = errors.New("no response from model")
)

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int            `json:"-"`
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
	Raw        map[string]any `json:"-"`
	RequestID  string         `json:"-"`
}

func (e *APIError) Error() string {
	s := fmt.Sprintf("api error: status=%d", e.StatusCode)
	if e.Code != "" {
		s += " code=" + e.Code
	}
	if e.RequestID != "" {
		s += " request_id=" + e.RequestID
	}
	if e.Message != "" {
		s += " message=" + e.Message
	}
	return s
}

// AuthError indicates authentication/authorization failures, including a
// rejected API key.
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.APIError.Error())
}

// RateLimitError indicates 429 responses and may include a Retry-After.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: wait about %ds: %s", int(e.RetryAfter.Seconds()), e.APIError.Error())
	}
	return fmt.Sprintf("rate limited: %s", e.APIError.Error())
}

// ModelNotFoundError indicates the requested model is not available.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

// BadRequestError indicates a 400 validation problem.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// QuotaExceededError indicates billing/quota problems.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.APIError.Error())
}

// ServerError indicates 5xx errors from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("provider error: %s", e.APIError.Error()) }

// BlockedError means the prompt was rejected by safety filters.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string { return fmt.Sprintf("prompt blocked: %s", e.Reason) }

// ParseError means the model text was not a valid analysis payload.
type ParseError struct {
	Missing []string
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("parse analysis: missing fields %v", e.Missing)
	}
	return fmt.Sprintf("parse analysis: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UserMessage maps any run failure to a sentence fit for the studio UI.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		authErr  *AuthError
		rlErr    *RateLimitError
		nfErr    *ModelNotFoundError
		brErr    *BadRequestError
		qErr     *QuotaExceededError
		sErr     *ServerError
		blockErr *BlockedError
		parseErr *ParseError
	)
	switch {
	case errors.Is(err, analysis.ErrInsufficientInput):
		return "Please upload a file or describe your problem in detail."
	case errors.Is(err, ErrMissingCredential):
		return "API key not found. Set GEMINI_API_KEY (or API_KEY) in the environment, or api_key in the config file."
	case errors.Is(err, context.DeadlineExceeded):
		return "The analysis took too long and was stopped. Try a smaller file or a narrower goal."
	case errors.As(err, &authErr):
		return "Authentication with the AI service failed. Check your API key."
	case errors.As(err, &qErr):
		return "Quota or billing issue with the AI service. Check your Google AI account."
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Sprintf("The AI service is rate limiting requests. Try again in about %ds.", int(rlErr.RetryAfter.Seconds()))
		}
		return "The AI service is rate limiting requests. Please try again shortly."
	case errors.As(err, &nfErr):
		return "The configured model was not found. Check the model name."
	case errors.As(err, &brErr):
		return "The AI service rejected the request. Try a smaller file or fewer selections."
	case errors.As(err, &sErr):
		return "The AI service is unavailable right now. Please retry later."
	case errors.As(err, &blockErr):
		return fmt.Sprintf("The AI service blocked this request (%s).", blockErr.Reason)
	case errors.As(err, &parseErr), errors.Is(err, ErrEmptyResponse):
		return "The AI service returned an unexpected response. Please run the analysis again."
	}
	return "Error generating the analysis. Check your API key or the server logs for details."
}
