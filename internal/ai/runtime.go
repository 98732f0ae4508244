package ai

import "context"

// Runtime is the transport seam between the analyzer and a model backend.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest is a single structured-output call.
type GenerateRequest struct {
	Model             string
	SystemInstruction string
	Prompt            string
	ResponseMIMEType  string
	ResponseSchema    any
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateResponse carries the concatenated candidate text.
type GenerateResponse struct {
	Text         string
	FinishReason string
	ModelVersion string
	Usage        Usage
	RequestID    string
}

// RuntimeFunc adapts a function to the Runtime interface.
type RuntimeFunc func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

func (f RuntimeFunc) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	return f(ctx, req)
}
