package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/logging"
)

// Analyzer turns built prompts into an AnalysisResult with one model call.
// There is no retry and no cache.
type Analyzer struct {
	runtime Runtime
	model   string
	logger  zerolog.Logger
}

// NewAnalyzer wraps a runtime for the given model id.
func NewAnalyzer(rt Runtime, model string) *Analyzer {
	return &Analyzer{
		runtime: rt,
		model:   model,
		logger:  logging.Component("analysis_client"),
	}
}

// Model returns the model id used for every call.
func (a *Analyzer) Model() string { return a.model }

// Analyze sends b and decodes the structured reply. Failures are logged
// here and returned unchanged in kind; UserMessage renders them for people.
func (a *Analyzer) Analyze(ctx context.Context, b analysis.Built) (*analysis.AnalysisResult, error) {
	start := time.Now()
	log := a.logger.With().
		Str("model", a.model).
		Str("file", b.FileName).
		Int("prompt_tokens_est", b.PromptTokens).
		Bool("truncated", b.Truncated).
		Logger()
	log.Debug().Msg("sending analysis request")

	resp, err := a.runtime.Generate(ctx, GenerateRequest{
		Model:             a.model,
		SystemInstruction: b.Instruction,
		Prompt:            b.Prompt,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    b.Schema,
	})
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("analysis request failed")
		return nil, fmt.Errorf("generate analysis: %w", err)
	}
	res, err := DecodeResult(resp.Text)
	if err != nil {
		log.Error().Err(err).Str("request_id", resp.RequestID).Str("finish_reason", resp.FinishReason).Msg("analysis response rejected")
		return nil, fmt.Errorf("generate analysis: %w", err)
	}
	log.Info().
		Str("request_id", resp.RequestID).
		Int("total_tokens", resp.Usage.TotalTokens).
		Int("predictions", len(res.Predictions)).
		Int("chart_points", len(res.ChartData)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")
	return res, nil
}

var requiredFields = []string{"pythonCode", "metrics", "predictions", "chartData", "recommendations"}

// DecodeResult parses model text into an AnalysisResult, rejecting empty
// text, invalid JSON, missing required fields, and type mismatches.
func DecodeResult(text string) (*analysis.AnalysisResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		return nil, &ParseError{Excerpt: excerpt(text), Err: err}
	}
	var missing []string
	for _, k := range requiredFields {
		if _, ok := top[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{Missing: missing, Excerpt: excerpt(text)}
	}
	var res analysis.AnalysisResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return nil, &ParseError{Excerpt: excerpt(text), Err: err}
	}
	return &res, nil
}

func excerpt(s string) string {
	const n = 200
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
