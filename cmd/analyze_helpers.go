package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/datamind-studio/datamind/internal/ai"
	"github.com/datamind-studio/datamind/internal/analysis"
	cfgpkg "github.com/datamind-studio/datamind/internal/config"
	"github.com/datamind-studio/datamind/internal/render"
	"github.com/datamind-studio/datamind/internal/utils"
)

// newRuntime builds the Gemini transport. Tests swap it for a fake.
var newRuntime = func(c *cfgpkg.Global) ai.Runtime {
	return ai.NewClientWithBaseURL(c.Credential, c.HTTPTimeout(), c.BaseURL)
}

func recommendModel(tier string) (string, error) {
	name, ok := ai.RecommendModel(tier)
	if !ok {
		return "", fmt.Errorf("unknown --model-preset: %s (use %s)", tier, strings.Join(ai.Tiers(), "|"))
	}
	return name, nil
}

// parseModelIDs resolves ids or display names. No values means the defaults.
func parseModelIDs(vals []string) ([]analysis.ModelType, error) {
	if len(vals) == 0 {
		return analysis.DefaultModels(), nil
	}
	var out []analysis.ModelType
	for _, v := range vals {
		m, ok := analysis.LookupModel(v)
		if !ok {
			return nil, fmt.Errorf("unknown model %q (see 'datamind catalog')", v)
		}
		if !containsValue(out, m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// parseMetricIDs resolves ids or display names. No values means the defaults.
func parseMetricIDs(vals []string) ([]analysis.MetricType, error) {
	if len(vals) == 0 {
		return analysis.DefaultMetrics(), nil
	}
	var out []analysis.MetricType
	for _, v := range vals {
		m, ok := analysis.LookupMetric(v)
		if !ok {
			return nil, fmt.Errorf("unknown metric %q (see 'datamind catalog')", v)
		}
		if !containsValue(out, m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func containsValue[T comparable](s []T, v T) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// explainRunError adds an actionable hint to common failure classes.
func explainRunError(err error, model string, promptTokens int) error {
	var (
		authErr  *ai.AuthError
		rlErr    *ai.RateLimitError
		nfErr    *ai.ModelNotFoundError
		brErr    *ai.BadRequestError
		qErr     *ai.QuotaExceededError
		sErr     *ai.ServerError
		parseErr *ai.ParseError
	)
	switch {
	case errors.Is(err, ai.ErrMissingCredential):
		return fmt.Errorf("API key not found: set GEMINI_API_KEY or add api_key in config (~/.datamind/config.yaml): %w", err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: check GEMINI_API_KEY or api_key in config: %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your Google AI account: %w", err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by Gemini, please retry: %w", err)
	case errors.As(err, &nfErr):
		return fmt.Errorf("model not found (%s). Verify the model name or inspect 'datamind models show': %w", model, err)
	case errors.As(err, &brErr):
		if promptTokens > 50000 {
			return fmt.Errorf("request invalid: prompt is very large (%d tokens). Try a smaller file or lower max_data_chars: %w", promptTokens, err)
		}
		return fmt.Errorf("request invalid: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("Gemini appears unavailable (server error). Please retry later: %w", err)
	case errors.As(err, &parseErr):
		return fmt.Errorf("the model returned an unexpected response, run the analysis again: %w", err)
	default:
		return fmt.Errorf("%s: %w", ai.UserMessage(err), err)
	}
}

type outputOptions struct {
	JSON         bool
	Quiet        bool
	ShowCode     bool
	FileName     string
	Model        string
	PromptTokens int
	OutputPath   string
	ChartPath    string
	CodePath     string
	Writer       io.Writer
}

func writeAnalysisOutput(res *analysis.AnalysisResult, opts outputOptions) error {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	envelope := map[string]any{
		"schema_version": render.SchemaVersion,
		"file":           opts.FileName,
		"model":          opts.Model,
		"prompt_tokens":  opts.PromptTokens,
		"result":         res,
	}

	if opts.JSON {
		b, err := utils.PrettyJSON(envelope)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
	} else {
		if !opts.Quiet {
			fmt.Fprintln(w, "\n=== Analysis ===")
		}
		if err := render.WriteText(w, render.NewDashboard(res), render.TextOptions{
			IncludeCode:  opts.ShowCode,
			IncludeChart: opts.ChartPath == "",
		}); err != nil {
			return err
		}
	}

	saved := func(kind, path string) {
		if !opts.Quiet {
			fmt.Fprintf(w, "💾 Saved %s to %s\n", kind, path)
		}
	}
	if opts.OutputPath != "" {
		b, err := utils.PrettyJSON(envelope)
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(opts.OutputPath, b); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		saved("result", opts.OutputPath)
	}
	if opts.ChartPath != "" {
		if err := writeChartFile(opts.ChartPath, res.ChartData); err != nil {
			return err
		}
		saved("chart", opts.ChartPath)
	}
	if opts.CodePath != "" {
		if err := utils.SafeWriteFile(opts.CodePath, []byte(res.Code)); err != nil {
			return fmt.Errorf("write code: %w", err)
		}
		saved("script", opts.CodePath)
	}
	return nil
}

func writeChartFile(path string, points []analysis.ChartDataPoint) error {
	var sb strings.Builder
	if err := render.RenderChart(&sb, points, render.ChartOptions{}); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if err := utils.SafeWriteFile(path, []byte(sb.String())); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
