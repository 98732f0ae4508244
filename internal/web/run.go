package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/datamind-studio/datamind/internal/ai"
	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/ingest"
)

var (
	// ErrRateLimited means the server-wide run budget is spent.
	ErrRateLimited = errors.New("too many analyses, wait a moment and try again")
	// ErrNoFile means an upload request carried no file.
	ErrNoFile = errors.New("choose a file to upload")
)

// execute runs one analysis. Preconditions are checked before anything
// leaves the process, and the outbound call ignores client disconnects.
func (s *Server) execute(ctx context.Context, req analysis.Request) (*analysis.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}
	built := s.builder.Build(req)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.AnalysisTimeout)
	defer cancel()
	s.log.Info().
		Str("request_id", requestIDFromContext(ctx)).
		Str("file", built.FileName).
		Bool("truncated", built.Truncated).
		Int("prompt_tokens", built.PromptTokens).
		Msg("analysis started")
	return s.runner.Analyze(ctx, built)
}

// readUpload ingests the multipart field "file". ok is false when the
// request carried no file or was not multipart at all.
func readUpload(r *http.Request) (name, data string, ok bool, err error) {
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("read upload: %w", err)
	}
	defer f.Close()
	return ingestPart(f, hdr)
}

func ingestPart(f multipart.File, hdr *multipart.FileHeader) (string, string, bool, error) {
	name := filepath.Base(strings.TrimSpace(hdr.Filename))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return "", "", false, fmt.Errorf("read upload: %w", err)
	}
	data, err := ingest.Ingest(name, content)
	if err != nil {
		return "", "", false, err
	}
	return name, data, true, nil
}

// parseSelections maps form values to catalog entries. Unknown values are
// ignored; duplicates are kept once.
func parseSelections(modelVals, metricVals []string) ([]analysis.ModelType, []analysis.MetricType) {
	var models []analysis.ModelType
	for _, v := range modelVals {
		if m, ok := analysis.LookupModel(v); ok && !containsValue(models, m) {
			models = append(models, m)
		}
	}
	var metrics []analysis.MetricType
	for _, v := range metricVals {
		if m, ok := analysis.LookupMetric(v); ok && !containsValue(metrics, m) {
			metrics = append(metrics, m)
		}
	}
	return models, metrics
}

func containsValue[T comparable](s []T, v T) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// classifyError maps an error to an HTTP status, a stable code, and a
// message safe to show users.
func classifyError(err error) (int, string, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE",
			fmt.Sprintf("The file is larger than the %d MB limit.", tooLarge.Limit>>20)
	case errors.Is(err, ingest.ErrCorrupt):
		return http.StatusUnprocessableEntity, "UNREADABLE_FILE",
			"Could not read the file. Make sure it is a valid spreadsheet or text file."
	case errors.Is(err, ErrNoFile):
		return http.StatusBadRequest, "NO_FILE", "Choose a file to upload."
	case errors.Is(err, analysis.ErrInsufficientInput):
		return http.StatusBadRequest, "INSUFFICIENT_INPUT", ai.UserMessage(err)
	case errors.Is(err, ErrRunInFlight):
		return http.StatusConflict, "RUN_IN_FLIGHT", "An analysis is already running. Wait for it to finish."
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "Too many analyses right now. Wait a moment and try again."
	case errors.Is(err, ai.ErrMissingCredential):
		return http.StatusServiceUnavailable, "MISSING_CREDENTIAL", ai.UserMessage(err)
	default:
		return http.StatusBadGateway, "ANALYSIS_FAILED", "The analysis failed: " + ai.UserMessage(err)
	}
}
