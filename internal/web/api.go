package web

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/datamind-studio/datamind/internal/analysis"
)

type apiError struct {
	Status    string `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"status":  "success",
		"message": message,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message, requestID string) {
	writeJSON(w, statusCode, apiError{
		Status:    "error",
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

func (s *Server) apiSchema(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"version": analysis.SchemaVersion,
		"schema":  analysis.ResponseSchema(),
	})
}

func (s *Server) apiCatalog(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"models":          analysis.Models(),
		"metrics":         analysis.ExposedMetrics(),
		"all_metrics":     analysis.Metrics(),
		"default_models":  analysis.DefaultModels(),
		"default_metrics": analysis.DefaultMetrics(),
		"default_goal":    analysis.DefaultGoal,
		"min_goal_chars":  analysis.MinGoalChars,
		"model":           s.opts.ModelName,
	})
}

// apiAnalyze is the stateless form of a studio run: optional multipart
// "file", plus "goal", "models", and "metrics" fields. Omitted selections
// fall back to the studio defaults.
func (s *Server) apiAnalyze(w http.ResponseWriter, r *http.Request) {
	reqID := requestIDFromContext(r.Context())
	fail := func(err error) {
		status, code, msg := classifyError(err)
		s.log.Warn().Err(err).Str("request_id", reqID).Str("code", code).Msg("api analyze failed")
		writeError(w, status, code, msg, reqID)
	}

	name, data, _, err := readUpload(r)
	if err != nil {
		fail(err)
		return
	}
	if err := r.ParseForm(); err != nil {
		fail(err)
		return
	}
	models, metrics := parseSelections(r.Form["models"], r.Form["metrics"])
	if _, set := r.Form["models"]; !set {
		models = analysis.DefaultModels()
	}
	if _, set := r.Form["metrics"]; !set {
		metrics = analysis.DefaultMetrics()
	}

	res, err := s.execute(r.Context(), analysis.Request{
		DataContext: data,
		FileName:    name,
		Goal:        r.FormValue("goal"),
		Models:      models,
		Metrics:     metrics,
	})
	if err != nil {
		fail(err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
