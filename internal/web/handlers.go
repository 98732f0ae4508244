package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/ingest"
	"github.com/datamind-studio/datamind/internal/render"
)

// choice is one checkbox in the studio form.
type choice struct {
	ID      string
	Label   string
	Hint    string
	Checked bool
}

// studioPage is the page-specific data for the studio template.
type studioPage struct {
	ModelName    string
	Status       render.Status
	Running      bool
	FileName     string
	DataChars    int
	Spreadsheet  bool
	Goal         string
	MinGoalChars int
	MaxUploadMB  int64
	Models       []choice
	Metrics      []choice
	Dashboard    *render.Dashboard
	CodeNote     string
}

func (s *Server) studioData(r *http.Request, snap Snapshot) *TemplateData {
	page := studioPage{
		ModelName:    s.opts.ModelName,
		Status:       snap.Status,
		Running:      snap.Running,
		FileName:     snap.FileName,
		DataChars:    snap.DataChars,
		Spreadsheet:  ingest.IsSpreadsheet(snap.FileName),
		Goal:         snap.Goal,
		MinGoalChars: analysis.MinGoalChars,
		MaxUploadMB:  s.opts.MaxUploadBytes >> 20,
	}
	for _, m := range analysis.Models() {
		page.Models = append(page.Models, choice{
			ID: m.ID, Label: string(m.Value), Hint: m.Hint, Checked: containsValue(snap.Models, m.Value),
		})
	}
	for _, m := range analysis.ExposedMetrics() {
		page.Metrics = append(page.Metrics, choice{
			ID: m.ID, Label: string(m.Value), Checked: containsValue(snap.Metrics, m.Value),
		})
	}
	if snap.Result != nil {
		page.Dashboard = render.NewDashboard(snap.Result)
		page.CodeNote = codeNote(snap)
	}
	return &TemplateData{
		Title:     "Studio",
		CSRFField: csrf.TemplateField(r),
		Error:     snap.Error,
		Data:      page,
	}
}

func codeNote(snap Snapshot) string {
	file := snap.FileName
	if file == "" {
		file = analysis.DefaultFileName
	}
	names := make([]string, len(snap.Metrics))
	for i, m := range snap.Metrics {
		names[i] = string(m)
	}
	if len(names) == 0 {
		return fmt.Sprintf("Generated for %s.", file)
	}
	return fmt.Sprintf("Generated for %s, computes %s.", file, strings.Join(names, ", "))
}

func (s *Server) getStudio(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFromContext(r.Context())
	s.studio.ExecuteHTTP(w, r, s.studioData(r, ws.Snapshot()))
}

// renderFailure shows the studio with an error flash. The workspace keeps
// whatever result it had.
func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, ws *Workspace, err error) {
	status, code, msg := classifyError(err)
	s.log.Warn().Err(err).
		Str("request_id", requestIDFromContext(r.Context())).
		Str("code", code).
		Msg("studio request failed")
	data := s.studioData(r, ws.Snapshot())
	data.Error = msg
	s.studio.ExecuteHTTPWithStatus(w, r, status, data)
}

func (s *Server) postUpload(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFromContext(r.Context())
	name, data, ok, err := readUpload(r)
	if err == nil && !ok {
		err = ErrNoFile
	}
	if err != nil {
		s.renderFailure(w, r, ws, err)
		return
	}
	ws.SetFile(name, data)
	s.log.Info().Str("file", name).Int("chars", len(data)).Msg("file ingested")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) postAnalyze(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		s.renderFailure(w, r, ws, err)
		return
	}
	models, metrics := parseSelections(r.PostForm["models"], r.PostForm["metrics"])
	ws.SetSelections(r.PostFormValue("goal"), models, metrics)

	req := ws.Request()
	if err := req.Validate(); err != nil {
		_, _, msg := classifyError(err)
		ws.Fail(msg)
		s.renderFailure(w, r, ws, err)
		return
	}
	if err := ws.BeginRun(); err != nil {
		s.renderFailure(w, r, ws, err)
		return
	}

	res, err := s.execute(r.Context(), req)
	if err != nil {
		_, _, msg := classifyError(err)
		ws.FinishRun(nil, msg)
		s.renderFailure(w, r, ws, err)
		return
	}
	ws.FinishRun(res, "")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) postReset(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFromContext(r.Context())
	if err := ws.Reset(); err != nil {
		s.renderFailure(w, r, ws, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	snap := workspaceFromContext(r.Context()).Snapshot()
	if snap.Result == nil {
		http.Error(w, "no analysis result yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderChart(w, snap.Result.ChartData, render.ChartOptions{}); err != nil {
		s.log.Error().Err(err).Msg("render chart")
	}
}

func (s *Server) getCode(w http.ResponseWriter, r *http.Request) {
	snap := workspaceFromContext(r.Context()).Snapshot()
	if snap.Result == nil {
		http.Error(w, "no analysis result yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.CodeFileName))
	_, _ = w.Write([]byte(snap.Result.Code))
}
