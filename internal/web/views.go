package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/datamind-studio/datamind/internal/render"
)

//go:embed templates
var templateFS embed.FS

// Template wraps a parsed template with helper methods for rendering.
type Template struct {
	tmpl *template.Template
}

// TemplateData is the standard data structure passed to all templates.
type TemplateData struct {
	// CSRF hidden input for forms
	CSRFField template.HTML

	// Flash messages
	Error   string
	Success string
	Warning string
	Info    string

	// Page-specific data
	Data interface{}

	Title       string
	CurrentPath string
	RequestID   string
}

// DefaultFuncMap returns the template functions available in all templates.
func DefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"upper":       strings.ToUpper,
		"lower":       strings.ToLower,
		"trim":        strings.TrimSpace,
		"truncate":    truncate,
		"join":        strings.Join,
		"add":         func(a, b int) int { return a + b },
		"statusClass": statusClass,
		"statusLabel": statusLabel,
		"iconGlyph":   iconGlyph,
	}
}

// ParseFS parses the base layout, every partial, and the requested pages
// from fsys. Pages define their own "content" block.
func ParseFS(fsys fs.FS, patterns ...string) (*Template, error) {
	tmpl := template.New("").Funcs(DefaultFuncMap())

	baseContent, err := fs.ReadFile(fsys, "templates/layouts/base.gohtml")
	if err != nil {
		return nil, fmt.Errorf("failed to read base template: %w", err)
	}
	if tmpl, err = tmpl.Parse(string(baseContent)); err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}

	partials, err := fs.Glob(fsys, "templates/partials/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("failed to glob partials: %w", err)
	}
	for _, match := range partials {
		content, err := fs.ReadFile(fsys, match)
		if err != nil {
			return nil, fmt.Errorf("failed to read partial %s: %w", match, err)
		}
		if tmpl, err = tmpl.Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", match, err)
		}
	}

	for _, pattern := range patterns {
		content, err := fs.ReadFile(fsys, "templates/"+pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", pattern, err)
		}
		if tmpl, err = tmpl.Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", pattern, err)
		}
	}
	return &Template{tmpl: tmpl}, nil
}

// Execute renders the template to the given writer with the provided data.
func (t *Template) Execute(w io.Writer, data *TemplateData) error {
	return t.tmpl.ExecuteTemplate(w, "base", data)
}

// ExecuteHTTP renders the template as a 200 response.
func (t *Template) ExecuteHTTP(w http.ResponseWriter, r *http.Request, data *TemplateData) {
	t.ExecuteHTTPWithStatus(w, r, http.StatusOK, data)
}

// ExecuteHTTPWithStatus renders to a buffer first so a template error never
// produces a half-written page.
func (t *Template) ExecuteHTTPWithStatus(w http.ResponseWriter, r *http.Request, status int, data *TemplateData) {
	if data != nil {
		data.CurrentPath = r.URL.Path
		data.RequestID = requestIDFromContext(r.Context())
	}

	buf := &bytes.Buffer{}
	if err := t.Execute(buf, data); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("template execution failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}

func statusClass(s render.Status) string {
	switch s {
	case render.StatusLoading:
		return "bg-blue-900/40 text-blue-300"
	case render.StatusReady:
		return "bg-emerald-900/40 text-emerald-300"
	case render.StatusError:
		return "bg-red-900/40 text-red-300"
	default:
		return "bg-slate-800 text-slate-400"
	}
}

func statusLabel(s render.Status) string {
	switch s {
	case render.StatusLoading:
		return "Analyzing..."
	case render.StatusReady:
		return "Ready"
	case render.StatusError:
		return "Failed"
	default:
		return "Waiting for data"
	}
}

func iconGlyph(icon string) string {
	switch icon {
	case "check-circle":
		return "✔"
	case "activity":
		return "∿"
	default:
		return "ℹ"
	}
}
