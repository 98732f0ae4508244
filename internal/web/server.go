// Package web serves the studio page and the JSON API.
package web

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/logging"
)

// Runner performs one analysis call.
type Runner interface {
	Analyze(ctx context.Context, b analysis.Built) (*analysis.AnalysisResult, error)
}

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Addr            string
	ModelName       string
	CSRFKey         string
	CSRFSecure      bool
	TrustedOrigins  []string
	MaxUploadBytes  int64
	RunsPerMinute   int
	WorkspaceTTL    time.Duration
	AnalysisTimeout time.Duration
	MaxDataChars    int
}

const (
	defaultAddr           = "127.0.0.1:8080"
	defaultMaxUploadBytes = 20 << 20
	defaultWorkspaceTTL   = 2 * time.Hour
	defaultRunTimeout     = 180 * time.Second
	shutdownGrace         = 10 * time.Second
)

// Server wires the router, workspace store, and analysis runner.
type Server struct {
	opts    Options
	runner  Runner
	builder analysis.Builder
	store   *Store
	limiter *rate.Limiter
	studio  *Template
	csrfKey []byte
	log     zerolog.Logger
}

// New validates opts and parses the templates.
func New(opts Options, runner Runner) (*Server, error) {
	if runner == nil {
		return nil, errors.New("web: nil runner")
	}
	if opts.Addr == "" {
		opts.Addr = defaultAddr
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.WorkspaceTTL <= 0 {
		opts.WorkspaceTTL = defaultWorkspaceTTL
	}
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = defaultRunTimeout
	}

	lg := logging.Component("web")
	key := []byte(opts.CSRFKey)
	switch {
	case len(key) == 0:
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate csrf key: %w", err)
		}
		lg.Warn().Msg("no csrf_key configured; using an ephemeral key, forms break across restarts")
	case len(key) < 32:
		return nil, errors.New("csrf_key must be at least 32 characters long")
	}

	limit := rate.Inf
	burst := 1
	if opts.RunsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RunsPerMinute))
		burst = opts.RunsPerMinute
	}

	studio, err := ParseFS(templateFS, "pages/studio.gohtml")
	if err != nil {
		return nil, err
	}

	return &Server{
		opts:    opts,
		runner:  runner,
		builder: analysis.Builder{MaxDataChars: opts.MaxDataChars},
		store:   NewStore(opts.WorkspaceTTL),
		limiter: rate.NewLimiter(limit, burst),
		studio:  studio,
		csrfKey: key,
		log:     lg,
	}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Get("/schema", s.apiSchema)
		r.Get("/catalog", s.apiCatalog)
		r.Post("/analyze", s.apiAnalyze)
	})

	csrfMw := csrf.Protect(s.csrfKey,
		csrf.Secure(s.opts.CSRFSecure),
		csrf.Path("/"),
		csrf.TrustedOrigins(s.opts.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(s.csrfFailed)),
	)
	r.Group(func(r chi.Router) {
		r.Use(s.limitBody)
		r.Use(plaintextMiddleware)
		r.Use(csrfMw)
		r.Use(s.workspaceMiddleware)

		r.Get("/", s.getStudio)
		r.Post("/upload", s.postUpload)
		r.Post("/analyze", s.postAnalyze)
		r.Post("/reset", s.postReset)
		r.Get("/chart", s.getChart)
		r.Get("/code", s.getCode)
	})
	return r
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Str("model", s.opts.ModelName).Msg("studio listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) csrfFailed(w http.ResponseWriter, r *http.Request) {
	s.log.Warn().Err(csrf.FailureReason(r)).Str("path", r.URL.Path).Msg("csrf check failed")
	http.Error(w, "Forbidden - the form expired, reload the page and try again", http.StatusForbidden)
}
