package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyWorkspace ctxKey = "workspace"
)

// WorkspaceCookie holds the workspace id.
const WorkspaceCookie = "datamind_ws"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		ev := s.log.Info()
		if status >= http.StatusInternalServerError {
			ev = s.log.Warn()
		}
		ev.Str("request_id", requestIDFromContext(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", rec.bytes).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// plaintextMiddleware tells csrf which requests arrived without TLS so the
// strict Referer check only applies to HTTPS.
func plaintextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody bounds request bodies before anything parses a form.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && s.opts.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// workspaceMiddleware attaches the caller's workspace, creating one and
// setting the cookie when none is valid.
func (s *Server) workspaceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ws *Workspace
		if c, err := r.Cookie(WorkspaceCookie); err == nil {
			ws, _ = s.store.Get(c.Value)
		}
		if ws == nil {
			ws = s.store.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     WorkspaceCookie,
				Value:    ws.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.opts.CSRFSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyWorkspace, ws)))
	})
}

func workspaceFromContext(ctx context.Context) *Workspace {
	ws, _ := ctx.Value(ctxKeyWorkspace).(*Workspace)
	return ws
}
