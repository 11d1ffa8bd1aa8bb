package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/shopkeeper/internal/errs"
)

const maxBodySize = 1 << 20 // 1MB

// Logging logs request metadata after the handler runs. No payloads, only
// method/path/status/duration/peer.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("dur", time.Since(start)),
				zap.String("peer", r.RemoteAddr),
			)
		})
	}
}

// Recover converts handler panics into opaque 500s.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic",
						zap.Any("reason", rec),
						zap.ByteString("stack", debug.Stack()),
						zap.String("path", r.URL.Path),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal error"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withSession validates the session cookie and attaches session and user to
// the context. When required is false the request proceeds anonymously on a
// missing/invalid cookie; when true it is rejected with 401 and the stale
// cookie is cleared. Storage faults are 500 either way.
func (s *Server) withSession(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(sessionCookie)
			if err != nil || c.Value == "" {
				if required {
					s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			sess, err := s.sessions.Validate(r.Context(), c.Value)
			if err != nil {
				if errors.Is(err, errs.ErrUnauthorized) {
					s.clearCookie(w, sessionCookie)
					if required {
						s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
						return
					}
					next.ServeHTTP(w, r)
					return
				}
				s.writeErr(w, r, err)
				return
			}
			u, err := s.auth.CurrentUser(r.Context(), sess.UserID)
			if err != nil {
				s.writeErr(w, r, err)
				return
			}
			ctx := WithUser(WithSession(r.Context(), sess), u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAdmin rejects authenticated non-admin callers with 403. Must run
// after withSession(true).
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromCtx(r.Context())
		if !ok {
			s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
			return
		}
		if !u.IsAdmin {
			s.respondJSON(w, http.StatusForbidden, errorResponse{Error: "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCSRF enforces the double-submit check on mutating requests, and the
// per-session pinned token when a session is attached. GET/HEAD/OPTIONS are
// exempt.
func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		submitted := s.submittedToken(r)
		var cookieTok string
		if c, err := r.Cookie(csrfCookie); err == nil {
			cookieTok = c.Value
		}
		if err := s.csrf.Check(cookieTok, submitted); err != nil {
			s.writeErr(w, r, err)
			return
		}
		if sess, ok := SessionFromCtx(r.Context()); ok {
			if err := s.csrf.CheckSession(r.Context(), sess.ID, submitted); err != nil {
				s.writeErr(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// submittedToken extracts the client-echoed token from the X-CSRF-Token
// header, falling back to the csrf_token field of a JSON body. The body is
// buffered and restored so handlers can still decode it.
func (s *Server) submittedToken(r *http.Request) string {
	if t := r.Header.Get("X-CSRF-Token"); t != "" {
		return t
	}
	if r.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var probe struct {
		Token string `json:"csrf_token"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return probe.Token
}
