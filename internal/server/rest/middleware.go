package rest

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/server/auth"
	"github.com/dmitrijs2005/swengineer/internal/server/metrics"
)

// statusWriter records the status and message code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	message     string
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(p)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// logRequests writes one log line and one metrics observation per request.
// Outside production the response message code is logged too.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := newStatusWriter(w)

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		s.metrics.ObserveRequest(r.Method, sw.status, elapsed)

		args := []any{
			"method", r.Method,
			"path", redactPath(r.URL.Path),
			"status", sw.status,
			"duration_ms", elapsed.Milliseconds(),
			"remote", remoteAddr(r),
		}
		if !s.production && sw.message != "" {
			args = append(args, "message", sw.message)
		}
		s.logger.Info(r.Context(), "http request", args...)
	})
}

// recoverer turns a handler panic into a JSON 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			s.logger.Error(r.Context(), "panic serving request",
				"panic", fmt.Sprint(v),
				"method", r.Method,
				"path", redactPath(r.URL.Path),
				"remote", remoteAddr(r),
				"stack", string(debug.Stack()),
			)
			writeMessage(w, http.StatusInternalServerError, MsgInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// authenticated resolves the session cookie and puts the account into the
// request context before calling next.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(common.SessionCookieName); err == nil {
			token = c.Value
		}

		account, err := s.authn.Authenticate(r.Context(), token)
		if err != nil {
			if ce, ok := lookup(sessionErrors, err); ok {
				s.logger.Warn(r.Context(), "authentication failed", "reason", err.Error(), "remote", remoteAddr(r))
				writeMessage(w, ce.status, ce.code)
				return
			}
			s.logger.Error(r.Context(), "authentication error", "error", err)
			writeMessage(w, http.StatusInternalServerError, MsgInternalServerError)
			return
		}

		next(w, r.WithContext(auth.WithAccount(r.Context(), account)))
	}
}

// track counts the outcome of an account flow.
func (s *Server) track(event string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw, ok := w.(*statusWriter)
		if !ok {
			sw = newStatusWriter(w)
		}
		next(sw, r)
		s.metrics.AuthEvent(event, metrics.OutcomeFor(sw.status))
	}
}

func remoteAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return fmt.Sprintf("%v via %v", xff, r.RemoteAddr)
	}
	return r.RemoteAddr
}

// clientIP is the originating address: the first X-Forwarded-For hop when
// present, the peer address otherwise.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// redactPath hides one-time tokens carried in the path.
func redactPath(p string) string {
	for _, prefix := range []string{"/register/", "/reset/"} {
		if strings.HasPrefix(p, prefix) && len(p) > len(prefix) {
			return prefix + ":token"
		}
	}
	return p
}
