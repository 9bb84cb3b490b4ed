package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestLogger writes one access log line per request. Handlers deeper in the chain
// add request-scoped attributes, such as the signed-in user, with SetLogAttr.
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger creates a request logging middleware.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

type logAttrsKey struct{}

// logAttrs is shared by pointer so attributes set after route matching reach the
// access log line.
type logAttrs struct {
	attrs []any
}

// SetLogAttr attaches key/value to the access log line of the request carried by ctx.
// It is a no-op outside RequestLogger.
func SetLogAttr(ctx context.Context, key string, value any) {
	if la, ok := ctx.Value(logAttrsKey{}).(*logAttrs); ok {
		la.attrs = append(la.attrs, key, value)
	}
}

// Handler returns middleware that logs every request except probes, metrics scrapes
// and static assets.
func (m *RequestLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		la := &logAttrs{}
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), logAttrsKey{}, la)))

		attrs := []any{
			"method", r.Method,
			"route", routePattern(r),
			"path", loggedPath(r.URL),
			"status", rec.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
		}
		// Exports are the only large responses.
		if rec.bytes >= exportLogThreshold {
			attrs = append(attrs, "bytes", rec.bytes)
		}
		attrs = append(attrs, la.attrs...)

		switch {
		case rec.statusCode >= 500:
			m.logger.Warn("request", attrs...)
		case rec.statusCode == http.StatusUnauthorized || rec.statusCode == http.StatusForbidden:
			m.logger.Info("request denied", attrs...)
		default:
			m.logger.Info("request", attrs...)
		}
	})
}

const exportLogThreshold = 16 << 10

func skipLogging(path string) bool {
	return path == "/health" || path == "/metrics" || strings.HasPrefix(path, "/static/")
}

// statusRecorder captures the status code and body size written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// loggedPath keeps the search term and drops flash messages carried in redirects.
// Login credentials never travel in the query; any that do are redacted.
func loggedPath(u *url.URL) string {
	q := u.Query()
	q.Del("success")
	for _, key := range []string{"email", "password"} {
		if q.Has(key) {
			q.Set(key, "[REDACTED]")
		}
	}
	if len(q) == 0 {
		return u.Path
	}
	return u.Path + "?" + q.Encode()
}
