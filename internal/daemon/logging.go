package daemon

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
)

// requestLogger logs every request and, when a registry is present, counts them
// by method and status class.
type requestLogger struct {
	requests *prom.CounterVec
	duration *prom.HistogramVec
}

func newRequestLogger(reg *prom.Registry) *requestLogger {
	l := &requestLogger{}
	if reg == nil {
		return l
	}
	l.requests = registerOrReuse(reg, prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sitebuilder",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method and status class",
	}, []string{"method", "code"}))
	l.duration = registerOrReuse(reg, prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "sitebuilder",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prom.DefBuckets,
	}, []string{"method"}))
	return l
}

// registerOrReuse returns the collector already registered under the same
// descriptor, so several servers can share one registry.
func registerOrReuse[C prom.Collector](reg *prom.Registry, c C) C {
	if err := reg.Register(c); err != nil {
		var are prom.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		slog.Warn("Failed to register HTTP metrics", slog.String("error", err.Error()))
	}
	return c
}

// logResponseWriter wraps http.ResponseWriter to capture status code and size for logging
type logResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

// WriteHeader captures the status code
func (rw *logResponseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures response size
func (rw *logResponseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Flush keeps event streams working through the wrapper.
func (rw *logResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *logResponseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Handler wraps an HTTP handler with structured logging and metrics
func (l *requestLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		rw := &logResponseWriter{ResponseWriter: w, status: http.StatusOK}
		rw.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		if l.requests != nil {
			l.requests.WithLabelValues(r.Method, strconv.Itoa(rw.status/100)+"xx").Inc()
			l.duration.WithLabelValues(r.Method).Observe(duration.Seconds())
		}

		level := slog.LevelDebug
		switch {
		case rw.status >= 500:
			level = slog.LevelError
		case rw.status >= 400:
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "HTTP request completed",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
			slog.Int("response_size", rw.size),
			slog.String("remote_addr", r.RemoteAddr))
	})
}
