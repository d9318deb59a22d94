package api

import (
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/lmello0/status-page/internal/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const RequestIDHeader = "X-Request-Id"

var (
	mRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total", Help: "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})
	mRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Metrics records RED metrics keyed by the chi route pattern so path ids do
// not explode label cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		mRequests.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		mRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func outcome(code int) string {
	switch {
	case code < 400:
		return "success"
	case code < 500:
		return "client_error"
	default:
		return "server_error"
	}
}

func levelFor(code int) zapcore.Level {
	switch {
	case code < 400:
		return zapcore.InfoLevel
	case code < 500:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func queryKeys(r *http.Request) []string {
	q := r.URL.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RequestLog emits one summary line per request and echoes the request id.
// A panicking handler is answered with a 500 and logged at error level.
// Paths ending in one of excluded bypass logging entirely.
func RequestLog(log *zap.Logger, excluded []string) func(http.Handler) http.Handler {
	log = log.With(zap.String("component", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, suffix := range excluded {
				if suffix != "" && strings.HasSuffix(r.URL.Path, suffix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			start := time.Now()
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			var panicked any
			defer func() {
				if panicked = recover(); panicked != nil {
					if panicked == http.ErrAbortHandler {
						panic(panicked)
					}
					if ww.Status() == 0 {
						http.Error(ww, "Internal Server Error", http.StatusInternalServerError)
					}
				}

				code := ww.Status()
				if code == 0 {
					code = http.StatusOK
				}
				result, lvl := outcome(code), levelFor(code)
				if panicked != nil {
					result, lvl = "unhandled_exception", zapcore.ErrorLevel
				}
				fields := []zap.Field{
					zap.String("request_id", reqID),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("route_path", routePattern(r)),
					zap.Int("status_code", code),
					zap.String("outcome", result),
					zap.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
					zap.String("client_ip", clientIP(r)),
					zap.String("user_agent", r.UserAgent()),
					zap.Strings("query_keys", queryKeys(r)),
				}
				if panicked != nil {
					fields = append(fields, zap.String("error", fmt.Sprint(panicked)), zap.Stack("stack"))
				}
				if ce := obs.WithTrace(r.Context(), log).Check(lvl, "http_request_summary"); ce != nil {
					ce.Write(fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
