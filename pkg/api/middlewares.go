package api

import (
	"net/http"
	"strconv"

	"github.com/Narasimha1997/ratelimiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type httpMiddleware func(http.Handler) http.Handler

var httpResponseTimeMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "wton",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 10},
}, []string{"operation", "status"})

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(logger *zap.Logger) httpMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger := logger.With(
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
			)
			switch {
			case rec.status >= http.StatusInternalServerError:
				logger.Error("Fail")
			case rec.status >= http.StatusBadRequest:
				logger.Info("Fail")
			default:
				logger.Debug("Success")
			}
		})
	}
}

// instrument times a route, labelled by its pattern to keep path parameters out of the metric.
func instrument(operation string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		t := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
			httpResponseTimeMetric.WithLabelValues(operation, strconv.Itoa(rec.status)).Observe(v)
		}))
		defer t.ObserveDuration()
		next(rec, r)
	})
}

// writeLimitMiddleware rejects POST requests above the limiter rate. Reads are never limited.
func writeLimitMiddleware(limiter *ratelimiter.DefaultLimiter) httpMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			allowed, err := limiter.ShouldAllow(1)
			if err != nil {
				writeError(w, err)
				return
			}
			if !allowed {
				writeError(w, ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
