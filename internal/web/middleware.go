package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusRecorder captures the response status code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.wrote = true
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.wrote = true
	return sr.ResponseWriter.Write(b)
}

// instrument wraps a handler with per-request logging and Prometheus metrics.
// The route label is the registered pattern, not the raw URL, to keep metric
// cardinality bounded.
func (h *Handler) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		func() {
			defer func() {
				if p := recover(); p != nil {
					h.logger.Error("handler panic",
						zap.Any("panic", p),
						zap.String("route", route),
					)
					if !rec.wrote {
						http.Error(rec, "internal server error", http.StatusInternalServerError)
					}
				}
			}()
			next(rec, r)
		}()

		elapsed := time.Since(start)
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		h.logger.Info("request",
			zap.String("request_id", uuid.NewString()),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	}
}
