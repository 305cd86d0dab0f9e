package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"wagate/internal/tracing"
)

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Observability wraps every request in a span and logs start/finish with a
// request ID so concurrent webhook deliveries can be told apart in the logs.
func Observability(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.StartSpan(r.Context(), "http.request",
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
			)
			defer span.End()

			requestID := uuid.NewString()
			r = r.WithContext(ctx)

			log := logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"trace_id":   tracing.TraceID(ctx),
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			log.Debug("Request started")

			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(wrapper, r)

			span.SetAttributes(attribute.Int("http.status_code", wrapper.statusCode))

			entry := log.WithFields(logrus.Fields{
				"status":      wrapper.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if wrapper.statusCode >= 500 {
				entry.Error("Request failed")
			} else {
				entry.Info("Request completed")
			}
		})
	}
}
