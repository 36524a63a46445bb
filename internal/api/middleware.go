package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

const tracerName = "github.com/climanegocios/platform/internal/api"

// routePattern returns the matched chi pattern, so metrics and spans are not keyed by raw paths.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		msg := "%s %s -> %d (%d bytes, %s) request_id=%s remote=%s"
		args := []interface{}{r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start), chimiddleware.GetReqID(r.Context()), r.RemoteAddr}
		switch {
		case status >= 500:
			logger.Errorf(msg, args...)
		case r.URL.Path == "/health" || r.URL.Path == "/health/ready" || r.URL.Path == "/metrics":
			logger.Debugf(msg, args...)
		default:
			logger.Infof(msg, args...)
		}
	})
}

func tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		span.SetName(r.Method + " " + routePattern(r))
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", routePattern(r)),
			attribute.Int("http.status_code", ww.Status()),
		)
	})
}

func instrument(recorder metrics.MetricRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			recorder.RecordHTTPRequest(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}

func rateLimitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}
