package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// quietPaths are served without request logs.
var quietPaths = []string{"/healthz", "/static/", "/v1/metrics"}

// Instrument returns middleware that counts and times every request and logs
// it with log. Metrics are registered with reg.
func Instrument(log *zap.Logger, reg prometheus.Registerer) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "releasedash",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by method and status code.",
	}, []string{"method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "releasedash",
		Name:      "http_request_duration_seconds",
		Help:      "Histogram of HTTP request durations in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method"})
	reg.MustRegister(requests, duration)

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)
			elapsed := time.Since(start)

			method := string(ctx.Method())
			status := ctx.Response.StatusCode()
			requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
			duration.WithLabelValues(method).Observe(elapsed.Seconds())

			path := string(ctx.Path())
			for _, p := range quietPaths {
				if strings.HasPrefix(path, p) {
					return
				}
			}
			fields := []zap.Field{
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
				zap.String("remote_ip", ctx.RemoteIP().String()),
			}
			if status >= fasthttp.StatusInternalServerError {
				log.Warn("request", fields...)
				return
			}
			log.Info("request", fields...)
		}
	}
}
