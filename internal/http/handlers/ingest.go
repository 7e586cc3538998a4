package handlers

import (
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	dbpkg "releasedash/internal/db"
	httpctx "releasedash/internal/http/ctx"
)

var featuresIngested *prometheus.CounterVec

// InitPrometheusMetrics registers the ingest counters with reg.
func InitPrometheusMetrics(reg prometheus.Registerer) {
	featuresIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "releasedash",
			Name:      "features_ingested_total",
			Help:      "Total number of features pushed through the ingest API.",
		},
		[]string{"source"},
	)
	reg.MustRegister(featuresIngested)
}

// IngestFeatures stores features pushed by another service. The body is a
// JSON document shaped like the seed file: {"features":[...]}.
func IngestFeatures(store FeatureStore, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload dbpkg.SeedFile
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(payload.Features) == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "no features provided")
			return
		}

		source := "api"
		if ak, ok := httpctx.APIKeyFromCtx(ctx); ok && ak != nil {
			source = ak.Name
		}
		by := source
		if user := currentUser(ctx); user != nil && user.Username != "" {
			by = user.Username
		}

		features, err := payload.ToFeatures(by)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		c, cancel := requestContext(ctx)
		defer cancel()
		if err := store.Upsert(c, features); err != nil {
			log.Error("ingest failed", zap.String("source", source), zap.Error(err))
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to persist features")
			return
		}
		if featuresIngested != nil {
			featuresIngested.WithLabelValues(source).Add(float64(len(features)))
		}

		ids := make([]int64, 0, len(features))
		for _, f := range features {
			ids = append(ids, f.ID)
		}
		ctx.SetStatusCode(fasthttp.StatusAccepted)
		jsonResponse(ctx, map[string]any{"status": "accepted", "count": len(features), "ids": ids})
	}
}
