package handlers

import (
	"bytes"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "releasedash/internal/db"
)

// metricsPrefix selects the families exposed to API key holders.
const metricsPrefix = "releasedash_"

// MetricsHandler exposes the service's own metric families in the text
// exposition format. Callers authenticate with ?api-key=.
func MetricsHandler(db *gorm.DB, g prometheus.Gatherer) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		apiKeyValue := string(ctx.QueryArgs().Peek("api-key"))
		if apiKeyValue == "" {
			errResponse(ctx, fasthttp.StatusUnauthorized, "missing api-key query parameter")
			return
		}

		var key dbpkg.APIKey
		if err := db.Where("key = ? AND active = ?", apiKeyValue, true).First(&key).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusUnauthorized, "invalid API key")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}

		writeMetrics(ctx, g)
	}
}

func writeMetrics(ctx *fasthttp.RequestCtx, g prometheus.Gatherer) {
	metricFamilies, err := g.Gather()
	if err != nil {
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to gather metrics")
		return
	}

	body, err := encodeFamilies(filterFamilies(metricFamilies, metricsPrefix))
	if err != nil {
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode metrics")
		return
	}

	ctx.SetContentType(string(expfmt.FmtText))
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(body)
}

// filterFamilies keeps the families whose name starts with prefix and that
// have at least one sample.
func filterFamilies(mfs []*dto.MetricFamily, prefix string) []*dto.MetricFamily {
	filtered := make([]*dto.MetricFamily, 0, len(mfs))
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), prefix) || len(mf.GetMetric()) == 0 {
			continue
		}
		filtered = append(filtered, mf)
	}
	return filtered
}

func encodeFamilies(mfs []*dto.MetricFamily) ([]byte, error) {
	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range mfs {
		if err := encoder.Encode(mf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
