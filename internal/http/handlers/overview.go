package handlers

import (
	"sort"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"releasedash/internal/config"
	dbpkg "releasedash/internal/db"
	"releasedash/internal/releasenotes"
)

// SummaryRow is one milestone of the overview table. Counts are indexed by
// product category in display order (browser update, core, premium).
type SummaryRow struct {
	Milestone  int       `json:"milestone"`
	Current    [3]int64  `json:"current"`
	Upcoming   [3]int64  `json:"upcoming"`
	ComputedAt time.Time `json:"computed_at"`
}

func (r SummaryRow) Total() int64 {
	return r.Current[0] + r.Current[1] + r.Current[2]
}

func categoryIndex(c int) (int, bool) {
	switch releasenotes.ProductCategory(c) {
	case releasenotes.ProductBrowserUpdate:
		return 0, true
	case releasenotes.ProductEnterpriseCore:
		return 1, true
	case releasenotes.ProductEnterprisePremium:
		return 2, true
	}
	return 0, false
}

// groupSummaries folds the stored per-section rows into one row per
// milestone, ascending.
func groupSummaries(rows []dbpkg.MilestoneSummary) []SummaryRow {
	byMilestone := make(map[int]*SummaryRow)
	for _, r := range rows {
		idx, ok := categoryIndex(r.Category)
		if !ok {
			continue
		}
		row, ok := byMilestone[r.Milestone]
		if !ok {
			row = &SummaryRow{Milestone: r.Milestone}
			byMilestone[r.Milestone] = row
		}
		switch r.Bucket {
		case "current":
			row.Current[idx] = r.FeatureCount
		case "upcoming":
			row.Upcoming[idx] = r.FeatureCount
		}
		if r.ComputedAt.After(row.ComputedAt) {
			row.ComputedAt = r.ComputedAt
		}
	}

	out := make([]SummaryRow, 0, len(byMilestone))
	for _, row := range byMilestone {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Milestone < out[j].Milestone })
	return out
}

// Overview lists the precomputed section sizes of the milestones around
// stable.
func Overview(db *gorm.DB, src ChannelReader, cfg *config.Config, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		c, cancel := requestContext(ctx)
		defer cancel()

		data := getLayoutData(ctx, cfg, "overview", "Overview", "overview")
		rows, err := dbpkg.ListMilestoneSummaries(c, db)
		if err != nil {
			log.Error("load milestone summaries failed", zap.Error(err))
			data.Error = loadErrorText
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			renderLayout(ctx, data)
			return
		}
		data.Summaries = groupSummaries(rows)
		if ch, err := src.Channels(c); err == nil {
			data.Stable = ch["stable"].Version
		}
		renderLayout(ctx, data)
	}
}

func MilestoneSummariesAPI(db *gorm.DB, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		c, cancel := requestContext(ctx)
		defer cancel()

		rows, err := dbpkg.ListMilestoneSummaries(c, db)
		if err != nil {
			log.Error("load milestone summaries failed", zap.Error(err))
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			jsonResponse(ctx, map[string]any{"error": loadErrorText})
			return
		}
		jsonResponse(ctx, map[string]any{"milestones": groupSummaries(rows)})
	}
}
