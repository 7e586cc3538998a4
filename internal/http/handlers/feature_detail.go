package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"releasedash/internal/config"
	dbpkg "releasedash/internal/db"
	"releasedash/internal/releasenotes"
)

// FeatureStore is the feature persistence used by the HTTP handlers.
type FeatureStore interface {
	Get(ctx context.Context, id int64) (*dbpkg.Feature, error)
	Create(ctx context.Context, f *dbpkg.Feature) error
	Upsert(ctx context.Context, features []dbpkg.Feature) error
	UpdateSummary(ctx context.Context, id int64, summary, by string) error
}

// loadFeature resolves the {id} route parameter, writing 400/404/500 on failure.
func loadFeature(ctx *fasthttp.RequestCtx, store FeatureStore, log *zap.Logger) (*dbpkg.Feature, bool) {
	id, ok := idParam(ctx)
	if !ok {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid id")
		return nil, false
	}
	c, cancel := requestContext(ctx)
	defer cancel()

	f, err := store.Get(c, id)
	if errors.Is(err, dbpkg.ErrFeatureNotFound) {
		errResponse(ctx, fasthttp.StatusNotFound, "feature not found")
		return nil, false
	}
	if err != nil {
		log.Error("load feature failed", zap.Int64("feature_id", id), zap.Error(err))
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load feature")
		return nil, false
	}
	return f, true
}

func FeatureAPI(store FeatureStore, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		f, ok := loadFeature(ctx, store, log)
		if !ok {
			return
		}
		jsonResponse(ctx, map[string]any{
			"feature_type":    f.FeatureType,
			"breaking_change": f.BreakingChange,
			"created_at":      f.CreatedAt,
			"feature":         f.ToReleaseNotes(),
		})
	}
}

func FeaturePage(store FeatureStore, cfg *config.Config, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		f, ok := loadFeature(ctx, store, log)
		if !ok {
			return
		}
		rn := f.ToReleaseNotes()
		data := getLayoutData(ctx, cfg, "features", f.Name, "feature")
		data.Feature = &rn
		data.FeatureType = releasenotes.FeatureType(f.FeatureType)
		data.Editable = map[int64]bool{f.ID: currentUser(ctx).CanEdit(f.ID)}
		renderLayout(ctx, data)
	}
}

// UpdateSummary saves an inline summary edit and returns to the page the
// edit started from.
func UpdateSummary(store FeatureStore, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		id, ok := idParam(ctx)
		if !ok {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid id")
			return
		}
		if !user.CanEdit(id) {
			errResponse(ctx, fasthttp.StatusForbidden, "forbidden")
			return
		}

		summary := strings.TrimSpace(string(ctx.PostArgs().Peek("summary")))
		c, cancel := requestContext(ctx)
		defer cancel()

		err := store.UpdateSummary(c, id, summary, user.Username)
		if errors.Is(err, dbpkg.ErrFeatureNotFound) {
			errResponse(ctx, fasthttp.StatusNotFound, "feature not found")
			return
		}
		if err != nil {
			log.Error("update summary failed", zap.Int64("feature_id", id), zap.Error(err))
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to save summary")
			return
		}
		log.Info("summary updated", zap.Int64("feature_id", id), zap.String("by", user.Username))

		back := "/features/" + strconv.FormatInt(id, 10)
		if m, err := strconv.Atoi(string(ctx.PostArgs().Peek("milestone"))); err == nil && m > 0 {
			back = "/release-notes?milestone=" + strconv.Itoa(m)
		}
		ctx.Redirect(back, fasthttp.StatusSeeOther)
	}
}
