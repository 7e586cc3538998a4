package handlers

import (
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"releasedash/internal/config"
	dbpkg "releasedash/internal/db"
	"releasedash/internal/releasenotes"
)

// GuideForm is the state of a new feature form.
type GuideForm struct {
	Enterprise   bool
	Action       string
	FeatureTypes []releasenotes.Variant[releasenotes.FeatureType]

	Name                  string
	Summary               string
	FeatureType           int
	ProductCategory       int
	FeatureCategories     []int
	BreakingChange        bool
	NotificationMilestone string

	Error string
}

func newGuideForm(enterprise bool) GuideForm {
	if enterprise {
		return GuideForm{
			Enterprise:  true,
			Action:      "/guide/enterprise/new",
			FeatureType: int(releasenotes.FeatureTypeEnterprise),
		}
	}
	return GuideForm{
		Action:       "/guide/new",
		FeatureTypes: releasenotes.NonEnterpriseFeatureTypes(),
	}
}

func renderGuide(ctx *fasthttp.RequestCtx, cfg *config.Config, form GuideForm) {
	title := "Add a feature"
	if form.Enterprise {
		title = "Add an enterprise feature"
	}
	data := getLayoutData(ctx, cfg, "guide", title, "guide")
	data.Guide = form
	renderLayout(ctx, data)
}

func GuideNewPage(cfg *config.Config, enterprise bool) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		renderGuide(ctx, cfg, newGuideForm(enterprise))
	}
}

// parseGuideForm reads the posted form into form and the feature to create.
// It returns a user-facing message when the input is invalid.
func parseGuideForm(args *fasthttp.Args, form *GuideForm) (dbpkg.Feature, string) {
	form.Name = strings.TrimSpace(string(args.Peek("name")))
	form.Summary = strings.TrimSpace(string(args.Peek("summary")))
	form.BreakingChange = string(args.Peek("breaking_change")) == "true"
	form.NotificationMilestone = strings.TrimSpace(string(args.Peek("first_enterprise_notification_milestone")))
	form.ProductCategory, _ = strconv.Atoi(string(args.Peek("enterprise_product_category")))
	form.FeatureCategories = form.FeatureCategories[:0]
	for _, raw := range args.PeekMulti("enterprise_feature_categories") {
		if c, err := strconv.Atoi(string(raw)); err == nil {
			form.FeatureCategories = append(form.FeatureCategories, c)
		}
	}
	if !form.Enterprise {
		ft, err := strconv.Atoi(string(args.Peek("feature_type")))
		if err != nil {
			return dbpkg.Feature{}, "Select a feature type."
		}
		form.FeatureType = ft
	}

	switch {
	case form.Name == "":
		return dbpkg.Feature{}, "Feature name is required."
	case form.Summary == "":
		return dbpkg.Feature{}, "Summary is required."
	case !releasenotes.FeatureTypes.Valid(releasenotes.FeatureType(form.FeatureType)):
		return dbpkg.Feature{}, "Unknown feature type."
	case !form.Enterprise && releasenotes.FeatureType(form.FeatureType) == releasenotes.FeatureTypeEnterprise:
		return dbpkg.Feature{}, "Use the enterprise form for enterprise features."
	case form.Enterprise && !releasenotes.ProductCategories.Valid(releasenotes.ProductCategory(form.ProductCategory)):
		return dbpkg.Feature{}, "Select a product category."
	}
	for _, c := range form.FeatureCategories {
		if !releasenotes.EnterpriseFeatureCategories.Valid(releasenotes.EnterpriseFeatureCategory(c)) {
			return dbpkg.Feature{}, "Unknown enterprise feature category."
		}
	}

	f := dbpkg.Feature{
		Name:                        form.Name,
		Summary:                     form.Summary,
		FeatureType:                 form.FeatureType,
		BreakingChange:              form.BreakingChange,
		EnterpriseProductCategory:   form.ProductCategory,
		EnterpriseFeatureCategories: append([]int{}, form.FeatureCategories...),
	}
	if form.NotificationMilestone != "" {
		m, err := strconv.Atoi(form.NotificationMilestone)
		if err != nil || m <= 0 {
			return dbpkg.Feature{}, "First notification milestone must be a positive number."
		}
		f.FirstEnterpriseNotificationMilestone = &m
	}
	return f, ""
}

// GuideCreate handles the new feature forms. The signed-in user becomes the
// owner and the feature starts with the default shipping stage of its type.
func GuideCreate(store FeatureStore, cfg *config.Config, enterprise bool, log *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		form := newGuideForm(enterprise)
		f, msg := parseGuideForm(ctx.PostArgs(), &form)
		if msg != "" {
			form.Error = msg
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			renderGuide(ctx, cfg, form)
			return
		}
		f.Owners = []string{user.Username}
		f.UpdatedBy = user.Username

		c, cancel := requestContext(ctx)
		defer cancel()
		if err := store.Create(c, &f); err != nil {
			log.Error("create feature failed", zap.String("name", f.Name), zap.Error(err))
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to create feature")
			return
		}
		log.Info("feature created", zap.Int64("feature_id", f.ID), zap.String("by", user.Username))
		ctx.Redirect("/features/"+strconv.FormatInt(f.ID, 10), fasthttp.StatusSeeOther)
	}
}
