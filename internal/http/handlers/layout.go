package handlers

import (
	"bytes"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"releasedash/internal/config"
	dbpkg "releasedash/internal/db"
	"releasedash/internal/releasenotes"
	ui "releasedash/web"
)

type LayoutData struct {
	Title          string
	Breadcrumb     string
	ActivePage     string
	PageTemplate   string
	IsAdmin        bool
	Username       string
	AdminUser      string
	Users          []dbpkg.User
	APIKeys        []dbpkg.APIKey
	InternalAPIKey string
	TimeFormat     string
	DateFormat     string

	// Error is shown as a toast above the page content.
	Error string

	// Release notes page.
	Notes      *releasenotes.Notes
	Sections   []releasenotes.Section
	Milestones []int
	EditID     int64
	Editable   map[int64]bool
	Updated    map[int64]string

	// Overview page.
	Stable    int
	Summaries []SummaryRow

	// Feature page.
	Feature     *releasenotes.Feature
	FeatureType releasenotes.FeatureType

	// Guide pages.
	Guide GuideForm
}

func getLayoutData(ctx *fasthttp.RequestCtx, cfg *config.Config, activePage, breadcrumb, pageTemplate string) LayoutData {
	isAdmin := false
	username := ""
	timeFormat := "12"
	dateFormat := "dd-mm-yyyy"
	if user := currentUser(ctx); user != nil {
		username = user.Username
		isAdmin = user.IsAdmin || username == cfg.AdminUser
		if user.TimeFormat != "" {
			timeFormat = user.TimeFormat
		}
		if user.DateFormat != "" {
			dateFormat = user.DateFormat
		}
	}

	return LayoutData{
		Title:        breadcrumb,
		Breadcrumb:   breadcrumb,
		ActivePage:   activePage,
		PageTemplate: pageTemplate,
		IsAdmin:      isAdmin,
		Username:     username,
		AdminUser:    cfg.AdminUser,
		TimeFormat:   timeFormat,
		DateFormat:   dateFormat,
	}
}

func renderLayout(ctx *fasthttp.RequestCtx, data LayoutData) {
	var buf bytes.Buffer
	if err := ui.Templates().ExecuteTemplate(&buf, "layout", data); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("render error")
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

func SettingsPage(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		isSuperAdmin := user.Username == cfg.AdminUser

		var apiKeys []dbpkg.APIKey
		if err := db.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&apiKeys).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load API keys")
			return
		}

		if isSuperAdmin && cfg.InternalAPIKey != "" {
			hasInternal := false
			for _, k := range apiKeys {
				if k.Key == cfg.InternalAPIKey {
					hasInternal = true
					break
				}
			}
			if !hasInternal {
				// The key may not exist yet if it was configured after the
				// first start.
				if err := dbpkg.EnsureBootstrapAPIKey(db, cfg); err == nil {
					var keyRow dbpkg.APIKey
					if db.Where("key = ?", cfg.InternalAPIKey).First(&keyRow).Error == nil {
						apiKeys = append([]dbpkg.APIKey{keyRow}, apiKeys...)
					}
				}
			}
		}

		data := getLayoutData(ctx, cfg, "settings", "Settings", "settings")
		data.APIKeys = apiKeys
		data.InternalAPIKey = cfg.InternalAPIKey
		renderLayout(ctx, data)
	}
}

func UsersPage(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var users []dbpkg.User
		if err := db.Order("created_at DESC").Find(&users).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load users")
			return
		}

		data := getLayoutData(ctx, cfg, "users", "Users", "users")
		data.Users = users
		renderLayout(ctx, data)
	}
}

func UpdateDisplaySettings(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		timeFormat := string(ctx.PostArgs().Peek("time_format"))
		dateFormat := string(ctx.PostArgs().Peek("date_format"))
		if timeFormat != "12" && timeFormat != "24" {
			timeFormat = "12"
		}
		switch dateFormat {
		case "dd-mm-yyyy", "mm-dd-yyyy", "yyyy-mm-dd":
		default:
			dateFormat = "dd-mm-yyyy"
		}
		if err := db.Model(&dbpkg.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"time_format": timeFormat,
			"date_format": dateFormat,
		}).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to save display settings")
			return
		}
		ctx.Redirect("/settings", fasthttp.StatusSeeOther)
	}
}
