package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"releasedash/internal/channels"
	"releasedash/internal/db"
	"releasedash/internal/http/handlers"
	appmw "releasedash/internal/http/middleware"
	"releasedash/internal/releasenotes"
	ui "releasedash/web"
)

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		return fail("failed to connect database", err)
	}
	if err := db.Migrate(sqlDB); err != nil {
		return fail("migration failed", err)
	}

	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		return fail("failed to ensure bootstrap admin", err)
	}
	if cfg.InternalAPIKey != "" {
		if err := db.EnsureBootstrapAPIKey(sqlDB, cfg); err != nil {
			logger.Warn("failed to ensure bootstrap API key (will be created on first settings page load)", zap.Error(err))
		} else {
			logger.Info("internal API key configured and associated with admin user")
		}
	}

	reg := prometheus.DefaultRegisterer
	handlers.InitPrometheusMetrics(reg)

	channelClient := channels.NewClient(cfg.ChannelsURL, logger.Named("channels"),
		channels.WithTTL(cfg.ChannelRefresh),
		channels.WithFallback(cfg.DefaultMilestone))
	store := db.NewFeatureStore(sqlDB)
	notes := releasenotes.NewService(store, channelClient, releasenotes.NewMetrics(reg), logger.Named("releasenotes"))

	refreshDone := channels.StartRefreshWorker(ctx, channelClient, cfg.ChannelRefresh, logger.Named("channels"))
	summaryDone := db.StartSummaryWorker(ctx, sqlDB, notes.Background(), cfg.SummaryHorizon, logger.Named("summary"))

	r := newRouter(sqlDB, store, notes, channelClient)
	srv := &fasthttp.Server{
		Handler: appmw.Instrument(logger.Named("http"), reg)(r.Handler),
		Name:    "releasedash",
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("releasedash listening", zap.String("addr", cfg.ListenAddr))
		errc <- srv.ListenAndServe(cfg.ListenAddr)
	}()

	select {
	case err := <-errc:
		stop()
		<-refreshDone
		<-summaryDone
		return fail("server error", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	<-refreshDone
	<-summaryDone
	return nil
}

func newRouter(sqlDB *gorm.DB, store *db.FeatureStore, notes *releasenotes.Service, channelClient *channels.Client) *router.Router {
	log := logger.Named("http")
	auth := appmw.AdminAuth(sqlDB, cfg)
	optional := appmw.OptionalAuth(sqlDB, cfg)
	admin := func(h fasthttp.RequestHandler) fasthttp.RequestHandler { return auth(appmw.RequireAdmin(h)) }

	r := router.New()

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.ServeFS("/static/{filepath:*}", ui.StaticFS())

	r.GET("/login", handlers.LoginForm(cfg))
	r.POST("/login", handlers.LoginSubmit(sqlDB, log))
	r.POST("/logout", handlers.Logout())

	r.GET("/", auth(handlers.Overview(sqlDB, channelClient, cfg, log)))
	r.GET("/release-notes", optional(handlers.ReleaseNotesPage(notes, cfg, log)))
	r.GET("/features/{id}", optional(handlers.FeaturePage(store, cfg, log)))
	r.POST("/features/{id}/summary", auth(handlers.UpdateSummary(store, log)))

	r.GET("/guide/new", auth(handlers.GuideNewPage(cfg, false)))
	r.POST("/guide/new", auth(handlers.GuideCreate(store, cfg, false, log)))
	r.GET("/guide/enterprise/new", auth(handlers.GuideNewPage(cfg, true)))
	r.POST("/guide/enterprise/new", auth(handlers.GuideCreate(store, cfg, true, log)))

	r.GET("/settings", auth(handlers.SettingsPage(sqlDB, cfg)))
	r.POST("/settings/password", auth(handlers.ChangePasswordSelf(sqlDB, cfg)))
	r.POST("/settings/display", auth(handlers.UpdateDisplaySettings(sqlDB, cfg)))

	r.GET("/users", admin(handlers.UsersPage(sqlDB, cfg)))
	r.POST("/admin/users/create", admin(handlers.CreateUser(sqlDB)))
	r.POST("/admin/users/{id}/reset-password", admin(handlers.ResetPassword(sqlDB, cfg)))
	r.POST("/admin/users/{id}/permissions", admin(handlers.SetPermissions(sqlDB, cfg)))
	r.POST("/admin/users/{id}/delete", admin(handlers.DeleteUser(sqlDB, cfg)))

	r.POST("/admin/apikeys/create", auth(handlers.CreateAPIKey(sqlDB)))
	r.POST("/admin/apikeys/delete", auth(handlers.DeleteAPIKey(sqlDB, cfg)))
	r.POST("/admin/apikeys/set-active", auth(handlers.SetActiveAPIKey(sqlDB)))

	r.GET("/api/v0/channels", handlers.ChannelsAPI(channelClient, log))
	r.GET("/api/v0/enterprise-release-notes", handlers.ReleaseNotesAPI(notes, log))
	r.GET("/api/v0/features/{id}", handlers.FeatureAPI(store, log))
	r.GET("/api/v0/milestone-summaries", handlers.MilestoneSummariesAPI(sqlDB, log))

	r.POST("/v1/features", appmw.BearerAuth(sqlDB)(handlers.IngestFeatures(store, log)))
	r.GET("/v1/metrics", handlers.MetricsHandler(sqlDB, prometheus.DefaultGatherer))

	return r
}
