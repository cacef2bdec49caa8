package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/matchdesk/cms/internal/application/services"
	"github.com/matchdesk/cms/internal/bootstrap"
	"github.com/matchdesk/cms/internal/config"
	"github.com/matchdesk/cms/internal/infrastructure/cache"
	"github.com/matchdesk/cms/internal/infrastructure/database"
	"github.com/matchdesk/cms/internal/interfaces/middleware"
	"github.com/matchdesk/cms/internal/interfaces/rest"
	"github.com/matchdesk/cms/internal/observability"
	"github.com/matchdesk/cms/pkg/auth"
	"github.com/matchdesk/cms/pkg/layouts"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/widgetmap"
	"github.com/matchdesk/cms/pkg/widgets/builtin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	auth.SetSecret(cfg.JWTSecret)

	ctx := context.Background()
	shutdownOTel := observability.InitOTel(ctx, log, cfg.OTel, cfg.Env)

	// Initialize database connection
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	log.Info("database connection established", "host", cfg.Database.Host, "name", cfg.Database.Name)

	if err := bootstrap.InitializeSchema(ctx, db, log); err != nil {
		log.Fatal("failed to initialize schema", "error", err)
	}

	registry := builtin.NewRegistry(log)

	// Static layouts: the embedded bundles, or a file that can be hot-reloaded
	var staticSource layouts.Source = layouts.EmbeddedSource{}
	if cfg.Layouts.File != "" {
		staticSource = layouts.FileSource{Path: cfg.Layouts.File}
	}
	staticLayouts := layouts.NewLazy(staticSource)

	var watcher *layouts.Watcher
	if cfg.Layouts.File != "" && cfg.Layouts.Watch {
		watcher, err = layouts.NewWatcher(cfg.Layouts.File, staticLayouts, log)
		if err != nil {
			log.Fatal("failed to create static layouts watcher", "error", err)
		}
		watcher.OnReload(func(t layouts.Table) {
			for _, p := range layouts.Check(t) {
				log.Warn("static layout problem", "problem", p.String())
			}
		})
		if err := watcher.Start(ctx); err != nil {
			log.Fatal("failed to watch static layouts", "error", err)
		}
	}

	// The layout cache is optional; without Redis every load goes to the database
	var (
		layoutCache cache.LayoutCache
		rdb         *goredis.Client
	)
	if cfg.Redis.Addr != "" {
		redisCache, client, err := cache.NewRedisLayoutCache(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("layout cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			layoutCache, rdb = redisCache, client
			log.Info("layout cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
		}
	}

	svcMgr := services.NewServiceManager(services.Dependencies{
		DB:       db.DB(),
		Registry: registry,
		Builder:  widgetmap.NewBuilder(registry, log, widgetmap.WithStaticLayouts(staticLayouts)),
		Cache:    layoutCache,
		Log:      log,
	})
	log.Info("service manager initialized")

	if _, err := bootstrap.InitializeSystemPages(ctx, svcMgr.Pages, log); err != nil {
		log.Warn("failed to initialize system pages", "error", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.Tracing(cfg.OTel.ServiceName),
		middleware.AttachTraceContext(),
		middleware.RequestLogger(log),
		gin.Recovery(),
		middleware.CORS(cfg.CORSOrigins),
	)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if err := db.PingContext(c.Request.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"widgets": registry.Len(),
		})
	})

	api := router.Group("/api", middleware.APIVersion())
	rest.RegisterRoutes(api, rest.Handlers{
		Widgets: rest.NewWidgetHandler(registry),
		Pages:   rest.NewPageHandler(svcMgr.Pages),
		Render:  rest.NewRenderHandler(svcMgr.Render),
		Builder: rest.NewBuilderHandler(svcMgr.Builder),
	}, middleware.RequireAuth(), middleware.RequirePageAdmin())

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", "error", err)
		}
	}()
	log.Info("cms api started", "addr", srv.Addr, "env", cfg.Env)

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	if watcher != nil {
		watcher.Stop()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Close(); err != nil {
		log.Warn("failed to close database", "error", err)
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn("failed to flush traces", "error", err)
	}

	log.Info("server exiting")
}
