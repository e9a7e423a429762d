package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/costchecker/internal/cache"
	"github.com/GTDGit/costchecker/internal/config"
	"github.com/GTDGit/costchecker/internal/database"
	"github.com/GTDGit/costchecker/internal/handler"
	"github.com/GTDGit/costchecker/internal/middleware"
	"github.com/GTDGit/costchecker/internal/repository"
	"github.com/GTDGit/costchecker/internal/service"
	"github.com/GTDGit/costchecker/internal/sse"
	"github.com/GTDGit/costchecker/internal/worker"
	"github.com/GTDGit/costchecker/pkg/deepseek"
)

// main is the entrypoint for the product cost lookup API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting costchecker api")

	// 3. Connect database and run migrations
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db.DB, database.DefaultMigrationsDir); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3a. Connect to Redis. Sessions stay in memory when it is unreachable.
	var redisClient *cache.RedisClient
	if cfg.Session.Backend == config.SessionBackendRedis {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis connection failed - confirmation sessions will be kept in memory")
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info().Msg("redis connected successfully")
		}
	}

	// 4. Initialize confirmation session store
	memoryStore := cache.NewMemoryStore()
	var sessions cache.Store = memoryStore
	if redisClient != nil {
		sessions = cache.NewFallbackStore(cache.NewConfirmationCache(redisClient), memoryStore)
	}

	// 5. Initialize parameter extractor
	var extractor service.ParamExtractor = service.HeuristicExtractor{}
	dsClient := deepseek.NewClient(cfg.DeepSeek.APIKey, cfg.DeepSeek.BaseURL, cfg.DeepSeek.Model)
	if dsClient.Enabled() {
		extractor = service.NewFallbackExtractor(service.NewRemoteExtractor(dsClient), cfg.DeepSeek.Timeout)
		log.Info().Str("model", cfg.DeepSeek.Model).Msg("DeepSeek extractor enabled")
	} else {
		log.Warn().Msg("DEEPSEEK_API_KEY not set - using heuristic parameter extraction")
	}

	// 6. Initialize repositories and services
	catalogRepo := repository.NewCatalogRepository(db)
	queryLogRepo := repository.NewQueryLogRepository(db)

	querySvc := service.NewQueryService(catalogRepo, extractor, sessions, service.QueryOptions{
		SessionTTL: cfg.Session.TTL,
	})

	hub := sse.NewHub()
	analyticsSvc := service.NewAnalyticsService(queryLogRepo)
	analyticsSvc.SetNotifier(sse.NewHubNotifier(hub))

	adminAuthSvc := service.NewAdminAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash, cfg.JWTSecret, cfg.Admin.TokenTTL)
	if cfg.Admin.PasswordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD_HASH not set - analytics login is disabled")
	}

	// 7. Initialize handlers
	healthDeps := map[string]handler.Pinger{
		"database": handler.PingFunc(db.PingContext),
		"redis":    nil,
	}
	if redisClient != nil {
		healthDeps["redis"] = redisClient
	}

	handlers := &Handlers{
		Health:    handler.NewHealthHandler(healthDeps),
		Query:     handler.NewQueryHandler(querySvc, analyticsSvc),
		Auth:      handler.NewAuthHandler(adminAuthSvc),
		Analytics: handler.NewAnalyticsHandler(analyticsSvc),
		SSE:       handler.NewSSEHandler(hub, cfg.JWTSecret),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(cfg.JWTSecret)
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// 9. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw, limiter)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewSessionSweepWorker(memoryStore, cfg.Session.SweepInterval).Start(ctx)
	go limiter.Run(ctx, time.Minute)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *handler.HealthHandler
	Query     *handler.QueryHandler
	Auth      *handler.AuthHandler
	Analytics *handler.AnalyticsHandler
	SSE       *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware, limiter *middleware.IPRateLimiter) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", handlers.Health.GetHealth)

	// Public lookup endpoints (rate limited per client IP)
	lookup := api.Group("")
	lookup.Use(limiter.Handle())
	{
		lookup.POST("/query", handlers.Query.Query)
		lookup.POST("/confirm", handlers.Query.Confirm)
	}

	api.POST("/admin/login", handlers.Auth.Login)

	// EventSource cannot set headers, so the stream checks ?token= itself.
	api.GET("/analytics/stream", handlers.SSE.Stream)

	analytics := api.Group("/analytics")
	analytics.Use(jwtMiddleware.Handle())
	{
		analytics.GET("/queries", handlers.Analytics.ListQueries)
		analytics.GET("/summary", handlers.Analytics.Summary)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
