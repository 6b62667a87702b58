// Package main is the entrypoint for the Tipgrid API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tipgrid/tipgrid/internal/analytics"
	"github.com/tipgrid/tipgrid/internal/cache"
	"github.com/tipgrid/tipgrid/internal/config"
	"github.com/tipgrid/tipgrid/internal/handler"
	"github.com/tipgrid/tipgrid/internal/media"
	"github.com/tipgrid/tipgrid/internal/metrics"
	"github.com/tipgrid/tipgrid/internal/middleware"
	"github.com/tipgrid/tipgrid/internal/repository"
	"github.com/tipgrid/tipgrid/internal/server"
	"github.com/tipgrid/tipgrid/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize media storage
	mediaStore, err := media.NewStore(cfg.MediaDir, cfg.MediaBaseURL, cfg.MaxUploadSize)
	if err != nil {
		logger.Error("failed to initialize media store",
			slog.String("dir", cfg.MediaDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Initialize analytics pipeline
	metricsRecorder := metrics.NewNoop()
	publisher := analytics.NewPublisher(cacheClient.Client(), logger, metricsRecorder)
	geoResolver := analytics.NewGeoResolver(cfg.GeoLookupURL, cfg.GeoLookupTimeout, logger)
	worker := analytics.NewWorker(cacheClient.Client(), repo, logger, analytics.NewConsumerID(), metricsRecorder)

	// Initialize services
	profileService := service.NewProfileService(repo, cacheClient, mediaStore, logger, metricsRecorder)
	dashboardService := service.NewDashboardService(repo, logger)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	profileHandler := handler.NewProfileHandler(profileService, logger, cfg.BaseURL, cfg.MaxUploadSize)
	trackHandler := handler.NewTrackHandler(publisher, geoResolver, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, profileService, logger)
	adminHandler := handler.NewAdminHandler(repo, logger)
	apiKeyHandler := handler.NewAPIKeyHandler(logger, repo)

	// Setup router
	r := setupRouter(routerDeps{
		handler:   h,
		health:    healthHandler,
		profile:   profileHandler,
		track:     trackHandler,
		dashboard: dashboardHandler,
		admin:     adminHandler,
		apiKey:    apiKeyHandler,
		repo:      repo,
		cache:     cacheClient,
		mediaDir:  mediaStore.RootDir(),
		cfg:       cfg,
		logger:    logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// The worker drains in-flight batches before the server exits.
	srv.OnShutdown("analytics-worker", worker.Shutdown)
	go func() {
		if err := worker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("analytics worker stopped", "error", err)
		}
	}()

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	handler   *handler.Handler
	health    *handler.HealthHandler
	profile   *handler.ProfileHandler
	track     *handler.TrackHandler
	dashboard *handler.DashboardHandler
	admin     *handler.AdminHandler
	apiKey    *handler.APIKeyHandler
	repo      *repository.Repository
	cache     *cache.Cache
	mediaDir  string
	cfg       *config.Config
	logger    *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig()))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.handler.Hello)

	// Auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger:     deps.logger,
		Repository: deps.repo,
		Cache:      deps.cache,
	}

	// Rate limit middleware configuration
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       deps.logger,
		Cache:        deps.cache,
		APIEnabled:   deps.cfg.RateLimitAPIEnabled,
		TrackEnabled: deps.cfg.RateLimitTrackEnabled,
		TrackRPS:     deps.cfg.RateLimitTrackRPS,
		TrackBurst:   deps.cfg.RateLimitTrackBurst,
	}

	// API v1 routes (require authentication)
	r.Route("/v1", func(r chi.Router) {
		// Apply auth and rate limit middleware to all API routes
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))
		r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

		// Profile management (requires write scope for mutations)
		r.Route("/profiles", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/me", deps.profile.GetOwnProfile)
			r.With(middleware.RequireWrite()).Post("/", deps.profile.CreateProfile)
			r.With(middleware.RequireWrite()).Patch("/{id}", deps.profile.UpdateProfile)
			r.With(middleware.RequireWrite()).Post("/{id}/banner", deps.profile.UploadBanner)
			r.With(middleware.RequireWrite()).Post("/{id}/avatar", deps.profile.UploadAvatar)
			r.With(middleware.RequireWrite()).Post("/{id}/gallery", deps.profile.AddGalleryImage)
		})

		// Dashboard reads (requires read scope)
		r.With(middleware.RequireRead()).Get("/dashboard/analytics", deps.dashboard.GetAnalytics)

		// API key management (requires admin scope for mutations)
		r.Route("/api-keys", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", deps.apiKey.ListAPIKeys)
			r.With(middleware.RequireAdmin()).Post("/", deps.apiKey.CreateAPIKey)
			r.With(middleware.RequireAdmin()).Delete("/{key_id}", deps.apiKey.RevokeAPIKey)
			r.With(middleware.RequireAdmin()).Post("/{key_id}/rotate", deps.apiKey.RotateAPIKey)
		})

		// Operational endpoints
		r.With(middleware.RequireAdmin()).Post("/admin/profiles/{id}/rebuild-summary", deps.admin.RebuildSummary)
	})

	// Public page and event intake, rate limited per IP (no auth required)
	r.With(middleware.RateLimitIP(rateLimitCfg)).Get("/p/{username}", deps.profile.GetPublicProfile)
	r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/t/events", deps.track.TrackEvent)

	// Uploaded banners, avatars and gallery images
	fileServer := http.FileServer(http.Dir(deps.mediaDir))
	r.Handle("/media/*", http.StripPrefix("/media/", fileServer))

	// 404 and 405 handlers
	r.NotFound(deps.handler.NotFound)
	r.MethodNotAllowed(deps.handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
