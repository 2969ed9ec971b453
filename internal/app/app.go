package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/internal/config"
	"github.com/opencurio/keygate/internal/database"
	"github.com/opencurio/keygate/internal/handlers"
	"github.com/opencurio/keygate/internal/middleware"
	"github.com/opencurio/keygate/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	// Initialize database connections
	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize services
	svc, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svc

	// Initialize handlers
	app.handlers = handlers.New(app.logger, svc)

	// Setup router
	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware. The CORS gate wraps every route, including
	// preflights for paths that only exist as OPTIONS.
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config.Security.CORS.AllowedOrigins))

	// Health and metrics (no auth required)
	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Management surface: the caller identity comes from a bearer token
	userAuth := middleware.UserAuth(a.services.UserAuth, a.logger)

	keys := router.Group("/keys")
	{
		keys.Use(userAuth)
		keys.POST("", a.handlers.Keys.Create)
		keys.GET("", a.handlers.Keys.List)
		keys.DELETE("", a.handlers.Keys.Revoke)
	}

	subscription := router.Group("/subscription")
	{
		subscription.Use(userAuth)
		subscription.GET("", a.handlers.Subscription.Get)
		subscription.POST("", a.handlers.Subscription.Update)
	}

	// Demo surface: verify the key first, then meter it. Two explicit
	// steps so unauthenticated attempts never consume a key's budget.
	keyAuth := middleware.APIKeyAuth(a.services.Keys, a.logger)
	rateLimit := middleware.RateLimit(a.services.RateLimit, a.logger)

	router.GET("/ping", keyAuth, rateLimit, a.handlers.Demo.Ping)
	router.GET("/echo", keyAuth, rateLimit, a.handlers.Demo.EchoGet)
	router.POST("/echo", keyAuth, rateLimit, a.handlers.Demo.EchoPost)

	a.router = router
}
