package main // API server entry point

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/field-visit-api/internal/cache"
	"github.com/iliyamo/field-visit-api/internal/config"
	"github.com/iliyamo/field-visit-api/internal/database"
	"github.com/iliyamo/field-visit-api/internal/handler"
	"github.com/iliyamo/field-visit-api/internal/logger"
	"github.com/iliyamo/field-visit-api/internal/middleware"
	"github.com/iliyamo/field-visit-api/internal/repository"
	"github.com/iliyamo/field-visit-api/internal/router"
	queue_publisher "github.com/iliyamo/field-visit-api/internal/service"
	"github.com/iliyamo/field-visit-api/internal/utils"
)

func main() {
	_ = godotenv.Load() // optional; real deployments set the environment directly

	log := logger.Init(logger.Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
	})

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	cancel()

	signer, err := utils.NewSigner(cfg.AccessSecret, cfg.RefreshSecret, cfg.JWTAlgorithm,
		cfg.AccessTTLMin, cfg.RefreshTTLMin)
	if err != nil {
		log.Fatal().Err(err).Msg("token signer init failed")
	}

	users := repository.NewUserRepo(db)
	admins := repository.NewAdminRepo(db)
	visits := repository.NewVisitRepo(db)

	// Admin-grant cache: Redis when reachable, bounded in-process map otherwise.
	var grantStore cache.Store
	if rc := config.NewRedisClient(); rc != nil {
		grantStore = cache.NewRedisStore(rc, "visitapi:")
	} else {
		log.Warn().Msg("redis unreachable, using in-process admin cache")
		grantStore = cache.NewMemoryStore(1024)
	}
	grants := cache.NewAdminGrants(admins, grantStore, time.Duration(cfg.AdminCacheTTLSec)*time.Second)

	notifier := queue_publisher.New(cfg.RabbitURL, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log, notifier, cfg.ErrThreadID)

	session := middleware.Session(middleware.SessionConfig{
		Signer:       signer,
		CookieSecure: cfg.CookieSecure,
		OpenPaths:    router.OpenPaths,
	})

	router.RegisterRoutes(e, router.Deps{
		Auth:    handler.NewAuthHandler(cfg, signer, users, log),
		Admin:   handler.NewAdminHandler(cfg, users, admins, notifier, grants, log),
		Visit:   handler.NewVisitHandler(cfg, users, visits, notifier, log),
		Webhook: handler.NewWebhookHandler(visits, notifier, log),
		Admins:  grants,
	}, session)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
