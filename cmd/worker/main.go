package main // notification worker entry point

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/field-visit-api/internal/config"
	"github.com/iliyamo/field-visit-api/internal/database"
	"github.com/iliyamo/field-visit-api/internal/logger"
	"github.com/iliyamo/field-visit-api/internal/queue"
	"github.com/iliyamo/field-visit-api/internal/repository"
	"github.com/iliyamo/field-visit-api/internal/telegram"
)

// The worker runs as its own process so slow Telegram calls never share a
// lifecycle with HTTP requests. It consumes the notify queues and performs
// the actual deliveries.
func main() {
	_ = godotenv.Load()

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

	w := &queue.Worker{
		URL:           cfg.RabbitURL,
		Visits:        repository.NewVisitRepo(db),
		Sender:        telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID),
		VisitThreadID: cfg.VisitThreadID,
		ErrThreadID:   cfg.ErrThreadID,
		Log:           log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("broker", cfg.RabbitURL).Msg("notify worker starting")
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}
