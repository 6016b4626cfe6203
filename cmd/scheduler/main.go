package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/internal/email"
	emaillogrepo "github.com/yossefJiy/caravan-creator-sub000/internal/emaillog/repository"
	leadrepo "github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	notifsvc "github.com/yossefJiy/caravan-creator-sub000/internal/notifier/service"
	"github.com/yossefJiy/caravan-creator-sub000/internal/scheduler"
	sweepsvc "github.com/yossefJiy/caravan-creator-sub000/internal/sweeper/service"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/db"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	// Worker-side sweep wiring (no HTTP handlers required).
	leadRepo := leadrepo.New(pool)
	emailLogRepo := emaillogrepo.New(pool)
	sender := email.NewSender(cfg)
	notifService := notifsvc.New(leadRepo, emailLogRepo, sender, cfg, log)
	sweepService := sweepsvc.New(leadRepo, emailLogRepo, notifService, cfg, log)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()
	go client.RunDispatcher(ctx, cfg, log)

	worker, err := scheduler.NewWorker(cfg, sweepService, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
