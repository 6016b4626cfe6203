package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/internal/email"
	emaillogrepo "github.com/yossefJiy/caravan-creator-sub000/internal/emaillog/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/events"
	apphttp "github.com/yossefJiy/caravan-creator-sub000/internal/http"
	"github.com/yossefJiy/caravan-creator-sub000/internal/http/router"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads"
	"github.com/yossefJiy/caravan-creator-sub000/internal/notifier"
	"github.com/yossefJiy/caravan-creator-sub000/internal/pricing"
	pricingrepo "github.com/yossefJiy/caravan-creator-sub000/internal/pricing/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/quotes"
	"github.com/yossefJiy/caravan-creator-sub000/internal/sweeper"
	"github.com/yossefJiy/caravan-creator-sub000/migrations"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/db"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"
	"github.com/yossefJiy/caravan-creator-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	catalogRepo := pricingrepo.New(pool)
	resolver := pricing.NewResolver(catalogRepo)

	leadsModule := leads.NewModule(pool, resolver, eventBus, val, log)
	emailLogRepo := emaillogrepo.New(pool)

	notifierModule := notifier.NewModule(leadsModule.Repository(), emailLogRepo, sender, cfg, val, log)
	notifierModule.Subscribe(eventBus)

	quotesModule := quotes.NewModule(leadsModule.Repository(), resolver, cfg, eventBus, val, log)
	sweeperModule := sweeper.NewModule(leadsModule.Repository(), emailLogRepo, notifierModule.Service(), cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			notifierModule,
			quotesModule,
			sweeperModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
