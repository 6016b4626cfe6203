package scheduler

import (
	"context"
	"fmt"

	sweepsvc "github.com/yossefJiy/caravan-creator-sub000/internal/sweeper/service"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sweep  *sweepsvc.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweep *sweepsvc.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		sweep:  sweep,
		log:    log,
	}

	mux.HandleFunc(TaskPartialLeadSweep, w.handlePartialLeadSweep)

	return w, nil
}

func (w *Worker) handlePartialLeadSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePartialLeadSweepPayload(task)
	if err != nil {
		return err
	}

	summary, err := w.sweep.Sweep(ctx)
	if err != nil {
		return err
	}

	w.log.Info("scheduled sweep finished",
		"requested_at", payload.RequestedAt,
		"scanned", summary.Scanned,
		"notified", summary.Notified,
		"failed", summary.Failed,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
