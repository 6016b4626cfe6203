// Package scheduler runs the periodic partial-lead sweep over asynq: a
// ticker-driven dispatcher enqueues sweep tasks and a worker executes them.
package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueSweep submits one sweep task for immediate processing.
func (c *Client) EnqueueSweep(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewPartialLeadSweepTask(PartialLeadSweepPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// RunDispatcher enqueues a sweep task on every tick until the context ends.
// The interval comes from configuration; one immediate sweep fires on start so
// a freshly deployed scheduler does not wait a full interval.
func (c *Client) RunDispatcher(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) {
	if c == nil || c.client == nil {
		return
	}

	interval := cfg.GetSweepInterval()
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	if err := c.EnqueueSweep(ctx); err != nil {
		log.Warn("initial sweep enqueue failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := c.EnqueueSweep(ctx); err != nil {
			log.Warn("sweep enqueue failed", "error", err)
		}
	}
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
