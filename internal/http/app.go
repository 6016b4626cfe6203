// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"github.com/yossefJiy/caravan-creator-sub000/internal/events"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"
)

// RouterConfig is the slice of configuration the router needs: the listen and
// CORS settings plus the JWT secret for the admin group.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs the readiness endpoint; the database pool implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is the assembled application handed from the composition root to the
// router: shared infrastructure plus every HTTP-facing module in mount order.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
