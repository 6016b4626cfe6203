// Package leads wires the lead bounded context: repository, service, and
// HTTP handlers for the public configurator and the admin back-office.
package leads

import (
	"github.com/yossefJiy/caravan-creator-sub000/internal/events"
	apphttp "github.com/yossefJiy/caravan-creator-sub000/internal/http"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/handler"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/service"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"
	"github.com/yossefJiy/caravan-creator-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule assembles the leads module. The catalog resolver comes from the
// pricing module; passing nil disables name-to-id normalization.
func NewModule(pool *pgxpool.Pool, catalog service.CatalogResolver, bus events.Bus, validate *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, bus, log)
	return &Module{
		handler: handler.New(svc, validate, log),
		service: svc,
		repo:    repo,
	}
}

func (m *Module) Name() string { return "leads" }

// Service exposes the lead service to sibling modules.
func (m *Module) Service() *service.Service { return m.service }

// Repository exposes the lead store to the quote builder and the sweeper.
func (m *Module) Repository() *repository.Repository { return m.repo }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/leads")
	public.Use(ctx.SubmitRateLimiter.RateLimit())
	public.POST("", m.handler.Create)
	public.PATCH("/:id", m.handler.Update)

	admin := ctx.Admin.Group("/leads")
	admin.GET("", m.handler.List)
	admin.GET("/:id", m.handler.Get)
	admin.PATCH("/:id", m.handler.Update)
	admin.DELETE("/:id", m.handler.Delete)
}
