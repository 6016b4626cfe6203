// Package quotes wires the quote builder: pricing resolution, the external
// invoicing client, and the create-price-quote endpoint.
package quotes

import (
	"github.com/yossefJiy/caravan-creator-sub000/internal/events"
	apphttp "github.com/yossefJiy/caravan-creator-sub000/internal/http"
	"github.com/yossefJiy/caravan-creator-sub000/internal/invoicing"
	leadrepo "github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/pricing"
	"github.com/yossefJiy/caravan-creator-sub000/internal/quotes/handler"
	"github.com/yossefJiy/caravan-creator-sub000/internal/quotes/service"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"
	"github.com/yossefJiy/caravan-creator-sub000/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(leads *leadrepo.Repository, resolver *pricing.Resolver, cfg config.InvoicingConfig, bus events.Bus, validate *validator.Validator, log *logger.Logger) *Module {
	client := invoicing.NewClient(cfg, log)
	svc := service.New(leads, resolver, client, cfg, bus, log)
	return &Module{
		handler: handler.New(svc, validate, log),
		service: svc,
	}
}

func (m *Module) Name() string { return "quotes" }

func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Admin.Group("/quotes")
	admin.POST("/create-price-quote", m.handler.Create)
}
