// Package sweeper wires the partial-lead sweep: candidate selection from the
// lead store, reminder-state reconstruction from the email log, and the
// escalating notices through the notifier.
package sweeper

import (
	emaillogrepo "github.com/yossefJiy/caravan-creator-sub000/internal/emaillog/repository"
	apphttp "github.com/yossefJiy/caravan-creator-sub000/internal/http"
	leadrepo "github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	notifsvc "github.com/yossefJiy/caravan-creator-sub000/internal/notifier/service"
	"github.com/yossefJiy/caravan-creator-sub000/internal/sweeper/handler"
	"github.com/yossefJiy/caravan-creator-sub000/internal/sweeper/service"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(leads *leadrepo.Repository, emailLog *emaillogrepo.Repository, notifier *notifsvc.Service, cfg config.SweepConfig, log *logger.Logger) *Module {
	svc := service.New(leads, emailLog, notifier, cfg, log)
	return &Module{
		handler: handler.New(svc, log),
		service: svc,
	}
}

func (m *Module) Name() string { return "sweeper" }

// Service exposes the sweep to the scheduler worker.
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/check-partial-leads", m.handler.CheckPartialLeads)
}
