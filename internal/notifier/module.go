// Package notifier sends the pipeline's transactional emails: each send is
// idempotency-guarded, logged to the email log, and may touch the lead row.
package notifier

import (
	"context"

	"github.com/yossefJiy/caravan-creator-sub000/internal/email"
	emaillogrepo "github.com/yossefJiy/caravan-creator-sub000/internal/emaillog/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/events"
	apphttp "github.com/yossefJiy/caravan-creator-sub000/internal/http"
	leadrepo "github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/notifier/handler"
	"github.com/yossefJiy/caravan-creator-sub000/internal/notifier/service"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"
	"github.com/yossefJiy/caravan-creator-sub000/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
	log     *logger.Logger
}

// NewModule assembles the notifier: email log store, sender transport, and
// the send operations.
func NewModule(leads *leadrepo.Repository, emailLog *emaillogrepo.Repository, sender email.Sender, cfg config.NotificationConfig, validate *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(leads, emailLog, sender, cfg, log)
	return &Module{
		handler: handler.New(svc, validate, log),
		service: svc,
		log:     log,
	}
}

func (m *Module) Name() string { return "notifier" }

// Service exposes the notifier to the sweeper and the scheduler worker.
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	admin := ctx.Admin.Group("/notifications")
	admin.POST("/send-lead-notification", m.handler.SendLeadNotification)
	admin.POST("/send-quote-to-client", m.handler.SendQuoteToClient)
	admin.POST("/send-completion-link", m.handler.SendCompletionLink)
	admin.POST("/resend", m.handler.Resend)

	ctx.Admin.GET("/leads/:id/email-logs", m.handler.EmailLog)
}

// Subscribe wires the notifier to the submission events. Idempotency keys
// make these safe alongside the HTTP entry points and the sweeper.
func (m *Module) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadSubmitted{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		submitted, ok := e.(events.LeadSubmitted)
		if !ok {
			return nil
		}
		_, err := m.service.SendBusinessNotification(ctx, submitted.LeadID, 1, false)
		return err
	}))

	bus.Subscribe(events.LeadCompleted{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		completed, ok := e.(events.LeadCompleted)
		if !ok {
			return nil
		}
		// Independent channels: a business-side failure must not block the
		// customer confirmation.
		if _, err := m.service.SendBusinessNotification(ctx, completed.LeadID, 2, false); err != nil {
			m.log.Error("business completion notification failed", "lead_id", completed.LeadID, "error", err)
		}
		_, err := m.service.SendConfirmation(ctx, completed.LeadID, false)
		return err
	}))

	bus.Subscribe(events.QuoteCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		created, ok := e.(events.QuoteCreated)
		if !ok {
			return nil
		}
		m.log.Info("quote created",
			"lead_id", created.LeadID,
			"quote_number", created.QuoteNumber,
			"total_incl_vat", created.TotalInclVat,
			"email_sent", created.EmailSent,
		)
		return nil
	}))
}
