// Package service implements the notifier: rendering, idempotency claims,
// delivery, and the lead-row side effects of each email type.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/internal/email"
	emaillog "github.com/yossefJiy/caravan-creator-sub000/internal/emaillog/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"
	leadrepo "github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	notifier "github.com/yossefJiy/caravan-creator-sub000/internal/notifier/domain"
	"github.com/yossefJiy/caravan-creator-sub000/platform/apperr"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/google/uuid"
)

// LeadStore is the slice of the lead repository the notifier needs.
type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, from, to string) error
	AppendNote(ctx context.Context, id uuid.UUID, note string) error
}

// EmailLog is the idempotency and audit store for send attempts.
type EmailLog interface {
	Claim(ctx context.Context, params emaillog.ClaimParams) (emaillog.ClaimOutcome, uuid.UUID, error)
	MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string) error
	MarkFailed(ctx context.Context, id uuid.UUID, sendErr error) error
	MaxAttempt(ctx context.Context, keyPrefix string) (int, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]emaillog.Entry, error)
}

type Service struct {
	leads    LeadStore
	log      EmailLog
	sender   email.Sender
	cfg      config.NotificationConfig
	logger   *logger.Logger
	handlers map[notifier.EmailType]func(ctx context.Context, leadID uuid.UUID, overrideRetry bool) (notifier.Result, error)
}

func New(leads LeadStore, log EmailLog, sender email.Sender, cfg config.NotificationConfig, logger *logger.Logger) *Service {
	s := &Service{
		leads:  leads,
		log:    log,
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}

	// One handler per email type. Resend and retry paths dispatch through
	// this table instead of matching on key prefixes.
	s.handlers = map[notifier.EmailType]func(ctx context.Context, leadID uuid.UUID, overrideRetry bool) (notifier.Result, error){
		notifier.TypeBusinessStage1: func(ctx context.Context, id uuid.UUID, retry bool) (notifier.Result, error) {
			return s.SendBusinessNotification(ctx, id, 1, retry)
		},
		notifier.TypeBusinessStage2: func(ctx context.Context, id uuid.UUID, retry bool) (notifier.Result, error) {
			return s.SendBusinessNotification(ctx, id, 2, retry)
		},
		notifier.TypePartialFirst: func(ctx context.Context, id uuid.UUID, retry bool) (notifier.Result, error) {
			return s.SendPartialNotice(ctx, id, false, retry)
		},
		notifier.TypePartialReminder: func(ctx context.Context, id uuid.UUID, retry bool) (notifier.Result, error) {
			return s.SendPartialNotice(ctx, id, true, retry)
		},
		notifier.TypeCustomerConfirmation: s.SendConfirmation,
		notifier.TypeQuoteClient:          s.SendQuoteToClient,
		notifier.TypeCompletionLink:       s.SendCompletionLink,
	}
	return s
}

// Dispatch routes a resend/retry request to the handler for the email type.
func (s *Service) Dispatch(ctx context.Context, emailType notifier.EmailType, leadID uuid.UUID, overrideRetry bool) (notifier.Result, error) {
	handler, ok := s.handlers[emailType]
	if !ok {
		return notifier.Result{}, apperr.Validation("unknown email type")
	}
	return handler(ctx, leadID, overrideRetry)
}

// SendLeadNotification fires the combined notification for a submission: the
// business distribution list always, plus the customer notice (partial leads)
// or confirmation (complete leads). The two channels have independent
// idempotency keys and independent outcomes.
func (s *Service) SendLeadNotification(ctx context.Context, leadID uuid.UUID, isPartial, isReminder, overrideRetry bool) (notifier.LeadNotificationOutcome, error) {
	// Fail fast on a missing lead before attempting either channel.
	if _, err := s.loadLead(ctx, leadID); err != nil {
		return notifier.LeadNotificationOutcome{}, err
	}

	var outcome notifier.LeadNotificationOutcome

	stage := 2
	if isPartial {
		stage = 1
	}
	outcome.Business = toChannelOutcome(s.SendBusinessNotification(ctx, leadID, stage, overrideRetry))

	if isPartial {
		outcome.Customer = toChannelOutcome(s.SendPartialNotice(ctx, leadID, isReminder, overrideRetry))
	} else {
		outcome.Customer = toChannelOutcome(s.SendConfirmation(ctx, leadID, overrideRetry))
	}
	return outcome, nil
}

func toChannelOutcome(result notifier.Result, err error) notifier.ChannelOutcome {
	outcome := notifier.ChannelOutcome{Result: result}
	if err != nil {
		outcome.Error = err.Error()
	}
	return outcome
}

// SendBusinessNotification emails the business distribution list about a new
// (stage 1) or completed (stage 2) lead.
func (s *Service) SendBusinessNotification(ctx context.Context, leadID uuid.UUID, stage int, overrideRetry bool) (notifier.Result, error) {
	lead, err := s.loadLead(ctx, leadID)
	if err != nil {
		return notifier.Result{}, err
	}

	recipients := s.cfg.GetBusinessRecipients()
	if len(recipients) == 0 {
		s.logger.Warn("no business recipients configured, skipping notification", "lead_id", leadID)
		return notifier.Result{Skipped: true}, nil
	}

	emailType := notifier.TypeBusinessStage1
	if stage == 2 {
		emailType = notifier.TypeBusinessStage2
	}

	equipment := make([]string, 0, len(lead.Equipment))
	for _, sel := range lead.Equipment {
		label := sel.Label
		if label == "" && sel.ItemID != nil {
			label = sel.ItemID.String()
		}
		if sel.Quantity > 1 {
			label = fmt.Sprintf("%s (×%d)", label, sel.Quantity)
		}
		equipment = append(equipment, label)
	}

	html, err := email.RenderBusinessLead(email.BusinessLeadData{
		FullName:   lead.FullName,
		Phone:      lead.Phone,
		Email:      deref(lead.Email),
		TruckType:  deref(lead.TruckTypeName),
		TruckSize:  deref(lead.TruckSizeName),
		Equipment:  equipment,
		Notes:      deref(lead.Notes),
		IsComplete: stage == 2,
	}, s.adminLeadURL(leadID))
	if err != nil {
		return notifier.Result{}, err
	}

	subject := fmt.Sprintf("New lead: %s", lead.FullName)
	if stage == 2 {
		subject = fmt.Sprintf("Configurator completed: %s", lead.FullName)
	}

	return s.send(ctx, lead, emailType, overrideRetry, email.Message{
		To:      recipients,
		Subject: subject,
		HTML:    html,
	}, nil)
}

// SendPartialNotice emails the customer that their incomplete configuration
// is saved (first notice) or still waiting (reminder).
func (s *Service) SendPartialNotice(ctx context.Context, leadID uuid.UUID, isReminder, overrideRetry bool) (notifier.Result, error) {
	lead, err := s.loadLead(ctx, leadID)
	if err != nil {
		return notifier.Result{}, err
	}
	if lead.Email == nil || *lead.Email == "" {
		return notifier.Result{Skipped: true}, nil
	}

	html, err := email.RenderPartialNotice(email.PartialNoticeData{
		FullName:   lead.FullName,
		IsReminder: isReminder,
	}, s.resumeURL(leadID))
	if err != nil {
		return notifier.Result{}, err
	}

	emailType := notifier.TypePartialFirst
	subject := "Your food truck configuration is saved"
	if isReminder {
		emailType = notifier.TypePartialReminder
		subject = "Reminder: your food truck is still waiting"
	}

	return s.send(ctx, lead, emailType, overrideRetry, email.Message{
		To:      []string{*lead.Email},
		Subject: subject,
		HTML:    html,
	}, map[string]any{"isReminder": isReminder})
}

// SendConfirmation emails the customer that their completed configuration was
// received.
func (s *Service) SendConfirmation(ctx context.Context, leadID uuid.UUID, overrideRetry bool) (notifier.Result, error) {
	lead, err := s.loadLead(ctx, leadID)
	if err != nil {
		return notifier.Result{}, err
	}
	if lead.Email == nil || *lead.Email == "" {
		return notifier.Result{Skipped: true}, nil
	}

	html, err := email.RenderConfirmation(email.ConfirmationData{FullName: lead.FullName})
	if err != nil {
		return notifier.Result{}, err
	}

	return s.send(ctx, lead, notifier.TypeCustomerConfirmation, overrideRetry, email.Message{
		To:      []string{*lead.Email},
		Subject: "We received your configuration",
		HTML:    html,
	}, nil)
}

// SendQuoteToClient emails the customer their price-quote document link.
func (s *Service) SendQuoteToClient(ctx context.Context, leadID uuid.UUID, overrideRetry bool) (notifier.Result, error) {
	lead, err := s.loadLead(ctx, leadID)
	if err != nil {
		return notifier.Result{}, err
	}
	if lead.Email == nil || *lead.Email == "" {
		return notifier.Result{}, apperr.Validation("lead has no email address")
	}
	if lead.QuoteID == nil || lead.QuoteURL == nil {
		return notifier.Result{}, apperr.Validation("lead has no quote to send")
	}

	total := 0.0
	if lead.QuoteTotal != nil {
		total = *lead.QuoteTotal
	}

	html, err := email.RenderQuote(email.QuoteData{
		FullName:       lead.FullName,
		QuoteNumber:    deref(lead.QuoteNumber),
		TotalFormatted: email.FormatILS(total),
	}, *lead.QuoteURL)
	if err != nil {
		return notifier.Result{}, err
	}

	return s.send(ctx, lead, notifier.TypeQuoteClient, overrideRetry, email.Message{
		To:      []string{*lead.Email},
		Subject: fmt.Sprintf("Your price quote %s", deref(lead.QuoteNumber)),
		HTML:    html,
	}, map[string]any{"quoteNumber": deref(lead.QuoteNumber)})
}

// SendCompletionLink emails the customer a link back into their saved
// configurator session. On a successful send the lead advances from new to
// contacted and a timestamped note is appended.
func (s *Service) SendCompletionLink(ctx context.Context, leadID uuid.UUID, overrideRetry bool) (notifier.Result, error) {
	lead, err := s.loadLead(ctx, leadID)
	if err != nil {
		return notifier.Result{}, err
	}
	if lead.Email == nil || *lead.Email == "" {
		return notifier.Result{}, apperr.Validation("lead has no email address")
	}

	html, err := email.RenderCompletionLink(email.CompletionLinkData{FullName: lead.FullName}, s.resumeURL(leadID))
	if err != nil {
		return notifier.Result{}, err
	}

	result, err := s.send(ctx, lead, notifier.TypeCompletionLink, overrideRetry, email.Message{
		To:      []string{*lead.Email},
		Subject: "Continue your food truck configuration",
		HTML:    html,
	}, nil)
	if err != nil || !result.Sent {
		return result, err
	}

	if advErr := s.leads.AdvanceStatus(ctx, leadID, domain.StatusNew, domain.StatusContacted); advErr != nil {
		s.logger.Error("failed to advance lead status after completion link", "lead_id", leadID, "error", advErr)
	}
	note := fmt.Sprintf("[%s] completion link sent to %s", time.Now().UTC().Format(time.RFC3339), *lead.Email)
	if noteErr := s.leads.AppendNote(ctx, leadID, note); noteErr != nil {
		s.logger.Error("failed to append completion link note", "lead_id", leadID, "error", noteErr)
	}
	return result, nil
}

// ListEmailLog returns the audit trail for one lead.
func (s *Service) ListEmailLog(ctx context.Context, leadID uuid.UUID) ([]emaillog.Entry, error) {
	return s.log.ListByLead(ctx, leadID)
}

// send runs the shared protocol: claim the idempotency key, deliver, then
// finalize the log row. The queued row exists before the outbound call and
// never stays queued once the call has returned.
func (s *Service) send(ctx context.Context, lead leadrepo.Lead, emailType notifier.EmailType, overrideRetry bool, msg email.Message, metadata map[string]any) (notifier.Result, error) {
	baseKey := fmt.Sprintf("%s:%s", emailType, lead.ID)
	key := baseKey
	attempt := 1

	if overrideRetry {
		maxAttempt, err := s.log.MaxAttempt(ctx, baseKey)
		if err != nil {
			return notifier.Result{}, apperr.Wrap(apperr.KindInternal, "failed to read email log", err)
		}
		if maxAttempt > 0 {
			attempt = maxAttempt + 1
			key = fmt.Sprintf("%s:retry_%d", baseKey, attempt)
		}
	}

	outcome, rowID, err := s.log.Claim(ctx, emaillog.ClaimParams{
		LeadID:         lead.ID,
		EmailType:      string(emailType),
		Recipient:      strings.Join(msg.To, ","),
		Subject:        msg.Subject,
		Attempt:        attempt,
		IdempotencyKey: key,
		Metadata:       metadata,
	})
	if err != nil {
		return notifier.Result{}, apperr.Wrap(apperr.KindInternal, "failed to claim email log row", err)
	}
	if outcome == emaillog.AlreadySent {
		s.logger.Info("email already sent, skipping", "email_type", emailType, "idempotency_key", key)
		return notifier.Result{Skipped: true}, nil
	}

	providerID, sendErr := s.sender.Send(ctx, msg)
	if sendErr != nil {
		if markErr := s.log.MarkFailed(ctx, rowID, sendErr); markErr != nil {
			s.logger.Error("failed to mark email log row failed", "row_id", rowID, "error", markErr)
		}
		s.logger.EmailAttempt(string(emailType), strings.Join(msg.To, ","), key, false, sendErr)
		return notifier.Result{}, apperr.Wrap(apperr.KindUpstreamRejected, "email delivery failed", sendErr)
	}

	if markErr := s.log.MarkSent(ctx, rowID, providerID); markErr != nil {
		s.logger.Error("failed to mark email log row sent", "row_id", rowID, "error", markErr)
	}
	s.logger.EmailAttempt(string(emailType), strings.Join(msg.To, ","), key, true, nil)
	return notifier.Result{Sent: true}, nil
}

func (s *Service) loadLead(ctx context.Context, leadID uuid.UUID) (leadrepo.Lead, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if errors.Is(err, leadrepo.ErrNotFound) {
		return leadrepo.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return leadrepo.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return lead, nil
}

func (s *Service) resumeURL(leadID uuid.UUID) string {
	return fmt.Sprintf("%s/configurator?lead=%s", s.cfg.GetAppBaseURL(), leadID)
}

func (s *Service) adminLeadURL(leadID uuid.UUID) string {
	return fmt.Sprintf("%s/admin/leads/%s", s.cfg.GetAppBaseURL(), leadID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
