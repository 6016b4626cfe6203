// Package service implements the partial-lead sweep: a stateless pass over
// incomplete leads that escalates reminder notifications by wall-clock age.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	leadrepo "github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	notifier "github.com/yossefJiy/caravan-creator-sub000/internal/notifier/domain"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// sweepConcurrency bounds how many leads one sweep processes in parallel.
const sweepConcurrency = 4

// LeadStore selects the sweep candidates.
type LeadStore interface {
	ListIncompleteOlderThan(ctx context.Context, cutoff time.Time) ([]leadrepo.Lead, error)
}

// SentChecker reads the email log to reconstruct each lead's reminder state.
type SentChecker interface {
	HasSent(ctx context.Context, idempotencyKey string) (bool, error)
}

// Notifier sends the partial notices.
type Notifier interface {
	SendPartialNotice(ctx context.Context, leadID uuid.UUID, isReminder, overrideRetry bool) (notifier.Result, error)
}

// Summary aggregates one sweep run. Individual failures are isolated per
// lead; the run itself still succeeds and reports counts.
type Summary struct {
	Scanned  int `json:"scanned"`
	Notified int `json:"notified"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

type Service struct {
	leads    LeadStore
	log      SentChecker
	notifier Notifier
	cfg      config.SweepConfig
	logger   *logger.Logger
	now      func() time.Time
}

func New(leads LeadStore, log SentChecker, n Notifier, cfg config.SweepConfig, logger *logger.Logger) *Service {
	return &Service{
		leads:    leads,
		log:      log,
		notifier: n,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep runs one stateless pass. Per lead, the age and the presence of prior
// sent rows decide the action:
//   - younger than the first-notice threshold: never selected (query cutoff)
//   - no partial_first sent yet: send the first notice
//   - first notice sent, older than the reminder threshold, no
//     partial_reminder yet: send the reminder
//   - both sent, or the lead completed: nothing
//
// At most two notifications ever fire per lead regardless of run count.
func (s *Service) Sweep(ctx context.Context) (Summary, error) {
	cutoff := s.now().Add(-s.cfg.GetFirstNoticeAfter())
	leads, err := s.leads.ListIncompleteOlderThan(ctx, cutoff)
	if err != nil {
		return Summary{}, fmt.Errorf("list partial leads: %w", err)
	}

	var mu sync.Mutex
	summary := Summary{Scanned: len(leads)}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(sweepConcurrency)
	for _, lead := range leads {
		group.Go(func() error {
			notified, err := s.processLead(groupCtx, lead)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				s.logger.Error("partial lead sweep item failed", "lead_id", lead.ID, "error", err)
			case notified:
				summary.Notified++
			default:
				summary.Skipped++
			}
			// Item failures never abort the batch.
			return nil
		})
	}
	_ = group.Wait()

	s.logger.SweepSummary(summary.Scanned, summary.Notified, summary.Failed)
	return summary, nil
}

func (s *Service) processLead(ctx context.Context, lead leadrepo.Lead) (bool, error) {
	firstKey := fmt.Sprintf("%s:%s", notifier.TypePartialFirst, lead.ID)
	firstSent, err := s.log.HasSent(ctx, firstKey)
	if err != nil {
		return false, fmt.Errorf("check first notice: %w", err)
	}

	if !firstSent {
		result, err := s.notifier.SendPartialNotice(ctx, lead.ID, false, false)
		if err != nil {
			return false, fmt.Errorf("send first notice: %w", err)
		}
		return result.Sent, nil
	}

	if s.now().Sub(lead.CreatedAt) < s.cfg.GetReminderAfter() {
		return false, nil
	}

	reminderKey := fmt.Sprintf("%s:%s", notifier.TypePartialReminder, lead.ID)
	reminderSent, err := s.log.HasSent(ctx, reminderKey)
	if err != nil {
		return false, fmt.Errorf("check reminder: %w", err)
	}
	if reminderSent {
		return false, nil
	}

	result, err := s.notifier.SendPartialNotice(ctx, lead.ID, true, false)
	if err != nil {
		return false, fmt.Errorf("send reminder: %w", err)
	}
	return result.Sent, nil
}
