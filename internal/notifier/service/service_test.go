package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/yossefJiy/caravan-creator-sub000/internal/email"
	emaillog "github.com/yossefJiy/caravan-creator-sub000/internal/emaillog/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"
	leadrepo "github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	notifier "github.com/yossefJiy/caravan-creator-sub000/internal/notifier/domain"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeadStore struct {
	leads    map[uuid.UUID]leadrepo.Lead
	statuses []string
	notes    []string
}

func (f *fakeLeadStore) GetByID(_ context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return leadrepo.Lead{}, leadrepo.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadStore) AdvanceStatus(_ context.Context, id uuid.UUID, from, to string) error {
	lead := f.leads[id]
	if lead.Status == from {
		lead.Status = to
		f.leads[id] = lead
		f.statuses = append(f.statuses, to)
	}
	return nil
}

func (f *fakeLeadStore) AppendNote(_ context.Context, _ uuid.UUID, note string) error {
	f.notes = append(f.notes, note)
	return nil
}

// fakeEmailLog mirrors the database upsert: one row per idempotency key, sent
// rows win conflicts.
type fakeEmailLog struct {
	rows map[string]*emaillog.Entry
}

func newFakeEmailLog() *fakeEmailLog {
	return &fakeEmailLog{rows: map[string]*emaillog.Entry{}}
}

func (f *fakeEmailLog) Claim(_ context.Context, params emaillog.ClaimParams) (emaillog.ClaimOutcome, uuid.UUID, error) {
	if row, ok := f.rows[params.IdempotencyKey]; ok {
		if row.Status == emaillog.StatusSent {
			return emaillog.AlreadySent, row.ID, nil
		}
		row.Status = emaillog.StatusQueued
		row.Attempt = params.Attempt
		return emaillog.Claimed, row.ID, nil
	}
	row := &emaillog.Entry{
		ID:             uuid.New(),
		LeadID:         params.LeadID,
		EmailType:      params.EmailType,
		Recipient:      params.Recipient,
		Subject:        params.Subject,
		Status:         emaillog.StatusQueued,
		Attempt:        params.Attempt,
		IdempotencyKey: params.IdempotencyKey,
	}
	f.rows[params.IdempotencyKey] = row
	return emaillog.Claimed, row.ID, nil
}

func (f *fakeEmailLog) MarkSent(_ context.Context, id uuid.UUID, providerMessageID string) error {
	for _, row := range f.rows {
		if row.ID == id {
			row.Status = emaillog.StatusSent
			if providerMessageID != "" {
				row.ProviderMessageID = &providerMessageID
			}
		}
	}
	return nil
}

func (f *fakeEmailLog) MarkFailed(_ context.Context, id uuid.UUID, sendErr error) error {
	for _, row := range f.rows {
		if row.ID == id {
			row.Status = emaillog.StatusFailed
			msg := sendErr.Error()
			row.ErrorMessage = &msg
		}
	}
	return nil
}

func (f *fakeEmailLog) MaxAttempt(_ context.Context, keyPrefix string) (int, error) {
	maxAttempt := 0
	for key, row := range f.rows {
		if strings.HasPrefix(key, keyPrefix) && row.Attempt > maxAttempt {
			maxAttempt = row.Attempt
		}
	}
	return maxAttempt, nil
}

func (f *fakeEmailLog) ListByLead(_ context.Context, leadID uuid.UUID) ([]emaillog.Entry, error) {
	entries := make([]emaillog.Entry, 0)
	for _, row := range f.rows {
		if row.LeadID == leadID {
			entries = append(entries, *row)
		}
	}
	return entries, nil
}

func (f *fakeEmailLog) sentCount() int {
	count := 0
	for _, row := range f.rows {
		if row.Status == emaillog.StatusSent {
			count++
		}
	}
	return count
}

type fakeSender struct {
	calls []email.Message
	err   error
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) (string, error) {
	f.calls = append(f.calls, msg)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("msg-%d", len(f.calls)), nil
}

type fakeNotifCfg struct {
	recipients []string
}

func (f fakeNotifCfg) GetAppBaseURL() string { return "https://trucks.example.com" }
func (f fakeNotifCfg) GetBusinessRecipients() []string {
	if f.recipients != nil {
		return f.recipients
	}
	return []string{"sales@trucks.example.com"}
}

func newTestService(t *testing.T) (*Service, *fakeLeadStore, *fakeEmailLog, *fakeSender, uuid.UUID) {
	t.Helper()
	leadID := uuid.New()
	customerEmail := "customer@example.com"
	leads := &fakeLeadStore{leads: map[uuid.UUID]leadrepo.Lead{
		leadID: {
			ID:       leadID,
			FullName: "Dana Cohen",
			Phone:    "+972501234567",
			Email:    &customerEmail,
			Status:   domain.StatusNew,
		},
	}}
	log := newFakeEmailLog()
	sender := &fakeSender{}
	svc := New(leads, log, sender, fakeNotifCfg{}, logger.New("development"))
	return svc, leads, log, sender, leadID
}

func TestSendIsIdempotent(t *testing.T) {
	svc, _, log, sender, leadID := newTestService(t)
	ctx := context.Background()

	first, err := svc.SendConfirmation(ctx, leadID, false)
	require.NoError(t, err)
	assert.True(t, first.Sent)

	second, err := svc.SendConfirmation(ctx, leadID, false)
	require.NoError(t, err)
	assert.False(t, second.Sent)
	assert.True(t, second.Skipped)

	assert.Len(t, sender.calls, 1, "exactly one outbound call")
	assert.Equal(t, 1, log.sentCount(), "exactly one sent row")
}

func TestOverrideRetryEscalatesAttempt(t *testing.T) {
	svc, _, log, sender, leadID := newTestService(t)
	ctx := context.Background()

	_, err := svc.SendConfirmation(ctx, leadID, false)
	require.NoError(t, err)

	result, err := svc.SendConfirmation(ctx, leadID, true)
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Len(t, sender.calls, 2)

	baseKey := fmt.Sprintf("customer_confirmation:%s", leadID)
	original := log.rows[baseKey]
	require.NotNil(t, original)
	assert.Equal(t, emaillog.StatusSent, original.Status, "original row untouched")
	assert.Equal(t, 1, original.Attempt)

	retry := log.rows[baseKey+":retry_2"]
	require.NotNil(t, retry, "retry row uses a suffixed key")
	assert.Equal(t, 2, retry.Attempt)
	assert.Equal(t, emaillog.StatusSent, retry.Status)
}

func TestFailedSendMarksRowFailed(t *testing.T) {
	svc, _, log, sender, leadID := newTestService(t)
	sender.err = errors.New("provider unavailable")

	_, err := svc.SendConfirmation(context.Background(), leadID, false)
	require.Error(t, err)

	baseKey := fmt.Sprintf("customer_confirmation:%s", leadID)
	row := log.rows[baseKey]
	require.NotNil(t, row)
	assert.Equal(t, emaillog.StatusFailed, row.Status, "row never stays queued after the call returns")
	require.NotNil(t, row.ErrorMessage)
	assert.Contains(t, *row.ErrorMessage, "provider unavailable")
}

func TestFailedSendCanBeRetriedWithoutOverride(t *testing.T) {
	svc, _, _, sender, leadID := newTestService(t)
	sender.err = errors.New("provider unavailable")

	_, err := svc.SendConfirmation(context.Background(), leadID, false)
	require.Error(t, err)

	sender.err = nil
	result, err := svc.SendConfirmation(context.Background(), leadID, false)
	require.NoError(t, err)
	assert.True(t, result.Sent, "failed rows do not block a re-claim")
}

func TestCompletionLinkSideEffects(t *testing.T) {
	svc, leads, _, _, leadID := newTestService(t)

	result, err := svc.SendCompletionLink(context.Background(), leadID, false)
	require.NoError(t, err)
	assert.True(t, result.Sent)

	assert.Equal(t, []string{domain.StatusContacted}, leads.statuses)
	require.Len(t, leads.notes, 1)
	assert.Contains(t, leads.notes[0], "completion link sent to customer@example.com")
}

func TestCompletionLinkReplayDoesNotRepeatSideEffects(t *testing.T) {
	svc, leads, _, _, leadID := newTestService(t)

	_, err := svc.SendCompletionLink(context.Background(), leadID, false)
	require.NoError(t, err)
	_, err = svc.SendCompletionLink(context.Background(), leadID, false)
	require.NoError(t, err)

	assert.Len(t, leads.notes, 1, "note appended only on the actual send")
}

func TestSendLeadNotificationIndependentOutcomes(t *testing.T) {
	svc, leads, _, sender, leadID := newTestService(t)

	// Drop the customer email so that channel fails while business succeeds.
	lead := leads.leads[leadID]
	lead.Email = nil
	leads.leads[leadID] = lead

	outcome, err := svc.SendLeadNotification(context.Background(), leadID, true, false, false)
	require.NoError(t, err)

	assert.True(t, outcome.Business.Sent)
	assert.False(t, outcome.Customer.Sent)
	assert.Len(t, sender.calls, 1)
}

func TestSendLeadNotificationUnknownLead(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.SendLeadNotification(context.Background(), uuid.New(), true, false, false)
	require.Error(t, err)
}

func TestDispatchUnknownType(t *testing.T) {
	svc, _, _, _, leadID := newTestService(t)

	_, err := svc.Dispatch(context.Background(), notifier.EmailType("bogus"), leadID, false)
	require.Error(t, err)
}

func TestDispatchRoutesPartialReminder(t *testing.T) {
	svc, _, log, _, leadID := newTestService(t)

	result, err := svc.Dispatch(context.Background(), notifier.TypePartialReminder, leadID, false)
	require.NoError(t, err)
	assert.True(t, result.Sent)

	key := fmt.Sprintf("partial_reminder:%s", leadID)
	require.NotNil(t, log.rows[key])
}
