// Package service implements the lead lifecycle: capturing configurator
// submissions, normalizing them at the boundary, and publishing the domain
// events the notification pipeline listens to.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/internal/events"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/transport"
	"github.com/yossefJiy/caravan-creator-sub000/platform/apperr"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"
	"github.com/yossefJiy/caravan-creator-sub000/platform/phone"

	"github.com/google/uuid"
)

// CatalogResolver resolves display names coming from the configurator to
// catalog ids. Implemented by the pricing module. A nil id with a nil error
// means the name is unknown; the selection keeps its free-text label.
type CatalogResolver interface {
	TruckTypeIDByName(ctx context.Context, name string) (*uuid.UUID, error)
	EquipmentIDByName(ctx context.Context, name string) (*uuid.UUID, error)
}

// Repository is the persistence surface the service needs from the lead store.
type Repository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
	List(ctx context.Context, limit, offset int) ([]repository.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo    Repository
	catalog CatalogResolver
	bus     events.Bus
	log     *logger.Logger
}

func New(repo Repository, catalog CatalogResolver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, bus: bus, log: log}
}

// Create captures a new configurator submission. Phone numbers are normalized
// to E.164, equipment labels are resolved to catalog ids where possible, and
// the appropriate submission event is published.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (repository.Lead, error) {
	normalizedPhone := phone.NormalizeE164(req.Phone)

	var consentAt *time.Time
	if req.PrivacyConsent {
		now := time.Now().UTC()
		consentAt = &now
	}

	params := repository.CreateLeadParams{
		FullName:         req.FullName,
		Phone:            normalizedPhone,
		Email:            req.Email,
		Notes:            req.Notes,
		TruckTypeName:    req.TruckType,
		TruckSizeName:    req.TruckSize,
		Equipment:        s.normalizeEquipment(ctx, req.Equipment),
		TaxID:            req.TaxID,
		IsComplete:       req.IsComplete,
		PrivacyConsentAt: consentAt,
	}
	if req.TruckType != nil {
		params.TruckTypeID = s.resolveTruckType(ctx, *req.TruckType)
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	s.publishSubmissionEvent(ctx, lead, lead.IsComplete)
	return lead, nil
}

// Update continues a configurator session or applies a back-office edit.
// When the update flips the lead from incomplete to complete, the completion
// event fires exactly as if the original submission had been complete.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (repository.Lead, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, mapRepoErr(err, "failed to load lead")
	}

	params := repository.UpdateLeadParams{
		FullName:      req.FullName,
		Email:         req.Email,
		Notes:         req.Notes,
		TruckTypeName: req.TruckType,
		TruckSizeName: req.TruckSize,
		TaxID:         req.TaxID,
		IsComplete:    req.IsComplete,
		Status:        req.Status,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}
	if req.TruckType != nil {
		params.TruckTypeID = s.resolveTruckType(ctx, *req.TruckType)
	}
	if req.Equipment != nil {
		params.Equipment = s.normalizeEquipment(ctx, req.Equipment)
	}
	if req.Status != nil && !domain.IsValidStatus(*req.Status) {
		return repository.Lead{}, apperr.Validation("invalid lead status")
	}

	lead, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return repository.Lead{}, mapRepoErr(err, "failed to update lead")
	}

	if !existing.IsComplete && lead.IsComplete {
		s.publishSubmissionEvent(ctx, lead, true)
	}
	return lead, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, mapRepoErr(err, "failed to load lead")
	}
	return lead, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]repository.Lead, error) {
	leads, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return leads, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err, "failed to delete lead")
	}
	return nil
}

// normalizeEquipment resolves free-text labels to catalog ids and clamps
// quantities. Unresolvable labels are kept verbatim so the quote builder's
// name-based fallback can still price them.
func (s *Service) normalizeEquipment(ctx context.Context, selections []domain.EquipmentSelection) []domain.EquipmentSelection {
	normalized := make([]domain.EquipmentSelection, 0, len(selections))
	for _, sel := range selections {
		if sel.Quantity < 1 {
			sel.Quantity = 1
		}
		if sel.ItemID == nil && sel.Label != "" && s.catalog != nil {
			id, err := s.catalog.EquipmentIDByName(ctx, sel.Label)
			if err != nil {
				s.log.Warn("equipment lookup failed", "label", sel.Label, "error", err)
			} else if id != nil {
				sel.ItemID = id
			}
		}
		normalized = append(normalized, sel)
	}
	return normalized
}

func (s *Service) resolveTruckType(ctx context.Context, name string) *uuid.UUID {
	if s.catalog == nil || name == "" {
		return nil
	}
	id, err := s.catalog.TruckTypeIDByName(ctx, name)
	if err != nil {
		s.log.Warn("truck type lookup failed", "name", name, "error", err)
		return nil
	}
	return id
}

func (s *Service) publishSubmissionEvent(ctx context.Context, lead repository.Lead, complete bool) {
	if s.bus == nil {
		return
	}
	if complete {
		s.bus.Publish(ctx, events.LeadCompleted{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			FullName:  lead.FullName,
			Phone:     lead.Phone,
			Email:     lead.Email,
		})
		return
	}
	s.bus.Publish(ctx, events.LeadSubmitted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		FullName:  lead.FullName,
		Phone:     lead.Phone,
		Email:     lead.Email,
	})
}

func mapRepoErr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return apperr.Wrap(apperr.KindInternal, msg, err)
}
