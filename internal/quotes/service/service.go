// Package service implements the quote builder: resolving a lead's
// selections to priced line items, creating the external price-quote
// document, and persisting the quote metadata back onto the lead.
package service

import (
	"context"
	"errors"

	"github.com/yossefJiy/caravan-creator-sub000/internal/events"
	"github.com/yossefJiy/caravan-creator-sub000/internal/invoicing"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"
	leadrepo "github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/pricing"
	"github.com/yossefJiy/caravan-creator-sub000/platform/apperr"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/google/uuid"
)

// LeadStore is the slice of the lead repository the quote builder needs.
type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	SetQuote(ctx context.Context, id uuid.UUID, params leadrepo.SetQuoteParams) error
	SetValidationError(ctx context.Context, id uuid.UUID, message string) error
}

// PriceResolver resolves selections to priced lines.
type PriceResolver interface {
	ResolveTruckSize(ctx context.Context, name string, truckTypeID *uuid.UUID) (pricing.Line, error)
	ResolveEquipment(ctx context.Context, sel domain.EquipmentSelection) (pricing.Line, error)
}

// InvoiceClient is the external invoicing provider.
type InvoiceClient interface {
	Authenticate(ctx context.Context) (string, error)
	CreateDocument(ctx context.Context, token string, req invoicing.DocumentRequest) (invoicing.Document, error)
	CloseDocument(ctx context.Context, token, documentID string) error
}

// Result is the outcome of a successful quote creation.
type Result struct {
	QuoteID      string  `json:"quoteId"`
	QuoteNumber  string  `json:"quoteNumber"`
	QuoteURL     string  `json:"quoteUrl"`
	Subtotal     float64 `json:"totalExclVat"`
	TotalInclVat float64 `json:"totalInclVat"`
}

type Service struct {
	leads    LeadStore
	resolver PriceResolver
	client   InvoiceClient
	cfg      config.InvoicingConfig
	bus      events.Bus
	log      *logger.Logger
}

func New(leads LeadStore, resolver PriceResolver, client InvoiceClient, cfg config.InvoicingConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{leads: leads, resolver: resolver, client: client, cfg: cfg, bus: bus, log: log}
}

// CreateQuote builds and submits a price-quote document for the lead. Any
// failure before the final persist leaves the lead's previous quote fields
// untouched. When sendEmail is set, the provider emails the document and the
// lead is stamped quoted/sent.
func (s *Service) CreateQuote(ctx context.Context, leadID uuid.UUID, sendEmail bool) (Result, error) {
	if !s.cfg.IsInvoicingEnabled() {
		return Result{}, apperr.Validation("invoicing is not configured")
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if errors.Is(err, leadrepo.ErrNotFound) {
		return Result{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	sizeLine, equipmentLines, err := s.resolveSelections(ctx, lead)
	if err != nil {
		return Result{}, err
	}

	incomeLines, subtotal := buildIncomeLines(derefStr(lead.TruckTypeName), sizeLine, equipmentLines)

	token, err := s.client.Authenticate(ctx)
	if err != nil {
		return Result{}, err
	}

	// Replacing a quote: void the previous document first. Best effort; a
	// failure to close never aborts the new quote.
	if lead.QuoteID != nil && *lead.QuoteID != "" {
		if closeErr := s.client.CloseDocument(ctx, token, *lead.QuoteID); closeErr != nil {
			s.log.Warn("failed to close previous quote", "lead_id", leadID, "quote_id", *lead.QuoteID, "error", closeErr)
		}
	}

	docClient := invoicing.DocumentClient{
		Name:  lead.FullName,
		Phone: lead.Phone,
		TaxID: derefStr(lead.TaxID),
	}
	// The provider emails the document itself when given an address. Omit it
	// unless the caller asked for a send.
	if sendEmail && lead.Email != nil && *lead.Email != "" {
		docClient.Emails = []string{*lead.Email}
	}

	doc, err := s.client.CreateDocument(ctx, token, invoicing.DocumentRequest{
		Type:     invoicing.DocumentTypePriceQuote,
		Lang:     "he",
		Currency: quoteCurrency,
		VatType:  invoicing.VatTypeExclusive,
		Client:   docClient,
		Income:   incomeLines,
	})
	if errors.Is(err, invoicing.ErrInvalidTaxID) {
		const msg = "The invoicing provider rejected the tax ID. Please verify it and try again."
		if persistErr := s.leads.SetValidationError(ctx, leadID, msg); persistErr != nil {
			s.log.Error("failed to persist validation error", "lead_id", leadID, "error", persistErr)
		}
		return Result{}, apperr.UpstreamRejected("invoice rejected: invalid tax id")
	}
	if err != nil {
		return Result{}, err
	}

	totalInclVat := totalWithVAT(subtotal)
	if err := s.leads.SetQuote(ctx, leadID, leadrepo.SetQuoteParams{
		QuoteID:     doc.ID,
		QuoteNumber: doc.Number,
		QuoteTotal:  totalInclVat,
		QuoteURL:    doc.URL,
		MarkSent:    sendEmail,
	}); err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to persist quote", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.QuoteCreated{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       leadID,
			QuoteID:      doc.ID,
			QuoteNumber:  doc.Number,
			TotalInclVat: totalInclVat,
			EmailSent:    sendEmail,
		})
	}

	return Result{
		QuoteID:      doc.ID,
		QuoteNumber:  doc.Number,
		QuoteURL:     doc.URL,
		Subtotal:     subtotal,
		TotalInclVat: totalInclVat,
	}, nil
}

func (s *Service) resolveSelections(ctx context.Context, lead leadrepo.Lead) (pricing.Line, []pricing.Line, error) {
	var sizeLine pricing.Line
	if lead.TruckSizeName != nil && *lead.TruckSizeName != "" {
		line, err := s.resolver.ResolveTruckSize(ctx, *lead.TruckSizeName, lead.TruckTypeID)
		if err != nil {
			return pricing.Line{}, nil, apperr.Wrap(apperr.KindInternal, "failed to resolve truck size", err)
		}
		sizeLine = line
	}

	equipmentLines := make([]pricing.Line, 0, len(lead.Equipment))
	for _, sel := range lead.Equipment {
		line, err := s.resolver.ResolveEquipment(ctx, sel)
		if err != nil {
			return pricing.Line{}, nil, apperr.Wrap(apperr.KindInternal, "failed to resolve equipment", err)
		}
		equipmentLines = append(equipmentLines, line)
	}
	return sizeLine, equipmentLines, nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
