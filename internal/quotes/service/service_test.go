package service

import (
	"context"
	"strings"
	"testing"

	"github.com/yossefJiy/caravan-creator-sub000/internal/invoicing"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"
	leadrepo "github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/pricing"
	"github.com/yossefJiy/caravan-creator-sub000/platform/apperr"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeadStore struct {
	leads            map[uuid.UUID]leadrepo.Lead
	setQuotes        []leadrepo.SetQuoteParams
	validationErrors []string
}

func (f *fakeLeadStore) GetByID(_ context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return leadrepo.Lead{}, leadrepo.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadStore) SetQuote(_ context.Context, id uuid.UUID, params leadrepo.SetQuoteParams) error {
	f.setQuotes = append(f.setQuotes, params)
	lead := f.leads[id]
	lead.QuoteID = &params.QuoteID
	lead.QuoteNumber = &params.QuoteNumber
	lead.QuoteTotal = &params.QuoteTotal
	lead.QuoteURL = &params.QuoteURL
	f.leads[id] = lead
	return nil
}

func (f *fakeLeadStore) SetValidationError(_ context.Context, _ uuid.UUID, message string) error {
	f.validationErrors = append(f.validationErrors, message)
	return nil
}

// fakeResolver prices from a static table keyed by name.
type fakeResolver struct {
	sizePrices  map[string]float64
	equipPrices map[string]float64
}

func (f *fakeResolver) ResolveTruckSize(_ context.Context, name string, _ *uuid.UUID) (pricing.Line, error) {
	price, ok := f.sizePrices[name]
	if !ok {
		return pricing.Line{Name: name, Quantity: 1}, nil
	}
	return pricing.Line{Name: name, UnitPrice: price, Quantity: 1}, nil
}

func (f *fakeResolver) ResolveEquipment(_ context.Context, sel domain.EquipmentSelection) (pricing.Line, error) {
	label := sel.Label
	qty := sel.Quantity
	if qty < 1 {
		qty = 1
	}
	if base, parsedQty := domain.ParseQuantitySuffix(label); parsedQty >= 1 {
		label = base
		if parsedQty > 1 && sel.Quantity <= 1 {
			qty = parsedQty
		}
	}
	price, ok := f.equipPrices[label]
	if !ok {
		return pricing.Line{Name: label, Quantity: qty}, nil
	}
	return pricing.Line{Name: label, UnitPrice: price, Quantity: qty}, nil
}

type fakeInvoiceClient struct {
	authErr    error
	createErr  error
	closeErr   error
	closed     []string
	created    []invoicing.DocumentRequest
	nextNumber string
}

func (f *fakeInvoiceClient) Authenticate(_ context.Context) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	return "token-1", nil
}

func (f *fakeInvoiceClient) CreateDocument(_ context.Context, _ string, req invoicing.DocumentRequest) (invoicing.Document, error) {
	if f.createErr != nil {
		return invoicing.Document{}, f.createErr
	}
	f.created = append(f.created, req)
	number := f.nextNumber
	if number == "" {
		number = "Q-1001"
	}
	return invoicing.Document{ID: "doc-" + number, Number: number, URL: "https://docs.example.com/" + number}, nil
}

func (f *fakeInvoiceClient) CloseDocument(_ context.Context, _ string, documentID string) error {
	f.closed = append(f.closed, documentID)
	return f.closeErr
}

type enabledInvoicingCfg struct{}

func (enabledInvoicingCfg) GetInvoicingAPIURL() string    { return "https://invoicing.example.com" }
func (enabledInvoicingCfg) GetInvoicingCompanyID() string { return "company-1" }
func (enabledInvoicingCfg) GetInvoicingAPIKey() string    { return "secret" }
func (enabledInvoicingCfg) IsInvoicingEnabled() bool      { return true }

func newTestQuoteService(t *testing.T) (*Service, *fakeLeadStore, *fakeInvoiceClient, uuid.UUID) {
	t.Helper()

	leadID := uuid.New()
	truckType := "Pizza Truck"
	truckSize := "Vesuvia 40"
	email := "dana@example.com"
	leads := &fakeLeadStore{leads: map[uuid.UUID]leadrepo.Lead{
		leadID: {
			ID:            leadID,
			FullName:      "Dana Cohen",
			Phone:         "+972501234567",
			Email:         &email,
			TruckTypeName: &truckType,
			TruckSizeName: &truckSize,
			Equipment: []domain.EquipmentSelection{
				{Label: "Griddle", Quantity: 2},
			},
		},
	}}

	resolver := &fakeResolver{
		sizePrices:  map[string]float64{"Vesuvia 40": 50000},
		equipPrices: map[string]float64{"Griddle": 1500},
	}
	client := &fakeInvoiceClient{}
	svc := New(leads, resolver, client, enabledInvoicingCfg{}, nil, logger.New("development"))
	return svc, leads, client, leadID
}

func TestCreateQuoteTotals(t *testing.T) {
	svc, leads, _, leadID := newTestQuoteService(t)

	result, err := svc.CreateQuote(context.Background(), leadID, false)
	require.NoError(t, err)

	// 50,000 size + 2 × 1,500 equipment = 53,000, stored with 18% VAT.
	assert.InDelta(t, 53000.0, result.Subtotal, 0.001)
	assert.InDelta(t, 62540.0, result.TotalInclVat, 0.001)

	require.Len(t, leads.setQuotes, 1)
	assert.InDelta(t, 62540.0, leads.setQuotes[0].QuoteTotal, 0.001)
	assert.False(t, leads.setQuotes[0].MarkSent)
}

func TestCreateQuoteLineItemInvariant(t *testing.T) {
	svc, _, client, leadID := newTestQuoteService(t)

	_, err := svc.CreateQuote(context.Background(), leadID, false)
	require.NoError(t, err)

	require.Len(t, client.created, 1)
	lines := client.created[0].Income

	// The truck-type line carries the full subtotal; every other line is 0.
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "Pizza Truck", lines[0].Description)
	assert.InDelta(t, 53000.0, lines[0].Price, 0.001)
	assert.Equal(t, "package contents:", lines[1].Description)

	sum := 0.0
	for i, line := range lines {
		sum += line.Price * float64(line.Quantity)
		if i > 0 {
			assert.Zero(t, line.Price, "descriptive line %d must be free", i)
		}
	}
	assert.InDelta(t, 53000.0, sum, 0.001, "lines sum to exactly the subtotal")
}

func TestCreateQuoteDescriptiveLinesCarryQuantity(t *testing.T) {
	svc, _, client, leadID := newTestQuoteService(t)

	_, err := svc.CreateQuote(context.Background(), leadID, false)
	require.NoError(t, err)

	lines := client.created[0].Income
	var found bool
	for _, line := range lines {
		if strings.Contains(line.Description, "Griddle (×2)") {
			found = true
		}
	}
	assert.True(t, found, "equipment line shows the quantity marker")
}

func TestCreateQuoteClosesPreviousQuote(t *testing.T) {
	svc, leads, client, leadID := newTestQuoteService(t)

	prev := "doc-old"
	lead := leads.leads[leadID]
	lead.QuoteID = &prev
	leads.leads[leadID] = lead

	_, err := svc.CreateQuote(context.Background(), leadID, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"doc-old"}, client.closed)
	require.Len(t, leads.setQuotes, 1, "new quote overwrites the lead's quote fields")
}

func TestCreateQuoteCloseFailureDoesNotAbort(t *testing.T) {
	svc, leads, client, leadID := newTestQuoteService(t)

	prev := "doc-old"
	lead := leads.leads[leadID]
	lead.QuoteID = &prev
	leads.leads[leadID] = lead
	client.closeErr = apperr.UpstreamRejected("close failed")

	_, err := svc.CreateQuote(context.Background(), leadID, false)
	require.NoError(t, err)
	assert.Len(t, leads.setQuotes, 1)
}

func TestCreateQuoteEmailOnlyWhenRequested(t *testing.T) {
	svc, _, client, leadID := newTestQuoteService(t)

	_, err := svc.CreateQuote(context.Background(), leadID, false)
	require.NoError(t, err)
	assert.Empty(t, client.created[0].Client.Emails)

	_, err = svc.CreateQuote(context.Background(), leadID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"dana@example.com"}, client.created[1].Client.Emails)
}

func TestCreateQuoteInvalidTaxID(t *testing.T) {
	svc, leads, client, leadID := newTestQuoteService(t)
	client.createErr = invoicing.ErrInvalidTaxID

	_, err := svc.CreateQuote(context.Background(), leadID, false)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstreamRejected))

	require.Len(t, leads.validationErrors, 1, "validation message persisted on the lead")
	assert.Empty(t, leads.setQuotes, "no partial overwrite of quote fields")
}

func TestCreateQuoteAuthFailureLeavesLeadUntouched(t *testing.T) {
	svc, leads, client, leadID := newTestQuoteService(t)
	client.authErr = apperr.UpstreamAuth("bad credentials")

	_, err := svc.CreateQuote(context.Background(), leadID, false)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstreamAuth))
	assert.Empty(t, leads.setQuotes)
	assert.Empty(t, leads.validationErrors)
}

func TestCreateQuoteUnknownLead(t *testing.T) {
	svc, _, _, _ := newTestQuoteService(t)

	_, err := svc.CreateQuote(context.Background(), uuid.New(), false)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateQuoteUnresolvableEquipmentIsFree(t *testing.T) {
	svc, leads, _, leadID := newTestQuoteService(t)

	lead := leads.leads[leadID]
	lead.Equipment = append(lead.Equipment, domain.EquipmentSelection{Label: "Mystery Box", Quantity: 1})
	leads.leads[leadID] = lead

	result, err := svc.CreateQuote(context.Background(), leadID, false)
	require.NoError(t, err)
	assert.InDelta(t, 53000.0, result.Subtotal, 0.001, "unpriced items contribute 0")
}

func TestBuildIncomeLinesEmptySelections(t *testing.T) {
	lines, subtotal := buildIncomeLines("", pricing.Line{}, nil)

	assert.Zero(t, subtotal)
	require.Len(t, lines, 2)
	assert.Equal(t, "Food truck", lines[0].Description)
}

func TestTotalWithVAT(t *testing.T) {
	assert.InDelta(t, 62540.0, totalWithVAT(53000), 0.001)
	assert.InDelta(t, 118.0, totalWithVAT(100), 0.001)
	assert.InDelta(t, 117.99, totalWithVAT(99.99), 0.001)
}
