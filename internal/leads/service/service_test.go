package service

import (
	"context"
	"testing"

	"github.com/yossefJiy/caravan-creator-sub000/internal/events"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/repository"
	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/transport"
	"github.com/yossefJiy/caravan-creator-sub000/platform/apperr"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	leads   map[uuid.UUID]repository.Lead
	created []repository.CreateLeadParams
	updated []repository.UpdateLeadParams
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: map[uuid.UUID]repository.Lead{}}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	f.created = append(f.created, params)
	lead := repository.Lead{
		ID:               uuid.New(),
		FullName:         params.FullName,
		Phone:            params.Phone,
		Email:            params.Email,
		TruckTypeID:      params.TruckTypeID,
		TruckTypeName:    params.TruckTypeName,
		TruckSizeName:    params.TruckSizeName,
		Equipment:        params.Equipment,
		IsComplete:       params.IsComplete,
		Status:           domain.StatusNew,
		PrivacyConsentAt: params.PrivacyConsentAt,
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	f.updated = append(f.updated, params)
	if params.Phone != nil {
		lead.Phone = *params.Phone
	}
	if params.IsComplete != nil {
		lead.IsComplete = *params.IsComplete
	}
	if params.Status != nil {
		lead.Status = *params.Status
	}
	if params.Equipment != nil {
		lead.Equipment = params.Equipment
	}
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeRepo) List(_ context.Context, _, _ int) ([]repository.Lead, error) {
	result := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		result = append(result, lead)
	}
	return result, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type fakeCatalog struct {
	truckTypes map[string]uuid.UUID
	equipment  map[string]uuid.UUID
}

func (f *fakeCatalog) TruckTypeIDByName(_ context.Context, name string) (*uuid.UUID, error) {
	if id, ok := f.truckTypes[name]; ok {
		return &id, nil
	}
	return nil, nil
}

func (f *fakeCatalog) EquipmentIDByName(_ context.Context, name string) (*uuid.UUID, error) {
	if id, ok := f.equipment[name]; ok {
		return &id, nil
	}
	return nil, nil
}

func newTestService() (*Service, *fakeRepo, *recordingBus, *fakeCatalog) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	catalog := &fakeCatalog{
		truckTypes: map[string]uuid.UUID{"Pizza Truck": uuid.New()},
		equipment:  map[string]uuid.UUID{"Griddle": uuid.New()},
	}
	svc := New(repo, catalog, bus, logger.New("development"))
	return svc, repo, bus, catalog
}

func strptr(s string) *string { return &s }

func TestCreateNormalizesPhone(t *testing.T) {
	svc, repo, _, _ := newTestService()

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FullName: "Dana Cohen",
		Phone:    "050-123-4567",
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "+972501234567", repo.created[0].Phone)
}

func TestCreatePartialPublishesSubmittedEvent(t *testing.T) {
	svc, _, bus, _ := newTestService()

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FullName:   "Dana Cohen",
		Phone:      "+972501234567",
		IsComplete: false,
	})
	require.NoError(t, err)

	require.Len(t, bus.published, 1)
	submitted, ok := bus.published[0].(events.LeadSubmitted)
	require.True(t, ok, "partial submission publishes LeadSubmitted")
	assert.Equal(t, lead.ID, submitted.LeadID)
}

func TestCreateCompletePublishesCompletedEvent(t *testing.T) {
	svc, _, bus, _ := newTestService()

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FullName:   "Dana Cohen",
		Phone:      "+972501234567",
		IsComplete: true,
	})
	require.NoError(t, err)

	require.Len(t, bus.published, 1)
	_, ok := bus.published[0].(events.LeadCompleted)
	assert.True(t, ok, "complete submission publishes LeadCompleted")
}

func TestCreateResolvesCatalogNames(t *testing.T) {
	svc, repo, _, catalog := newTestService()

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FullName:  "Dana Cohen",
		Phone:     "+972501234567",
		TruckType: strptr("Pizza Truck"),
		Equipment: []domain.EquipmentSelection{
			{Label: "Griddle", Quantity: 2},
			{Label: "Mystery Box", Quantity: 1},
		},
	})
	require.NoError(t, err)

	params := repo.created[0]
	require.NotNil(t, params.TruckTypeID)
	assert.Equal(t, catalog.truckTypes["Pizza Truck"], *params.TruckTypeID)

	require.Len(t, params.Equipment, 2)
	require.NotNil(t, params.Equipment[0].ItemID)
	assert.Equal(t, catalog.equipment["Griddle"], *params.Equipment[0].ItemID)
	assert.Nil(t, params.Equipment[1].ItemID, "unknown labels stay free text")
	assert.Equal(t, "Mystery Box", params.Equipment[1].Label)
}

func TestCreateClampsQuantity(t *testing.T) {
	svc, repo, _, _ := newTestService()

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FullName:  "Dana Cohen",
		Phone:     "+972501234567",
		Equipment: []domain.EquipmentSelection{{Label: "Griddle", Quantity: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.created[0].Equipment[0].Quantity)
}

func TestCreateRecordsConsentTimestamp(t *testing.T) {
	svc, repo, _, _ := newTestService()

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FullName:       "Dana Cohen",
		Phone:          "+972501234567",
		PrivacyConsent: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, repo.created[0].PrivacyConsentAt)

	_, err = svc.Create(context.Background(), transport.CreateLeadRequest{
		FullName: "Noa Levi",
		Phone:    "+972521234567",
	})
	require.NoError(t, err)
	assert.Nil(t, repo.created[1].PrivacyConsentAt)
}

func TestUpdateCompletionFlipFiresEventOnce(t *testing.T) {
	svc, _, bus, _ := newTestService()

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FullName: "Dana Cohen",
		Phone:    "+972501234567",
	})
	require.NoError(t, err)
	bus.published = nil

	complete := true
	updated, err := svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{IsComplete: &complete})
	require.NoError(t, err)
	assert.True(t, updated.IsComplete)

	require.Len(t, bus.published, 1)
	_, ok := bus.published[0].(events.LeadCompleted)
	assert.True(t, ok)

	// Updating an already complete lead fires nothing.
	bus.published = nil
	notes := "call back tomorrow"
	_, err = svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Empty(t, bus.published)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newTestService()

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FullName: "Dana Cohen",
		Phone:    "+972501234567",
	})
	require.NoError(t, err)

	bad := "archived"
	_, err = svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Status: &bad})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGetUnknownLeadIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
