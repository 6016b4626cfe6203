package pricing

import (
	"context"
	"strings"
	"testing"

	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"
	"github.com/yossefJiy/caravan-creator-sub000/internal/pricing/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	truckTypes []repository.CatalogItem
	truckSizes []repository.CatalogItem
	equipment  []repository.CatalogItem
	prices     map[string]float64 // "<item_type>:<item_id>" -> sale price
}

func (f *fakeCatalog) TruckTypeByName(_ context.Context, name string) (*repository.CatalogItem, error) {
	for i := range f.truckTypes {
		if strings.EqualFold(f.truckTypes[i].Name, name) {
			return &f.truckTypes[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) TruckSizeByName(_ context.Context, name string, truckTypeID *uuid.UUID) (*repository.CatalogItem, error) {
	if truckTypeID != nil {
		for i := range f.truckSizes {
			s := f.truckSizes[i]
			if strings.EqualFold(s.Name, name) && s.TruckTypeID != nil && *s.TruckTypeID == *truckTypeID {
				return &f.truckSizes[i], nil
			}
		}
	}
	for i := range f.truckSizes {
		if strings.EqualFold(f.truckSizes[i].Name, name) {
			return &f.truckSizes[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) EquipmentByID(_ context.Context, id uuid.UUID) (*repository.CatalogItem, error) {
	for i := range f.equipment {
		if f.equipment[i].ID == id {
			return &f.equipment[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) EquipmentByLabel(_ context.Context, label string) (*repository.CatalogItem, error) {
	var best *repository.CatalogItem
	for i := range f.equipment {
		name := f.equipment[i].Name
		if strings.HasPrefix(strings.ToLower(label), strings.ToLower(name)) {
			if best == nil || len(name) > len(best.Name) {
				best = &f.equipment[i]
			}
		}
	}
	if best != nil {
		return best, nil
	}
	for i := range f.equipment {
		if strings.EqualFold(f.equipment[i].Name, label) {
			return &f.equipment[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) SalePrice(_ context.Context, itemType string, itemID uuid.UUID) (float64, error) {
	return f.prices[itemType+":"+itemID.String()], nil
}

func newTestCatalog() (*fakeCatalog, uuid.UUID, uuid.UUID, uuid.UUID) {
	typeID := uuid.New()
	sizeID := uuid.New()
	griddleID := uuid.New()

	catalog := &fakeCatalog{
		truckTypes: []repository.CatalogItem{{ID: typeID, Name: "Pizza Truck"}},
		truckSizes: []repository.CatalogItem{{ID: sizeID, Name: "Vesuvia 40", TruckTypeID: &typeID}},
		equipment:  []repository.CatalogItem{{ID: griddleID, Name: "Griddle"}},
		prices: map[string]float64{
			repository.ItemTypeTruckSize + ":" + sizeID.String():    50000,
			repository.ItemTypeEquipment + ":" + griddleID.String(): 100,
		},
	}
	return catalog, typeID, sizeID, griddleID
}

func TestResolveEquipmentQuantitySuffix(t *testing.T) {
	catalog, _, _, griddleID := newTestCatalog()
	resolver := NewResolver(catalog)

	line, err := resolver.ResolveEquipment(context.Background(), domain.EquipmentSelection{Label: "Griddle (×3)"})
	require.NoError(t, err)

	require.NotNil(t, line.ItemID)
	assert.Equal(t, griddleID, *line.ItemID)
	assert.Equal(t, "Griddle", line.Name)
	assert.Equal(t, 3, line.Quantity)
	assert.InDelta(t, 100.0, line.UnitPrice, 0.001)
	assert.InDelta(t, 300.0, line.Total(), 0.001)
}

func TestResolveEquipmentPrefixMatch(t *testing.T) {
	catalog, _, _, griddleID := newTestCatalog()
	resolver := NewResolver(catalog)

	// Display strings carry a parenthesized description after the name.
	line, err := resolver.ResolveEquipment(context.Background(), domain.EquipmentSelection{
		Label:    "Griddle - flat top, 60cm",
		Quantity: 1,
	})
	require.NoError(t, err)

	require.NotNil(t, line.ItemID)
	assert.Equal(t, griddleID, *line.ItemID)
	assert.InDelta(t, 100.0, line.UnitPrice, 0.001)
}

func TestResolveEquipmentByID(t *testing.T) {
	catalog, _, _, griddleID := newTestCatalog()
	resolver := NewResolver(catalog)

	line, err := resolver.ResolveEquipment(context.Background(), domain.EquipmentSelection{
		ItemID:   &griddleID,
		Quantity: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "Griddle", line.Name)
	assert.Equal(t, 2, line.Quantity)
	assert.InDelta(t, 200.0, line.Total(), 0.001)
}

func TestResolveEquipmentUnknownLabelIsFree(t *testing.T) {
	catalog, _, _, _ := newTestCatalog()
	resolver := NewResolver(catalog)

	line, err := resolver.ResolveEquipment(context.Background(), domain.EquipmentSelection{Label: "Mystery Box (×4)"})
	require.NoError(t, err)

	assert.Nil(t, line.ItemID)
	assert.Equal(t, "Mystery Box", line.Name)
	assert.Equal(t, 4, line.Quantity)
	assert.Zero(t, line.UnitPrice)
	assert.Zero(t, line.Total())
}

func TestResolveTruckSizeScopedByType(t *testing.T) {
	catalog, typeID, sizeID, _ := newTestCatalog()

	// A second size with the same name under a different type must lose to
	// the scoped match.
	otherTypeID := uuid.New()
	otherSizeID := uuid.New()
	catalog.truckSizes = append([]repository.CatalogItem{
		{ID: otherSizeID, Name: "Vesuvia 40", TruckTypeID: &otherTypeID},
	}, catalog.truckSizes...)

	resolver := NewResolver(catalog)
	line, err := resolver.ResolveTruckSize(context.Background(), "Vesuvia 40", &typeID)
	require.NoError(t, err)

	require.NotNil(t, line.ItemID)
	assert.Equal(t, sizeID, *line.ItemID)
	assert.InDelta(t, 50000.0, line.UnitPrice, 0.001)
}

func TestResolveTruckSizeNameOnlyFallback(t *testing.T) {
	catalog, _, sizeID, _ := newTestCatalog()
	resolver := NewResolver(catalog)

	unknownType := uuid.New()
	line, err := resolver.ResolveTruckSize(context.Background(), "Vesuvia 40", &unknownType)
	require.NoError(t, err)

	require.NotNil(t, line.ItemID)
	assert.Equal(t, sizeID, *line.ItemID)
}

func TestResolveTruckSizeUnknownIsFree(t *testing.T) {
	catalog, _, _, _ := newTestCatalog()
	resolver := NewResolver(catalog)

	line, err := resolver.ResolveTruckSize(context.Background(), "Nonexistent 99", nil)
	require.NoError(t, err)

	assert.Nil(t, line.ItemID)
	assert.Equal(t, "Nonexistent 99", line.Name)
	assert.Zero(t, line.UnitPrice)
}

func TestTruckTypeIDByName(t *testing.T) {
	catalog, typeID, _, _ := newTestCatalog()
	resolver := NewResolver(catalog)

	id, err := resolver.TruckTypeIDByName(context.Background(), "Pizza Truck")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, typeID, *id)

	id, err = resolver.TruckTypeIDByName(context.Background(), "Submarine")
	require.NoError(t, err)
	assert.Nil(t, id)
}
