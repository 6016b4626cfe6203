// Package pricing resolves configurator selections to catalog items and sale
// prices. Resolution is a pure lookup: unknown items price at 0 so the quote
// builder can render them as free descriptive lines instead of failing.
package pricing

import (
	"context"

	"github.com/yossefJiy/caravan-creator-sub000/internal/leads/domain"
	"github.com/yossefJiy/caravan-creator-sub000/internal/pricing/repository"

	"github.com/google/uuid"
)

// Catalog is the read surface the resolver needs from the catalog store.
type Catalog interface {
	TruckTypeByName(ctx context.Context, name string) (*repository.CatalogItem, error)
	TruckSizeByName(ctx context.Context, name string, truckTypeID *uuid.UUID) (*repository.CatalogItem, error)
	EquipmentByID(ctx context.Context, id uuid.UUID) (*repository.CatalogItem, error)
	EquipmentByLabel(ctx context.Context, label string) (*repository.CatalogItem, error)
	SalePrice(ctx context.Context, itemType string, itemID uuid.UUID) (float64, error)
}

// Line is one resolved selection: the catalog identity when known, the display
// name, the unit sale price, and the selected quantity.
type Line struct {
	ItemID    *uuid.UUID
	Name      string
	UnitPrice float64
	Quantity  int
}

// Total returns the line's subtotal contribution.
func (l Line) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

type Resolver struct {
	catalog Catalog
}

func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// TruckTypeIDByName resolves a truck type display name to its catalog id.
// Unknown names return nil, not an error.
func (r *Resolver) TruckTypeIDByName(ctx context.Context, name string) (*uuid.UUID, error) {
	item, err := r.catalog.TruckTypeByName(ctx, name)
	if err != nil || item == nil {
		return nil, err
	}
	return &item.ID, nil
}

// EquipmentIDByName resolves a free-text equipment label to its catalog id.
// Quantity suffixes are stripped before matching. Unknown labels return nil.
func (r *Resolver) EquipmentIDByName(ctx context.Context, label string) (*uuid.UUID, error) {
	base, _ := domain.ParseQuantitySuffix(label)
	item, err := r.catalog.EquipmentByLabel(ctx, base)
	if err != nil || item == nil {
		return nil, err
	}
	return &item.ID, nil
}

// ResolveTruckSize resolves a size name (scoped by the lead's truck type when
// available) to its display name and sale price. An unknown size yields a
// zero-priced line carrying the submitted name.
func (r *Resolver) ResolveTruckSize(ctx context.Context, name string, truckTypeID *uuid.UUID) (Line, error) {
	item, err := r.catalog.TruckSizeByName(ctx, name, truckTypeID)
	if err != nil {
		return Line{}, err
	}
	if item == nil {
		return Line{Name: name, Quantity: 1}, nil
	}

	price, err := r.catalog.SalePrice(ctx, repository.ItemTypeTruckSize, item.ID)
	if err != nil {
		return Line{}, err
	}
	return Line{ItemID: &item.ID, Name: item.Name, UnitPrice: price, Quantity: 1}, nil
}

// ResolveEquipment resolves one equipment selection. Selections carrying a
// catalog id are looked up directly; free-text labels fall back to
// prefix-then-exact name matching. Unresolvable selections come back as
// zero-priced lines keeping the submitted label.
func (r *Resolver) ResolveEquipment(ctx context.Context, sel domain.EquipmentSelection) (Line, error) {
	qty := sel.Quantity
	if qty < 1 {
		qty = 1
	}

	var item *repository.CatalogItem
	var err error
	label := sel.Label

	if sel.ItemID != nil {
		item, err = r.catalog.EquipmentByID(ctx, *sel.ItemID)
	} else if label != "" {
		var parsedQty int
		label, parsedQty = domain.ParseQuantitySuffix(label)
		if parsedQty > 1 && sel.Quantity <= 1 {
			qty = parsedQty
		}
		item, err = r.catalog.EquipmentByLabel(ctx, label)
	}
	if err != nil {
		return Line{}, err
	}
	if item == nil {
		return Line{Name: label, Quantity: qty}, nil
	}

	price, err := r.catalog.SalePrice(ctx, repository.ItemTypeEquipment, item.ID)
	if err != nil {
		return Line{}, err
	}
	return Line{ItemID: &item.ID, Name: item.Name, UnitPrice: price, Quantity: qty}, nil
}
