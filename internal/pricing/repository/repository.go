// Package repository provides read access to the catalog and pricing tables.
// The pipeline only reads these tables; the admin screens write them.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pricing item types, matching the pricing.item_type check constraint.
const (
	ItemTypeTruckType = "truck_type"
	ItemTypeTruckSize = "truck_size"
	ItemTypeEquipment = "equipment"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CatalogItem is one row from truck_types, truck_sizes, or equipment.
type CatalogItem struct {
	ID          uuid.UUID
	Name        string
	TruckTypeID *uuid.UUID // set for truck sizes only
}

// TruckTypeByName returns the active truck type with the given name, or nil
// when the name is unknown.
func (r *Repository) TruckTypeByName(ctx context.Context, name string) (*CatalogItem, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name FROM truck_types WHERE lower(name) = lower($1) AND is_active LIMIT 1`,
		name,
	)
	return scanItem(row, false)
}

// TruckSizeByName resolves a size by name, preferring a size whose parent
// truck type matches the given id. When no scoped match exists it falls back
// to a name-only match.
func (r *Repository) TruckSizeByName(ctx context.Context, name string, truckTypeID *uuid.UUID) (*CatalogItem, error) {
	if truckTypeID != nil {
		row := r.pool.QueryRow(ctx, `
			SELECT id, name, truck_type_id FROM truck_sizes
			WHERE lower(name) = lower($1) AND truck_type_id = $2 AND is_active
			LIMIT 1`,
			name, truckTypeID,
		)
		item, err := scanItem(row, true)
		if err != nil || item != nil {
			return item, err
		}
	}

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, truck_type_id FROM truck_sizes
		WHERE lower(name) = lower($1) AND is_active
		ORDER BY display_order ASC
		LIMIT 1`,
		name,
	)
	return scanItem(row, true)
}

// EquipmentByID returns the active equipment row for a known catalog id.
func (r *Repository) EquipmentByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name FROM equipment WHERE id = $1 AND is_active LIMIT 1`,
		id,
	)
	return scanItem(row, false)
}

// EquipmentByLabel resolves a free-text selection label. Catalog names that
// are a prefix of the label win first (display strings look like
// "Name (description)"), then an exact match. Unknown labels return nil.
func (r *Repository) EquipmentByLabel(ctx context.Context, label string) (*CatalogItem, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name FROM equipment
		WHERE lower($1) LIKE lower(name) || '%' AND is_active
		ORDER BY length(name) DESC
		LIMIT 1`,
		label,
	)
	item, err := scanItem(row, false)
	if err != nil || item != nil {
		return item, err
	}

	row = r.pool.QueryRow(ctx,
		`SELECT id, name FROM equipment WHERE lower(name) = lower($1) AND is_active LIMIT 1`,
		label,
	)
	return scanItem(row, false)
}

// SalePrice returns the configured sale price for an item, or 0 when the item
// has no active pricing row. Absent pricing is a free line item, not an error.
func (r *Repository) SalePrice(ctx context.Context, itemType string, itemID uuid.UUID) (float64, error) {
	var price float64
	err := r.pool.QueryRow(ctx,
		`SELECT sale_price FROM pricing WHERE item_type = $1 AND item_id = $2 AND is_active`,
		itemType, itemID,
	).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return price, nil
}

func scanItem(row pgx.Row, withTruckType bool) (*CatalogItem, error) {
	var item CatalogItem
	var err error
	if withTruckType {
		err = row.Scan(&item.ID, &item.Name, &item.TruckTypeID)
	} else {
		err = row.Scan(&item.ID, &item.Name)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
