package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/repository"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) repository.SalesRepository {
	return &salesRepository{db: db}
}

// GetSalesHistory returns daily sales for a SKU since the given date,
// ascending. Days with multiple channel rows are aggregated into one point.
func (r *salesRepository) GetSalesHistory(ctx context.Context, sku string, since time.Time) ([]domain.SalesDataPoint, error) {
	const query = `
        SELECT
            date,
            SUM(units)::float AS units,
            SUM(revenue)::float AS revenue
        FROM daily_sales
        WHERE sku = $1 AND date >= $2
        GROUP BY date
        ORDER BY date ASC
    `

	points := make([]domain.SalesDataPoint, 0, 365)
	if err := sqlx.SelectContext(ctx, r.db, &points, query, sku, since); err != nil {
		log.Error().Err(err).Str("sku", sku).Msg("failed to fetch sales history")
		return nil, err
	}
	return points, nil
}

func (r *salesRepository) GetActiveSKUs(ctx context.Context) ([]string, error) {
	const query = `
        SELECT DISTINCT sku
        FROM daily_sales
        WHERE date >= CURRENT_DATE - INTERVAL '90 days'
        ORDER BY sku
    `

	skus := make([]string, 0, 256)
	if err := sqlx.SelectContext(ctx, r.db, &skus, query); err != nil {
		return nil, err
	}
	return skus, nil
}

func (r *salesRepository) GetSKUAttributes(ctx context.Context, sku string) (*domain.SKUAttributes, error) {
	const query = `
        SELECT sku, category, brand, supplier, price, launched_at
        FROM products
        WHERE sku = $1
    `

	var attrs domain.SKUAttributes
	if err := r.db.GetContext(ctx, &attrs, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &attrs, nil
}

// GetAnalogCandidates lists established SKUs in a category, for analog
// matching of new items. SKUs launched within the last year still qualify as
// candidates as long as they carry enough history; the matcher filters by
// history length.
func (r *salesRepository) GetAnalogCandidates(ctx context.Context, category string) ([]domain.SKUAttributes, error) {
	const query = `
        SELECT sku, category, brand, supplier, price, launched_at
        FROM products
        WHERE category = $1
        ORDER BY launched_at ASC
    `

	candidates := make([]domain.SKUAttributes, 0, 32)
	if err := sqlx.SelectContext(ctx, r.db, &candidates, query, category); err != nil {
		return nil, err
	}
	return candidates, nil
}

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetPosition(ctx context.Context, sku string) (*domain.InventoryPosition, error) {
	const query = `
        SELECT
            sku,
            fba_available,
            fba_inbound,
            fba_reserved,
            warehouse_available,
            (fba_available + fba_inbound + warehouse_available) AS total
        FROM inventory_positions
        WHERE sku = $1
    `

	var pos domain.InventoryPosition
	if err := r.db.GetContext(ctx, &pos, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Error().Err(err).Str("sku", sku).Msg("failed to fetch inventory position")
		return nil, err
	}
	return &pos, nil
}

func (r *inventoryRepository) GetScheduledDeals(ctx context.Context, sku string, from time.Time) ([]domain.ScheduledDeal, error) {
	const query = `
        SELECT sku, start_date, end_date, expected_lift
        FROM scheduled_deals
        WHERE sku = $1 AND end_date >= $2
        ORDER BY start_date ASC
    `

	deals := make([]domain.ScheduledDeal, 0, 4)
	if err := sqlx.SelectContext(ctx, r.db, &deals, query, sku, from); err != nil {
		return nil, err
	}
	return deals, nil
}

func (r *inventoryRepository) GetUnitCost(ctx context.Context, sku string) (float64, error) {
	const query = `SELECT COALESCE(unit_cost, 0) FROM products WHERE sku = $1`

	var cost float64
	if err := r.db.GetContext(ctx, &cost, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return cost, nil
}
