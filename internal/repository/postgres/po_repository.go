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

type poRepository struct {
	db *DB
}

func NewPORepository(db *DB) repository.PORepository {
	return &poRepository{db: db}
}

// GetReceipts returns completed POs for a supplier, oldest first. Open orders
// and rows with placeholder timestamps are excluded; they carry no lead-time
// signal.
func (r *poRepository) GetReceipts(ctx context.Context, supplier string, since time.Time) ([]domain.PurchaseOrderReceipt, error) {
	const query = `
        SELECT supplier, ordered_at, stated_lead_time_days, actual_delivery_at
        FROM purchase_orders
        WHERE supplier = $1
          AND ordered_at >= $2
          AND actual_delivery_at IS NOT NULL
          AND actual_delivery_at > '2000-01-01'
        ORDER BY ordered_at ASC
    `

	receipts := make([]domain.PurchaseOrderReceipt, 0, 32)
	if err := sqlx.SelectContext(ctx, r.db, &receipts, query, supplier, since); err != nil {
		log.Error().Err(err).Str("supplier", supplier).Msg("failed to fetch PO receipts")
		return nil, err
	}
	return receipts, nil
}

func (r *poRepository) GetSupplierForSKU(ctx context.Context, sku string) (string, error) {
	const query = `SELECT COALESCE(supplier, '') FROM products WHERE sku = $1`

	var supplier string
	if err := r.db.GetContext(ctx, &supplier, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return supplier, nil
}

func (r *poRepository) GetLeadTimeData(ctx context.Context, supplier string) (*domain.LeadTimeData, error) {
	const query = `
        SELECT supplier, stated_lead_time, avg_actual_lead_time, worst_case_lead_time,
               on_time_rate, lead_time_variance, reliability_score, is_getting_worse,
               sample_size, updated_at
        FROM supplier_lead_times
        WHERE supplier = $1
    `

	var row struct {
		Supplier          string    `db:"supplier"`
		StatedLeadTime    float64   `db:"stated_lead_time"`
		AvgActualLeadTime float64   `db:"avg_actual_lead_time"`
		WorstCaseLeadTime float64   `db:"worst_case_lead_time"`
		OnTimeRate        float64   `db:"on_time_rate"`
		LeadTimeVariance  float64   `db:"lead_time_variance"`
		ReliabilityScore  float64   `db:"reliability_score"`
		IsGettingWorse    bool      `db:"is_getting_worse"`
		SampleSize        int       `db:"sample_size"`
		UpdatedAt         time.Time `db:"updated_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, supplier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &domain.LeadTimeData{
		Supplier:          row.Supplier,
		StatedLeadTime:    row.StatedLeadTime,
		AvgActualLeadTime: row.AvgActualLeadTime,
		WorstCaseLeadTime: row.WorstCaseLeadTime,
		OnTimeRate:        row.OnTimeRate,
		LeadTimeVariance:  row.LeadTimeVariance,
		ReliabilityScore:  row.ReliabilityScore,
		IsGettingWorse:    row.IsGettingWorse,
		SampleSize:        row.SampleSize,
		UpdatedAt:         row.UpdatedAt,
	}, nil
}

func (r *poRepository) SaveLeadTimeData(ctx context.Context, data domain.LeadTimeData) error {
	const query = `
        INSERT INTO supplier_lead_times (
            supplier, stated_lead_time, avg_actual_lead_time, worst_case_lead_time,
            on_time_rate, lead_time_variance, reliability_score, is_getting_worse,
            sample_size, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        ON CONFLICT (supplier) DO UPDATE SET
            stated_lead_time = EXCLUDED.stated_lead_time,
            avg_actual_lead_time = EXCLUDED.avg_actual_lead_time,
            worst_case_lead_time = EXCLUDED.worst_case_lead_time,
            on_time_rate = EXCLUDED.on_time_rate,
            lead_time_variance = EXCLUDED.lead_time_variance,
            reliability_score = EXCLUDED.reliability_score,
            is_getting_worse = EXCLUDED.is_getting_worse,
            sample_size = EXCLUDED.sample_size,
            updated_at = NOW()
    `

	_, err := r.db.ExecContext(ctx, query,
		data.Supplier, data.StatedLeadTime, data.AvgActualLeadTime, data.WorstCaseLeadTime,
		data.OnTimeRate, data.LeadTimeVariance, data.ReliabilityScore, data.IsGettingWorse,
		data.SampleSize)
	return err
}
