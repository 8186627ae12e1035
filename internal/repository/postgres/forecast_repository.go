package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/repository"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) repository.ForecastRepository {
	return &forecastRepository{db: db}
}

// SaveForecast appends one forecast row. Reasoning and per-model predictions
// are stored as JSONB so the audit trail survives verbatim.
func (r *forecastRepository) SaveForecast(ctx context.Context, fc domain.EnsembleForecast) error {
	reasoning, err := json.Marshal(fc.Reasoning)
	if err != nil {
		return fmt.Errorf("marshal reasoning: %w", err)
	}
	models, err := json.Marshal(fc.Models)
	if err != nil {
		return fmt.Errorf("marshal model predictions: %w", err)
	}

	const query = `
        INSERT INTO forecasts (
            sku, date, generated_at, base_forecast, final_forecast, confidence,
            seasonality_multiplier, deal_multiplier, spike_multiplier,
            safety_stock, recommended_inventory, upper_bound, lower_bound,
            reasoning, models
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `

	_, err = r.db.ExecContext(ctx, query,
		fc.SKU, fc.Date, fc.GeneratedAt, fc.BaseForecast, fc.FinalForecast, fc.Confidence,
		fc.SeasonalityMultiplier, fc.DealMultiplier, fc.SpikeMultiplier,
		fc.SafetyStock, fc.RecommendedInventory, fc.UpperBound, fc.LowerBound,
		reasoning, models)
	if err != nil {
		log.Error().Err(err).Str("sku", fc.SKU).Msg("failed to save forecast")
	}
	return err
}

func (r *forecastRepository) GetLatestForecast(ctx context.Context, sku string) (*domain.EnsembleForecast, error) {
	const query = `
        SELECT sku, date, generated_at, base_forecast, final_forecast, confidence,
               seasonality_multiplier, deal_multiplier, spike_multiplier,
               safety_stock, recommended_inventory, upper_bound, lower_bound,
               reasoning, models
        FROM forecasts
        WHERE sku = $1
        ORDER BY generated_at DESC
        LIMIT 1
    `

	var (
		fc        domain.EnsembleForecast
		reasoning []byte
		models    []byte
	)
	row := r.db.QueryRowxContext(ctx, query, sku)
	err := row.Scan(&fc.SKU, &fc.Date, &fc.GeneratedAt, &fc.BaseForecast, &fc.FinalForecast, &fc.Confidence,
		&fc.SeasonalityMultiplier, &fc.DealMultiplier, &fc.SpikeMultiplier,
		&fc.SafetyStock, &fc.RecommendedInventory, &fc.UpperBound, &fc.LowerBound,
		&reasoning, &models)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(reasoning, &fc.Reasoning); err != nil {
		return nil, fmt.Errorf("unmarshal reasoning: %w", err)
	}
	if len(models) > 0 {
		if err := json.Unmarshal(models, &fc.Models); err != nil {
			return nil, fmt.Errorf("unmarshal model predictions: %w", err)
		}
	}
	return &fc, nil
}

func (r *forecastRepository) SaveAlerts(ctx context.Context, alerts []domain.ForecastAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	const query = `
        INSERT INTO forecast_alerts (
            sku, alert_type, severity, message, recommended_action, action_deadline, created_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, a := range alerts {
			if _, err := tx.ExecContext(ctx, query,
				a.SKU, a.Type, a.Severity, a.Message, a.RecommendedAction, a.ActionDeadline, a.CreatedAt); err != nil {
				return err
			}
		}
		log.Debug().Int("alerts", len(alerts)).Msg("forecast alerts saved")
		return nil
	})
}

func (r *forecastRepository) GetOpenAlerts(ctx context.Context, sku string) ([]domain.ForecastAlert, error) {
	const query = `
        SELECT sku, alert_type, severity, message, recommended_action, action_deadline, created_at
        FROM forecast_alerts
        WHERE sku = $1 AND resolved_at IS NULL
        ORDER BY created_at DESC
    `

	rows, err := r.db.QueryxContext(ctx, query, sku)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := make([]domain.ForecastAlert, 0, 8)
	for rows.Next() {
		var a domain.ForecastAlert
		if err := rows.Scan(&a.SKU, &a.Type, &a.Severity, &a.Message, &a.RecommendedAction, &a.ActionDeadline, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *forecastRepository) SaveRecommendation(ctx context.Context, rec domain.OrderRecommendation) error {
	const query = `
        INSERT INTO order_recommendations (
            sku, urgency, days_of_supply_fba, days_of_supply_warehouse, days_of_supply_total,
            recommended_order_qty, order_cost, generated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (sku) DO UPDATE SET
            urgency = EXCLUDED.urgency,
            days_of_supply_fba = EXCLUDED.days_of_supply_fba,
            days_of_supply_warehouse = EXCLUDED.days_of_supply_warehouse,
            days_of_supply_total = EXCLUDED.days_of_supply_total,
            recommended_order_qty = EXCLUDED.recommended_order_qty,
            order_cost = EXCLUDED.order_cost,
            generated_at = EXCLUDED.generated_at
    `

	_, err := r.db.ExecContext(ctx, query,
		rec.SKU, rec.Urgency,
		finiteOrNull(rec.DaysOfSupply.FBA), finiteOrNull(rec.DaysOfSupply.Warehouse), finiteOrNull(rec.DaysOfSupply.Total),
		rec.RecommendedOrderQty, rec.OrderCost, rec.GeneratedAt)
	return err
}

// finiteOrNull maps the +Inf cover of a zero-velocity SKU onto NULL.
func finiteOrNull(v float64) interface{} {
	if v != v || v > 1e12 {
		return nil
	}
	return v
}
