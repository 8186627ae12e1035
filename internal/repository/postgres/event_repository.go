package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/repository"
)

type eventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) repository.EventRepository {
	return &eventRepository{db: db}
}

// GetActiveEvents loads the active event catalog with each event's per-SKU
// multipliers attached as a typed map.
func (r *eventRepository) GetActiveEvents(ctx context.Context) ([]*domain.SeasonalEvent, error) {
	const query = `
        SELECT id, name, event_type, start_month, start_day, end_month, end_day,
               base_multiplier, learned_multiplier, is_active, updated_at
        FROM seasonal_events
        WHERE is_active
        ORDER BY start_month, start_day
    `

	events := make([]*domain.SeasonalEvent, 0, 16)
	if err := sqlx.SelectContext(ctx, r.db, &events, query); err != nil {
		log.Error().Err(err).Msg("failed to fetch seasonal events")
		return nil, err
	}

	for _, ev := range events {
		multipliers, err := r.GetSKUMultipliers(ctx, ev.ID)
		if err != nil {
			return nil, err
		}
		ev.SKUMultipliers = multipliers
	}
	return events, nil
}

func (r *eventRepository) SaveEvent(ctx context.Context, event *domain.SeasonalEvent) error {
	const query = `
        INSERT INTO seasonal_events (
            name, event_type, start_month, start_day, end_month, end_day,
            base_multiplier, learned_multiplier, is_active, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        ON CONFLICT (name) DO UPDATE SET
            event_type = EXCLUDED.event_type,
            start_month = EXCLUDED.start_month,
            start_day = EXCLUDED.start_day,
            end_month = EXCLUDED.end_month,
            end_day = EXCLUDED.end_day,
            base_multiplier = EXCLUDED.base_multiplier,
            learned_multiplier = EXCLUDED.learned_multiplier,
            is_active = EXCLUDED.is_active,
            updated_at = NOW()
        RETURNING id
    `

	return r.db.GetContext(ctx, &event.ID, query,
		event.Name, event.EventType,
		event.StartMonth, event.StartDay, event.EndMonth, event.EndDay,
		event.BaseMultiplier, event.LearnedMultiplier, event.IsActive)
}

// DeactivateEvent soft-deletes; event rows are never removed so learned
// history stays reproducible.
func (r *eventRepository) DeactivateEvent(ctx context.Context, id int64) error {
	const query = `UPDATE seasonal_events SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveLearnedMultipliers upserts per-event learned multipliers, both the
// event-level value and the per-SKU override rows, in one transaction.
func (r *eventRepository) SaveLearnedMultipliers(ctx context.Context, multipliers []domain.LearnedMultiplier) error {
	if len(multipliers) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		const eventQuery = `
            UPDATE seasonal_events
            SET learned_multiplier = $2, updated_at = NOW()
            WHERE id = $1
        `
		const skuQuery = `
            INSERT INTO event_sku_multipliers (event_id, sku, multiplier, years_observed, confidence, updated_at)
            VALUES ($1, $2, $3, $4, $5, NOW())
            ON CONFLICT (event_id, sku) DO UPDATE SET
                multiplier = EXCLUDED.multiplier,
                years_observed = EXCLUDED.years_observed,
                confidence = EXCLUDED.confidence,
                updated_at = NOW()
        `

		for _, m := range multipliers {
			if _, err := tx.ExecContext(ctx, eventQuery, m.EventID, m.Multiplier); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, skuQuery, m.EventID, m.SKU, m.Multiplier, m.YearsObserved, m.Confidence); err != nil {
				return err
			}
		}

		log.Debug().Int("multipliers", len(multipliers)).Msg("learned multipliers saved")
		return nil
	})
}

func (r *eventRepository) GetSKUMultipliers(ctx context.Context, eventID int64) (map[string]float64, error) {
	const query = `SELECT sku, multiplier FROM event_sku_multipliers WHERE event_id = $1`

	rows, err := r.db.QueryxContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var (
			sku  string
			mult float64
		)
		if err := rows.Scan(&sku, &mult); err != nil {
			return nil, err
		}
		out[sku] = mult
	}
	return out, rows.Err()
}
