package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/repository"
)

type weightsRepository struct {
	db *DB
}

func NewWeightsRepository(db *DB) repository.WeightsRepository {
	return &weightsRepository{db: db}
}

func (r *weightsRepository) GetWeights(ctx context.Context, sku string) (*domain.ModelWeights, error) {
	const query = `
        SELECT sku, prophet_weight, lstm_weight, exponential_smoothing_weight,
               arima_weight, overall_mape, last_updated
        FROM model_weights
        WHERE sku = $1
    `

	var w domain.ModelWeights
	if err := r.db.GetContext(ctx, &w, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *weightsRepository) SaveWeights(ctx context.Context, w domain.ModelWeights) error {
	const query = `
        INSERT INTO model_weights (
            sku, prophet_weight, lstm_weight, exponential_smoothing_weight,
            arima_weight, overall_mape, last_updated
        )
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (sku) DO UPDATE SET
            prophet_weight = EXCLUDED.prophet_weight,
            lstm_weight = EXCLUDED.lstm_weight,
            exponential_smoothing_weight = EXCLUDED.exponential_smoothing_weight,
            arima_weight = EXCLUDED.arima_weight,
            overall_mape = EXCLUDED.overall_mape,
            last_updated = NOW()
    `

	_, err := r.db.ExecContext(ctx, query,
		w.SKU, w.ProphetWeight, w.LSTMWeight, w.ExponentialSmoothingWeight,
		w.ARIMAWeight, w.OverallMAPE)
	return err
}

func (r *weightsRepository) SaveAccuracy(ctx context.Context, sku string, accuracies []domain.ModelAccuracy) error {
	if len(accuracies) == 0 {
		return nil
	}

	const query = `
        INSERT INTO model_accuracy (sku, model, mape, rmse, mae, bias, sample_size, last_updated)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (sku, model) DO UPDATE SET
            mape = EXCLUDED.mape,
            rmse = EXCLUDED.rmse,
            mae = EXCLUDED.mae,
            bias = EXCLUDED.bias,
            sample_size = EXCLUDED.sample_size,
            last_updated = NOW()
    `

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, a := range accuracies {
			if _, err := tx.ExecContext(ctx, query, sku, a.Model, a.MAPE, a.RMSE, a.MAE, a.Bias, a.SampleSize); err != nil {
				return err
			}
		}
		return nil
	})
}
