// internal/forecast/accuracy/tracker.go
package accuracy

import (
	"math"
	"time"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/ensemble"
)

// Tracker backtests each sub-model over a trailing window and converts the
// measured error into updated ensemble weights. Weights and accuracy feed
// each other across runs as an explicit iteration: backtest, score, update
// weights, use them on the next scheduled run.
type Tracker struct {
	cfg config.EnsembleConfig
}

func NewTracker(cfg config.EnsembleConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// Backtest walks each model forward over the last BacktestDays of history,
// predicting one day ahead from the data before it. Models that cannot
// predict at a step simply contribute fewer samples.
func (t *Tracker) Backtest(models []ensemble.Model, history []domain.SalesDataPoint) []domain.ModelAccuracy {
	results := make([]domain.ModelAccuracy, 0, len(models))
	now := time.Now().UTC()

	start := len(history) - t.cfg.BacktestDays
	if start < 0 {
		start = 0
	}

	for _, m := range models {
		var (
			sumAbs, sumSq, sumPct, sumErr float64
			n, pctN                       int
		)
		for i := start; i < len(history); i++ {
			pred, err := m.Predict(history[:i], 1)
			if err != nil {
				continue
			}
			actual := history[i].Units
			e := pred.Forecast - actual

			sumErr += e
			sumAbs += math.Abs(e)
			sumSq += e * e
			n++
			if actual != 0 {
				sumPct += math.Abs(e) / math.Abs(actual)
				pctN++
			}
		}

		acc := domain.ModelAccuracy{
			Model:       m.Name(),
			SampleSize:  n,
			LastUpdated: now,
		}
		if n > 0 {
			acc.MAE = sumAbs / float64(n)
			acc.RMSE = math.Sqrt(sumSq / float64(n))
			acc.Bias = sumErr / float64(n)
		}
		if pctN > 0 {
			acc.MAPE = 100 * sumPct / float64(pctN)
		}
		results = append(results, acc)
	}

	return results
}

// UpdateWeights converts backtest error into per-model weights by inverse
// MAPE: the lower a model's error, the larger its share. Every weight is
// floored above zero so no model ever collapses out of the ensemble.
func (t *Tracker) UpdateWeights(sku string, accuracies []domain.ModelAccuracy) domain.ModelWeights {
	w := domain.ModelWeights{
		SKU:         sku,
		LastUpdated: time.Now().UTC(),
	}

	const epsilon = 1e-6

	var rawSum float64
	raw := make(map[string]float64, len(accuracies))
	for _, a := range accuracies {
		if a.SampleSize == 0 {
			continue
		}
		r := 1 / (a.MAPE/100 + epsilon)
		raw[a.Model] = r
		rawSum += r
	}

	if rawSum == 0 {
		// No backtest evidence at all: equal weights.
		for _, a := range accuracies {
			w.SetByModel(a.Model, 1.0/float64(len(accuracies)))
		}
		return w
	}

	var mapeSum float64
	for _, a := range accuracies {
		share := raw[a.Model] / rawSum
		if share < t.cfg.WeightFloor {
			share = t.cfg.WeightFloor
		}
		w.SetByModel(a.Model, share)
		mapeSum += (raw[a.Model] / rawSum) * a.MAPE
	}
	w.OverallMAPE = mapeSum

	return w
}
