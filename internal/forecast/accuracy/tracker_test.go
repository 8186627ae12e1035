package accuracy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/ensemble"
)

func flatHistory(days int, units float64) []domain.SalesDataPoint {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.SalesDataPoint, days)
	for i := range out {
		out[i] = domain.SalesDataPoint{Date: start.AddDate(0, 0, i), Units: units}
	}
	return out
}

func TestBacktestPerfectOnFlatSeries(t *testing.T) {
	cfg := config.DefaultForecastConfig().Ensemble
	tr := NewTracker(cfg)
	models := ensemble.NewCombiner(cfg).Models()

	got := tr.Backtest(models, flatHistory(60, 10))

	require.Len(t, got, 4)
	for _, acc := range got {
		assert.Equal(t, cfg.BacktestDays, acc.SampleSize, acc.Model)
		assert.InDelta(t, 0.0, acc.MAPE, 0.01, acc.Model)
		assert.InDelta(t, 0.0, acc.MAE, 0.01, acc.Model)
		assert.InDelta(t, 0.0, acc.Bias, 0.01, acc.Model)
	}
}

func TestBacktestShortHistoryYieldsNoSamples(t *testing.T) {
	cfg := config.DefaultForecastConfig().Ensemble
	tr := NewTracker(cfg)
	models := ensemble.NewCombiner(cfg).Models()

	got := tr.Backtest(models, flatHistory(5, 10))

	require.Len(t, got, 4)
	for _, acc := range got {
		assert.Equal(t, 0, acc.SampleSize)
	}
}

func TestUpdateWeightsFavorsLowerError(t *testing.T) {
	tr := NewTracker(config.DefaultForecastConfig().Ensemble)

	accs := []domain.ModelAccuracy{
		{Model: domain.ModelTrendSeasonal, MAPE: 10, SampleSize: 30},
		{Model: domain.ModelExponentialSmoothing, MAPE: 50, SampleSize: 30},
		{Model: domain.ModelAutoregressive, MAPE: 50, SampleSize: 30},
		{Model: domain.ModelLearnedSequence, MAPE: 50, SampleSize: 30},
	}

	w := tr.UpdateWeights("SKU-1", accs)

	assert.Equal(t, "SKU-1", w.SKU)
	byModel := w.ByModel()
	best := byModel[domain.ModelTrendSeasonal]
	for _, model := range []string{domain.ModelExponentialSmoothing, domain.ModelAutoregressive, domain.ModelLearnedSequence} {
		assert.Greater(t, best, byModel[model], "the 10%% MAPE model should outweigh %s", model)
	}
	assert.Greater(t, w.OverallMAPE, 0.0)
	assert.Less(t, w.OverallMAPE, 50.0)
}

func TestUpdateWeightsFloorsCollapsingModels(t *testing.T) {
	cfg := config.DefaultForecastConfig().Ensemble
	tr := NewTracker(cfg)

	accs := []domain.ModelAccuracy{
		{Model: domain.ModelTrendSeasonal, MAPE: 1, SampleSize: 30},
		{Model: domain.ModelAutoregressive, MAPE: 10000, SampleSize: 30},
	}

	w := tr.UpdateWeights("SKU-1", accs)

	assert.Equal(t, cfg.WeightFloor, w.ByModel()[domain.ModelAutoregressive],
		"a terrible model is floored, never zeroed")
	assert.Greater(t, w.ByModel()[domain.ModelTrendSeasonal], 0.9)
}

func TestUpdateWeightsEqualWithoutEvidence(t *testing.T) {
	tr := NewTracker(config.DefaultForecastConfig().Ensemble)

	accs := []domain.ModelAccuracy{
		{Model: domain.ModelTrendSeasonal, SampleSize: 0},
		{Model: domain.ModelExponentialSmoothing, SampleSize: 0},
		{Model: domain.ModelAutoregressive, SampleSize: 0},
		{Model: domain.ModelLearnedSequence, SampleSize: 0},
	}

	w := tr.UpdateWeights("SKU-1", accs)

	for model, weight := range w.ByModel() {
		assert.InDelta(t, 0.25, weight, 1e-9, model)
	}
	assert.Equal(t, 0.0, w.OverallMAPE)
}
