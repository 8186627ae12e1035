package ensemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
)

func flatHistory(days int, units float64) []domain.SalesDataPoint {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.SalesDataPoint, days)
	for i := range out {
		out[i] = domain.SalesDataPoint{Date: start.AddDate(0, 0, i), Units: units}
	}
	return out
}

func TestForecastFinalIsProductOfMultipliers(t *testing.T) {
	c := NewCombiner(config.DefaultForecastConfig().Ensemble)

	fc := c.Forecast(Inputs{
		SKU:                   "SKU-1",
		Date:                  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		History:               flatHistory(60, 10),
		SeasonalityMultiplier: 1.2,
		DealMultiplier:        2.0,
		SpikeMultiplier:       1.5,
	})

	assert.InDelta(t, 10.0, fc.BaseForecast, 0.5)
	assert.Equal(t, fc.BaseForecast*fc.SeasonalityMultiplier*fc.DealMultiplier*fc.SpikeMultiplier, fc.FinalForecast)
	assert.Equal(t, 1.2, fc.SeasonalityMultiplier)
	assert.Equal(t, 2.0, fc.DealMultiplier)
	assert.Equal(t, 1.5, fc.SpikeMultiplier)
	assert.Len(t, fc.Models, 4)
	assert.Greater(t, fc.Confidence, 0.5, "flat history should forecast with high confidence")
}

func TestForecastNeutralizesNonPositiveMultipliers(t *testing.T) {
	c := NewCombiner(config.DefaultForecastConfig().Ensemble)

	fc := c.Forecast(Inputs{
		SKU:     "SKU-1",
		History: flatHistory(60, 10),
	})

	assert.Equal(t, 1.0, fc.SeasonalityMultiplier)
	assert.Equal(t, 1.0, fc.DealMultiplier)
	assert.Equal(t, 1.0, fc.SpikeMultiplier)
	assert.Equal(t, fc.BaseForecast, fc.FinalForecast)
}

func TestForecastReasoningTrail(t *testing.T) {
	c := NewCombiner(config.DefaultForecastConfig().Ensemble)

	fc := c.Forecast(Inputs{
		SKU:                   "SKU-1",
		History:               flatHistory(60, 10),
		SeasonalityMultiplier: 1.2,
		DealMultiplier:        1.0,
		SpikeMultiplier:       1.0,
		SafetyStock:           50,
		TargetDays:            45,
	})

	require.Len(t, fc.Reasoning, 5)
	assert.Contains(t, fc.Reasoning[0], "base forecast")
	assert.Contains(t, fc.Reasoning[0], "4 of 4 models")
	assert.Contains(t, fc.Reasoning[1], "seasonality multiplier x1.20")
	assert.Contains(t, fc.Reasoning[2], "deal multiplier x1.00")
	assert.Contains(t, fc.Reasoning[3], "spike multiplier x1.00")
	assert.Contains(t, fc.Reasoning[4], "recommended inventory")

	assert.InDelta(t, fc.FinalForecast*45+50, fc.RecommendedInventory, 1e-9)
}

func TestForecastExcludesFailedModels(t *testing.T) {
	c := NewCombiner(config.DefaultForecastConfig().Ensemble)

	// 20 points clears the shared minimum but not the sequence model's.
	fc := c.Forecast(Inputs{
		SKU:     "SKU-1",
		History: flatHistory(20, 10),
	})

	assert.Len(t, fc.Models, 3)
	assert.Contains(t, fc.Reasoning[0], "3 of 4 models")
	assert.InDelta(t, 10.0, fc.BaseForecast, 0.5)
}

func TestForecastDegradesToZeroWithoutModels(t *testing.T) {
	c := NewCombiner(config.DefaultForecastConfig().Ensemble)

	fc := c.Forecast(Inputs{
		SKU:     "SKU-1",
		History: flatHistory(5, 10),
	})

	assert.Empty(t, fc.Models)
	assert.Equal(t, 0.0, fc.BaseForecast)
	assert.Equal(t, 0.0, fc.FinalForecast)
	assert.Equal(t, 0.0, fc.Confidence)
	require.Len(t, fc.Reasoning, 1)
	assert.Contains(t, fc.Reasoning[0], "no model produced a prediction")
}

func TestForecastUsesLearnedWeights(t *testing.T) {
	c := NewCombiner(config.DefaultForecastConfig().Ensemble)

	weights := &domain.ModelWeights{SKU: "SKU-1"}
	weights.SetByModel(domain.ModelTrendSeasonal, 0.7)
	weights.SetByModel(domain.ModelExponentialSmoothing, 0.1)
	weights.SetByModel(domain.ModelAutoregressive, 0.1)
	weights.SetByModel(domain.ModelLearnedSequence, 0.1)

	fc := c.Forecast(Inputs{
		SKU:     "SKU-1",
		History: flatHistory(60, 10),
		Weights: weights,
	})

	// All models agree on a flat series, so weighting cannot move the result.
	assert.InDelta(t, 10.0, fc.BaseForecast, 0.5)
	assert.Greater(t, fc.UpperBound, fc.LowerBound-1e-9)
}

func TestForecastBoundsScaleWithMultipliers(t *testing.T) {
	c := NewCombiner(config.DefaultForecastConfig().Ensemble)

	plain := c.Forecast(Inputs{SKU: "SKU-1", History: flatHistory(60, 10)})
	lifted := c.Forecast(Inputs{
		SKU: "SKU-1", History: flatHistory(60, 10), SeasonalityMultiplier: 2.0,
	})

	assert.InDelta(t, plain.UpperBound*2, lifted.UpperBound, 1e-6)
	assert.InDelta(t, plain.LowerBound*2, lifted.LowerBound, 1e-6)
}
