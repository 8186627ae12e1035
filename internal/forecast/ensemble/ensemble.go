// internal/forecast/ensemble/ensemble.go
package ensemble

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/timeseries"
)

// Combiner runs the sub-models for a SKU and combines their predictions
// into one calibrated forecast with confidence bounds and a reasoning trail.
type Combiner struct {
	cfg    config.EnsembleConfig
	models []Model
}

func NewCombiner(cfg config.EnsembleConfig) *Combiner {
	return &Combiner{
		cfg:    cfg,
		models: referenceModels(cfg.ConfidenceZ),
	}
}

// Models exposes the registered sub-models, primarily for backtesting.
func (c *Combiner) Models() []Model {
	return c.models
}

// Inputs collects everything a forecast run needs. Multipliers at or below
// zero are treated as neutral.
type Inputs struct {
	SKU     string
	Date    time.Time
	History []domain.SalesDataPoint
	// Weights are the SKU's learned model weights; nil falls back to equal
	// weighting across whichever models produced a prediction.
	Weights               *domain.ModelWeights
	SeasonalityMultiplier float64
	DealMultiplier        float64
	SpikeMultiplier       float64
	SafetyStock           float64
	TargetDays            float64
}

// Forecast produces the ensemble forecast for one SKU/date. A sub-model
// that fails is excluded and its weight redistributed over the rest; the
// ensemble only degrades to zero output when no model can predict at all.
func (c *Combiner) Forecast(in Inputs) domain.EnsembleForecast {
	history := in.History
	if c.cfg.LookbackDays > 0 {
		history = timeseries.LastN(history, c.cfg.LookbackDays)
	}

	predictions := make([]domain.ModelPrediction, 0, len(c.models))
	for _, m := range c.models {
		pred, err := m.Predict(history, c.cfg.HorizonDays)
		if err != nil {
			log.Debug().Str("sku", in.SKU).Str("model", m.Name()).Err(err).Msg("ensemble: model excluded")
			continue
		}
		predictions = append(predictions, pred)
	}

	seasonality := neutralize(in.SeasonalityMultiplier)
	deal := neutralize(in.DealMultiplier)
	spike := neutralize(in.SpikeMultiplier)

	fc := domain.EnsembleForecast{
		SKU:                   in.SKU,
		Date:                  in.Date,
		GeneratedAt:           time.Now().UTC(),
		SeasonalityMultiplier: seasonality,
		DealMultiplier:        deal,
		SpikeMultiplier:       spike,
		SafetyStock:           in.SafetyStock,
		Models:                predictions,
		Reasoning:             []string{},
	}

	if len(predictions) == 0 {
		fc.Reasoning = append(fc.Reasoning, "no model produced a prediction; forecast degraded to zero with zero confidence")
		return fc
	}

	weights := c.resolveWeights(in.Weights, predictions)

	var base, upper, lower, confidence float64
	for i, p := range predictions {
		base += weights[i] * p.Forecast
		upper += weights[i] * p.UpperBound
		lower += weights[i] * p.LowerBound
		confidence += weights[i] * p.Confidence
	}

	// Disagreement across sub-model point forecasts widens the bounds and
	// drags confidence down.
	points := make([]float64, len(predictions))
	for i, p := range predictions {
		points[i] = p.Forecast
	}
	disagreement := timeseries.StdDev(points)
	upper += disagreement
	lower = math.Max(0, lower-disagreement)
	if base > 0 {
		confidence *= 1 - math.Min(0.5, disagreement/(2*base))
	}

	total := seasonality * deal * spike

	fc.BaseForecast = base
	fc.FinalForecast = base * seasonality * deal * spike
	fc.Confidence = confidence
	fc.UpperBound = upper * total
	fc.LowerBound = lower * total

	fc.Reasoning = append(fc.Reasoning,
		fmt.Sprintf("base forecast %.2f units/day from %d of %d models", base, len(predictions), len(c.models)))
	fc.Reasoning = append(fc.Reasoning, fmt.Sprintf("seasonality multiplier x%.2f", seasonality))
	fc.Reasoning = append(fc.Reasoning, fmt.Sprintf("deal multiplier x%.2f", deal))
	fc.Reasoning = append(fc.Reasoning, fmt.Sprintf("spike multiplier x%.2f", spike))

	if in.TargetDays > 0 {
		fc.RecommendedInventory = fc.FinalForecast*in.TargetDays + in.SafetyStock
		fc.Reasoning = append(fc.Reasoning,
			fmt.Sprintf("recommended inventory %.0f units (%.0f days cover + %.0f safety stock)",
				fc.RecommendedInventory, in.TargetDays, in.SafetyStock))
	}

	return fc
}

// resolveWeights returns one normalized weight per produced prediction.
// Learned weights apply when present; absent or degenerate weights fall
// back to equal weighting. Excluded models drop out of the normalization,
// which redistributes their share proportionally.
func (c *Combiner) resolveWeights(w *domain.ModelWeights, predictions []domain.ModelPrediction) []float64 {
	weights := make([]float64, len(predictions))
	var sum float64

	if w != nil {
		byModel := w.ByModel()
		for i, p := range predictions {
			if lw, ok := byModel[p.Model]; ok && lw > 0 {
				weights[i] = lw
				sum += lw
			}
		}
	}

	if sum == 0 {
		equal := 1.0 / float64(len(predictions))
		for i := range weights {
			weights[i] = equal
		}
		return weights
	}

	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

func neutralize(m float64) float64 {
	if m <= 0 {
		return 1.0
	}
	return m
}
