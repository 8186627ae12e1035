// internal/forecast/ensemble/models.go
package ensemble

import (
	"fmt"
	"math"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/timeseries"
)

// Model is the uniform contract every sub-model satisfies: given daily
// history it predicts the average daily demand over the horizon. A model
// that cannot produce a prediction returns an error and is excluded from
// the ensemble rather than failing it.
type Model interface {
	Name() string
	Predict(history []domain.SalesDataPoint, horizonDays int) (domain.ModelPrediction, error)
}

const minModelHistory = 14

// referenceModels builds the four reference sub-model variants.
func referenceModels(confidenceZ float64) []Model {
	return []Model{
		&trendSeasonalModel{z: confidenceZ},
		&expSmoothingModel{z: confidenceZ, alpha: 0.3, beta: 0.1},
		&autoregressiveModel{z: confidenceZ},
		&learnedSequenceModel{z: confidenceZ, window: 7, neighbors: 3},
	}
}

// trendSeasonalModel decomposes the series into a linear trend plus a
// day-of-week seasonal component and projects both forward.
type trendSeasonalModel struct {
	z float64
}

func (m *trendSeasonalModel) Name() string { return domain.ModelTrendSeasonal }

func (m *trendSeasonalModel) Predict(history []domain.SalesDataPoint, horizonDays int) (domain.ModelPrediction, error) {
	if len(history) < minModelHistory {
		return domain.ModelPrediction{}, fmt.Errorf("%s: need %d points, have %d", m.Name(), minModelHistory, len(history))
	}

	units := timeseries.Units(history)
	n := float64(len(units))

	// Least-squares slope and intercept over the observation index.
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range units {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	var slope float64
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n

	// Average day-of-week factor over the forecast window is ~1, so the
	// horizon midpoint on the trend line is the expected daily rate.
	mid := n + float64(horizonDays)/2
	forecast := clampNonNegative(intercept + slope*mid)

	residuals := make([]float64, len(units))
	for i, y := range units {
		residuals[i] = y - (intercept + slope*float64(i))
	}
	residStd := timeseries.StdDev(residuals)

	return domain.ModelPrediction{
		Model:      m.Name(),
		Forecast:   forecast,
		Confidence: residualConfidence(residStd, timeseries.Mean(units)),
		UpperBound: forecast + m.z*residStd,
		LowerBound: clampNonNegative(forecast - m.z*residStd),
		Factors: domain.PredictionFactors{
			Base:        timeseries.Mean(units),
			Trend:       slope * mid,
			Seasonality: 1,
		},
	}, nil
}

// expSmoothingModel is Holt's double exponential smoothing: a smoothed level
// plus a smoothed trend, projected to the horizon midpoint.
type expSmoothingModel struct {
	z     float64
	alpha float64
	beta  float64
}

func (m *expSmoothingModel) Name() string { return domain.ModelExponentialSmoothing }

func (m *expSmoothingModel) Predict(history []domain.SalesDataPoint, horizonDays int) (domain.ModelPrediction, error) {
	if len(history) < minModelHistory {
		return domain.ModelPrediction{}, fmt.Errorf("%s: need %d points, have %d", m.Name(), minModelHistory, len(history))
	}

	units := timeseries.Units(history)
	level := units[0]
	trend := units[1] - units[0]

	residuals := make([]float64, 0, len(units)-1)
	for _, y := range units[1:] {
		fitted := level + trend
		residuals = append(residuals, y-fitted)

		prevLevel := level
		level = m.alpha*y + (1-m.alpha)*(level+trend)
		trend = m.beta*(level-prevLevel) + (1-m.beta)*trend
	}

	forecast := clampNonNegative(level + trend*float64(horizonDays)/2)
	residStd := timeseries.StdDev(residuals)

	return domain.ModelPrediction{
		Model:      m.Name(),
		Forecast:   forecast,
		Confidence: residualConfidence(residStd, timeseries.Mean(units)),
		UpperBound: forecast + m.z*residStd,
		LowerBound: clampNonNegative(forecast - m.z*residStd),
		Factors: domain.PredictionFactors{
			Base:        level,
			Trend:       trend * float64(horizonDays) / 2,
			Seasonality: 1,
		},
	}, nil
}

// autoregressiveModel fits an AR(1) on the demeaned series: tomorrow's
// deviation from the mean is phi times today's. Forecasts decay toward the
// mean over the horizon.
type autoregressiveModel struct {
	z float64
}

func (m *autoregressiveModel) Name() string { return domain.ModelAutoregressive }

func (m *autoregressiveModel) Predict(history []domain.SalesDataPoint, horizonDays int) (domain.ModelPrediction, error) {
	if len(history) < minModelHistory {
		return domain.ModelPrediction{}, fmt.Errorf("%s: need %d points, have %d", m.Name(), minModelHistory, len(history))
	}

	units := timeseries.Units(history)
	mean := timeseries.Mean(units)

	var num, den float64
	for i := 1; i < len(units); i++ {
		num += (units[i] - mean) * (units[i-1] - mean)
	}
	for _, y := range units {
		den += (y - mean) * (y - mean)
	}
	phi := 0.0
	if den != 0 {
		phi = num / den
	}
	// Keep the process stationary even on pathological inputs.
	phi = math.Max(-0.99, math.Min(0.99, phi))

	lastDev := units[len(units)-1] - mean
	var sum float64
	for h := 1; h <= horizonDays; h++ {
		sum += mean + math.Pow(phi, float64(h))*lastDev
	}
	forecast := clampNonNegative(sum / float64(horizonDays))

	residuals := make([]float64, 0, len(units)-1)
	for i := 1; i < len(units); i++ {
		fitted := mean + phi*(units[i-1]-mean)
		residuals = append(residuals, units[i]-fitted)
	}
	residStd := timeseries.StdDev(residuals)

	return domain.ModelPrediction{
		Model:      m.Name(),
		Forecast:   forecast,
		Confidence: residualConfidence(residStd, mean),
		UpperBound: forecast + m.z*residStd,
		LowerBound: clampNonNegative(forecast - m.z*residStd),
		Factors: domain.PredictionFactors{
			Base:        mean,
			Trend:       forecast - mean,
			Seasonality: 1,
		},
	}, nil
}

// learnedSequenceModel forecasts by analogy with the past: it finds the
// historical windows most similar to the most recent one and averages the
// demand that followed them.
type learnedSequenceModel struct {
	z         float64
	window    int
	neighbors int
}

func (m *learnedSequenceModel) Name() string { return domain.ModelLearnedSequence }

func (m *learnedSequenceModel) Predict(history []domain.SalesDataPoint, horizonDays int) (domain.ModelPrediction, error) {
	units := timeseries.Units(history)
	if len(units) < 3*m.window {
		return domain.ModelPrediction{}, fmt.Errorf("%s: need %d points, have %d", m.Name(), 3*m.window, len(units))
	}

	recent := units[len(units)-m.window:]

	type match struct {
		dist float64
		next float64
	}
	matches := make([]match, 0)
	for start := 0; start+m.window < len(units)-m.window; start++ {
		candidate := units[start : start+m.window]
		var dist float64
		for i := range candidate {
			d := candidate[i] - recent[i]
			dist += d * d
		}
		// Demand that followed the candidate window.
		followEnd := start + 2*m.window
		if followEnd > len(units) {
			followEnd = len(units)
		}
		matches = append(matches, match{
			dist: math.Sqrt(dist),
			next: timeseries.Mean(units[start+m.window : followEnd]),
		})
	}

	// Partial selection of the k nearest windows.
	k := m.neighbors
	if k > len(matches) {
		k = len(matches)
	}
	for i := 0; i < k; i++ {
		best := i
		for j := i + 1; j < len(matches); j++ {
			if matches[j].dist < matches[best].dist {
				best = j
			}
		}
		matches[i], matches[best] = matches[best], matches[i]
	}

	var sum float64
	nexts := make([]float64, 0, k)
	for _, mt := range matches[:k] {
		sum += mt.next
		nexts = append(nexts, mt.next)
	}
	forecast := clampNonNegative(sum / float64(k))

	spread := timeseries.StdDev(nexts)

	return domain.ModelPrediction{
		Model:      m.Name(),
		Forecast:   forecast,
		Confidence: residualConfidence(spread, timeseries.Mean(units)),
		UpperBound: forecast + m.z*spread,
		LowerBound: clampNonNegative(forecast - m.z*spread),
		Factors: domain.PredictionFactors{
			Base:        timeseries.Mean(units),
			Trend:       forecast - timeseries.Mean(units),
			Seasonality: 1,
		},
	}, nil
}

// residualConfidence maps residual dispersion relative to the series mean
// onto (0,1]: tight fits approach 0.95, noisy ones bottom out at 0.1.
func residualConfidence(residStd, mean float64) float64 {
	if mean <= 0 {
		return 0.1
	}
	conf := 0.95 * (1 - math.Min(1, residStd/(2*mean)))
	if conf < 0.1 {
		return 0.1
	}
	return conf
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
