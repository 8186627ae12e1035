// internal/forecast/newitem/matcher.go
package newitem

import (
	"math"
	"time"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/timeseries"
)

// Matcher forecasts SKUs that lack enough history of their own by borrowing
// the velocity curve of the closest matching established SKU.
type Matcher struct {
	cfg config.NewItemConfig
}

func NewMatcher(cfg config.NewItemConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Attribute match weights. Category dominates because velocity curves differ
// more across categories than across brands within one.
const (
	categoryWeight = 0.40
	priceWeight    = 0.25
	brandWeight    = 0.20
	supplierWeight = 0.15
)

// Candidate pairs an established SKU's attributes with its daily velocity
// history.
type Candidate struct {
	Attributes domain.SKUAttributes
	Sales      []domain.SalesDataPoint
}

// IsNewItem reports whether the SKU should be forecast from an analog.
func (m *Matcher) IsNewItem(sales []domain.SalesDataPoint) bool {
	return len(sales) < m.cfg.MinHistoryDays
}

// Match scores every candidate against the new SKU and builds a forecast from
// the best one. Returns nil when no candidate has usable history.
func (m *Matcher) Match(item domain.SKUAttributes, actuals []domain.SalesDataPoint, candidates []Candidate, asOf time.Time) *domain.NewItemForecast {
	var (
		best      *Candidate
		bestScore float64
	)
	for i := range candidates {
		c := &candidates[i]
		if c.Attributes.SKU == item.SKU || len(c.Sales) == 0 {
			continue
		}
		score := MatchScore(item, c.Attributes)
		if best == nil || score > bestScore {
			best = c
			bestScore = score
		}
	}
	if best == nil {
		return nil
	}

	daysSinceLaunch := int(asOf.Sub(item.LaunchedAt).Hours() / 24)
	if daysSinceLaunch < 0 {
		daysSinceLaunch = 0
	}

	fc := &domain.NewItemForecast{
		SKU:             item.SKU,
		AnalogSKU:       best.Attributes.SKU,
		MatchScore:      bestScore,
		DailyVelocity:   launchCurve(best.Sales, m.cfg.FrequentWatchDays),
		DaysSinceLaunch: daysSinceLaunch,
		CheckCadence:    m.cadence(daysSinceLaunch),
	}

	fc.DeviationPct = deviation(actuals, fc.DailyVelocity)
	fc.NeedsRecalibration = math.Abs(fc.DeviationPct) >= m.cfg.RecalibrationDeviationPct
	fc.WatchStatus = m.watchStatus(fc.DeviationPct)

	return fc
}

// MatchScore scores attribute similarity on [0,1]. Category, brand, and
// supplier are exact matches; price contributes proportionally to how close
// the two prices are.
func MatchScore(item, candidate domain.SKUAttributes) float64 {
	var score float64
	if item.Category != "" && item.Category == candidate.Category {
		score += categoryWeight
	}
	if item.Brand != "" && item.Brand == candidate.Brand {
		score += brandWeight
	}
	if item.Supplier != "" && item.Supplier == candidate.Supplier {
		score += supplierWeight
	}
	score += priceWeight * priceSimilarity(item.Price, candidate.Price)
	return score
}

// priceSimilarity is 1 at equal prices and decays linearly to 0 at a 2x gap.
func priceSimilarity(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	sim := 1 - (hi-lo)/lo
	if sim < 0 {
		return 0
	}
	return sim
}

// launchCurve extracts the analog's post-launch daily velocity, capped at the
// watch period. Shorter analog histories yield shorter curves.
func launchCurve(sales []domain.SalesDataPoint, days int) []float64 {
	units := timeseries.Units(sales)
	if days > 0 && len(units) > days {
		units = units[:days]
	}
	out := make([]float64, len(units))
	copy(out, units)
	return out
}

// deviation compares observed daily velocity against the borrowed curve over
// the days the new item has actually traded. Positive means outselling the
// analog.
func deviation(actuals []domain.SalesDataPoint, curve []float64) float64 {
	n := len(actuals)
	if n == 0 || len(curve) == 0 {
		return 0
	}
	if n > len(curve) {
		n = len(curve)
	}

	actualMean := timeseries.Mean(timeseries.Units(actuals[:n]))
	curveMean := timeseries.Mean(curve[:n])
	if curveMean == 0 {
		return 0
	}
	return (actualMean - curveMean) / curveMean
}

// cadence schedules re-checks by age: young items are re-evaluated daily,
// then every three days, then weekly once established.
func (m *Matcher) cadence(daysSinceLaunch int) domain.CheckCadence {
	switch {
	case daysSinceLaunch <= m.cfg.DailyWatchDays:
		return domain.CheckDaily
	case daysSinceLaunch <= m.cfg.FrequentWatchDays:
		return domain.CheckEvery3Days
	default:
		return domain.CheckWeekly
	}
}

// watchStatus escalates with deviation: past the recalibration threshold the
// item is on high watch, past double it the forecast is considered broken.
func (m *Matcher) watchStatus(deviationPct float64) domain.WatchStatus {
	abs := math.Abs(deviationPct)
	switch {
	case abs >= 2*m.cfg.RecalibrationDeviationPct:
		return domain.WatchCritical
	case abs >= m.cfg.RecalibrationDeviationPct:
		return domain.WatchHigh
	default:
		return domain.WatchNormal
	}
}
