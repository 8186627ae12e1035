// internal/forecast/seasonality/detector.go
package seasonality

import (
	"math"
	"sort"
	"time"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/timeseries"
)

// Detector mines yearly and weekly multiplicative patterns from a SKU's
// sales history and resolves upcoming calendar events. It is a pure
// function of its inputs; all data access happens at the caller.
type Detector struct {
	cfg config.SeasonalityConfig
}

func NewDetector(cfg config.SeasonalityConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Detect computes the seasonality profile for one SKU as of the given date.
// Histories shorter than a year still get a weekly pattern and the upcoming
// event lookup; the yearly pattern stays empty.
func (d *Detector) Detect(sku string, sales []domain.SalesDataPoint, events []domain.SeasonalEvent, asOf time.Time) domain.DetectedSeasonality {
	result := domain.DetectedSeasonality{
		SKU:            sku,
		YearlyPattern:  []domain.SeasonalityPattern{},
		WeeklyPattern:  []domain.SeasonalityPattern{},
		UpcomingEvents: d.upcomingEvents(sku, events, asOf),
	}

	overall := timeseries.Mean(timeseries.Units(sales))

	if len(sales) >= d.cfg.MinYearlyHistoryDays {
		result.YearlyPattern = d.yearlyPattern(sales, overall)
	}
	if len(sales) > 0 {
		result.WeeklyPattern = d.weeklyPattern(sales, overall)
	}

	for _, p := range result.YearlyPattern {
		if math.Abs(p.Multiplier-1) > d.cfg.MonthlyDeviation {
			result.HasSeasonality = true
			break
		}
	}
	if !result.HasSeasonality {
		for _, p := range result.WeeklyPattern {
			if math.Abs(p.Multiplier-1) > d.cfg.WeeklyDeviation {
				result.HasSeasonality = true
				break
			}
		}
	}

	return result
}

func (d *Detector) yearlyPattern(sales []domain.SalesDataPoint, overall float64) []domain.SeasonalityPattern {
	byMonth := make(map[int][]float64, 12)
	for _, p := range sales {
		m := int(p.Date.Month())
		byMonth[m] = append(byMonth[m], p.Units)
	}

	patterns := make([]domain.SeasonalityPattern, 0, 12)
	for m := 1; m <= 12; m++ {
		samples := byMonth[m]
		if len(samples) == 0 {
			continue
		}
		patterns = append(patterns, domain.SeasonalityPattern{
			Month:      m,
			Multiplier: multiplier(timeseries.Mean(samples), overall),
			Confidence: sampleConfidence(samples, 30),
			SampleSize: len(samples),
		})
	}
	return patterns
}

func (d *Detector) weeklyPattern(sales []domain.SalesDataPoint, overall float64) []domain.SeasonalityPattern {
	byDay := make(map[int][]float64, 7)
	for _, p := range sales {
		dow := int(p.Date.Weekday())
		byDay[dow] = append(byDay[dow], p.Units)
	}

	patterns := make([]domain.SeasonalityPattern, 0, 7)
	for dow := 0; dow < 7; dow++ {
		samples := byDay[dow]
		if len(samples) == 0 {
			continue
		}
		patterns = append(patterns, domain.SeasonalityPattern{
			DayOfWeek:  dow,
			Multiplier: multiplier(timeseries.Mean(samples), overall),
			Confidence: sampleConfidence(samples, 52),
			SampleSize: len(samples),
		})
	}
	return patterns
}

// upcomingEvents resolves active events within the horizon using
// next-occurrence semantics, sorted ascending by days until the event.
func (d *Detector) upcomingEvents(sku string, events []domain.SeasonalEvent, asOf time.Time) []domain.UpcomingEvent {
	upcoming := make([]domain.UpcomingEvent, 0)
	for _, ev := range events {
		if !ev.IsActive {
			continue
		}
		days := DaysUntilEvent(ev, asOf)
		if days > d.cfg.EventHorizonDays {
			continue
		}
		upcoming = append(upcoming, domain.UpcomingEvent{
			Event:      ev,
			DaysUntil:  days,
			Multiplier: d.EffectiveMultiplier(ev, sku),
		})
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].DaysUntil < upcoming[j].DaysUntil })
	return upcoming
}

// EffectiveMultiplier resolves the multiplier to apply for a SKU: a per-SKU
// override wins, then a blend of base and learned values, then base alone.
func (d *Detector) EffectiveMultiplier(ev domain.SeasonalEvent, sku string) float64 {
	if m, ok := ev.SKUMultipliers[sku]; ok && m > 0 {
		return m
	}
	if ev.LearnedMultiplier != nil {
		return d.cfg.BlendBaseWeight*ev.BaseMultiplier + d.cfg.BlendLearnedWeight*(*ev.LearnedMultiplier)
	}
	return ev.BaseMultiplier
}

// DaysUntilEvent returns the days from asOf to the event's next occurrence.
// A date inside the window returns 0. Windows whose start already passed
// this year resolve against next year's occurrence, so the result is
// always >= 0.
func DaysUntilEvent(ev domain.SeasonalEvent, asOf time.Time) int {
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	if ev.ContainsDate(today) {
		return 0
	}
	start := time.Date(today.Year(), time.Month(ev.StartMonth), ev.StartDay, 0, 0, 0, 0, asOf.Location())
	if start.Before(today) {
		start = time.Date(today.Year()+1, time.Month(ev.StartMonth), ev.StartDay, 0, 0, 0, 0, asOf.Location())
	}
	return int(start.Sub(today).Hours() / 24)
}

// multiplier is a division guarded against an empty or all-zero history.
func multiplier(avg, overall float64) float64 {
	if overall == 0 {
		return 1.0
	}
	return avg / overall
}

// sampleConfidence scores a group of samples: low dispersion and enough
// observations push it toward 1.
func sampleConfidence(samples []float64, fullSampleTarget int) float64 {
	cv := timeseries.CoefVar(samples)
	conf := (1 - cv) * math.Min(1, float64(len(samples))/float64(fullSampleTarget))
	if conf < 0 {
		return 0
	}
	return conf
}
