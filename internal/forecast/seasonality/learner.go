// internal/forecast/seasonality/learner.go
package seasonality

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/timeseries"
)

// Learner derives per-event demand multipliers from multi-year history.
// Learning is recomputed from the full eligible history on every run, never
// incrementally adjusted, so reruns over identical input are idempotent.
type Learner struct {
	cfg config.SeasonalityConfig
}

func NewLearner(cfg config.SeasonalityConfig) *Learner {
	return &Learner{cfg: cfg}
}

// Learn computes a learned multiplier for every active event covered by the
// SKU's history and writes it onto the event records in place. The caller
// owns persisting the mutated events. Histories below a full year are a
// no-op.
func (l *Learner) Learn(sku string, sales []domain.SalesDataPoint, events []*domain.SeasonalEvent) []domain.LearnedMultiplier {
	if len(sales) < l.cfg.MinYearlyHistoryDays {
		return nil
	}

	baseline := l.baselineVelocity(sales, events)

	learned := make([]domain.LearnedMultiplier, 0, len(events))
	for _, ev := range events {
		if !ev.IsActive {
			continue
		}

		byYear := make(map[int][]float64)
		for _, p := range sales {
			if ev.ContainsDate(p.Date) {
				byYear[p.Date.Year()] = append(byYear[p.Date.Year()], p.Units)
			}
		}
		if len(byYear) == 0 {
			continue
		}

		years := make([]int, 0, len(byYear))
		for y := range byYear {
			years = append(years, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(years)))

		// Most recent year dominates; older years decay with recency rank.
		var weightedSum, weightTotal float64
		for rank, year := range years {
			w := l.cfg.RecentYearWeight
			if rank > 0 {
				w = l.cfg.OlderYearBudget / float64(rank)
			}
			weightedSum += w * timeseries.Mean(byYear[year])
			weightTotal += w
		}
		weightedAvg := weightedSum / weightTotal

		mult := 1.0
		if baseline > 0 {
			mult = weightedAvg / baseline
		}

		m := mult
		ev.LearnedMultiplier = &m

		learned = append(learned, domain.LearnedMultiplier{
			EventID:       ev.ID,
			EventName:     ev.Name,
			SKU:           sku,
			Multiplier:    mult,
			YearsObserved: len(years),
			Confidence:    math.Min(1, float64(len(years))/3),
		})
	}

	return learned
}

// baselineVelocity is the mean daily units over every day that falls outside
// all active event windows. When the whole history sits inside events the
// overall mean serves as the fallback.
func (l *Learner) baselineVelocity(sales []domain.SalesDataPoint, events []*domain.SeasonalEvent) float64 {
	outside := make([]float64, 0, len(sales))
	for _, p := range sales {
		inEvent := false
		for _, ev := range events {
			if ev.IsActive && ev.ContainsDate(p.Date) {
				inEvent = true
				break
			}
		}
		if !inEvent {
			outside = append(outside, p.Units)
		}
	}
	if len(outside) == 0 {
		return timeseries.Mean(timeseries.Units(sales))
	}
	return timeseries.Mean(outside)
}

// spikeWindow is one contiguous run of elevated demand within a single year.
type spikeWindow struct {
	year       int
	startMonth int
	startDay   int
	endMonth   int
	endDay     int
	multiplier float64
}

// DetectNewPatterns scans multi-year history for recurring demand windows
// that no declared event covers. The output is advisory: callers surface the
// candidates for review and never auto-create active events from them.
func (l *Learner) DetectNewPatterns(sku string, sales []domain.SalesDataPoint, events []*domain.SeasonalEvent) []domain.CandidatePattern {
	if len(sales) < 2*l.cfg.MinYearlyHistoryDays {
		return nil
	}

	byYear := make(map[int][]domain.SalesDataPoint)
	for _, p := range sales {
		byYear[p.Date.Year()] = append(byYear[p.Date.Year()], p)
	}

	windows := make([]spikeWindow, 0)
	for year, points := range byYear {
		yearAvg := timeseries.Mean(timeseries.Units(points))
		if yearAvg == 0 {
			continue
		}
		windows = append(windows, l.spikeRuns(year, points, yearAvg, events)...)
	}

	// Windows recur when they land in the same month and week-of-month
	// bucket across years.
	type bucketKey struct {
		month  int
		bucket int
	}
	groups := make(map[bucketKey][]spikeWindow)
	for _, w := range windows {
		key := bucketKey{month: w.startMonth, bucket: (w.startDay - 1) / 7}
		groups[key] = append(groups[key], w)
	}

	candidates := make([]domain.CandidatePattern, 0)
	for _, group := range groups {
		years := make(map[int]struct{})
		for _, w := range group {
			years[w.year] = struct{}{}
		}
		if len(years) < l.cfg.MinRecurrenceYears {
			continue
		}

		var startDay, endDay, mult float64
		for _, w := range group {
			startDay += float64(w.startDay)
			endDay += float64(w.endDay)
			mult += w.multiplier
		}
		n := float64(len(group))
		c := domain.CandidatePattern{
			StartMonth:    group[0].startMonth,
			StartDay:      int(math.Round(startDay / n)),
			EndMonth:      group[len(group)-1].endMonth,
			EndDay:        int(math.Round(endDay / n)),
			AvgMultiplier: mult / n,
			YearsSeen:     len(years),
			Confidence:    math.Min(1, float64(len(years))/3),
		}
		c.SuggestedName = suggestPatternName(c.StartMonth, c.StartDay)
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].StartMonth != candidates[j].StartMonth {
			return candidates[i].StartMonth < candidates[j].StartMonth
		}
		return candidates[i].StartDay < candidates[j].StartDay
	})
	return candidates
}

// spikeRuns finds runs of at least MinSpikeRunDays consecutive days whose
// units exceed MinSpikeMultiplier x the year's average, skipping days any
// declared active event already explains.
func (l *Learner) spikeRuns(year int, points []domain.SalesDataPoint, yearAvg float64, events []*domain.SeasonalEvent) []spikeWindow {
	threshold := l.cfg.MinSpikeMultiplier * yearAvg

	inDeclaredEvent := func(t time.Time) bool {
		for _, ev := range events {
			if ev.IsActive && ev.ContainsDate(t) {
				return true
			}
		}
		return false
	}

	runs := make([]spikeWindow, 0)
	var run []domain.SalesDataPoint
	flush := func() {
		if len(run) >= l.cfg.MinSpikeRunDays {
			first, last := run[0].Date, run[len(run)-1].Date
			runs = append(runs, spikeWindow{
				year:       year,
				startMonth: int(first.Month()),
				startDay:   first.Day(),
				endMonth:   int(last.Month()),
				endDay:     last.Day(),
				multiplier: timeseries.Mean(timeseries.Units(run)) / yearAvg,
			})
		}
		run = nil
	}

	var prev time.Time
	for _, p := range points {
		elevated := p.Units > threshold && !inDeclaredEvent(p.Date)
		consecutive := len(run) == 0 || p.Date.Sub(prev) <= 24*time.Hour
		if elevated && consecutive {
			run = append(run, p)
		} else {
			flush()
			if elevated {
				run = append(run, p)
			}
		}
		prev = p.Date
	}
	flush()

	return runs
}

func suggestPatternName(month, day int) string {
	segment := "late"
	switch {
	case day <= 10:
		segment = "early"
	case day <= 20:
		segment = "mid"
	}
	return fmt.Sprintf("Recurring demand peak (%s %s)", segment, time.Month(month).String())
}
