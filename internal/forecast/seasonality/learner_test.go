package seasonality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
)

func blackFriday() *domain.SeasonalEvent {
	return &domain.SeasonalEvent{
		ID:             1,
		Name:           "Black Friday",
		StartMonth:     11,
		StartDay:       25,
		EndMonth:       11,
		EndDay:         29,
		BaseMultiplier: 2.0,
		IsActive:       true,
	}
}

func TestLearnShortHistoryIsNoop(t *testing.T) {
	l := NewLearner(config.DefaultForecastConfig().Seasonality)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sales := dailySeries(start, start.AddDate(0, 0, 200), flat(10))

	ev := blackFriday()
	got := l.Learn("SKU-1", sales, []*domain.SeasonalEvent{ev})

	assert.Nil(t, got)
	assert.Nil(t, ev.LearnedMultiplier)
}

func TestLearnBlackFridayMultiplier(t *testing.T) {
	l := NewLearner(config.DefaultForecastConfig().Seasonality)
	ev := blackFriday()

	// Three full years at 10 units/day, 35 during each Black Friday window.
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	sales := dailySeries(start, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), func(d time.Time) float64 {
		if ev.ContainsDate(d) {
			return 35
		}
		return 10
	})

	got := l.Learn("SKU-1", sales, []*domain.SeasonalEvent{ev})

	require.Len(t, got, 1)
	assert.Equal(t, "Black Friday", got[0].EventName)
	assert.Equal(t, "SKU-1", got[0].SKU)
	assert.InDelta(t, 3.5, got[0].Multiplier, 0.01)
	assert.Equal(t, 3, got[0].YearsObserved)
	assert.InDelta(t, 1.0, got[0].Confidence, 1e-9)

	require.NotNil(t, ev.LearnedMultiplier)
	assert.InDelta(t, 3.5, *ev.LearnedMultiplier, 0.01)
}

func TestLearnIsIdempotent(t *testing.T) {
	l := NewLearner(config.DefaultForecastConfig().Seasonality)
	ev := blackFriday()

	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	sales := dailySeries(start, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), func(d time.Time) float64 {
		if ev.ContainsDate(d) {
			return 35
		}
		return 10
	})

	first := l.Learn("SKU-1", sales, []*domain.SeasonalEvent{ev})
	second := l.Learn("SKU-1", sales, []*domain.SeasonalEvent{ev})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Multiplier, second[0].Multiplier)
	assert.Equal(t, first[0].YearsObserved, second[0].YearsObserved)
}

func TestLearnSkipsInactiveEvents(t *testing.T) {
	l := NewLearner(config.DefaultForecastConfig().Seasonality)
	ev := blackFriday()
	ev.IsActive = false

	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	sales := dailySeries(start, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), flat(10))

	got := l.Learn("SKU-1", sales, []*domain.SeasonalEvent{ev})
	assert.Empty(t, got)
}

func TestDetectNewPatternsFindsRecurringSpike(t *testing.T) {
	l := NewLearner(config.DefaultForecastConfig().Seasonality)

	// Two years of flat demand with a 5-day Prime-style peak every mid July.
	spike := domain.SeasonalEvent{StartMonth: 7, StartDay: 10, EndMonth: 7, EndDay: 14}
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	sales := dailySeries(start, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), func(d time.Time) float64 {
		if spike.ContainsDate(d) {
			return 30
		}
		return 10
	})

	got := l.DetectNewPatterns("SKU-1", sales, nil)

	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].StartMonth)
	assert.Equal(t, 10, got[0].StartDay)
	assert.Equal(t, 2, got[0].YearsSeen)
	assert.Greater(t, got[0].AvgMultiplier, 2.5)
	assert.Contains(t, got[0].SuggestedName, "July")
}

func TestDetectNewPatternsIgnoresDeclaredEvents(t *testing.T) {
	l := NewLearner(config.DefaultForecastConfig().Seasonality)

	declared := &domain.SeasonalEvent{
		Name: "Prime Day", StartMonth: 7, StartDay: 10, EndMonth: 7, EndDay: 14,
		BaseMultiplier: 3.0, IsActive: true,
	}
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	sales := dailySeries(start, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), func(d time.Time) float64 {
		if declared.ContainsDate(d) {
			return 30
		}
		return 10
	})

	got := l.DetectNewPatterns("SKU-1", sales, []*domain.SeasonalEvent{declared})
	assert.Empty(t, got)
}

func TestDetectNewPatternsNeedsTwoYears(t *testing.T) {
	l := NewLearner(config.DefaultForecastConfig().Seasonality)

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	sales := dailySeries(start, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), flat(10))

	assert.Nil(t, l.DetectNewPatterns("SKU-1", sales, nil))
}
