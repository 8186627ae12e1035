package newitem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
)

func newTestMatcher() *Matcher {
	return NewMatcher(config.DefaultForecastConfig().NewItem)
}

func velocityHistory(start time.Time, units []float64) []domain.SalesDataPoint {
	out := make([]domain.SalesDataPoint, len(units))
	for i, u := range units {
		out[i] = domain.SalesDataPoint{Date: start.AddDate(0, 0, i), Units: u}
	}
	return out
}

func flatVelocity(days int, units float64) []float64 {
	out := make([]float64, days)
	for i := range out {
		out[i] = units
	}
	return out
}

func TestIsNewItemBoundary(t *testing.T) {
	m := newTestMatcher()
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, m.IsNewItem(nil))
	assert.True(t, m.IsNewItem(velocityHistory(start, flatVelocity(29, 5))))
	assert.False(t, m.IsNewItem(velocityHistory(start, flatVelocity(30, 5))))
}

func TestMatchScore(t *testing.T) {
	item := domain.SKUAttributes{
		SKU: "NEW-1", Category: "kitchen", Brand: "Acme", Supplier: "SupCo", Price: 100,
	}

	tests := []struct {
		name      string
		candidate domain.SKUAttributes
		want      float64
	}{
		{
			"identical attributes",
			domain.SKUAttributes{SKU: "OLD-1", Category: "kitchen", Brand: "Acme", Supplier: "SupCo", Price: 100},
			1.0,
		},
		{
			"category and price only",
			domain.SKUAttributes{SKU: "OLD-2", Category: "kitchen", Brand: "Other", Supplier: "Other", Price: 100},
			0.65,
		},
		{
			"half price similarity",
			domain.SKUAttributes{SKU: "OLD-3", Category: "kitchen", Brand: "Acme", Supplier: "SupCo", Price: 150},
			0.40 + 0.20 + 0.15 + 0.25*0.5,
		},
		{
			"double the price scores zero on price",
			domain.SKUAttributes{SKU: "OLD-4", Category: "other", Brand: "Other", Supplier: "Other", Price: 200},
			0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MatchScore(item, tt.candidate), 1e-9)
		})
	}
}

func TestMatchPicksBestCandidate(t *testing.T) {
	m := newTestMatcher()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	launched := asOf.AddDate(0, 0, -10)
	analogStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	item := domain.SKUAttributes{
		SKU: "NEW-1", Category: "kitchen", Brand: "Acme", Supplier: "SupCo", Price: 100, LaunchedAt: launched,
	}
	candidates := []Candidate{
		{
			Attributes: domain.SKUAttributes{SKU: "WEAK", Category: "garden", Brand: "Other", Supplier: "Other", Price: 300},
			Sales:      velocityHistory(analogStart, flatVelocity(60, 4)),
		},
		{
			Attributes: domain.SKUAttributes{SKU: "STRONG", Category: "kitchen", Brand: "Acme", Supplier: "SupCo", Price: 105},
			Sales:      velocityHistory(analogStart, flatVelocity(60, 10)),
		},
		{
			Attributes: domain.SKUAttributes{SKU: "NEW-1", Category: "kitchen", Brand: "Acme", Supplier: "SupCo", Price: 100},
			Sales:      velocityHistory(analogStart, flatVelocity(60, 99)),
		},
	}

	got := m.Match(item, velocityHistory(launched, flatVelocity(10, 10)), candidates, asOf)

	require.NotNil(t, got)
	assert.Equal(t, "STRONG", got.AnalogSKU, "the item itself must never match")
	assert.Greater(t, got.MatchScore, 0.9)
	assert.Equal(t, 10, got.DaysSinceLaunch)
	// The borrowed curve is capped at the frequent-watch period.
	assert.Len(t, got.DailyVelocity, 45)
}

func TestMatchReturnsNilWithoutUsableCandidates(t *testing.T) {
	m := newTestMatcher()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	item := domain.SKUAttributes{SKU: "NEW-1", Category: "kitchen", Price: 100}

	assert.Nil(t, m.Match(item, nil, nil, asOf))
	assert.Nil(t, m.Match(item, nil, []Candidate{
		{Attributes: domain.SKUAttributes{SKU: "EMPTY", Category: "kitchen", Price: 100}},
	}, asOf))
}

func TestCheckCadenceByAge(t *testing.T) {
	m := newTestMatcher()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	analogStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candidates := []Candidate{{
		Attributes: domain.SKUAttributes{SKU: "OLD-1", Category: "kitchen", Price: 100},
		Sales:      velocityHistory(analogStart, flatVelocity(60, 10)),
	}}

	tests := []struct {
		name    string
		ageDays int
		want    domain.CheckCadence
	}{
		{"brand new checks daily", 10, domain.CheckDaily},
		{"boundary of daily watch", 14, domain.CheckDaily},
		{"first weeks check every third day", 30, domain.CheckEvery3Days},
		{"established checks weekly", 60, domain.CheckWeekly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := domain.SKUAttributes{
				SKU: "NEW-1", Category: "kitchen", Price: 100,
				LaunchedAt: asOf.AddDate(0, 0, -tt.ageDays),
			}
			got := m.Match(item, nil, candidates, asOf)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.CheckCadence)
			assert.Equal(t, tt.ageDays, got.DaysSinceLaunch)
		})
	}
}

func TestDeviationTriggersRecalibration(t *testing.T) {
	m := newTestMatcher()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	launched := asOf.AddDate(0, 0, -10)
	analogStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	item := domain.SKUAttributes{SKU: "NEW-1", Category: "kitchen", Price: 100, LaunchedAt: launched}
	candidates := []Candidate{{
		Attributes: domain.SKUAttributes{SKU: "OLD-1", Category: "kitchen", Price: 100},
		Sales:      velocityHistory(analogStart, flatVelocity(60, 10)),
	}}

	tests := []struct {
		name       string
		actualRate float64
		wantDev    float64
		wantRecal  bool
		wantWatch  domain.WatchStatus
	}{
		{"tracking the analog", 10, 0.0, false, domain.WatchNormal},
		{"mildly ahead", 12, 0.2, false, domain.WatchNormal},
		{"outselling past threshold", 14, 0.4, true, domain.WatchHigh},
		{"way off the curve", 18, 0.8, true, domain.WatchCritical},
		{"undershooting hard", 2, -0.8, true, domain.WatchCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actuals := velocityHistory(launched, flatVelocity(10, tt.actualRate))
			got := m.Match(item, actuals, candidates, asOf)
			require.NotNil(t, got)
			assert.InDelta(t, tt.wantDev, got.DeviationPct, 1e-9)
			assert.Equal(t, tt.wantRecal, got.NeedsRecalibration)
			assert.Equal(t, tt.wantWatch, got.WatchStatus)
		})
	}
}
