package spike

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
)

func newTestDetector() *Detector {
	cfg := config.DefaultForecastConfig()
	return NewDetector(cfg.Spike, cfg.Urgency)
}

// spikedHistory builds baselineDays at baseUnits followed by spikeDays at
// spikeUnits, ascending daily dates ending the day before asOf.
func spikedHistory(asOf time.Time, baselineDays int, baseUnits float64, spikeDays int, spikeUnits float64) []domain.SalesDataPoint {
	total := baselineDays + spikeDays
	out := make([]domain.SalesDataPoint, 0, total)
	for i := 0; i < total; i++ {
		units := baseUnits
		if i >= baselineDays {
			units = spikeUnits
		}
		out = append(out, domain.SalesDataPoint{
			Date:  asOf.AddDate(0, 0, i-total),
			Units: units,
		})
	}
	return out
}

func TestDetectFiveDaySpike(t *testing.T) {
	d := newTestDetector()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	sales := spikedHistory(asOf, 30, 10, 5, 30)
	got := d.Detect("SKU-1", sales, domain.SpikeSignals{}, domain.InventoryPosition{Total: 300}, asOf)

	assert.True(t, got.IsSpiking)
	assert.Equal(t, 5, got.DaysSpiking)
	assert.InDelta(t, 10.0, got.BaselineVelocity, 1e-9)
	assert.InDelta(t, 3.0, got.CurrentMultiplier, 1e-9)
}

func TestDetectFlatHistoryIsNotSpiking(t *testing.T) {
	d := newTestDetector()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	sales := spikedHistory(asOf, 40, 10, 0, 0)
	got := d.Detect("SKU-1", sales, domain.SpikeSignals{}, domain.InventoryPosition{Total: 300}, asOf)

	assert.False(t, got.IsSpiking)
	assert.Equal(t, 0, got.DaysSpiking)
	assert.InDelta(t, 1.0, got.CurrentMultiplier, 1e-9)
	assert.Equal(t, domain.CauseUnknown, got.ProbableCause)
	assert.Empty(t, got.DecayProjection)
}

func TestDetectTwoDayRunIsBelowThreshold(t *testing.T) {
	d := newTestDetector()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	sales := spikedHistory(asOf, 30, 10, 2, 30)
	got := d.Detect("SKU-1", sales, domain.SpikeSignals{}, domain.InventoryPosition{}, asOf)

	assert.False(t, got.IsSpiking)
	assert.Equal(t, 2, got.DaysSpiking)
}

func TestDetectEmptyHistory(t *testing.T) {
	d := newTestDetector()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	got := d.Detect("SKU-1", nil, domain.SpikeSignals{}, domain.InventoryPosition{}, asOf)

	assert.False(t, got.IsSpiking)
	assert.Equal(t, domain.CauseUnknown, got.ProbableCause)
	assert.Equal(t, domain.UrgencyOK, got.InventoryImpact.Urgency)
}

func TestCauseAttributionRanking(t *testing.T) {
	d := newTestDetector()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sales := spikedHistory(asOf, 30, 10, 5, 30)
	listingChange := asOf.AddDate(0, 0, -3)
	staleChange := asOf.AddDate(0, 0, -30)

	tests := []struct {
		name     string
		signals  domain.SpikeSignals
		want     domain.SpikeCause
		wantConf float64
	}{
		{
			"deal outranks everything",
			domain.SpikeSignals{ActiveDeal: true, AdSpendDeltaPct: 0.9, ListingChangedAt: &listingChange},
			domain.CauseDeal, 0.9,
		},
		{
			"ad spend jump",
			domain.SpikeSignals{AdSpendDeltaPct: 0.5},
			domain.CauseAdvertising, 0.8,
		},
		{
			"small ad delta falls through to listing change",
			domain.SpikeSignals{AdSpendDeltaPct: 0.1, ListingChangedAt: &listingChange},
			domain.CauseListingChange, 0.6,
		},
		{
			"old listing change is unknown",
			domain.SpikeSignals{ListingChangedAt: &staleChange},
			domain.CauseUnknown, 0,
		},
		{
			"no signals",
			domain.SpikeSignals{},
			domain.CauseUnknown, 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect("SKU-1", sales, tt.signals, domain.InventoryPosition{Total: 300}, asOf)
			require.True(t, got.IsSpiking)
			assert.Equal(t, tt.want, got.ProbableCause)
			assert.InDelta(t, tt.wantConf, got.CauseConfidence, 0.01)
		})
	}
}

func TestDecayProjectionRelaxesToBaseline(t *testing.T) {
	d := newTestDetector()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	sales := spikedHistory(asOf, 30, 10, 5, 30)
	got := d.Detect("SKU-1", sales, domain.SpikeSignals{}, domain.InventoryPosition{Total: 300}, asOf)

	require.Len(t, got.DecayProjection, 14)
	prev := got.CurrentMultiplier
	for _, p := range got.DecayProjection {
		assert.LessOrEqual(t, p.ProjectedMultiplier, prev+1e-9, "decay must be monotone")
		assert.GreaterOrEqual(t, p.ProjectedMultiplier, 1.0)
		prev = p.ProjectedMultiplier
	}
	assert.InDelta(t, 1.0, got.DecayProjection[len(got.DecayProjection)-1].ProjectedMultiplier, 1e-9)
}

func TestInventoryImpactUnderSpike(t *testing.T) {
	d := newTestDetector()
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sales := spikedHistory(asOf, 30, 10, 5, 30)

	tests := []struct {
		name  string
		total float64
		want  domain.Urgency
	}{
		{"a day of cover", 30, domain.UrgencyCritical},
		{"ten days of cover", 300, domain.UrgencyHigh},
		{"twenty days of cover", 600, domain.UrgencyMedium},
		{"forty days of cover", 1200, domain.UrgencyLow},
		{"plenty of cover", 2000, domain.UrgencyOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect("SKU-1", sales, domain.SpikeSignals{}, domain.InventoryPosition{Total: tt.total}, asOf)
			assert.Equal(t, tt.want, got.InventoryImpact.Urgency)
			// Linear decay over 14 days from 3x baseline means 140 extra units.
			assert.InDelta(t, 140.0, got.InventoryImpact.AdditionalUnits, 1e-6)
		})
	}
}
