package safetystock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
)

func newTestCalculator() *Calculator {
	return NewCalculator(config.DefaultForecastConfig().SafetyStock)
}

func baseInputs() Inputs {
	return Inputs{
		SKU:            "SKU-1",
		Importance:     "standard",
		DemandMean:     10,
		DemandStdDev:   3,
		LeadTimeDays:   14,
		LeadTimeStdDev: 2,
	}
}

func TestCalculateBaseFormula(t *testing.T) {
	c := newTestCalculator()

	got := c.Calculate(baseInputs())

	// z x sqrt(LT x sigma_d^2 + mu_d^2 x sigma_LT^2) = 1.65 x sqrt(526)
	want := 1.65 * math.Sqrt(14*9+100*4)
	assert.InDelta(t, want, got.BaseSafetyStock, 1e-6)
	assert.Equal(t, got.BaseSafetyStock, got.FinalSafetyStock)
	assert.Equal(t, "standard", got.ServiceLevel)
	assert.Equal(t, 1.65, got.ZScore)
	require.Len(t, got.Reasoning, 1)
	assert.Contains(t, got.Reasoning[0], "base")
}

func TestCalculateServiceLevels(t *testing.T) {
	c := newTestCalculator()

	tests := []struct {
		importance string
		wantZ      float64
		wantLevel  string
	}{
		{"standard", 1.65, "standard"},
		{"important", 1.96, "important"},
		{"critical", 2.33, "critical"},
		{"unheard-of", 1.65, "standard"},
		{"", 1.65, "standard"},
	}
	for _, tt := range tests {
		t.Run(tt.importance, func(t *testing.T) {
			in := baseInputs()
			in.Importance = tt.importance
			got := c.Calculate(in)
			assert.Equal(t, tt.wantZ, got.ZScore)
			assert.Equal(t, tt.wantLevel, got.ServiceLevel)
		})
	}
}

func TestCalculateMonotoneInDemandVariance(t *testing.T) {
	c := newTestCalculator()

	low := baseInputs()
	high := baseInputs()
	high.DemandStdDev = 6

	assert.Greater(t, c.Calculate(high).FinalSafetyStock, c.Calculate(low).FinalSafetyStock)
}

func TestCalculateSeasonalAdjustment(t *testing.T) {
	c := newTestCalculator()

	tests := []struct {
		name       string
		multiplier float64
		wantFactor float64
		wantSteps  int
	}{
		{"below threshold untouched", 1.1, 1.0, 1},
		{"above threshold scales", 1.5, 1.5, 2},
		{"capped at two", 3.0, 2.0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInputs()
			in.SeasonalMultiplier = tt.multiplier
			got := c.Calculate(in)
			assert.InDelta(t, got.BaseSafetyStock*tt.wantFactor, got.FinalSafetyStock, 1e-6)
			assert.Len(t, got.Reasoning, tt.wantSteps)
		})
	}
}

func TestCalculateReliabilityAdjustment(t *testing.T) {
	c := newTestCalculator()

	in := baseInputs()
	in.HasReliability = true
	in.SupplierReliability = 0.5

	got := c.Calculate(in)

	// 0.2 short of the 0.7 threshold inflates the buffer by 20%.
	assert.InDelta(t, got.BaseSafetyStock*1.2, got.FinalSafetyStock, 1e-6)
	require.Len(t, got.Reasoning, 2)
	assert.Contains(t, got.Reasoning[1], "reliability")
}

func TestCalculateReliableSupplierIsNeutral(t *testing.T) {
	c := newTestCalculator()

	in := baseInputs()
	in.HasReliability = true
	in.SupplierReliability = 0.9

	got := c.Calculate(in)
	assert.Equal(t, got.BaseSafetyStock, got.FinalSafetyStock)
}

func TestCalculateStackedAdjustments(t *testing.T) {
	c := newTestCalculator()

	in := baseInputs()
	in.SeasonalMultiplier = 1.5
	in.HasReliability = true
	in.SupplierReliability = 0.5

	got := c.Calculate(in)
	assert.InDelta(t, got.BaseSafetyStock*1.5*1.2, got.FinalSafetyStock, 1e-6)
	assert.Len(t, got.Reasoning, 3)
}

func TestCalculateZeroInputs(t *testing.T) {
	c := newTestCalculator()

	got := c.Calculate(Inputs{SKU: "SKU-1"})
	assert.Equal(t, 0.0, got.BaseSafetyStock)
	assert.Equal(t, 0.0, got.FinalSafetyStock)
	assert.GreaterOrEqual(t, got.FinalSafetyStock, 0.0)
}
