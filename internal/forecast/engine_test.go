package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/newitem"
)

// dailySales builds ascending daily history ending the day before asOf.
func dailySales(asOf time.Time, days int, unitsFor func(i int) float64) []domain.SalesDataPoint {
	out := make([]domain.SalesDataPoint, days)
	for i := range out {
		out[i] = domain.SalesDataPoint{
			Date:  asOf.AddDate(0, 0, i-days),
			Units: unitsFor(i),
		}
	}
	return out
}

func steady(units float64) func(int) float64 {
	return func(int) float64 { return units }
}

func TestRunSteadySKU(t *testing.T) {
	e := NewEngine(config.DefaultForecastConfig())
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	in := SKUInput{
		SKU:      "SKU-1",
		AsOf:     asOf,
		Sales:    dailySales(asOf, 120, steady(10)),
		Position: domain.InventoryPosition{Total: 100},
	}

	res, err := e.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "SKU-1", res.SKU)
	assert.InDelta(t, 10.0, res.Forecast.BaseForecast, 0.5)
	assert.Equal(t,
		res.Forecast.BaseForecast*res.Forecast.SeasonalityMultiplier*res.Forecast.DealMultiplier*res.Forecast.SpikeMultiplier,
		res.Forecast.FinalForecast)

	require.Len(t, res.Accuracy, 4)
	for _, acc := range res.Accuracy {
		assert.Greater(t, acc.SampleSize, 0, acc.Model)
	}
	for model, w := range res.Weights.ByModel() {
		assert.Greater(t, w, 0.0, model)
	}

	assert.False(t, res.Spike.IsSpiking)
	assert.GreaterOrEqual(t, res.SafetyStock.FinalSafetyStock, 0.0)

	// 100 on hand covers ten days at this velocity: well short of target.
	assert.Greater(t, res.Recommendation.RecommendedOrderQty, 0)
	assert.Equal(t, domain.UrgencyHigh, res.Recommendation.Urgency)
	assert.NotEmpty(t, res.Alerts)
}

func TestRunAppliesEventMultiplier(t *testing.T) {
	e := NewEngine(config.DefaultForecastConfig())
	asOf := time.Date(2025, 11, 27, 0, 0, 0, 0, time.UTC)

	events := []*domain.SeasonalEvent{
		{
			Name: "Black Friday", StartMonth: 11, StartDay: 25, EndMonth: 11, EndDay: 29,
			BaseMultiplier: 2.0, IsActive: true,
		},
		nil, // tolerated: repositories can hand back sparse rows
	}

	in := SKUInput{
		SKU:      "SKU-1",
		AsOf:     asOf,
		Sales:    dailySales(asOf, 120, steady(10)),
		Events:   events,
		Position: domain.InventoryPosition{Total: 2000},
	}

	res, err := e.Run(context.Background(), in)
	require.NoError(t, err)

	require.NotEmpty(t, res.Seasonality.UpcomingEvents)
	assert.Equal(t, 0, res.Seasonality.UpcomingEvents[0].DaysUntil)
	assert.Equal(t, 2.0, res.Forecast.SeasonalityMultiplier)
	assert.InDelta(t, res.Forecast.BaseForecast*2, res.Forecast.FinalForecast, 1e-9)
}

func TestRunDetectsSpike(t *testing.T) {
	e := NewEngine(config.DefaultForecastConfig())
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	sales := dailySales(asOf, 65, func(i int) float64 {
		if i >= 60 {
			return 30
		}
		return 10
	})

	in := SKUInput{
		SKU:      "SKU-1",
		AsOf:     asOf,
		Sales:    sales,
		Position: domain.InventoryPosition{Total: 2000},
		Signals:  domain.SpikeSignals{ActiveDeal: true},
	}

	res, err := e.Run(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, res.Spike.IsSpiking)
	assert.Equal(t, 5, res.Spike.DaysSpiking)
	assert.Equal(t, domain.CauseDeal, res.Spike.ProbableCause)
	assert.InDelta(t, res.Spike.CurrentMultiplier, res.Forecast.SpikeMultiplier, 1e-9)
}

func TestRunActiveDealMultiplier(t *testing.T) {
	e := NewEngine(config.DefaultForecastConfig())
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	in := SKUInput{
		SKU:      "SKU-1",
		AsOf:     asOf,
		Sales:    dailySales(asOf, 120, steady(10)),
		Position: domain.InventoryPosition{Total: 2000},
		Deals: []domain.ScheduledDeal{{
			SKU:          "SKU-1",
			StartDate:    asOf.AddDate(0, 0, -1),
			EndDate:      asOf.AddDate(0, 0, 2),
			ExpectedLift: 2.5,
		}},
	}

	res, err := e.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2.5, res.Forecast.DealMultiplier)
}

func TestRunLeadTimeFeedsSafetyStock(t *testing.T) {
	e := NewEngine(config.DefaultForecastConfig())
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	ordered := asOf.AddDate(0, 0, -200)
	receipts := make([]domain.PurchaseOrderReceipt, 0, 5)
	for i := 0; i < 5; i++ {
		o := ordered.AddDate(0, 0, i*30)
		receipts = append(receipts, domain.PurchaseOrderReceipt{
			Supplier:           "ACME",
			OrderedAt:          o,
			StatedLeadTimeDays: 30,
			ActualDeliveryAt:   o.AddDate(0, 0, 30+i*3),
		})
	}

	in := SKUInput{
		SKU:      "SKU-1",
		AsOf:     asOf,
		Sales:    dailySales(asOf, 120, steady(10)),
		Position: domain.InventoryPosition{Total: 2000},
		Supplier: "ACME",
		Receipts: receipts,
	}

	res, err := e.Run(context.Background(), in)
	require.NoError(t, err)

	require.NotNil(t, res.LeadTime)
	assert.Equal(t, "ACME", res.LeadTime.Supplier)
	assert.Equal(t, 5, res.LeadTime.SampleSize)
	assert.Greater(t, res.SafetyStock.LeadTimeDays, 0.0)
	assert.Greater(t, res.SafetyStock.FinalSafetyStock, 0.0)
}

func TestRunNewItemBorrowsAnalogCurve(t *testing.T) {
	e := NewEngine(config.DefaultForecastConfig())
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	in := SKUInput{
		SKU:      "NEW-1",
		AsOf:     asOf,
		Sales:    dailySales(asOf, 10, steady(8)),
		Position: domain.InventoryPosition{Total: 500},
		Attributes: domain.SKUAttributes{
			SKU: "NEW-1", Category: "kitchen", Brand: "Acme", Price: 100,
			LaunchedAt: asOf.AddDate(0, 0, -10),
		},
		Candidates: []newitem.Candidate{{
			Attributes: domain.SKUAttributes{SKU: "OLD-1", Category: "kitchen", Brand: "Acme", Price: 100},
			Sales:      dailySales(asOf, 60, steady(8)),
		}},
	}

	res, err := e.Run(context.Background(), in)
	require.NoError(t, err)

	require.NotNil(t, res.NewItem)
	assert.Equal(t, "OLD-1", res.NewItem.AnalogSKU)
	assert.InDelta(t, 8.0, res.Forecast.BaseForecast, 1e-9)
	assert.Contains(t, res.Forecast.Reasoning[len(res.Forecast.Reasoning)-1], "analog")
}

func TestRunHonorsCancelledContext(t *testing.T) {
	e := NewEngine(config.DefaultForecastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, SKUInput{SKU: "SKU-1"})
	assert.Error(t, err)
}

func TestRunBatch(t *testing.T) {
	e := NewEngine(config.DefaultForecastConfig())
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	inputs := make([]SKUInput, 0, 3)
	for _, sku := range []string{"A", "B", "C"} {
		inputs = append(inputs, SKUInput{
			SKU:      sku,
			AsOf:     asOf,
			Sales:    dailySales(asOf, 120, steady(10)),
			Position: domain.InventoryPosition{Total: 500},
		})
	}

	results := e.RunBatch(context.Background(), inputs, 2)

	require.Len(t, results, 3)
	seen := make(map[string]bool)
	for _, r := range results {
		seen[r.SKU] = true
	}
	assert.Len(t, seen, 3)
}

func TestLearnEvents(t *testing.T) {
	e := NewEngine(config.DefaultForecastConfig())

	ev := &domain.SeasonalEvent{
		ID: 1, Name: "Black Friday", StartMonth: 11, StartDay: 25, EndMonth: 11, EndDay: 29,
		BaseMultiplier: 2.0, IsActive: true,
	}
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sales := dailySales(asOf, 730, steady(10))
	for i := range sales {
		if ev.ContainsDate(sales[i].Date) {
			sales[i].Units = 30
		}
	}

	learned, candidates := e.LearnEvents("SKU-1", sales, []*domain.SeasonalEvent{ev})

	require.Len(t, learned, 1)
	assert.InDelta(t, 3.0, learned[0].Multiplier, 0.01)
	assert.Equal(t, 2, learned[0].YearsObserved)
	require.NotNil(t, ev.LearnedMultiplier)
	assert.Empty(t, candidates, "the declared event explains the only spike")
}
