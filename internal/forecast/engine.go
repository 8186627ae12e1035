// internal/forecast/engine.go
package forecast

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/accuracy"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/alerts"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/ensemble"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/leadtime"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/newitem"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/safetystock"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/seasonality"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/spike"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/timeseries"
)

// Engine wires the pipeline stages together for one forecasting run. It is
// pure with respect to its inputs: all history, events, and positions arrive
// in SKUInput and results come back in SKUResult, so callers own all I/O.
type Engine struct {
	cfg config.ForecastConfig

	detector  *seasonality.Detector
	learner   *seasonality.Learner
	combiner  *ensemble.Combiner
	tracker   *accuracy.Tracker
	spikes    *spike.Detector
	matcher   *newitem.Matcher
	leadtimes *leadtime.Analyzer
	safety    *safetystock.Calculator
	generator *alerts.Generator
}

func NewEngine(cfg config.ForecastConfig) *Engine {
	return &Engine{
		cfg:       cfg,
		detector:  seasonality.NewDetector(cfg.Seasonality),
		learner:   seasonality.NewLearner(cfg.Seasonality),
		combiner:  ensemble.NewCombiner(cfg.Ensemble),
		tracker:   accuracy.NewTracker(cfg.Ensemble),
		spikes:    spike.NewDetector(cfg.Spike, cfg.Urgency),
		matcher:   newitem.NewMatcher(cfg.NewItem),
		leadtimes: leadtime.NewAnalyzer(cfg.LeadTime),
		safety:    safetystock.NewCalculator(cfg.SafetyStock),
		generator: alerts.NewGenerator(cfg.Urgency, cfg.NewItem, cfg.LeadTime),
	}
}

// SKUInput is everything one SKU's forecast needs, pre-fetched by the caller.
type SKUInput struct {
	SKU        string
	AsOf       time.Time
	Sales      []domain.SalesDataPoint
	Events     []*domain.SeasonalEvent
	Weights    *domain.ModelWeights
	Position   domain.InventoryPosition
	Receipts   []domain.PurchaseOrderReceipt
	Supplier   string
	Importance string
	Signals    domain.SpikeSignals
	Deals      []domain.ScheduledDeal
	UnitCost   decimal.Decimal
	// Analog candidates, used only when the SKU qualifies as a new item.
	Attributes domain.SKUAttributes
	Candidates []newitem.Candidate
	// AccuracyMAPEThreshold for the low-accuracy alert; zero disables it.
	AccuracyMAPEThreshold float64
	GoalDeltaPct          float64
}

// SKUResult is the full pipeline output for one SKU.
type SKUResult struct {
	SKU            string                        `json:"sku"`
	Seasonality    domain.DetectedSeasonality    `json:"seasonality"`
	Forecast       domain.EnsembleForecast       `json:"forecast"`
	Accuracy       []domain.ModelAccuracy        `json:"accuracy"`
	Weights        domain.ModelWeights           `json:"weights"`
	Spike          domain.SpikeDetection         `json:"spike"`
	NewItem        *domain.NewItemForecast       `json:"new_item,omitempty"`
	LeadTime       *domain.LeadTimeData          `json:"lead_time,omitempty"`
	SafetyStock    domain.SafetyStockCalculation `json:"safety_stock"`
	Recommendation domain.OrderRecommendation    `json:"recommendation"`
	Alerts         []domain.ForecastAlert        `json:"alerts"`
}

// Run executes the full pipeline for one SKU. Enrichers degrade individually:
// missing receipts skip lead-time analysis, short history skips seasonality,
// and the forecast still comes out the other end.
func (e *Engine) Run(ctx context.Context, in SKUInput) (*SKUResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &SKUResult{SKU: in.SKU}

	// Seasonality and upcoming events.
	events := make([]domain.SeasonalEvent, 0, len(in.Events))
	for _, ev := range in.Events {
		if ev != nil {
			events = append(events, *ev)
		}
	}
	res.Seasonality = e.detector.Detect(in.SKU, in.Sales, events, in.AsOf)
	seasonalMult := 1.0
	var nextEvent *domain.UpcomingEvent
	for i := range res.Seasonality.UpcomingEvents {
		ev := &res.Seasonality.UpcomingEvents[i]
		if ev.DaysUntil == 0 {
			seasonalMult = ev.Multiplier
		}
		if nextEvent == nil || ev.DaysUntil < nextEvent.DaysUntil {
			nextEvent = ev
		}
	}

	// Spike state feeds both the forecast multiplier and alerting.
	res.Spike = e.spikes.Detect(in.SKU, in.Sales, in.Signals, in.Position, in.AsOf)
	spikeMult := 1.0
	if res.Spike.IsSpiking {
		spikeMult = res.Spike.CurrentMultiplier
	}

	dealMult := 1.0
	for _, deal := range in.Deals {
		if !in.AsOf.Before(deal.StartDate) && !in.AsOf.After(deal.EndDate) && deal.ExpectedLift > 0 {
			dealMult = deal.ExpectedLift
		}
	}

	// Backtest and weight update before forecasting, so this run already
	// benefits from the freshest error evidence.
	res.Accuracy = e.tracker.Backtest(e.combiner.Models(), in.Sales)
	res.Weights = e.tracker.UpdateWeights(in.SKU, res.Accuracy)
	weights := &res.Weights
	if in.Weights != nil && allZeroSamples(res.Accuracy) {
		weights = in.Weights
	}

	// Lead-time reliability, when receipts exist.
	if in.Supplier != "" && len(in.Receipts) > 0 {
		lt := e.leadtimes.Analyze(in.Supplier, in.Receipts)
		res.LeadTime = &lt
	}

	// Safety stock from demand and lead-time variance.
	units := timeseries.Units(in.Sales)
	ssIn := safetystock.Inputs{
		SKU:                in.SKU,
		Importance:         in.Importance,
		DemandMean:         timeseries.Mean(units),
		DemandStdDev:       timeseries.StdDev(units),
		SeasonalMultiplier: upcomingMultiplier(nextEvent),
	}
	if res.LeadTime != nil {
		ssIn.LeadTimeDays = res.LeadTime.AvgActualLeadTime
		ssIn.LeadTimeStdDev = res.LeadTime.LeadTimeVariance
		ssIn.SupplierReliability = res.LeadTime.ReliabilityScore
		ssIn.HasReliability = true
	}
	res.SafetyStock = e.safety.Calculate(ssIn)

	// The combined forecast.
	res.Forecast = e.combiner.Forecast(ensemble.Inputs{
		SKU:                   in.SKU,
		Date:                  in.AsOf,
		History:               in.Sales,
		Weights:               weights,
		SeasonalityMultiplier: seasonalMult,
		DealMultiplier:        dealMult,
		SpikeMultiplier:       spikeMult,
		SafetyStock:           res.SafetyStock.FinalSafetyStock,
		TargetDays:            e.cfg.Urgency.TargetDays,
	})

	// New items swap the ensemble for the analog curve.
	if e.matcher.IsNewItem(in.Sales) && len(in.Candidates) > 0 {
		res.NewItem = e.matcher.Match(in.Attributes, in.Sales, in.Candidates, in.AsOf)
		if res.NewItem != nil && len(res.NewItem.DailyVelocity) > 0 {
			res.Forecast.BaseForecast = timeseries.Mean(res.NewItem.DailyVelocity)
			res.Forecast.FinalForecast = res.Forecast.BaseForecast * seasonalMult * dealMult * spikeMult
			res.Forecast.Confidence = res.NewItem.MatchScore * 0.5
			res.Forecast.Reasoning = append(res.Forecast.Reasoning,
				"forecast borrowed from analog "+res.NewItem.AnalogSKU+" due to insufficient history")
		}
	}

	alertIn := alerts.Inputs{
		SKU:                   in.SKU,
		AsOf:                  in.AsOf,
		Forecast:              res.Forecast,
		Position:              in.Position,
		Seasonality:           &res.Seasonality,
		Spike:                 &res.Spike,
		Weights:               &res.Weights,
		LeadTime:              res.LeadTime,
		NewItem:               res.NewItem,
		Deals:                 in.Deals,
		UnitCost:              in.UnitCost,
		AccuracyMAPEThreshold: in.AccuracyMAPEThreshold,
		GoalDeltaPct:          in.GoalDeltaPct,
	}
	res.Recommendation = e.generator.Recommend(alertIn)
	res.Alerts = e.generator.Generate(alertIn)

	return res, nil
}

// LearnEvents recomputes event multipliers and mines candidate patterns for
// one SKU. The mutated events and the returned multipliers are the caller's
// to persist.
func (e *Engine) LearnEvents(sku string, sales []domain.SalesDataPoint, events []*domain.SeasonalEvent) ([]domain.LearnedMultiplier, []domain.CandidatePattern) {
	learned := e.learner.Learn(sku, sales, events)
	candidates := e.learner.DetectNewPatterns(sku, sales, events)
	return learned, candidates
}

// RunBatch forecasts many SKUs concurrently, bounded by concurrency. One
// SKU's failure does not abort the batch; failed SKUs are logged and skipped.
func (e *Engine) RunBatch(ctx context.Context, inputs []SKUInput, concurrency int) []*SKUResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*SKUResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			res, err := e.Run(ctx, in)
			if err != nil {
				log.Error().Str("sku", in.SKU).Err(err).Msg("forecast: sku failed")
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*SKUResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func allZeroSamples(accs []domain.ModelAccuracy) bool {
	for _, a := range accs {
		if a.SampleSize > 0 {
			return false
		}
	}
	return true
}

func upcomingMultiplier(ev *domain.UpcomingEvent) float64 {
	if ev == nil {
		return 0
	}
	return ev.Multiplier
}
