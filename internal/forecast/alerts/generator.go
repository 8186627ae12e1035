// internal/forecast/alerts/generator.go
package alerts

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
)

// Generator is the last stage of the pipeline: it consumes the forecast and
// every enricher output and turns them into an urgency classification, an
// order recommendation, and typed alerts.
type Generator struct {
	urgency config.UrgencyConfig
	newItem config.NewItemConfig
	leadCfg config.LeadTimeConfig
}

func NewGenerator(urgency config.UrgencyConfig, newItem config.NewItemConfig, leadCfg config.LeadTimeConfig) *Generator {
	return &Generator{urgency: urgency, newItem: newItem, leadCfg: leadCfg}
}

// Inputs gathers everything known about one SKU at generation time. Optional
// enrichers are pointers; nil means the signal was unavailable and its alerts
// are simply skipped.
type Inputs struct {
	SKU         string
	AsOf        time.Time
	Forecast    domain.EnsembleForecast
	Position    domain.InventoryPosition
	Seasonality *domain.DetectedSeasonality
	Spike       *domain.SpikeDetection
	Weights     *domain.ModelWeights
	LeadTime    *domain.LeadTimeData
	NewItem     *domain.NewItemForecast
	Deals       []domain.ScheduledDeal
	// UnitCost prices the recommended order; zero leaves OrderCost at zero.
	UnitCost decimal.Decimal
	// AccuracyMAPEThreshold above which the forecast is flagged unreliable.
	AccuracyMAPEThreshold float64
	// GoalDeltaPct is how far current run-rate sits from the sales goal;
	// zero means no goal is configured.
	GoalDeltaPct float64
}

// DaysOfSupply splits stock cover by location at the forecast velocity.
// A zero velocity yields +Inf cover, which classifies as ok.
func (g *Generator) DaysOfSupply(position domain.InventoryPosition, dailyVelocity float64) domain.DaysOfSupply {
	if dailyVelocity <= 0 {
		inf := math.Inf(1)
		return domain.DaysOfSupply{FBA: inf, Warehouse: inf, Total: inf}
	}
	return domain.DaysOfSupply{
		FBA:       (position.FBAAvailable + position.FBAInbound) / dailyVelocity,
		Warehouse: position.WarehouseAvailable / dailyVelocity,
		Total:     position.Total / dailyVelocity,
	}
}

// Classify maps total days of supply onto the urgency scale, ascending
// cutoffs: critical, high, medium, low, then ok.
func (g *Generator) Classify(daysOfSupply float64) domain.Urgency {
	switch {
	case daysOfSupply < g.urgency.CriticalDays:
		return domain.UrgencyCritical
	case daysOfSupply < g.urgency.HighDays:
		return domain.UrgencyHigh
	case daysOfSupply < g.urgency.MediumDays:
		return domain.UrgencyMedium
	case daysOfSupply < g.urgency.LowDays:
		return domain.UrgencyLow
	default:
		return domain.UrgencyOK
	}
}

// Recommend produces the purchasing signal: order enough to reach the target
// days of cover plus safety stock, net of what is already on hand or inbound.
func (g *Generator) Recommend(in Inputs) domain.OrderRecommendation {
	velocity := in.Forecast.FinalForecast
	dos := g.DaysOfSupply(in.Position, velocity)

	target := velocity*g.urgency.TargetDays + in.Forecast.SafetyStock
	qty := int(math.Ceil(target - in.Position.Total))
	if qty < 0 {
		qty = 0
	}

	rec := domain.OrderRecommendation{
		SKU:                 in.SKU,
		Urgency:             g.Classify(dos.Total),
		DaysOfSupply:        dos,
		RecommendedOrderQty: qty,
		GeneratedAt:         time.Now().UTC(),
	}
	if qty > 0 && !in.UnitCost.IsZero() {
		rec.OrderCost = in.UnitCost.Mul(decimal.NewFromInt(int64(qty)))
	}
	return rec
}

// Generate emits every alert the inputs justify, most urgent signal first in
// each category. The slice is empty, never nil, when nothing fires.
func (g *Generator) Generate(in Inputs) []domain.ForecastAlert {
	now := time.Now().UTC()
	out := make([]domain.ForecastAlert, 0, 4)

	velocity := in.Forecast.FinalForecast
	dos := g.DaysOfSupply(in.Position, velocity)
	urgency := g.Classify(dos.Total)

	if urgency == domain.UrgencyCritical || urgency == domain.UrgencyHigh {
		deadline := in.AsOf.AddDate(0, 0, int(dos.Total))
		out = append(out, domain.ForecastAlert{
			SKU:               in.SKU,
			Type:              domain.AlertStockoutImminent,
			Severity:          urgency,
			Message:           fmt.Sprintf("%.1f days of supply remaining at current velocity %.1f units/day", dos.Total, velocity),
			RecommendedAction: fmt.Sprintf("place a replenishment order for %d units now", g.Recommend(in).RecommendedOrderQty),
			ActionDeadline:    &deadline,
			CreatedAt:         now,
		})
	}

	out = append(out, g.seasonalPrep(in, dos, now)...)
	out = append(out, g.spikeAlerts(in, now)...)
	out = append(out, g.accuracyAlerts(in, now)...)
	out = append(out, g.supplierAlerts(in, now)...)
	out = append(out, g.newItemAlerts(in, now)...)
	out = append(out, g.dealAlerts(in, dos, now)...)
	out = append(out, g.goalAlerts(in, now)...)

	return out
}

// seasonalPrep fires when an upcoming event lifts demand enough that current
// cover will not carry through it.
func (g *Generator) seasonalPrep(in Inputs, dos domain.DaysOfSupply, now time.Time) []domain.ForecastAlert {
	if in.Seasonality == nil {
		return nil
	}
	out := make([]domain.ForecastAlert, 0, 1)
	for _, ev := range in.Seasonality.UpcomingEvents {
		if ev.Multiplier <= 1.0 {
			continue
		}
		// Demand through the event start plus the event at lifted velocity.
		if dos.Total >= float64(ev.DaysUntil)+g.urgency.TargetDays {
			continue
		}
		deadline := in.AsOf.AddDate(0, 0, ev.DaysUntil)
		severity := domain.UrgencyMedium
		if ev.DaysUntil <= int(g.urgency.HighDays) {
			severity = domain.UrgencyHigh
		}
		out = append(out, domain.ForecastAlert{
			SKU:      in.SKU,
			Type:     domain.AlertSeasonalPrep,
			Severity: severity,
			Message: fmt.Sprintf("%s starts in %d days with expected lift x%.2f; current cover is %.0f days",
				ev.Event.Name, ev.DaysUntil, ev.Multiplier, dos.Total),
			RecommendedAction: "order ahead of the event window",
			ActionDeadline:    &deadline,
			CreatedAt:         now,
		})
	}
	return out
}

func (g *Generator) spikeAlerts(in Inputs, now time.Time) []domain.ForecastAlert {
	if in.Spike == nil || !in.Spike.IsSpiking {
		return nil
	}
	return []domain.ForecastAlert{{
		SKU:      in.SKU,
		Type:     domain.AlertSpikeDetected,
		Severity: in.Spike.InventoryImpact.Urgency,
		Message: fmt.Sprintf("velocity at x%.1f baseline for %d days, probable cause %s (confidence %.0f%%)",
			in.Spike.CurrentMultiplier, in.Spike.DaysSpiking, in.Spike.ProbableCause, in.Spike.CauseConfidence*100),
		RecommendedAction: fmt.Sprintf("expect ~%.0f additional units of demand while the spike decays",
			in.Spike.InventoryImpact.AdditionalUnits),
		CreatedAt: now,
	}}
}

func (g *Generator) accuracyAlerts(in Inputs, now time.Time) []domain.ForecastAlert {
	if in.Weights == nil || in.AccuracyMAPEThreshold <= 0 {
		return nil
	}
	if in.Weights.OverallMAPE <= in.AccuracyMAPEThreshold {
		return nil
	}
	return []domain.ForecastAlert{{
		SKU:      in.SKU,
		Type:     domain.AlertAccuracyLow,
		Severity: domain.UrgencyMedium,
		Message: fmt.Sprintf("ensemble MAPE %.1f%% exceeds %.1f%%; treat forecasts as low confidence",
			in.Weights.OverallMAPE, in.AccuracyMAPEThreshold),
		RecommendedAction: "review recent demand pattern changes and widen manual review of order quantities",
		CreatedAt:         now,
	}}
}

func (g *Generator) supplierAlerts(in Inputs, now time.Time) []domain.ForecastAlert {
	if in.LeadTime == nil || in.LeadTime.SampleSize == 0 {
		return nil
	}
	lt := in.LeadTime
	if lt.ReliabilityScore >= g.leadCfg.ReliabilityAlertThreshold && !lt.IsGettingWorse {
		return nil
	}
	severity := domain.UrgencyMedium
	if lt.ReliabilityScore < g.leadCfg.ReliabilityAlertThreshold {
		severity = domain.UrgencyHigh
	}
	return []domain.ForecastAlert{{
		SKU:      in.SKU,
		Type:     domain.AlertSupplierReliability,
		Severity: severity,
		Message: fmt.Sprintf("supplier %s reliability %.2f, on-time rate %.0f%%, avg lead time %.1f days vs %.1f stated",
			lt.Supplier, lt.ReliabilityScore, lt.OnTimeRate*100, lt.AvgActualLeadTime, lt.StatedLeadTime),
		RecommendedAction: "order earlier or qualify a backup supplier",
		CreatedAt:         now,
	}}
}

func (g *Generator) newItemAlerts(in Inputs, now time.Time) []domain.ForecastAlert {
	if in.NewItem == nil || !in.NewItem.NeedsRecalibration {
		return nil
	}
	ni := in.NewItem
	direction := "above"
	if ni.DeviationPct < 0 {
		direction = "below"
	}
	severity := domain.UrgencyMedium
	if ni.WatchStatus == domain.WatchCritical {
		severity = domain.UrgencyHigh
	}
	return []domain.ForecastAlert{{
		SKU:      in.SKU,
		Type:     domain.AlertNewItemDeviation,
		Severity: severity,
		Message: fmt.Sprintf("actual velocity %.0f%% %s the analog %s curve after %d days",
			math.Abs(ni.DeviationPct)*100, direction, ni.AnalogSKU, ni.DaysSinceLaunch),
		RecommendedAction: "recalibrate the launch forecast against observed velocity",
		CreatedAt:         now,
	}}
}

// dealAlerts flags scheduled promotions that current stock cannot support.
func (g *Generator) dealAlerts(in Inputs, dos domain.DaysOfSupply, now time.Time) []domain.ForecastAlert {
	out := make([]domain.ForecastAlert, 0, 1)
	for _, deal := range in.Deals {
		if deal.StartDate.Before(in.AsOf) || deal.ExpectedLift <= 0 {
			continue
		}
		daysUntil := int(deal.StartDate.Sub(in.AsOf).Hours() / 24)
		dealDays := deal.EndDate.Sub(deal.StartDate).Hours()/24 + 1
		// Demand until the deal plus lifted demand through the deal itself.
		needed := in.Forecast.FinalForecast * (float64(daysUntil) + dealDays*deal.ExpectedLift)
		if in.Position.Total >= needed {
			continue
		}
		deadline := deal.StartDate
		out = append(out, domain.ForecastAlert{
			SKU:      in.SKU,
			Type:     domain.AlertDealInventory,
			Severity: domain.UrgencyHigh,
			Message: fmt.Sprintf("deal starting in %d days needs ~%.0f units; %.0f on hand (%.0f days cover)",
				daysUntil, needed, in.Position.Total, dos.Total),
			RecommendedAction: fmt.Sprintf("secure %.0f more units or reduce the deal commitment", needed-in.Position.Total),
			ActionDeadline:    &deadline,
			CreatedAt:         now,
		})
	}
	return out
}

func (g *Generator) goalAlerts(in Inputs, now time.Time) []domain.ForecastAlert {
	// A run-rate more than 20% off the sales goal warrants replanning.
	const goalDeviation = 0.2
	if math.Abs(in.GoalDeltaPct) < goalDeviation {
		return nil
	}
	direction := "ahead of"
	action := "consider raising the sales goal and the inventory targets behind it"
	if in.GoalDeltaPct < 0 {
		direction = "behind"
		action = "consider lowering the sales goal or adding demand drivers"
	}
	return []domain.ForecastAlert{{
		SKU:               in.SKU,
		Type:              domain.AlertGoalAdjustment,
		Severity:          domain.UrgencyLow,
		Message:           fmt.Sprintf("run-rate is %.0f%% %s the configured sales goal", math.Abs(in.GoalDeltaPct)*100, direction),
		RecommendedAction: action,
		CreatedAt:         now,
	}}
}
