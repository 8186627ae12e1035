// internal/forecast/spike/detector.go
package spike

import (
	"math"
	"time"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/timeseries"
)

// Detector classifies current sales velocity against a trailing baseline,
// attributes a probable cause from the available signals, and projects the
// decay back toward baseline.
type Detector struct {
	cfg     config.SpikeConfig
	urgency config.UrgencyConfig
}

func NewDetector(cfg config.SpikeConfig, urgency config.UrgencyConfig) *Detector {
	return &Detector{cfg: cfg, urgency: urgency}
}

// Detect evaluates one SKU. The consecutive-day run is grown backwards from
// the most recent observation, re-anchoring the baseline in front of the run
// each step so the spike itself never contaminates it.
func (d *Detector) Detect(sku string, sales []domain.SalesDataPoint, signals domain.SpikeSignals, position domain.InventoryPosition, asOf time.Time) domain.SpikeDetection {
	det := domain.SpikeDetection{
		SKU:             sku,
		ProbableCause:   domain.CauseUnknown,
		DecayProjection: []domain.DecayPoint{},
		InventoryImpact: domain.SpikeInventoryImpact{Urgency: domain.UrgencyOK},
	}

	units := timeseries.Units(sales)
	if len(units) == 0 {
		return det
	}

	run := 0
	baseline := 0.0
	maxRun := len(units) - 1
	for run < maxRun {
		b := d.baselineBefore(units, run)
		if b == 0 {
			break
		}
		if units[len(units)-1-run] >= d.cfg.Threshold*b {
			run++
			baseline = b
		} else {
			baseline = b
			break
		}
	}
	if baseline == 0 {
		baseline = timeseries.Mean(units)
	}

	det.BaselineVelocity = baseline
	det.DaysSpiking = run
	det.IsSpiking = run >= d.cfg.MinConsecutiveDays

	recentSpan := run
	if recentSpan == 0 {
		recentSpan = 1
	}
	recentMean := timeseries.Mean(units[len(units)-recentSpan:])
	if baseline > 0 {
		det.CurrentMultiplier = recentMean / baseline
	} else {
		det.CurrentMultiplier = 1.0
	}

	if !det.IsSpiking {
		return det
	}

	det.ProbableCause, det.CauseConfidence = d.attributeCause(signals, asOf)
	det.DecayProjection = d.projectDecay(det.CurrentMultiplier)
	det.InventoryImpact = d.inventoryImpact(det, position)

	return det
}

// baselineBefore is the mean of the BaselineDays immediately preceding the
// trailing run of length excludeTail.
func (d *Detector) baselineBefore(units []float64, excludeTail int) float64 {
	end := len(units) - excludeTail - 1
	if end <= 0 {
		return 0
	}
	start := end - d.cfg.BaselineDays
	if start < 0 {
		start = 0
	}
	return timeseries.Mean(units[start:end])
}

// attributeCause ranks the available signals. Deal overlap is the strongest
// explanation, then a material ad-spend jump, then a recent listing change.
func (d *Detector) attributeCause(signals domain.SpikeSignals, asOf time.Time) (domain.SpikeCause, float64) {
	if signals.ActiveDeal {
		return domain.CauseDeal, 0.9
	}
	if signals.AdSpendDeltaPct >= d.cfg.AdSpendDeltaPct {
		conf := math.Min(0.8, 0.4+signals.AdSpendDeltaPct)
		return domain.CauseAdvertising, conf
	}
	if signals.ListingChangedAt != nil {
		age := asOf.Sub(*signals.ListingChangedAt).Hours() / 24
		if age >= 0 && age <= float64(d.cfg.ListingChangeWindowDays) {
			return domain.CauseListingChange, 0.6
		}
	}
	return domain.CauseUnknown, 0
}

// projectDecay emits a monotonically relaxing multiplier path from the
// current level back to 1.0 over the configured decay period.
func (d *Detector) projectDecay(current float64) []domain.DecayPoint {
	days := d.cfg.DecayDays
	if days < 1 {
		days = 1
	}
	excess := current - 1
	if excess < 0 {
		excess = 0
	}

	points := make([]domain.DecayPoint, 0, days)
	for day := 1; day <= days; day++ {
		points = append(points, domain.DecayPoint{
			DaysFromNow:         day,
			ProjectedMultiplier: 1 + excess*(1-float64(day)/float64(days)),
		})
	}
	return points
}

// inventoryImpact translates the spike into extra demand over the decay
// period and classifies how urgently stock needs attention under the
// elevated velocity.
func (d *Detector) inventoryImpact(det domain.SpikeDetection, position domain.InventoryPosition) domain.SpikeInventoryImpact {
	// Integral of the excess multiplier over a linear decay is half the
	// peak excess times the decay period.
	additional := (det.CurrentMultiplier - 1) * det.BaselineVelocity * float64(d.cfg.DecayDays) / 2
	if additional < 0 {
		additional = 0
	}

	impact := domain.SpikeInventoryImpact{
		Urgency:         domain.UrgencyOK,
		AdditionalUnits: additional,
	}

	spikedVelocity := det.BaselineVelocity * det.CurrentMultiplier
	if spikedVelocity <= 0 {
		return impact
	}
	cover := position.Total / spikedVelocity
	switch {
	case cover < d.urgency.CriticalDays:
		impact.Urgency = domain.UrgencyCritical
	case cover < d.urgency.HighDays:
		impact.Urgency = domain.UrgencyHigh
	case cover < d.urgency.MediumDays:
		impact.Urgency = domain.UrgencyMedium
	case cover < d.urgency.LowDays:
		impact.Urgency = domain.UrgencyLow
	}
	return impact
}
