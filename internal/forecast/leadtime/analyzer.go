// internal/forecast/leadtime/analyzer.go
package leadtime

import (
	"fmt"
	"sort"
	"time"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/timeseries"
)

// Analyzer turns completed purchase-order receipts into per-supplier
// lead-time distributions and a composite reliability score.
type Analyzer struct {
	cfg config.LeadTimeConfig
}

func NewAnalyzer(cfg config.LeadTimeConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze summarizes one supplier's receipts. Receipts from other suppliers
// are ignored so callers can pass an unfiltered batch.
func (a *Analyzer) Analyze(supplier string, receipts []domain.PurchaseOrderReceipt) domain.LeadTimeData {
	data := domain.LeadTimeData{
		Supplier:  supplier,
		UpdatedAt: time.Now().UTC(),
	}

	actuals := make([]float64, 0, len(receipts))
	var statedSum float64
	var onTime int
	own := make([]domain.PurchaseOrderReceipt, 0, len(receipts))
	for _, r := range receipts {
		if r.Supplier != supplier {
			continue
		}
		own = append(own, r)
		actual := r.ActualDeliveryAt.Sub(r.OrderedAt).Hours() / 24
		actuals = append(actuals, actual)
		statedSum += r.StatedLeadTimeDays
		if actual <= r.StatedLeadTimeDays+a.cfg.OnTimeGraceDays {
			onTime++
		}
	}

	data.SampleSize = len(actuals)
	if len(actuals) == 0 {
		return data
	}

	sort.Slice(own, func(i, j int) bool { return own[i].OrderedAt.Before(own[j].OrderedAt) })

	data.StatedLeadTime = statedSum / float64(len(actuals))
	data.AvgActualLeadTime = timeseries.Mean(actuals)
	data.WorstCaseLeadTime = timeseries.Percentile(actuals, a.cfg.WorstCasePercentile)
	data.OnTimeRate = float64(onTime) / float64(len(actuals))
	data.LeadTimeVariance = timeseries.StdDev(actuals)
	data.ReliabilityScore = a.reliability(data)
	data.IsGettingWorse = a.isGettingWorse(own)

	return data
}

// reliability combines on-time performance with delivery consistency. The
// on-time rate carries most of the score; variance relative to the stated
// lead time erodes the rest.
func (a *Analyzer) reliability(d domain.LeadTimeData) float64 {
	consistency := 1.0
	if d.StatedLeadTime > 0 {
		consistency = 1 - d.LeadTimeVariance/d.StatedLeadTime
		if consistency < 0 {
			consistency = 0
		}
	}
	score := 0.7*d.OnTimeRate + 0.3*consistency
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// isGettingWorse compares the most recent deliveries against the window
// before them, both capped at TrendWindow receipts.
func (a *Analyzer) isGettingWorse(receipts []domain.PurchaseOrderReceipt) bool {
	w := a.cfg.TrendWindow
	if w < 1 || len(receipts) < 4 {
		return false
	}

	actuals := make([]float64, len(receipts))
	for i, r := range receipts {
		actuals[i] = r.ActualDeliveryAt.Sub(r.OrderedAt).Hours() / 24
	}

	recentStart := len(actuals) - w
	if recentStart < len(actuals)/2 {
		recentStart = len(actuals) / 2
	}
	olderStart := recentStart - w
	if olderStart < 0 {
		olderStart = 0
	}

	recent := actuals[recentStart:]
	older := actuals[olderStart:recentStart]
	if len(recent) == 0 || len(older) == 0 {
		return false
	}

	olderMean := timeseries.Mean(older)
	if olderMean <= 0 {
		return false
	}
	return timeseries.Mean(recent) > olderMean*(1+a.cfg.VarianceWorsenPct)
}

// Alerts inspects a supplier's current distribution against its previous one
// and flags material degradation. prev may be zero-valued on the first run.
func (a *Analyzer) Alerts(current, prev domain.LeadTimeData) []domain.LeadTimeAlert {
	alerts := make([]domain.LeadTimeAlert, 0, 3)

	if current.SampleSize > 0 && current.ReliabilityScore < a.cfg.ReliabilityAlertThreshold {
		alerts = append(alerts, domain.LeadTimeAlert{
			Supplier: current.Supplier,
			Reason:   fmt.Sprintf("reliability score %.2f below threshold %.2f", current.ReliabilityScore, a.cfg.ReliabilityAlertThreshold),
			Severity: "high",
			Current:  current.ReliabilityScore,
			Previous: prev.ReliabilityScore,
		})
	}

	if prev.SampleSize > 0 && prev.LeadTimeVariance > 0 &&
		current.LeadTimeVariance > prev.LeadTimeVariance*(1+a.cfg.VarianceWorsenPct) {
		alerts = append(alerts, domain.LeadTimeAlert{
			Supplier: current.Supplier,
			Reason: fmt.Sprintf("lead-time variance rose from %.1f to %.1f days",
				prev.LeadTimeVariance, current.LeadTimeVariance),
			Severity: "medium",
			Current:  current.LeadTimeVariance,
			Previous: prev.LeadTimeVariance,
		})
	}

	if prev.SampleSize > 0 && prev.AvgActualLeadTime > 0 &&
		current.AvgActualLeadTime > prev.AvgActualLeadTime*(1+a.cfg.VarianceWorsenPct) {
		alerts = append(alerts, domain.LeadTimeAlert{
			Supplier: current.Supplier,
			Reason: fmt.Sprintf("average lead time rose from %.1f to %.1f days",
				prev.AvgActualLeadTime, current.AvgActualLeadTime),
			Severity: "medium",
			Current:  current.AvgActualLeadTime,
			Previous: prev.AvgActualLeadTime,
		})
	}

	return alerts
}
