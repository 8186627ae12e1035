// internal/forecast/safetystock/calculator.go
package safetystock

import (
	"fmt"
	"math"
	"time"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
)

// Calculator derives a buffer quantity from demand variance, lead-time
// variance, and a target service level. The output is a pure snapshot of its
// inputs; every adjustment applied is listed in Reasoning.
type Calculator struct {
	cfg config.SafetyStockConfig
}

func NewCalculator(cfg config.SafetyStockConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Inputs for one SKU's calculation. Importance selects the service-level z
// score; unknown classes fall back to the default. SeasonalMultiplier and
// SupplierReliability are optional enrichments (zero values disable them).
type Inputs struct {
	SKU                 string
	Importance          string
	DemandMean          float64
	DemandStdDev        float64
	LeadTimeDays        float64
	LeadTimeStdDev      float64
	SeasonalMultiplier  float64
	SupplierReliability float64
	HasReliability      bool
}

// Calculate applies the combined demand/lead-time variance formula, then the
// seasonal and supplier-reliability adjustments.
func (c *Calculator) Calculate(in Inputs) domain.SafetyStockCalculation {
	z, class := c.zScore(in.Importance)

	calc := domain.SafetyStockCalculation{
		SKU:            in.SKU,
		ServiceLevel:   class,
		ZScore:         z,
		DemandMean:     in.DemandMean,
		DemandStdDev:   in.DemandStdDev,
		LeadTimeDays:   in.LeadTimeDays,
		LeadTimeStdDev: in.LeadTimeStdDev,
		Reasoning:      []string{},
		CalculatedAt:   time.Now().UTC(),
	}

	variance := in.LeadTimeDays*in.DemandStdDev*in.DemandStdDev +
		in.DemandMean*in.DemandMean*in.LeadTimeStdDev*in.LeadTimeStdDev
	if variance < 0 {
		variance = 0
	}
	base := z * math.Sqrt(variance)

	calc.BaseSafetyStock = base
	calc.Reasoning = append(calc.Reasoning,
		fmt.Sprintf("base %.1f units = z %.2f (%s service level) x sqrt(%.1f day lead time x demand var + demand mean^2 x lead time var)",
			base, z, class, in.LeadTimeDays))

	final := base

	if in.SeasonalMultiplier > c.cfg.SeasonalAdjustThreshold {
		factor := math.Min(in.SeasonalMultiplier, c.cfg.SeasonalAdjustCap)
		final *= factor
		calc.Reasoning = append(calc.Reasoning,
			fmt.Sprintf("seasonal adjustment x%.2f (upcoming multiplier %.2f above %.2f, capped at %.2f)",
				factor, in.SeasonalMultiplier, c.cfg.SeasonalAdjustThreshold, c.cfg.SeasonalAdjustCap))
	}

	if in.HasReliability && in.SupplierReliability < c.cfg.ReliabilityThreshold {
		// An unreliable supplier inflates the buffer in proportion to how far
		// short of the threshold it falls.
		factor := 1 + (c.cfg.ReliabilityThreshold - in.SupplierReliability)
		final *= factor
		calc.Reasoning = append(calc.Reasoning,
			fmt.Sprintf("supplier reliability adjustment x%.2f (score %.2f below %.2f)",
				factor, in.SupplierReliability, c.cfg.ReliabilityThreshold))
	}

	calc.FinalSafetyStock = final
	return calc
}

func (c *Calculator) zScore(importance string) (float64, string) {
	if z, ok := c.cfg.ZScores[importance]; ok {
		return z, importance
	}
	return c.cfg.DefaultZ, "standard"
}
