// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesDataPoint is one immutable daily sales observation for a SKU.
// History providers return them sorted ascending by date; missing days mean
// zero units sold.
type SalesDataPoint struct {
	Date    time.Time `json:"date" db:"date"`
	Units   float64   `json:"units" db:"units"`
	Revenue float64   `json:"revenue,omitempty" db:"revenue"`
	Channel string    `json:"channel,omitempty" db:"channel"`
}

// EventType classifies a seasonal event.
type EventType string

const (
	EventMicroPeak EventType = "micro_peak"
	EventMajorPeak EventType = "major_peak"
	EventCustom    EventType = "custom"
)

// SeasonalEvent is a recurring calendar window with a demand multiplier.
// Date ranges are month/day pairs (year-agnostic) and may wrap the year
// boundary, e.g. Nov 15 -> Dec 24 wraps when StartMonth > EndMonth.
// Events are never hard-deleted, only deactivated.
type SeasonalEvent struct {
	ID                int64              `json:"id" db:"id"`
	Name              string             `json:"name" db:"name"`
	EventType         EventType          `json:"event_type" db:"event_type"`
	StartMonth        int                `json:"start_month" db:"start_month"`
	StartDay          int                `json:"start_day" db:"start_day"`
	EndMonth          int                `json:"end_month" db:"end_month"`
	EndDay            int                `json:"end_day" db:"end_day"`
	BaseMultiplier    float64            `json:"base_multiplier" db:"base_multiplier"`
	LearnedMultiplier *float64           `json:"learned_multiplier,omitempty" db:"learned_multiplier"`
	SKUMultipliers    map[string]float64 `json:"sku_multipliers,omitempty" db:"-"`
	IsActive          bool               `json:"is_active" db:"is_active"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
}

// Contains reports whether the given month/day falls inside the event window,
// handling windows that span the year boundary.
func (e SeasonalEvent) Contains(month, day int) bool {
	start := e.StartMonth*100 + e.StartDay
	end := e.EndMonth*100 + e.EndDay
	md := month*100 + day
	if start <= end {
		return md >= start && md <= end
	}
	// Wrapped window, e.g. Nov 15 -> Jan 10.
	return md >= start || md <= end
}

// ContainsDate is Contains applied to a full date.
func (e SeasonalEvent) ContainsDate(t time.Time) bool {
	return e.Contains(int(t.Month()), t.Day())
}

// SeasonalityPattern is one derived month or day-of-week multiplier.
type SeasonalityPattern struct {
	Month      int     `json:"month,omitempty"`
	DayOfWeek  int     `json:"day_of_week,omitempty"`
	Multiplier float64 `json:"multiplier"`
	Confidence float64 `json:"confidence"`
	SampleSize int     `json:"sample_size"`
}

// UpcomingEvent is an active event within the lookup horizon, with the
// effective multiplier already resolved for the SKU in question.
type UpcomingEvent struct {
	Event      SeasonalEvent `json:"event"`
	DaysUntil  int           `json:"days_until"`
	Multiplier float64       `json:"multiplier"`
}

// DetectedSeasonality is the seasonality detector output for one SKU.
type DetectedSeasonality struct {
	SKU            string               `json:"sku"`
	HasSeasonality bool                 `json:"has_seasonality"`
	YearlyPattern  []SeasonalityPattern `json:"yearly_pattern"`
	WeeklyPattern  []SeasonalityPattern `json:"weekly_pattern"`
	UpcomingEvents []UpcomingEvent      `json:"upcoming_events"`
}

// LearnedMultiplier is the learner's per-event output for one SKU.
type LearnedMultiplier struct {
	EventID       int64   `json:"event_id"`
	EventName     string  `json:"event_name"`
	SKU           string  `json:"sku"`
	Multiplier    float64 `json:"multiplier"`
	YearsObserved int     `json:"years_observed"`
	Confidence    float64 `json:"confidence"`
}

// CandidatePattern is an undeclared recurring demand window surfaced by the
// pattern miner. Advisory only; it is never turned into an active event
// automatically.
type CandidatePattern struct {
	SuggestedName string  `json:"suggested_name"`
	StartMonth    int     `json:"start_month"`
	StartDay      int     `json:"start_day"`
	EndMonth      int     `json:"end_month"`
	EndDay        int     `json:"end_day"`
	AvgMultiplier float64 `json:"avg_multiplier"`
	YearsSeen     int     `json:"years_seen"`
	Confidence    float64 `json:"confidence"`
}

// PredictionFactors decomposes a sub-model forecast.
type PredictionFactors struct {
	Base        float64 `json:"base"`
	Trend       float64 `json:"trend"`
	Seasonality float64 `json:"seasonality"`
}

// ModelPrediction is the uniform contract every ensemble sub-model returns.
type ModelPrediction struct {
	Model      string            `json:"model"`
	Forecast   float64           `json:"forecast"`
	Confidence float64           `json:"confidence"`
	UpperBound float64           `json:"upper_bound"`
	LowerBound float64           `json:"lower_bound"`
	Factors    PredictionFactors `json:"factors"`
}

// EnsembleForecast is the combined, calibrated forecast for one SKU/date.
// Recomputed on every run; each run produces a fresh timestamped value.
type EnsembleForecast struct {
	SKU                   string            `json:"sku"`
	Date                  time.Time         `json:"date"`
	GeneratedAt           time.Time         `json:"generated_at"`
	BaseForecast          float64           `json:"base_forecast"`
	FinalForecast         float64           `json:"final_forecast"`
	Confidence            float64           `json:"confidence"`
	SeasonalityMultiplier float64           `json:"seasonality_multiplier"`
	DealMultiplier        float64           `json:"deal_multiplier"`
	SpikeMultiplier       float64           `json:"spike_multiplier"`
	SafetyStock           float64           `json:"safety_stock"`
	RecommendedInventory  float64           `json:"recommended_inventory"`
	UpperBound            float64           `json:"upper_bound"`
	LowerBound            float64           `json:"lower_bound"`
	Reasoning             []string          `json:"reasoning"`
	Models                []ModelPrediction `json:"models,omitempty"`
}

// Sub-model identifiers. The weight columns keep the names the dashboard
// has always used even though the reference variants behind them differ.
const (
	ModelTrendSeasonal        = "trend_seasonal"
	ModelExponentialSmoothing = "exponential_smoothing"
	ModelAutoregressive       = "autoregressive"
	ModelLearnedSequence      = "learned_sequence"
)

// ModelWeights holds the per-SKU ensemble weights. Weights are non-negative;
// the combiner normalizes them, so they need not sum to 1 in storage.
type ModelWeights struct {
	SKU                        string    `json:"sku" db:"sku"`
	ProphetWeight              float64   `json:"prophet_weight" db:"prophet_weight"`
	LSTMWeight                 float64   `json:"lstm_weight" db:"lstm_weight"`
	ExponentialSmoothingWeight float64   `json:"exponential_smoothing_weight" db:"exponential_smoothing_weight"`
	ARIMAWeight                float64   `json:"arima_weight" db:"arima_weight"`
	OverallMAPE                float64   `json:"overall_mape" db:"overall_mape"`
	LastUpdated                time.Time `json:"last_updated" db:"last_updated"`
}

// ByModel maps weight columns onto the sub-model identifiers.
func (w ModelWeights) ByModel() map[string]float64 {
	return map[string]float64{
		ModelTrendSeasonal:        w.ProphetWeight,
		ModelLearnedSequence:      w.LSTMWeight,
		ModelExponentialSmoothing: w.ExponentialSmoothingWeight,
		ModelAutoregressive:       w.ARIMAWeight,
	}
}

// SetByModel writes a weight back to the matching column.
func (w *ModelWeights) SetByModel(model string, weight float64) {
	switch model {
	case ModelTrendSeasonal:
		w.ProphetWeight = weight
	case ModelLearnedSequence:
		w.LSTMWeight = weight
	case ModelExponentialSmoothing:
		w.ExponentialSmoothingWeight = weight
	case ModelAutoregressive:
		w.ARIMAWeight = weight
	}
}

// ModelAccuracy is a rolling backtest result per model per SKU.
type ModelAccuracy struct {
	Model       string    `json:"model"`
	MAPE        float64   `json:"mape"`
	RMSE        float64   `json:"rmse"`
	MAE         float64   `json:"mae"`
	Bias        float64   `json:"bias"`
	SampleSize  int       `json:"sample_size"`
	LastUpdated time.Time `json:"last_updated"`
}

// SafetyStockCalculation is a pure derived snapshot; every adjustment made is
// enumerated in Reasoning for auditability.
type SafetyStockCalculation struct {
	SKU              string    `json:"sku"`
	ServiceLevel     string    `json:"service_level"`
	ZScore           float64   `json:"z_score"`
	DemandMean       float64   `json:"demand_mean"`
	DemandStdDev     float64   `json:"demand_std_dev"`
	LeadTimeDays     float64   `json:"lead_time_days"`
	LeadTimeStdDev   float64   `json:"lead_time_std_dev"`
	BaseSafetyStock  float64   `json:"base_safety_stock"`
	FinalSafetyStock float64   `json:"final_safety_stock"`
	Reasoning        []string  `json:"reasoning"`
	CalculatedAt     time.Time `json:"calculated_at"`
}

// SpikeCause labels the most likely driver of a velocity spike.
type SpikeCause string

const (
	CauseDeal          SpikeCause = "deal"
	CauseAdvertising   SpikeCause = "advertising"
	CauseListingChange SpikeCause = "listing_change"
	CauseUnknown       SpikeCause = "unknown"
)

// DecayPoint is one step of the projected return to baseline velocity.
type DecayPoint struct {
	DaysFromNow         int     `json:"days_from_now"`
	ProjectedMultiplier float64 `json:"projected_multiplier"`
}

// SpikeInventoryImpact estimates what the spike means for stock cover.
type SpikeInventoryImpact struct {
	Urgency         Urgency `json:"urgency"`
	AdditionalUnits float64 `json:"additional_units"`
}

// SpikeDetection is the spike detector output for one SKU.
type SpikeDetection struct {
	SKU               string               `json:"sku"`
	IsSpiking         bool                 `json:"is_spiking"`
	CurrentMultiplier float64              `json:"current_multiplier"`
	DaysSpiking       int                  `json:"days_spiking"`
	BaselineVelocity  float64              `json:"baseline_velocity"`
	ProbableCause     SpikeCause           `json:"probable_cause"`
	CauseConfidence   float64              `json:"cause_confidence"`
	DecayProjection   []DecayPoint         `json:"decay_projection"`
	InventoryImpact   SpikeInventoryImpact `json:"inventory_impact"`
}

// SpikeSignals are the external observations cause attribution ranks.
type SpikeSignals struct {
	AdSpendDeltaPct  float64    `json:"ad_spend_delta_pct"`
	ListingChangedAt *time.Time `json:"listing_changed_at,omitempty"`
	ActiveDeal       bool       `json:"active_deal"`
}

// LeadTimeData summarizes one supplier's lead-time distribution.
type LeadTimeData struct {
	Supplier          string    `json:"supplier" db:"supplier"`
	StatedLeadTime    float64   `json:"stated_lead_time"`
	AvgActualLeadTime float64   `json:"avg_actual_lead_time"`
	WorstCaseLeadTime float64   `json:"worst_case_lead_time"`
	OnTimeRate        float64   `json:"on_time_rate"`
	LeadTimeVariance  float64   `json:"lead_time_variance"`
	ReliabilityScore  float64   `json:"reliability_score"`
	IsGettingWorse    bool      `json:"is_getting_worse"`
	SampleSize        int       `json:"sample_size"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LeadTimeAlert flags a supplier whose delivery behavior degraded materially.
type LeadTimeAlert struct {
	Supplier string  `json:"supplier"`
	Reason   string  `json:"reason"`
	Severity string  `json:"severity"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

// PurchaseOrderReceipt is one completed PO used for lead-time analysis.
type PurchaseOrderReceipt struct {
	Supplier           string    `json:"supplier" db:"supplier"`
	OrderedAt          time.Time `json:"ordered_at" db:"ordered_at"`
	StatedLeadTimeDays float64   `json:"stated_lead_time_days" db:"stated_lead_time_days"`
	ActualDeliveryAt   time.Time `json:"actual_delivery_at" db:"actual_delivery_at"`
}

// WatchStatus is the monitoring level for a new item forecast.
type WatchStatus string

const (
	WatchNormal   WatchStatus = "normal"
	WatchHigh     WatchStatus = "high_watch"
	WatchCritical WatchStatus = "critical"
)

// CheckCadence is how often a new item forecast is re-evaluated.
type CheckCadence string

const (
	CheckDaily      CheckCadence = "daily"
	CheckEvery3Days CheckCadence = "every_3_days"
	CheckWeekly     CheckCadence = "weekly"
)

// SKUAttributes describe a SKU for analog matching.
type SKUAttributes struct {
	SKU        string    `json:"sku" db:"sku"`
	Category   string    `json:"category" db:"category"`
	Brand      string    `json:"brand" db:"brand"`
	Supplier   string    `json:"supplier" db:"supplier"`
	Price      float64   `json:"price" db:"price"`
	LaunchedAt time.Time `json:"launched_at" db:"launched_at"`
}

// NewItemForecast borrows an analog SKU's velocity curve for a SKU that has
// too little history of its own.
type NewItemForecast struct {
	SKU                string       `json:"sku"`
	AnalogSKU          string       `json:"analog_sku"`
	MatchScore         float64      `json:"match_score"`
	DailyVelocity      []float64    `json:"daily_velocity"`
	WatchStatus        WatchStatus  `json:"watch_status"`
	CheckCadence       CheckCadence `json:"check_cadence"`
	DeviationPct       float64      `json:"deviation_pct"`
	NeedsRecalibration bool         `json:"needs_recalibration"`
	DaysSinceLaunch    int          `json:"days_since_launch"`
}

// InventoryPosition is the current stock position for a SKU.
type InventoryPosition struct {
	SKU                string  `json:"sku" db:"sku"`
	FBAAvailable       float64 `json:"fba_available" db:"fba_available"`
	FBAInbound         float64 `json:"fba_inbound" db:"fba_inbound"`
	FBAReserved        float64 `json:"fba_reserved" db:"fba_reserved"`
	WarehouseAvailable float64 `json:"warehouse_available" db:"warehouse_available"`
	Total              float64 `json:"total" db:"total"`
}

// ScheduledDeal is an upcoming promotion with its expected demand lift.
type ScheduledDeal struct {
	SKU          string    `json:"sku" db:"sku"`
	StartDate    time.Time `json:"start_date" db:"start_date"`
	EndDate      time.Time `json:"end_date" db:"end_date"`
	ExpectedLift float64   `json:"expected_lift" db:"expected_lift"`
}

// AlertType enumerates the typed forecast alerts.
type AlertType string

const (
	AlertStockoutImminent    AlertType = "stockout_imminent"
	AlertSeasonalPrep        AlertType = "seasonal_prep"
	AlertSpikeDetected       AlertType = "spike_detected"
	AlertAccuracyLow         AlertType = "accuracy_low"
	AlertSupplierReliability AlertType = "supplier_reliability"
	AlertNewItemDeviation    AlertType = "new_item_deviation"
	AlertDealInventory       AlertType = "deal_inventory"
	AlertGoalAdjustment      AlertType = "goal_adjustment"
)

// ForecastAlert is an actionable signal emitted by the alert generator.
type ForecastAlert struct {
	SKU               string     `json:"sku"`
	Type              AlertType  `json:"type"`
	Severity          Urgency    `json:"severity"`
	Message           string     `json:"message"`
	RecommendedAction string     `json:"recommended_action"`
	ActionDeadline    *time.Time `json:"action_deadline,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// DaysOfSupply breaks down stock cover by location.
type DaysOfSupply struct {
	FBA       float64 `json:"fba"`
	Warehouse float64 `json:"warehouse"`
	Total     float64 `json:"total"`
}

// OrderRecommendation is the purchasing signal per SKU.
type OrderRecommendation struct {
	SKU                 string          `json:"sku"`
	Urgency             Urgency         `json:"urgency"`
	DaysOfSupply        DaysOfSupply    `json:"days_of_supply"`
	RecommendedOrderQty int             `json:"recommended_order_qty"`
	OrderCost           decimal.Decimal `json:"order_cost"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// AnomalyEvent records a velocity observation outside expected bounds.
type AnomalyEvent struct {
	SKU        string    `json:"sku"`
	Date       time.Time `json:"date"`
	Observed   float64   `json:"observed"`
	Expected   float64   `json:"expected"`
	Multiplier float64   `json:"multiplier"`
	Cause      string    `json:"cause"`
}
