// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Forecast ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// ForecastConfig carries every tunable the forecasting engine uses. Nothing
// in internal/forecast reads the environment directly; callers pass this in.
type ForecastConfig struct {
	Seasonality SeasonalityConfig
	Ensemble    EnsembleConfig
	Spike       SpikeConfig
	SafetyStock SafetyStockConfig
	Urgency     UrgencyConfig
	NewItem     NewItemConfig
	LeadTime    LeadTimeConfig
}

type SeasonalityConfig struct {
	// MinYearlyHistoryDays gates yearly pattern detection and event learning.
	MinYearlyHistoryDays int
	// MonthlyDeviation / WeeklyDeviation mark a SKU as seasonal when any
	// multiplier strays from 1.0 by more than these amounts.
	MonthlyDeviation float64
	WeeklyDeviation  float64
	// EventHorizonDays bounds the upcoming-event lookup.
	EventHorizonDays int
	// Blend weights between an event's base and learned multipliers. The
	// 0.4/0.6 split mirrors the values the learning was originally tuned with.
	BlendBaseWeight    float64
	BlendLearnedWeight float64
	// Recency weights for multi-year learning: most recent year gets
	// RecentYearWeight, year at recency rank i gets OlderYearBudget/i.
	RecentYearWeight float64
	OlderYearBudget  float64
	// Pattern mining thresholds for undeclared recurring spikes.
	MinSpikeMultiplier float64
	MinSpikeRunDays    int
	MinRecurrenceYears int
}

type EnsembleConfig struct {
	// HorizonDays is how far ahead the daily forecast extends.
	HorizonDays int
	// LookbackDays caps the history each sub-model trains on (0 = all).
	LookbackDays int
	// BacktestDays is the walk-forward window used by the accuracy tracker.
	BacktestDays int
	// WeightFloor keeps every model weight strictly positive.
	WeightFloor float64
	// ConfidenceZ sizes sub-model prediction intervals.
	ConfidenceZ float64
}

type SpikeConfig struct {
	Threshold          float64
	MinConsecutiveDays int
	BaselineDays       int
	DecayDays          int
	// AdSpendDeltaPct / ListingChangeWindowDays gate cause attribution.
	AdSpendDeltaPct         float64
	ListingChangeWindowDays int
}

type SafetyStockConfig struct {
	// ZScores maps importance class to the service-level z value.
	ZScores map[string]float64
	// DefaultZ is used when the importance class is unknown.
	DefaultZ float64
	// SeasonalAdjustThreshold: an upcoming event multiplier above this scales
	// the buffer. ReliabilityThreshold: suppliers scoring below this inflate it.
	SeasonalAdjustThreshold float64
	SeasonalAdjustCap       float64
	ReliabilityThreshold    float64
}

type UrgencyConfig struct {
	// Days-of-supply cutoffs, ascending: below CriticalDays is critical, etc.
	CriticalDays float64
	HighDays     float64
	MediumDays   float64
	LowDays      float64
	// TargetDays drives the recommended order quantity.
	TargetDays float64
}

type NewItemConfig struct {
	// MinHistoryDays: below this a SKU is forecast from an analog.
	MinHistoryDays int
	// RecalibrationDeviationPct flags an analog forecast for recalibration.
	RecalibrationDeviationPct float64
	// Watch cadence boundaries in days since launch.
	DailyWatchDays    int
	FrequentWatchDays int
}

type LeadTimeConfig struct {
	// WorstCasePercentile for the pessimistic lead-time estimate.
	WorstCasePercentile float64
	// OnTimeGraceDays counts a delivery on time when within this grace.
	OnTimeGraceDays float64
	// ReliabilityAlertThreshold / VarianceWorsenPct trigger lead-time alerts.
	ReliabilityAlertThreshold float64
	VarianceWorsenPct         float64
	// TrendWindow splits history into recent/older halves capped at this size.
	TrendWindow int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "forecast")
		viper.SetDefault("DB_SSLMODE", "disable")

		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)

		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "forecast-reports")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)

		viper.SetDefault("SEASONALITY_MIN_YEARLY_DAYS", 365)
		viper.SetDefault("SEASONALITY_MONTHLY_DEVIATION", 0.2)
		viper.SetDefault("SEASONALITY_WEEKLY_DEVIATION", 0.15)
		viper.SetDefault("SEASONALITY_EVENT_HORIZON_DAYS", 90)
		viper.SetDefault("SEASONALITY_BLEND_BASE_WEIGHT", 0.4)
		viper.SetDefault("SEASONALITY_BLEND_LEARNED_WEIGHT", 0.6)
		viper.SetDefault("SEASONALITY_RECENT_YEAR_WEIGHT", 0.6)
		viper.SetDefault("SEASONALITY_OLDER_YEAR_BUDGET", 0.4)
		viper.SetDefault("SEASONALITY_MIN_SPIKE_MULTIPLIER", 1.5)
		viper.SetDefault("SEASONALITY_MIN_SPIKE_RUN_DAYS", 3)
		viper.SetDefault("SEASONALITY_MIN_RECURRENCE_YEARS", 2)

		viper.SetDefault("ENSEMBLE_HORIZON_DAYS", 30)
		viper.SetDefault("ENSEMBLE_LOOKBACK_DAYS", 730)
		viper.SetDefault("ENSEMBLE_BACKTEST_DAYS", 30)
		viper.SetDefault("ENSEMBLE_WEIGHT_FLOOR", 0.05)
		viper.SetDefault("ENSEMBLE_CONFIDENCE_Z", 1.96)

		viper.SetDefault("SPIKE_THRESHOLD", 1.5)
		viper.SetDefault("SPIKE_MIN_CONSECUTIVE_DAYS", 3)
		viper.SetDefault("SPIKE_BASELINE_DAYS", 30)
		viper.SetDefault("SPIKE_DECAY_DAYS", 14)
		viper.SetDefault("SPIKE_AD_SPEND_DELTA_PCT", 0.3)
		viper.SetDefault("SPIKE_LISTING_CHANGE_WINDOW_DAYS", 7)

		viper.SetDefault("SAFETY_Z_STANDARD", 1.65)
		viper.SetDefault("SAFETY_Z_IMPORTANT", 1.96)
		viper.SetDefault("SAFETY_Z_CRITICAL", 2.33)
		viper.SetDefault("SAFETY_SEASONAL_ADJUST_THRESHOLD", 1.2)
		viper.SetDefault("SAFETY_SEASONAL_ADJUST_CAP", 2.0)
		viper.SetDefault("SAFETY_RELIABILITY_THRESHOLD", 0.7)

		viper.SetDefault("URGENCY_CRITICAL_DAYS", 7.0)
		viper.SetDefault("URGENCY_HIGH_DAYS", 14.0)
		viper.SetDefault("URGENCY_MEDIUM_DAYS", 30.0)
		viper.SetDefault("URGENCY_LOW_DAYS", 45.0)
		viper.SetDefault("URGENCY_TARGET_DAYS", 45.0)

		viper.SetDefault("NEW_ITEM_MIN_HISTORY_DAYS", 30)
		viper.SetDefault("NEW_ITEM_RECALIBRATION_DEVIATION_PCT", 0.35)
		viper.SetDefault("NEW_ITEM_DAILY_WATCH_DAYS", 14)
		viper.SetDefault("NEW_ITEM_FREQUENT_WATCH_DAYS", 45)

		viper.SetDefault("LEADTIME_WORST_CASE_PERCENTILE", 0.95)
		viper.SetDefault("LEADTIME_ON_TIME_GRACE_DAYS", 1.0)
		viper.SetDefault("LEADTIME_RELIABILITY_ALERT_THRESHOLD", 0.6)
		viper.SetDefault("LEADTIME_VARIANCE_WORSEN_PCT", 0.25)
		viper.SetDefault("LEADTIME_TREND_WINDOW", 10)

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Forecast: ForecastConfig{
				Seasonality: SeasonalityConfig{
					MinYearlyHistoryDays: viper.GetInt("SEASONALITY_MIN_YEARLY_DAYS"),
					MonthlyDeviation:     viper.GetFloat64("SEASONALITY_MONTHLY_DEVIATION"),
					WeeklyDeviation:      viper.GetFloat64("SEASONALITY_WEEKLY_DEVIATION"),
					EventHorizonDays:     viper.GetInt("SEASONALITY_EVENT_HORIZON_DAYS"),
					BlendBaseWeight:      viper.GetFloat64("SEASONALITY_BLEND_BASE_WEIGHT"),
					BlendLearnedWeight:   viper.GetFloat64("SEASONALITY_BLEND_LEARNED_WEIGHT"),
					RecentYearWeight:     viper.GetFloat64("SEASONALITY_RECENT_YEAR_WEIGHT"),
					OlderYearBudget:      viper.GetFloat64("SEASONALITY_OLDER_YEAR_BUDGET"),
					MinSpikeMultiplier:   viper.GetFloat64("SEASONALITY_MIN_SPIKE_MULTIPLIER"),
					MinSpikeRunDays:      viper.GetInt("SEASONALITY_MIN_SPIKE_RUN_DAYS"),
					MinRecurrenceYears:   viper.GetInt("SEASONALITY_MIN_RECURRENCE_YEARS"),
				},
				Ensemble: EnsembleConfig{
					HorizonDays:  viper.GetInt("ENSEMBLE_HORIZON_DAYS"),
					LookbackDays: viper.GetInt("ENSEMBLE_LOOKBACK_DAYS"),
					BacktestDays: viper.GetInt("ENSEMBLE_BACKTEST_DAYS"),
					WeightFloor:  viper.GetFloat64("ENSEMBLE_WEIGHT_FLOOR"),
					ConfidenceZ:  viper.GetFloat64("ENSEMBLE_CONFIDENCE_Z"),
				},
				Spike: SpikeConfig{
					Threshold:               viper.GetFloat64("SPIKE_THRESHOLD"),
					MinConsecutiveDays:      viper.GetInt("SPIKE_MIN_CONSECUTIVE_DAYS"),
					BaselineDays:            viper.GetInt("SPIKE_BASELINE_DAYS"),
					DecayDays:               viper.GetInt("SPIKE_DECAY_DAYS"),
					AdSpendDeltaPct:         viper.GetFloat64("SPIKE_AD_SPEND_DELTA_PCT"),
					ListingChangeWindowDays: viper.GetInt("SPIKE_LISTING_CHANGE_WINDOW_DAYS"),
				},
				SafetyStock: SafetyStockConfig{
					ZScores: map[string]float64{
						"standard":  viper.GetFloat64("SAFETY_Z_STANDARD"),
						"important": viper.GetFloat64("SAFETY_Z_IMPORTANT"),
						"critical":  viper.GetFloat64("SAFETY_Z_CRITICAL"),
					},
					DefaultZ:                viper.GetFloat64("SAFETY_Z_STANDARD"),
					SeasonalAdjustThreshold: viper.GetFloat64("SAFETY_SEASONAL_ADJUST_THRESHOLD"),
					SeasonalAdjustCap:       viper.GetFloat64("SAFETY_SEASONAL_ADJUST_CAP"),
					ReliabilityThreshold:    viper.GetFloat64("SAFETY_RELIABILITY_THRESHOLD"),
				},
				Urgency: UrgencyConfig{
					CriticalDays: viper.GetFloat64("URGENCY_CRITICAL_DAYS"),
					HighDays:     viper.GetFloat64("URGENCY_HIGH_DAYS"),
					MediumDays:   viper.GetFloat64("URGENCY_MEDIUM_DAYS"),
					LowDays:      viper.GetFloat64("URGENCY_LOW_DAYS"),
					TargetDays:   viper.GetFloat64("URGENCY_TARGET_DAYS"),
				},
				NewItem: NewItemConfig{
					MinHistoryDays:            viper.GetInt("NEW_ITEM_MIN_HISTORY_DAYS"),
					RecalibrationDeviationPct: viper.GetFloat64("NEW_ITEM_RECALIBRATION_DEVIATION_PCT"),
					DailyWatchDays:            viper.GetInt("NEW_ITEM_DAILY_WATCH_DAYS"),
					FrequentWatchDays:         viper.GetInt("NEW_ITEM_FREQUENT_WATCH_DAYS"),
				},
				LeadTime: LeadTimeConfig{
					WorstCasePercentile:       viper.GetFloat64("LEADTIME_WORST_CASE_PERCENTILE"),
					OnTimeGraceDays:           viper.GetFloat64("LEADTIME_ON_TIME_GRACE_DAYS"),
					ReliabilityAlertThreshold: viper.GetFloat64("LEADTIME_RELIABILITY_ALERT_THRESHOLD"),
					VarianceWorsenPct:         viper.GetFloat64("LEADTIME_VARIANCE_WORSEN_PCT"),
					TrendWindow:               viper.GetInt("LEADTIME_TREND_WINDOW"),
				},
			},
		}
	})

	return instance
}

// DefaultForecastConfig returns the engine defaults without touching viper.
// Tests and library callers use this to avoid environment coupling.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Seasonality: SeasonalityConfig{
			MinYearlyHistoryDays: 365,
			MonthlyDeviation:     0.2,
			WeeklyDeviation:      0.15,
			EventHorizonDays:     90,
			BlendBaseWeight:      0.4,
			BlendLearnedWeight:   0.6,
			RecentYearWeight:     0.6,
			OlderYearBudget:      0.4,
			MinSpikeMultiplier:   1.5,
			MinSpikeRunDays:      3,
			MinRecurrenceYears:   2,
		},
		Ensemble: EnsembleConfig{
			HorizonDays:  30,
			LookbackDays: 730,
			BacktestDays: 30,
			WeightFloor:  0.05,
			ConfidenceZ:  1.96,
		},
		Spike: SpikeConfig{
			Threshold:               1.5,
			MinConsecutiveDays:      3,
			BaselineDays:            30,
			DecayDays:               14,
			AdSpendDeltaPct:         0.3,
			ListingChangeWindowDays: 7,
		},
		SafetyStock: SafetyStockConfig{
			ZScores: map[string]float64{
				"standard":  1.65,
				"important": 1.96,
				"critical":  2.33,
			},
			DefaultZ:                1.65,
			SeasonalAdjustThreshold: 1.2,
			SeasonalAdjustCap:       2.0,
			ReliabilityThreshold:    0.7,
		},
		Urgency: UrgencyConfig{
			CriticalDays: 7,
			HighDays:     14,
			MediumDays:   30,
			LowDays:      45,
			TargetDays:   45,
		},
		NewItem: NewItemConfig{
			MinHistoryDays:            30,
			RecalibrationDeviationPct: 0.35,
			DailyWatchDays:            14,
			FrequentWatchDays:         45,
		},
		LeadTime: LeadTimeConfig{
			WorstCasePercentile:       0.95,
			OnTimeGraceDays:           1.0,
			ReliabilityAlertThreshold: 0.6,
			VarianceWorsenPct:         0.25,
			TrendWindow:               10,
		},
	}
}
