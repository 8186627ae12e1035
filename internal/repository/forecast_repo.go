// internal/repository/forecast_repo.go
package repository

import (
	"context"
	"time"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
)

// SalesRepository serves the historical facts the engine consumes. History
// comes back sorted ascending by date.
type SalesRepository interface {
	GetSalesHistory(ctx context.Context, sku string, since time.Time) ([]domain.SalesDataPoint, error)
	GetActiveSKUs(ctx context.Context) ([]string, error)
	GetSKUAttributes(ctx context.Context, sku string) (*domain.SKUAttributes, error)
	GetAnalogCandidates(ctx context.Context, category string) ([]domain.SKUAttributes, error)
}

// EventRepository manages the seasonal event catalog and its per-SKU learned
// multipliers. Events are deactivated, never deleted.
type EventRepository interface {
	GetActiveEvents(ctx context.Context) ([]*domain.SeasonalEvent, error)
	SaveEvent(ctx context.Context, event *domain.SeasonalEvent) error
	DeactivateEvent(ctx context.Context, id int64) error
	SaveLearnedMultipliers(ctx context.Context, multipliers []domain.LearnedMultiplier) error
	GetSKUMultipliers(ctx context.Context, eventID int64) (map[string]float64, error)
}

// WeightsRepository persists per-SKU ensemble weights and backtest accuracy.
type WeightsRepository interface {
	GetWeights(ctx context.Context, sku string) (*domain.ModelWeights, error)
	SaveWeights(ctx context.Context, weights domain.ModelWeights) error
	SaveAccuracy(ctx context.Context, sku string, accuracies []domain.ModelAccuracy) error
}

// InventoryRepository exposes stock positions, scheduled deals, and unit
// costs for the recommendation stage.
type InventoryRepository interface {
	GetPosition(ctx context.Context, sku string) (*domain.InventoryPosition, error)
	GetScheduledDeals(ctx context.Context, sku string, from time.Time) ([]domain.ScheduledDeal, error)
	GetUnitCost(ctx context.Context, sku string) (float64, error)
}

// PORepository serves completed purchase-order receipts for lead-time
// analysis and persists the derived supplier distributions.
type PORepository interface {
	GetReceipts(ctx context.Context, supplier string, since time.Time) ([]domain.PurchaseOrderReceipt, error)
	GetSupplierForSKU(ctx context.Context, sku string) (string, error)
	GetLeadTimeData(ctx context.Context, supplier string) (*domain.LeadTimeData, error)
	SaveLeadTimeData(ctx context.Context, data domain.LeadTimeData) error
}

// ForecastRepository persists pipeline outputs. Forecasts are append-only;
// each run writes a fresh timestamped row.
type ForecastRepository interface {
	SaveForecast(ctx context.Context, fc domain.EnsembleForecast) error
	GetLatestForecast(ctx context.Context, sku string) (*domain.EnsembleForecast, error)
	SaveAlerts(ctx context.Context, alerts []domain.ForecastAlert) error
	GetOpenAlerts(ctx context.Context, sku string) ([]domain.ForecastAlert, error)
	SaveRecommendation(ctx context.Context, rec domain.OrderRecommendation) error
}
