package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/cache"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast/newitem"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/repository"
)

// lowAccuracyMAPEPct flags a SKU's forecast as unreliable in alerting.
const lowAccuracyMAPEPct = 50.0

// ForecastService assembles per-SKU inputs from the repositories, runs the
// engine, and persists the outputs. Enrichment fetches degrade to warnings:
// a missing position or PO history never blocks the forecast itself.
type ForecastService struct {
	cfg       config.ForecastConfig
	engine    *forecast.Engine
	sales     repository.SalesRepository
	events    repository.EventRepository
	weights   repository.WeightsRepository
	inventory repository.InventoryRepository
	pos       repository.PORepository
	forecasts repository.ForecastRepository
	cache     cache.ForecastCache
}

func NewForecastService(
	cfg config.ForecastConfig,
	sales repository.SalesRepository,
	events repository.EventRepository,
	weights repository.WeightsRepository,
	inventory repository.InventoryRepository,
	pos repository.PORepository,
	forecasts repository.ForecastRepository,
	cacheImpl cache.ForecastCache,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &ForecastService{
		cfg:       cfg,
		engine:    forecast.NewEngine(cfg),
		sales:     sales,
		events:    events,
		weights:   weights,
		inventory: inventory,
		pos:       pos,
		forecasts: forecasts,
		cache:     cacheImpl,
	}
}

// RunSKU executes the full pipeline for one SKU and persists the results.
func (s *ForecastService) RunSKU(ctx context.Context, sku string, asOf time.Time) (*forecast.SKUResult, error) {
	in, err := s.buildInput(ctx, sku, asOf)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Run(ctx, *in)
	if err != nil {
		return nil, err
	}

	s.persist(ctx, res)
	return res, nil
}

// RunAll forecasts every active SKU with the given concurrency.
func (s *ForecastService) RunAll(ctx context.Context, asOf time.Time, concurrency int) ([]*forecast.SKUResult, error) {
	skus, err := s.sales.GetActiveSKUs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active skus: %w", err)
	}

	inputs := make([]forecast.SKUInput, 0, len(skus))
	for _, sku := range skus {
		in, err := s.buildInput(ctx, sku, asOf)
		if err != nil {
			log.Warn().Err(err).Str("sku", sku).Msg("forecast run: sku skipped")
			continue
		}
		inputs = append(inputs, *in)
	}

	results := s.engine.RunBatch(ctx, inputs, concurrency)
	for _, res := range results {
		s.persist(ctx, res)
	}

	log.Info().Int("skus", len(results)).Int("requested", len(skus)).Msg("forecast run completed")
	return results, nil
}

// LearnEvents re-learns event multipliers for one SKU and persists the
// mutated catalog. Returned candidates are advisory.
func (s *ForecastService) LearnEvents(ctx context.Context, sku string, asOf time.Time) ([]domain.LearnedMultiplier, []domain.CandidatePattern, error) {
	since := asOf.AddDate(-3, 0, 0)
	sales, err := s.sales.GetSalesHistory(ctx, sku, since)
	if err != nil {
		return nil, nil, fmt.Errorf("sales history: %w", err)
	}

	events, err := s.events.GetActiveEvents(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("event catalog: %w", err)
	}

	learned, candidates := s.engine.LearnEvents(sku, sales, events)
	if err := s.events.SaveLearnedMultipliers(ctx, learned); err != nil {
		return nil, nil, fmt.Errorf("save learned multipliers: %w", err)
	}
	return learned, candidates, nil
}

// GetForecast serves the latest forecast, cache first.
func (s *ForecastService) GetForecast(ctx context.Context, sku string) (*domain.EnsembleForecast, error) {
	if fc, ok, err := s.cache.GetForecast(ctx, sku); err == nil && ok {
		return fc, nil
	} else if err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("forecast: cache get failed")
	}

	fc, err := s.forecasts.GetLatestForecast(ctx, sku)
	if err != nil || fc == nil {
		return fc, err
	}

	if err := s.cache.SetForecast(ctx, *fc); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("forecast: cache set failed")
	}
	return fc, nil
}

func (s *ForecastService) GetAlerts(ctx context.Context, sku string) ([]domain.ForecastAlert, error) {
	return s.forecasts.GetOpenAlerts(ctx, sku)
}

func (s *ForecastService) GetRecommendation(ctx context.Context, sku string) (*domain.OrderRecommendation, error) {
	if rec, ok, err := s.cache.GetRecommendation(ctx, sku); err == nil && ok {
		return rec, nil
	}
	// Recommendations are recomputed from the latest forecast rather than a
	// dedicated read path; a cache miss falls back to a fresh run.
	res, err := s.RunSKU(ctx, sku, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &res.Recommendation, nil
}

func (s *ForecastService) ListEvents(ctx context.Context) ([]*domain.SeasonalEvent, error) {
	return s.events.GetActiveEvents(ctx)
}

func (s *ForecastService) SaveEvent(ctx context.Context, event *domain.SeasonalEvent) error {
	return s.events.SaveEvent(ctx, event)
}

func (s *ForecastService) DeactivateEvent(ctx context.Context, id int64) error {
	if err := s.events.DeactivateEvent(ctx, id); err != nil {
		return err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidate failed")
	}
	return nil
}

// buildInput gathers everything the engine needs for one SKU. Sales history
// is mandatory; every other fetch degrades to a warning and a zero value.
func (s *ForecastService) buildInput(ctx context.Context, sku string, asOf time.Time) (*forecast.SKUInput, error) {
	since := asOf.AddDate(-3, 0, 0)
	sales, err := s.sales.GetSalesHistory(ctx, sku, since)
	if err != nil {
		return nil, fmt.Errorf("sales history: %w", err)
	}

	in := &forecast.SKUInput{
		SKU:                   sku,
		AsOf:                  asOf,
		Sales:                 sales,
		AccuracyMAPEThreshold: lowAccuracyMAPEPct,
	}

	if events, err := s.events.GetActiveEvents(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: event catalog unavailable")
	} else {
		in.Events = events
	}

	if weights, err := s.weights.GetWeights(ctx, sku); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("forecast: stored weights unavailable")
	} else {
		in.Weights = weights
	}

	if pos, err := s.inventory.GetPosition(ctx, sku); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("forecast: inventory position unavailable")
	} else if pos != nil {
		in.Position = *pos
	}

	if deals, err := s.inventory.GetScheduledDeals(ctx, sku, asOf); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("forecast: scheduled deals unavailable")
	} else {
		in.Deals = deals
	}

	if cost, err := s.inventory.GetUnitCost(ctx, sku); err == nil && cost > 0 {
		in.UnitCost = decimal.NewFromFloat(cost)
	}

	if attrs, err := s.sales.GetSKUAttributes(ctx, sku); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("forecast: sku attributes unavailable")
	} else if attrs != nil {
		in.Attributes = *attrs
		in.Importance = importanceFor(*attrs)
		if len(sales) < s.cfg.NewItem.MinHistoryDays {
			in.Candidates = s.analogCandidates(ctx, *attrs, asOf)
		}
	}

	if supplier, err := s.pos.GetSupplierForSKU(ctx, sku); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("forecast: supplier lookup failed")
	} else if supplier != "" {
		in.Supplier = supplier
		if receipts, err := s.pos.GetReceipts(ctx, supplier, asOf.AddDate(-2, 0, 0)); err != nil {
			log.Warn().Err(err).Str("supplier", supplier).Msg("forecast: po history unavailable")
		} else {
			in.Receipts = receipts
		}
	}

	return in, nil
}

// analogCandidates loads same-category SKUs with their histories for new-item
// matching. Candidates without enough history are dropped here so the
// matcher only scores usable analogs.
func (s *ForecastService) analogCandidates(ctx context.Context, attrs domain.SKUAttributes, asOf time.Time) []newitem.Candidate {
	list, err := s.sales.GetAnalogCandidates(ctx, attrs.Category)
	if err != nil {
		log.Warn().Err(err).Str("category", attrs.Category).Msg("forecast: analog candidates unavailable")
		return nil
	}

	since := asOf.AddDate(-1, 0, 0)
	candidates := make([]newitem.Candidate, 0, len(list))
	for _, c := range list {
		if c.SKU == attrs.SKU {
			continue
		}
		sales, err := s.sales.GetSalesHistory(ctx, c.SKU, since)
		if err != nil || len(sales) < s.cfg.NewItem.MinHistoryDays {
			continue
		}
		candidates = append(candidates, newitem.Candidate{Attributes: c, Sales: sales})
	}
	return candidates
}

func (s *ForecastService) persist(ctx context.Context, res *forecast.SKUResult) {
	if err := s.forecasts.SaveForecast(ctx, res.Forecast); err != nil {
		log.Error().Err(err).Str("sku", res.SKU).Msg("forecast: save failed")
	}
	if err := s.weights.SaveWeights(ctx, res.Weights); err != nil {
		log.Error().Err(err).Str("sku", res.SKU).Msg("forecast: weight save failed")
	}
	if err := s.weights.SaveAccuracy(ctx, res.SKU, res.Accuracy); err != nil {
		log.Error().Err(err).Str("sku", res.SKU).Msg("forecast: accuracy save failed")
	}
	if res.LeadTime != nil {
		if err := s.pos.SaveLeadTimeData(ctx, *res.LeadTime); err != nil {
			log.Error().Err(err).Str("supplier", res.LeadTime.Supplier).Msg("forecast: lead time save failed")
		}
	}
	if err := s.forecasts.SaveAlerts(ctx, res.Alerts); err != nil {
		log.Error().Err(err).Str("sku", res.SKU).Msg("forecast: alert save failed")
	}
	if err := s.forecasts.SaveRecommendation(ctx, res.Recommendation); err != nil {
		log.Error().Err(err).Str("sku", res.SKU).Msg("forecast: recommendation save failed")
	}

	if err := s.cache.SetForecast(ctx, res.Forecast); err != nil {
		log.Warn().Err(err).Str("sku", res.SKU).Msg("forecast: cache set failed")
	}
	if err := s.cache.SetRecommendation(ctx, res.Recommendation); err != nil {
		log.Warn().Err(err).Str("sku", res.SKU).Msg("forecast: cache set failed")
	}
}

// importanceFor derives the service-level class from price. High-value SKUs
// carry tighter service levels.
func importanceFor(attrs domain.SKUAttributes) string {
	switch {
	case attrs.Price >= 100:
		return "critical"
	case attrs.Price >= 30:
		return "important"
	default:
		return "standard"
	}
}
