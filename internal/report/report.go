// internal/report/report.go
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/forecast"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/storage"
)

// Writer renders forecast run outputs as CSV and publishes them to object
// storage. A nil store keeps the CSV in memory only, which tests rely on.
type Writer struct {
	store storage.ObjectStorage
}

func NewWriter(store storage.ObjectStorage) *Writer {
	return &Writer{store: store}
}

// AccuracyCSV renders per-SKU per-model backtest metrics.
func (w *Writer) AccuracyCSV(results []*forecast.SKUResult) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	header := []string{"sku", "model", "mape", "rmse", "mae", "bias", "sample_size"}
	if err := cw.Write(header); err != nil {
		return nil, err
	}

	for _, res := range results {
		for _, acc := range res.Accuracy {
			row := []string{
				res.SKU,
				acc.Model,
				formatFloat(acc.MAPE),
				formatFloat(acc.RMSE),
				formatFloat(acc.MAE),
				formatFloat(acc.Bias),
				strconv.Itoa(acc.SampleSize),
			}
			if err := cw.Write(row); err != nil {
				return nil, err
			}
		}
	}

	cw.Flush()
	return buf.Bytes(), cw.Error()
}

// RecommendationCSV renders the purchasing summary of a run.
func (w *Writer) RecommendationCSV(results []*forecast.SKUResult) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	header := []string{
		"sku", "urgency", "days_of_supply", "final_forecast", "safety_stock",
		"recommended_order_qty", "order_cost", "alerts",
	}
	if err := cw.Write(header); err != nil {
		return nil, err
	}

	for _, res := range results {
		row := []string{
			res.SKU,
			string(res.Recommendation.Urgency),
			formatFloat(res.Recommendation.DaysOfSupply.Total),
			formatFloat(res.Forecast.FinalForecast),
			formatFloat(res.SafetyStock.FinalSafetyStock),
			strconv.Itoa(res.Recommendation.RecommendedOrderQty),
			res.Recommendation.OrderCost.StringFixed(2),
			strconv.Itoa(len(res.Alerts)),
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}

	cw.Flush()
	return buf.Bytes(), cw.Error()
}

// PublishRun uploads both report CSVs for a run, keyed by date.
func (w *Writer) PublishRun(ctx context.Context, runDate time.Time, results []*forecast.SKUResult) error {
	if w.store == nil {
		return fmt.Errorf("no object storage configured")
	}

	datePrefix := runDate.Format("2006-01-02")

	accuracy, err := w.AccuracyCSV(results)
	if err != nil {
		return fmt.Errorf("render accuracy report: %w", err)
	}
	accuracyKey := fmt.Sprintf("reports/%s/accuracy.csv", datePrefix)
	if err := w.store.UploadObject(ctx, accuracyKey, accuracy); err != nil {
		return err
	}

	recommendations, err := w.RecommendationCSV(results)
	if err != nil {
		return fmt.Errorf("render recommendation report: %w", err)
	}
	recKey := fmt.Sprintf("reports/%s/recommendations.csv", datePrefix)
	if err := w.store.UploadObject(ctx, recKey, recommendations); err != nil {
		return err
	}

	log.Info().
		Str("accuracy", accuracyKey).
		Str("recommendations", recKey).
		Int("skus", len(results)).
		Msg("run reports published")
	return nil
}

func formatFloat(v float64) string {
	if v != v || v > 1e12 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
