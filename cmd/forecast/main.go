// cmd/forecast/main.go
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/cache"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/report"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/repository/postgres"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/service"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/storage"
)

func newService() (*service.ForecastService, *config.Config, error) {
	cfg := config.Load()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	svc := service.NewForecastService(
		cfg.Forecast,
		postgres.NewSalesRepository(db),
		postgres.NewEventRepository(db),
		postgres.NewWeightsRepository(db),
		postgres.NewInventoryRepository(db),
		postgres.NewPORepository(db),
		postgres.NewForecastRepository(db),
		cache.NewNoopForecastCache(),
	)
	return svc, cfg, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "forecast",
		Usage: "Run demand forecasting and replenishment planning from the command line",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the forecast pipeline for one SKU or all active SKUs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "sku",
						Usage: "Forecast a single SKU; omit to run all",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Concurrent SKUs in a batch run",
						Value: 4,
					},
				},
				Action: runForecast,
			},
			{
				Name:  "learn",
				Usage: "Re-learn event multipliers for a SKU from its history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "sku",
						Usage:    "SKU to learn event multipliers for",
						Required: true,
					},
				},
				Action: runLearn,
			},
			{
				Name:  "backtest",
				Usage: "Backtest the ensemble models for a SKU and print accuracy",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "sku",
						Usage:    "SKU to backtest",
						Required: true,
					},
				},
				Action: runBacktest,
			},
			{
				Name:  "report",
				Usage: "Run all SKUs and publish accuracy and recommendation reports",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Concurrent SKUs in the run",
						Value: 4,
					},
				},
				Action: runReport,
			},
			{
				Name:   "init-schema",
				Usage:  "Create the forecasting tables if they do not exist",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: initSchema,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runForecast(c *cli.Context) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	asOf := time.Now().UTC()
	if sku := c.String("sku"); sku != "" {
		res, err := svc.RunSKU(c.Context, sku, asOf)
		if err != nil {
			return fmt.Errorf("forecast failed for %s: %w", sku, err)
		}
		return printJSON(res)
	}

	results, err := svc.RunAll(c.Context, asOf, c.Int("concurrency"))
	if err != nil {
		return err
	}
	log.Printf("forecast run completed for %d SKUs", len(results))
	return nil
}

func runLearn(c *cli.Context) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	sku := c.String("sku")
	learned, candidates, err := svc.LearnEvents(c.Context, sku, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("learning failed for %s: %w", sku, err)
	}

	log.Printf("learned %d event multipliers, found %d candidate patterns", len(learned), len(candidates))
	return printJSON(map[string]interface{}{
		"learned":    learned,
		"candidates": candidates,
	})
}

func runBacktest(c *cli.Context) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	sku := c.String("sku")
	res, err := svc.RunSKU(c.Context, sku, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("backtest failed for %s: %w", sku, err)
	}

	return printJSON(map[string]interface{}{
		"sku":      sku,
		"accuracy": res.Accuracy,
		"weights":  res.Weights,
	})
}

func runReport(c *cli.Context) error {
	svc, cfg, err := newService()
	if err != nil {
		return err
	}

	store, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("object storage required for reports: %w", err)
	}

	runDate := time.Now().UTC()
	results, err := svc.RunAll(c.Context, runDate, c.Int("concurrency"))
	if err != nil {
		return err
	}

	return report.NewWriter(store).PublishRun(c.Context, runDate, results)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
