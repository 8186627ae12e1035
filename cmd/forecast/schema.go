// cmd/forecast/schema.go
package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
        sku TEXT PRIMARY KEY,
        category TEXT NOT NULL DEFAULT '',
        brand TEXT NOT NULL DEFAULT '',
        supplier TEXT NOT NULL DEFAULT '',
        price DOUBLE PRECISION NOT NULL DEFAULT 0,
        unit_cost NUMERIC(12,2),
        launched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS daily_sales (
        sku TEXT NOT NULL,
        date DATE NOT NULL,
        units DOUBLE PRECISION NOT NULL DEFAULT 0,
        revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
        channel TEXT NOT NULL DEFAULT '',
        PRIMARY KEY (sku, date, channel)
    )`,
	`CREATE TABLE IF NOT EXISTS inventory_positions (
        sku TEXT PRIMARY KEY,
        fba_available DOUBLE PRECISION NOT NULL DEFAULT 0,
        fba_inbound DOUBLE PRECISION NOT NULL DEFAULT 0,
        fba_reserved DOUBLE PRECISION NOT NULL DEFAULT 0,
        warehouse_available DOUBLE PRECISION NOT NULL DEFAULT 0
    )`,
	`CREATE TABLE IF NOT EXISTS scheduled_deals (
        id BIGSERIAL PRIMARY KEY,
        sku TEXT NOT NULL,
        start_date DATE NOT NULL,
        end_date DATE NOT NULL,
        expected_lift DOUBLE PRECISION NOT NULL DEFAULT 1
    )`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
        id BIGSERIAL PRIMARY KEY,
        supplier TEXT NOT NULL,
        ordered_at TIMESTAMPTZ NOT NULL,
        stated_lead_time_days DOUBLE PRECISION NOT NULL DEFAULT 0,
        actual_delivery_at TIMESTAMPTZ
    )`,
	`CREATE TABLE IF NOT EXISTS seasonal_events (
        id BIGSERIAL PRIMARY KEY,
        name TEXT NOT NULL UNIQUE,
        event_type TEXT NOT NULL DEFAULT 'custom',
        start_month INT NOT NULL,
        start_day INT NOT NULL,
        end_month INT NOT NULL,
        end_day INT NOT NULL,
        base_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1,
        learned_multiplier DOUBLE PRECISION,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS event_sku_multipliers (
        event_id BIGINT NOT NULL REFERENCES seasonal_events(id),
        sku TEXT NOT NULL,
        multiplier DOUBLE PRECISION NOT NULL,
        years_observed INT NOT NULL DEFAULT 0,
        confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (event_id, sku)
    )`,
	`CREATE TABLE IF NOT EXISTS model_weights (
        sku TEXT PRIMARY KEY,
        prophet_weight DOUBLE PRECISION NOT NULL DEFAULT 0.25,
        lstm_weight DOUBLE PRECISION NOT NULL DEFAULT 0.25,
        exponential_smoothing_weight DOUBLE PRECISION NOT NULL DEFAULT 0.25,
        arima_weight DOUBLE PRECISION NOT NULL DEFAULT 0.25,
        overall_mape DOUBLE PRECISION NOT NULL DEFAULT 0,
        last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS model_accuracy (
        sku TEXT NOT NULL,
        model TEXT NOT NULL,
        mape DOUBLE PRECISION NOT NULL DEFAULT 0,
        rmse DOUBLE PRECISION NOT NULL DEFAULT 0,
        mae DOUBLE PRECISION NOT NULL DEFAULT 0,
        bias DOUBLE PRECISION NOT NULL DEFAULT 0,
        sample_size INT NOT NULL DEFAULT 0,
        last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (sku, model)
    )`,
	`CREATE TABLE IF NOT EXISTS supplier_lead_times (
        supplier TEXT PRIMARY KEY,
        stated_lead_time DOUBLE PRECISION NOT NULL DEFAULT 0,
        avg_actual_lead_time DOUBLE PRECISION NOT NULL DEFAULT 0,
        worst_case_lead_time DOUBLE PRECISION NOT NULL DEFAULT 0,
        on_time_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
        lead_time_variance DOUBLE PRECISION NOT NULL DEFAULT 0,
        reliability_score DOUBLE PRECISION NOT NULL DEFAULT 0,
        is_getting_worse BOOLEAN NOT NULL DEFAULT FALSE,
        sample_size INT NOT NULL DEFAULT 0,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS forecasts (
        id BIGSERIAL PRIMARY KEY,
        sku TEXT NOT NULL,
        date DATE NOT NULL,
        generated_at TIMESTAMPTZ NOT NULL,
        base_forecast DOUBLE PRECISION NOT NULL DEFAULT 0,
        final_forecast DOUBLE PRECISION NOT NULL DEFAULT 0,
        confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
        seasonality_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1,
        deal_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1,
        spike_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1,
        safety_stock DOUBLE PRECISION NOT NULL DEFAULT 0,
        recommended_inventory DOUBLE PRECISION NOT NULL DEFAULT 0,
        upper_bound DOUBLE PRECISION NOT NULL DEFAULT 0,
        lower_bound DOUBLE PRECISION NOT NULL DEFAULT 0,
        reasoning JSONB NOT NULL DEFAULT '[]',
        models JSONB
    )`,
	`CREATE INDEX IF NOT EXISTS idx_forecasts_sku_generated ON forecasts (sku, generated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS forecast_alerts (
        id BIGSERIAL PRIMARY KEY,
        sku TEXT NOT NULL,
        alert_type TEXT NOT NULL,
        severity TEXT NOT NULL,
        message TEXT NOT NULL,
        recommended_action TEXT NOT NULL DEFAULT '',
        action_deadline TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        resolved_at TIMESTAMPTZ
    )`,
	`CREATE TABLE IF NOT EXISTS order_recommendations (
        sku TEXT PRIMARY KEY,
        urgency TEXT NOT NULL,
        days_of_supply_fba DOUBLE PRECISION,
        days_of_supply_warehouse DOUBLE PRECISION,
        days_of_supply_total DOUBLE PRECISION,
        recommended_order_qty INT NOT NULL DEFAULT 0,
        order_cost NUMERIC(14,2) NOT NULL DEFAULT 0,
        generated_at TIMESTAMPTZ NOT NULL
    )`,
}

// initSchema creates every table the pipeline reads or writes. Statements are
// idempotent so reruns are safe.
func initSchema(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(c.Context, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	log.Printf("schema initialized (%d statements)", len(schemaStatements))
	return nil
}
