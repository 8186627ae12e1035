// cmd/jobs/main.go
//
// Minimal trigger service for scheduled forecast work. External schedulers
// hit these endpoints instead of shelling into the CLI.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/cache"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/config"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/report"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/repository/postgres"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/service"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/storage"
)

type jobsHandler struct {
	service *service.ForecastService
	reports *report.Writer
}

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		log.Printf("warning: cache unavailable: %v", err)
		forecastCache = cache.NewNoopForecastCache()
	}

	forecastService := service.NewForecastService(
		cfg.Forecast,
		postgres.NewSalesRepository(db),
		postgres.NewEventRepository(db),
		postgres.NewWeightsRepository(db),
		postgres.NewInventoryRepository(db),
		postgres.NewPORepository(db),
		postgres.NewForecastRepository(db),
		forecastCache,
	)

	var store storage.ObjectStorage
	if cfg.Storage.Endpoint != "" {
		store, err = storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Printf("warning: object storage unavailable: %v", err)
		}
	}

	h := &jobsHandler{
		service: forecastService,
		reports: report.NewWriter(store),
	}

	r := mux.NewRouter()
	r.HandleFunc("/jobs/forecast", h.runForecast).Methods("POST")
	r.HandleFunc("/jobs/learn/{sku}", h.learnEvents).Methods("POST")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Jobs server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// runForecast executes the batch pipeline and, when storage is configured,
// publishes the run reports.
func (h *jobsHandler) runForecast(w http.ResponseWriter, r *http.Request) {
	concurrency := 4
	if raw := r.URL.Query().Get("concurrency"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 32 {
			concurrency = n
		}
	}

	runDate := time.Now().UTC()
	results, err := h.service.RunAll(r.Context(), runDate, concurrency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	published := false
	if err := h.reports.PublishRun(r.Context(), runDate, results); err != nil {
		log.Printf("warning: report publish skipped: %v", err)
	} else {
		published = true
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"skus":              len(results),
		"reports_published": published,
		"run_date":          runDate.Format("2006-01-02"),
	})
}

func (h *jobsHandler) learnEvents(w http.ResponseWriter, r *http.Request) {
	sku := mux.Vars(r)["sku"]
	if sku == "" {
		http.Error(w, "sku is required", http.StatusBadRequest)
		return
	}

	learned, candidates, err := h.service.LearnEvents(r.Context(), sku, time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sku":        sku,
		"learned":    learned,
		"candidates": candidates,
	})
}
