package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// GetForecast returns the latest stored forecast for a SKU.
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		errorResponse(c, http.StatusBadRequest, "sku is required")
		return
	}

	fc, err := h.service.GetForecast(c.Request.Context(), sku)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to fetch forecast")
		return
	}
	if fc == nil {
		errorResponse(c, http.StatusNotFound, "no forecast for sku")
		return
	}

	c.JSON(http.StatusOK, fc)
}

// RunForecast executes the full pipeline for one SKU synchronously.
func (h *ForecastHandler) RunForecast(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		errorResponse(c, http.StatusBadRequest, "sku is required")
		return
	}

	asOf := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	res, err := h.service.RunSKU(c.Request.Context(), sku, asOf)
	if err != nil {
		log.Error().Err(err).Str("sku", sku).Msg("forecast run failed")
		errorResponse(c, http.StatusInternalServerError, "forecast run failed")
		return
	}

	c.JSON(http.StatusOK, res)
}

// RunAll executes the pipeline over every active SKU.
func (h *ForecastHandler) RunAll(c *gin.Context) {
	concurrency := 4
	if raw := c.Query("concurrency"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 32 {
			concurrency = n
		}
	}

	results, err := h.service.RunAll(c.Request.Context(), time.Now().UTC(), concurrency)
	if err != nil {
		log.Error().Err(err).Msg("batch forecast run failed")
		errorResponse(c, http.StatusInternalServerError, "batch forecast run failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"skus":    len(results),
		"results": results,
	})
}

func (h *ForecastHandler) GetAlerts(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		errorResponse(c, http.StatusBadRequest, "sku is required")
		return
	}

	alerts, err := h.service.GetAlerts(c.Request.Context(), sku)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to fetch alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku": sku, "alerts": alerts})
}

func (h *ForecastHandler) GetRecommendation(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		errorResponse(c, http.StatusBadRequest, "sku is required")
		return
	}

	rec, err := h.service.GetRecommendation(c.Request.Context(), sku)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build recommendation")
		return
	}

	c.JSON(http.StatusOK, rec)
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
