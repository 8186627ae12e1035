package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/service"
)

type EventHandler struct {
	service *service.ForecastService
}

func NewEventHandler(service *service.ForecastService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.service.ListEvents(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []*domain.SeasonalEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type saveEventRequest struct {
	Name           string  `json:"name" binding:"required"`
	EventType      string  `json:"event_type"`
	StartMonth     int     `json:"start_month" binding:"required,min=1,max=12"`
	StartDay       int     `json:"start_day" binding:"required,min=1,max=31"`
	EndMonth       int     `json:"end_month" binding:"required,min=1,max=12"`
	EndDay         int     `json:"end_day" binding:"required,min=1,max=31"`
	BaseMultiplier float64 `json:"base_multiplier" binding:"required,gt=0"`
}

func (h *EventHandler) SaveEvent(c *gin.Context) {
	var req saveEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid event payload: "+err.Error())
		return
	}

	eventType := domain.EventType(req.EventType)
	switch eventType {
	case domain.EventMicroPeak, domain.EventMajorPeak, domain.EventCustom:
	case "":
		eventType = domain.EventCustom
	default:
		errorResponse(c, http.StatusBadRequest, "unknown event_type")
		return
	}

	event := &domain.SeasonalEvent{
		Name:           req.Name,
		EventType:      eventType,
		StartMonth:     req.StartMonth,
		StartDay:       req.StartDay,
		EndMonth:       req.EndMonth,
		EndDay:         req.EndDay,
		BaseMultiplier: req.BaseMultiplier,
		IsActive:       true,
	}

	if err := h.service.SaveEvent(c.Request.Context(), event); err != nil {
		log.Error().Err(err).Str("event", req.Name).Msg("failed to save event")
		errorResponse(c, http.StatusInternalServerError, "failed to save event")
		return
	}

	c.JSON(http.StatusCreated, event)
}

// DeactivateEvent soft-deletes an event; the row stays for reproducibility.
func (h *EventHandler) DeactivateEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorResponse(c, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := h.service.DeactivateEvent(c.Request.Context(), id); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to deactivate event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": false})
}

// LearnEvents re-learns multipliers for one SKU and returns both the learned
// values and any undeclared candidate patterns found.
func (h *EventHandler) LearnEvents(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		errorResponse(c, http.StatusBadRequest, "sku is required")
		return
	}

	learned, candidates, err := h.service.LearnEvents(c.Request.Context(), sku, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Str("sku", sku).Msg("event learning failed")
		errorResponse(c, http.StatusInternalServerError, "event learning failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sku":        sku,
		"learned":    learned,
		"candidates": candidates,
	})
}
