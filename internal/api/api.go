// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/api/handlers"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/api/middleware"
	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/service"
)

type Services struct {
	ForecastService *service.ForecastService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil && services.ForecastService != nil {
		forecastHandler := handlers.NewForecastHandler(services.ForecastService)
		forecastGroup := apiGroup.Group("/forecast")
		{
			forecastGroup.GET("/:sku", forecastHandler.GetForecast)
			forecastGroup.POST("/:sku/run", forecastHandler.RunForecast)
			forecastGroup.POST("/run", forecastHandler.RunAll)
			forecastGroup.GET("/:sku/alerts", forecastHandler.GetAlerts)
			forecastGroup.GET("/:sku/recommendation", forecastHandler.GetRecommendation)
		}

		eventHandler := handlers.NewEventHandler(services.ForecastService)
		eventGroup := apiGroup.Group("/events")
		{
			eventGroup.GET("", eventHandler.ListEvents)
			eventGroup.POST("", eventHandler.SaveEvent)
			eventGroup.DELETE("/:id", eventHandler.DeactivateEvent)
			eventGroup.POST("/learn/:sku", eventHandler.LearnEvents)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
