package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"air-quality-api/internal/services"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	AirQualityService services.AirQualityService
	Logger            *logrus.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	handler := NewAirQualityHandler(config.AirQualityService, config.Logger)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "air-quality-api",
			"timestamp": time.Now().UTC(),
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		airQuality := v1.Group("/air_quality")
		{
			airQuality.GET("/current/:location", handler.GetCurrentAirQuality)
			airQuality.GET("/above_avg_locations", handler.GetAboveAverageLocations)
			airQuality.GET("/get_air_quality_trend/:location", handler.GetAirQualityTrend)
		}
	}
}
