package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"air-quality-api/internal/models"
	"air-quality-api/internal/services"
	"air-quality-api/pkg/lambda"
)

// AirQualityHandler handles air-quality HTTP requests for both the gin
// server and the per-endpoint Lambda functions.
type AirQualityHandler struct {
	service services.AirQualityService
	logger  *logrus.Logger
}

// NewAirQualityHandler creates a new air-quality handler
func NewAirQualityHandler(service services.AirQualityService, logger *logrus.Logger) *AirQualityHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AirQualityHandler{
		service: service,
		logger:  logger,
	}
}

// LocationsResponse is the payload for the above-average endpoint
type LocationsResponse struct {
	Locations []string `json:"locations"`
}

// @Summary Current air quality for a location
// @Description Get the most recent air-quality reading for a location
// @Tags air_quality
// @Produce json
// @Param location path string true "Location name"
// @Success 200 {object} models.Reading
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /air_quality/current/{location} [get]
func (h *AirQualityHandler) GetCurrentAirQuality(c *gin.Context) {
	location := strings.TrimSpace(c.Param("location"))
	if location == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: "location is required",
		})
		return
	}

	reading, err := h.service.GetCurrentReading(c.Request.Context(), location)
	if err != nil {
		h.respondError(c, "get_current", location, err)
		return
	}

	c.JSON(http.StatusOK, reading)
}

// @Summary Locations exceeding the AQI threshold
// @Description List locations whose latest reading exceeds the threshold
// @Tags air_quality
// @Produce json
// @Success 200 {object} LocationsResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /air_quality/above_avg_locations [get]
func (h *AirQualityHandler) GetAboveAverageLocations(c *gin.Context) {
	locations, err := h.service.GetExceedingLocations(c.Request.Context())
	if err != nil {
		h.respondError(c, "above_avg", "", err)
		return
	}

	if len(locations) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not found",
			Message: "no locations exceed the threshold on the most recent date",
		})
		return
	}

	c.JSON(http.StatusOK, LocationsResponse{Locations: locations})
}

// @Summary Air-quality trend for a location
// @Description Get the trend report and reading series for a location
// @Tags air_quality
// @Produce json
// @Param location path string true "Location name"
// @Param timeframe query string false "Trend window" Enums(week, month) default(week)
// @Success 200 {object} models.TrendReport
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /air_quality/get_air_quality_trend/{location} [get]
func (h *AirQualityHandler) GetAirQualityTrend(c *gin.Context) {
	location := strings.TrimSpace(c.Param("location"))
	if location == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: "location is required",
		})
		return
	}

	timeframe, err := models.ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	report, err := h.service.GetTrend(c.Request.Context(), location, timeframe)
	if err != nil {
		h.respondError(c, "trend", location, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *AirQualityHandler) respondError(c *gin.Context, operation, location string, err error) {
	status, body := translateError(err)

	if status == http.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"operation": operation,
			"location":  location,
			"error":     err.Error(),
		}).Error("Request failed")
	}

	c.JSON(status, body)
}

// Lambda handler methods. Each Lambda function routes its API Gateway
// event here after converting it to the transport-agnostic request type.

// HandleCurrent serves the current-reading endpoint for Lambda
func (h *AirQualityHandler) HandleCurrent(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	location := strings.TrimSpace(req.PathParams["location"])
	if location == "" {
		return jsonResponse(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: "location is required",
		}), nil
	}

	reading, err := h.service.GetCurrentReading(ctx, location)
	if err != nil {
		return h.errorResponse("get_current", location, err), nil
	}

	return jsonResponse(http.StatusOK, reading), nil
}

// HandleAboveAverage serves the above-average endpoint for Lambda
func (h *AirQualityHandler) HandleAboveAverage(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	locations, err := h.service.GetExceedingLocations(ctx)
	if err != nil {
		return h.errorResponse("above_avg", "", err), nil
	}

	if len(locations) == 0 {
		return jsonResponse(http.StatusNotFound, ErrorResponse{
			Error:   "Not found",
			Message: "no locations exceed the threshold on the most recent date",
		}), nil
	}

	return jsonResponse(http.StatusOK, LocationsResponse{Locations: locations}), nil
}

// HandleTrend serves the trend endpoint for Lambda
func (h *AirQualityHandler) HandleTrend(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	location := strings.TrimSpace(req.PathParams["location"])
	if location == "" {
		return jsonResponse(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: "location is required",
		}), nil
	}

	timeframe, err := models.ParseTimeframe(req.QueryParams["timeframe"])
	if err != nil {
		return jsonResponse(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		}), nil
	}

	report, err := h.service.GetTrend(ctx, location, timeframe)
	if err != nil {
		return h.errorResponse("trend", location, err), nil
	}

	return jsonResponse(http.StatusOK, report), nil
}

func (h *AirQualityHandler) errorResponse(operation, location string, err error) *lambda.Response {
	status, body := translateError(err)

	if status == http.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"operation": operation,
			"location":  location,
			"error":     err.Error(),
		}).Error("Request failed")
	}

	return jsonResponse(status, body)
}

func jsonResponse(status int, payload interface{}) *lambda.Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return &lambda.Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(`{"error": "Internal server error"}`),
		}
	}

	return &lambda.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}
