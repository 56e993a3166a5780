package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/forecast"
	"github.com/voyantic/farecast/internal/models"
	"github.com/voyantic/farecast/internal/services"
)

const defaultHorizon = 7

// Predictor is the slice of the prediction service the forecast handler
// consumes.
type Predictor interface {
	Predict(ctx context.Context, origin, destination, airline string, horizon int, strategy forecast.Strategy) (*models.PricePrediction, error)
}

type ForecastHandler struct {
	predictor Predictor
	logger    *logrus.Logger
}

type PredictRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	Airline     string `json:"airline"`
	Horizon     int    `json:"horizon"`
	Strategy    string `json:"strategy"`
}

type BatchPredictRequest struct {
	Requests []PredictRequest `json:"requests" binding:"required"`
}

type BatchPredictEntry struct {
	Origin      string                  `json:"origin"`
	Destination string                  `json:"destination"`
	Prediction  *models.PricePrediction `json:"prediction,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

type BatchPredictResponse struct {
	Results   []BatchPredictEntry `json:"results"`
	Count     int                 `json:"count"`
	Failed    int                 `json:"failed"`
	Timestamp time.Time           `json:"timestamp"`
}

func NewForecastHandler(predictor Predictor, logger *logrus.Logger) *ForecastHandler {
	return &ForecastHandler{predictor: predictor, logger: logger}
}

// Predict handles POST /api/v1/forecast/predict.
func (h *ForecastHandler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Horizon == 0 {
		req.Horizon = defaultHorizon
	}

	prediction, err := h.predictor.Predict(c.Request.Context(), req.Origin, req.Destination, req.Airline, req.Horizon, forecast.Strategy(req.Strategy))
	if err != nil {
		h.renderPredictError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

// BatchPredict handles POST /api/v1/forecast/batch. Routes are forecast
// independently; a failed route reports inline instead of failing the batch.
func (h *ForecastHandler) BatchPredict(c *gin.Context) {
	var req BatchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Requests) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requests must not be empty"})
		return
	}

	response := BatchPredictResponse{
		Results:   make([]BatchPredictEntry, 0, len(req.Requests)),
		Timestamp: time.Now().UTC(),
	}
	for _, r := range req.Requests {
		if r.Horizon == 0 {
			r.Horizon = defaultHorizon
		}
		entry := BatchPredictEntry{Origin: r.Origin, Destination: r.Destination}
		prediction, err := h.predictor.Predict(c.Request.Context(), r.Origin, r.Destination, r.Airline, r.Horizon, forecast.Strategy(r.Strategy))
		if err != nil {
			entry.Error = err.Error()
			response.Failed++
			h.logger.WithError(err).WithField("route", r.Origin+"-"+r.Destination).Warn("Batch route failed")
		} else {
			entry.Prediction = prediction
		}
		response.Results = append(response.Results, entry)
	}
	response.Count = len(response.Results)
	c.JSON(http.StatusOK, response)
}

// RouteForecast handles GET /api/v1/forecast/routes/:route where the route
// parameter is "ORIGIN-DESTINATION".
func (h *ForecastHandler) RouteForecast(c *gin.Context) {
	parts := strings.SplitN(c.Param("route"), "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "route must be ORIGIN-DESTINATION"})
		return
	}

	horizon := defaultHorizon
	if raw := c.Query("horizon"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "horizon must be an integer"})
			return
		}
		horizon = parsed
	}

	prediction, err := h.predictor.Predict(c.Request.Context(), parts[0], parts[1], c.Query("airline"), horizon, forecast.Strategy(c.Query("strategy")))
	if err != nil {
		h.renderPredictError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

func (h *ForecastHandler) renderPredictError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoHistory):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, forecast.ErrInvalidHorizon),
		errors.Is(err, forecast.ErrUnknownStrategy),
		errors.Is(err, forecast.ErrEmptyDataset):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate forecast"})
	}
}
