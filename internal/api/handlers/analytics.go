package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/models"
	"github.com/voyantic/farecast/internal/services"
)

// TrendReader is the slice of the trend service this handler consumes.
type TrendReader interface {
	RouteTrend(ctx context.Context, origin, destination string, days int) (*models.RouteTrend, error)
}

type AnalyticsHandler struct {
	trends TrendReader
	logger *logrus.Logger
}

func NewAnalyticsHandler(trends TrendReader, logger *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{trends: trends, logger: logger}
}

// Trends handles GET /api/v1/analytics/trends.
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	if origin == "" || destination == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and destination parameters are required"})
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	trend, err := h.trends.RouteTrend(c.Request.Context(), origin, destination, days)
	if err != nil {
		if errors.Is(err, services.ErrNoHistory) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Trend lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute trend"})
		return
	}
	c.JSON(http.StatusOK, trend)
}
