package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/models"
	"github.com/voyantic/farecast/internal/services"
)

// AlertManager is the slice of the alert service this handler consumes.
type AlertManager interface {
	CreateAlert(ctx context.Context, alert models.PriceAlert) (*models.PriceAlert, error)
	GetAlert(ctx context.Context, id string) (*models.PriceAlert, error)
	ListAlerts(ctx context.Context, email string) ([]models.PriceAlert, error)
	DeactivateAlert(ctx context.Context, id string) error
	DeleteAlert(ctx context.Context, id string) error
}

type AlertsHandler struct {
	alerts AlertManager
	logger *logrus.Logger
}

type CreateAlertRequest struct {
	UserEmail     string          `json:"user_email" binding:"required,email"`
	Origin        string          `json:"origin" binding:"required"`
	Destination   string          `json:"destination" binding:"required"`
	TargetPrice   decimal.Decimal `json:"target_price" binding:"required"`
	DepartureDate string          `json:"departure_date" binding:"required"`
	CabinClass    string          `json:"cabin_class"`
}

type AlertsResponse struct {
	Alerts []models.PriceAlert `json:"alerts"`
	Count  int                 `json:"count"`
}

func NewAlertsHandler(alerts AlertManager, logger *logrus.Logger) *AlertsHandler {
	return &AlertsHandler{alerts: alerts, logger: logger}
}

// Create handles POST /api/v1/alerts.
func (h *AlertsHandler) Create(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.alerts.CreateAlert(c.Request.Context(), models.PriceAlert{
		UserEmail:     req.UserEmail,
		Origin:        req.Origin,
		Destination:   req.Destination,
		TargetPrice:   req.TargetPrice,
		DepartureDate: req.DepartureDate,
		CabinClass:    req.CabinClass,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidAlert) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to create alert")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create alert"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List handles GET /api/v1/alerts.
func (h *AlertsHandler) List(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email parameter is required"})
		return
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, AlertsResponse{Alerts: alerts, Count: len(alerts)})
}

// Get handles GET /api/v1/alerts/:id.
func (h *AlertsHandler) Get(c *gin.Context) {
	alert, err := h.alerts.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Deactivate handles PUT /api/v1/alerts/:id/deactivate.
func (h *AlertsHandler) Deactivate(c *gin.Context) {
	if err := h.alerts.DeactivateAlert(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

// Delete handles DELETE /api/v1/alerts/:id.
func (h *AlertsHandler) Delete(c *gin.Context) {
	if err := h.alerts.DeleteAlert(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.WithError(err).Error("Failed to delete alert")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
