package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/amadeus"
	"github.com/voyantic/farecast/internal/models"
	"github.com/voyantic/farecast/internal/services"
)

// PackageBuilder is the slice of the bundle service this handler consumes.
type PackageBuilder interface {
	Build(ctx context.Context, req services.BundleRequest) (*models.TravelPackage, error)
}

type PackagesHandler struct {
	bundler PackageBuilder
	logger  *logrus.Logger
}

func NewPackagesHandler(bundler PackageBuilder, logger *logrus.Logger) *PackagesHandler {
	return &PackagesHandler{bundler: bundler, logger: logger}
}

// Bundle handles POST /api/v1/packages/bundle.
func (h *PackagesHandler) Bundle(c *gin.Context) {
	var req services.BundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.bundler.Build(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, amadeus.ErrNoOffers) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to build package")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build package"})
		return
	}
	c.JSON(http.StatusCreated, pkg)
}
