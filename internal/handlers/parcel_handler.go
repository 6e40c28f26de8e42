package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/landsync/internal/errors"
	"github.com/stwalsh4118/landsync/internal/middleware"
	"github.com/stwalsh4118/landsync/internal/services"
)

// ParcelHandler handles parcel and landholder lookups.
type ParcelHandler struct {
	service services.ParcelService
}

// NewParcelHandler creates a new ParcelHandler instance.
func NewParcelHandler(service services.ParcelService) *ParcelHandler {
	return &ParcelHandler{
		service: service,
	}
}

// GetParcel handles GET /api/v1/parcels/:code.
func (h *ParcelHandler) GetParcel(c *gin.Context) {
	code := c.Param("code")

	detail, err := h.service.GetParcel(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCode) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		if errors.Is(err, services.ErrParcelNotFound) {
			apierrors.NotFound(c, "No parcel found with this code")
			return
		}
		apierrors.InternalServerError(c, "Failed to query parcel data", err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Parcel lookup", map[string]interface{}{
			"code":   detail.Parcel.Code,
			"status": detail.Parcel.Status,
		})
	}

	c.JSON(http.StatusOK, detail)
}

// GetLandholder handles GET /api/v1/landholders/:code.
func (h *ParcelHandler) GetLandholder(c *gin.Context) {
	code := c.Param("code")

	detail, err := h.service.GetLandholder(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCode) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		if errors.Is(err, services.ErrLandholderNotFound) {
			apierrors.NotFound(c, "No landholder found with this code")
			return
		}
		apierrors.InternalServerError(c, "Failed to query landholder data", err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
