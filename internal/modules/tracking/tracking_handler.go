package tracking

import (
	"net/http"

	"ecocollect/internal/models"
	"ecocollect/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for live tracking.
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new tracking handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ReportLocation handles POST /users/live-location
func (h *Handler) ReportLocation(c echo.Context) error {
	workerID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.LiveLocationRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	if err := h.service.Report(c.Request().Context(), workerID, req); err != nil {
		return utils.HandleServiceError(c, err, "Failed to update location")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"message": "Location updated"})
}

// SetDutyStatus handles POST /users/duty-status
func (h *Handler) SetDutyStatus(c echo.Context) error {
	workerID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.DutyStatusRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}

	if err := h.service.SetDuty(c.Request().Context(), workerID, req.IsOnDuty); err != nil {
		return utils.HandleServiceError(c, err, "Failed to update duty status")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"message":    "Duty status updated",
		"is_on_duty": req.IsOnDuty,
	})
}

// TrackOrder handles GET /orders/track/:orderId
func (h *Handler) TrackOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	view, err := h.service.Track(c.Request().Context(), userID, c.Param("orderId"))
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to track order")
	}
	return utils.RespondWithJSON(c, http.StatusOK, view)
}

// NearbyWorkers handles GET /users/nearby. The route is public so the
// landing page can show collectors around a visitor before signup.
func (h *Handler) NearbyWorkers(c echo.Context) error {
	lat := utils.GetFloatParam(c, "lat", 0)
	lng := utils.GetFloatParam(c, "lng", 0)
	if lat == 0 && lng == 0 {
		return utils.RespondWithError(c, http.StatusBadRequest, "lat and lng query parameters are required")
	}
	radius := utils.GetFloatParam(c, "radius", DefaultNearbyRadiusKm)

	workers, err := h.service.NearbyWorkers(c.Request().Context(), lat, lng, radius)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to find nearby workers")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"workers":   workers,
		"radius_km": radius,
	})
}
