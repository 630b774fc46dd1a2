package assignment

import (
	"net/http"

	"ecocollect/internal/models"
	"ecocollect/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for order assignment.
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new assignment handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// AvailableOrders handles GET /orders/worker/pending
func (h *Handler) AvailableOrders(c echo.Context) error {
	workerID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	lat := utils.GetFloatParam(c, "lat", 0)
	lng := utils.GetFloatParam(c, "lng", 0)
	if lat == 0 && lng == 0 {
		return utils.RespondWithError(c, http.StatusBadRequest, "lat and lng query parameters are required")
	}
	radius := utils.GetFloatParam(c, "radius", DefaultDiscoveryRadiusKm)
	area := c.QueryParam("area")

	orders, err := h.service.Discover(c.Request().Context(), workerID, lat, lng, radius, area)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to discover orders")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"orders":    orders,
		"radius_km": radius,
	})
}

// SelfAssign handles POST /orders/worker/assign/:orderId
func (h *Handler) SelfAssign(c echo.Context) error {
	workerID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	if err := h.service.SelfAssign(c.Request().Context(), workerID, c.Param("orderId")); err != nil {
		return utils.HandleServiceError(c, err, "Failed to claim order")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"message": "Order assigned to you"})
}

// AdminAssign handles POST /orders/admin/assign/:orderId
func (h *Handler) AdminAssign(c echo.Context) error {
	adminID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.AssignOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	if err := h.service.AdminAssign(c.Request().Context(), adminID, c.Param("orderId"), req.WorkerID); err != nil {
		return utils.HandleServiceError(c, err, "Failed to assign order")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"message": "Order assigned"})
}
