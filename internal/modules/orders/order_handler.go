package orders

import (
	"net/http"
	"time"

	"ecocollect/internal/models"
	"ecocollect/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new order handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CreateOrder handles POST /orders
func (h *Handler) CreateOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	order, err := h.service.Create(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to create order")
	}
	return utils.RespondWithJSON(c, http.StatusCreated, order)
}

// ListMyOrders handles GET /orders/my-orders
func (h *Handler) ListMyOrders(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	page, limit := utils.GetPageLimit(c)
	var status *models.OrderStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := models.OrderStatus(raw)
		status = &s
	}

	orders, total, err := h.service.ListMyOrders(c.Request().Context(), userID, status, page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to list orders")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetOrder handles GET /orders/:orderId
func (h *Handler) GetOrder(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	orderID := c.Param("orderId")
	order, err := h.service.GetOrder(c.Request().Context(), userID, models.Role(role), orderID)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to get order")
	}
	return utils.RespondWithJSON(c, http.StatusOK, order)
}

// CancelOrder handles PUT /orders/:orderId/cancel
func (h *Handler) CancelOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	if err := h.service.Cancel(c.Request().Context(), userID, c.Param("orderId"), req.Reason); err != nil {
		return utils.HandleServiceError(c, err, "Failed to cancel order")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"message": "Order cancelled successfully"})
}

// RateOrder handles POST /orders/:orderId/rate
func (h *Handler) RateOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.RateOrderRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	if err := h.service.Rate(c.Request().Context(), userID, c.Param("orderId"), req); err != nil {
		return utils.HandleServiceError(c, err, "Failed to rate order")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"message": "Thanks for your feedback"})
}

// MyStats handles GET /orders/stats
func (h *Handler) MyStats(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	stats, err := h.service.Stats(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to get order stats")
	}
	return utils.RespondWithJSON(c, http.StatusOK, stats)
}

// WorkerOrders handles GET /orders/worker/assigned
func (h *Handler) WorkerOrders(c echo.Context) error {
	workerID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	activeOnly := c.QueryParam("active") == "true"
	orders, err := h.service.ListWorkerOrders(c.Request().Context(), workerID, activeOnly)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to list assigned orders")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"orders": orders})
}

// UpdateOrderStatus handles PUT /orders/worker/status/:orderId and
// PUT /orders/admin/status/:orderId
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	actorID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	order, err := h.service.UpdateStatus(c.Request().Context(), actorID, models.Role(role), c.Param("orderId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to update order status")
	}
	return utils.RespondWithJSON(c, http.StatusOK, order)
}

// AdminListOrders handles GET /orders/admin/all
func (h *Handler) AdminListOrders(c echo.Context) error {
	page, limit := utils.GetPageLimit(c)

	var filter AdminListFilter
	if raw := c.QueryParam("status"); raw != "" {
		s := models.OrderStatus(raw)
		filter.Status = &s
	}
	filter.Area = c.QueryParam("area")
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return utils.RespondWithError(c, http.StatusBadRequest, "Invalid date filter, expected YYYY-MM-DD")
		}
		filter.Date = &d
	}

	orders, total, err := h.service.ListAllOrders(c.Request().Context(), filter, page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to list orders")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}
