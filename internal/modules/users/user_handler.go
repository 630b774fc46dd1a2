package users

import (
	"net/http"

	"ecocollect/internal/models"
	"ecocollect/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for accounts, profiles and workers.
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new user handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Signup handles POST /auth/signup
func (h *Handler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	resp, err := h.service.Signup(c.Request().Context(), req)
	if err != nil {
		if err == models.ErrConflict {
			return utils.RespondWithError(c, http.StatusConflict, "An account with this email already exists")
		}
		return utils.HandleServiceError(c, err, "Failed to sign up")
	}
	return utils.RespondWithJSON(c, http.StatusCreated, resp)
}

// Login handles POST /auth/login
func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	resp, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to log in")
	}
	return utils.RespondWithJSON(c, http.StatusOK, resp)
}

// GoogleLogin handles GET /auth/google
func (h *Handler) GoogleLogin(c echo.Context) error {
	url, err := h.service.HandleGoogleLogin()
	if err != nil {
		return utils.HandleServiceError(c, err, "Google login is not available")
	}
	return c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback handles GET /auth/google/callback
func (h *Handler) GoogleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "Missing authorization code")
	}

	resp, err := h.service.HandleGoogleCallback(c.Request().Context(), code)
	if err != nil {
		return utils.HandleServiceError(c, err, "Google sign-in failed")
	}
	return utils.RespondWithJSON(c, http.StatusOK, resp)
}

// GetProfile handles GET /profile
func (h *Handler) GetProfile(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	user, err := h.service.GetUserProfile(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to get profile")
	}
	return utils.RespondWithJSON(c, http.StatusOK, user)
}

// UpdateProfile handles PUT /profile
func (h *Handler) UpdateProfile(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.UserUpdateData
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.service.UpdateUserProfile(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to update profile")
	}
	return utils.RespondWithJSON(c, http.StatusOK, user)
}

// ListAddresses handles GET /profile/addresses
func (h *Handler) ListAddresses(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	addresses, err := h.service.ListAddresses(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to list addresses")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"addresses": addresses})
}

// AddAddress handles POST /profile/addresses
func (h *Handler) AddAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.AddAddressRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	addr, err := h.service.AddAddress(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to add address")
	}
	return utils.RespondWithJSON(c, http.StatusCreated, addr)
}

// UpdateAddress handles PUT /profile/addresses/:addressId
func (h *Handler) UpdateAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.UpdateAddressRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}

	addr, err := h.service.UpdateAddress(c.Request().Context(), userID, c.Param("addressId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to update address")
	}
	return utils.RespondWithJSON(c, http.StatusOK, addr)
}

// DeleteAddress handles DELETE /profile/addresses/:addressId
func (h *Handler) DeleteAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	if err := h.service.DeleteAddress(c.Request().Context(), userID, c.Param("addressId")); err != nil {
		return utils.HandleServiceError(c, err, "Failed to delete address")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"message": "Address deleted"})
}

// RateWorker handles POST /users/worker/:workerId/rate
func (h *Handler) RateWorker(c echo.Context) error {
	if _, _, err := utils.ExtractUserInfo(c); err != nil {
		return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid user credentials")
	}

	var req models.RateWorkerRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	if err := h.service.RateWorker(c.Request().Context(), c.Param("workerId"), req.Score); err != nil {
		return utils.HandleServiceError(c, err, "Failed to rate worker")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"message": "Rating recorded"})
}

// AdminRegisterWorker handles POST /users/admin/workers
func (h *Handler) AdminRegisterWorker(c echo.Context) error {
	var req models.RegisterWorkerRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.service.AdminRegisterWorker(c.Request().Context(), req)
	if err != nil {
		if err == models.ErrConflict {
			return utils.RespondWithError(c, http.StatusConflict, "An account with this email already exists")
		}
		return utils.HandleServiceError(c, err, "Failed to register worker")
	}
	return utils.RespondWithJSON(c, http.StatusCreated, user)
}

// AdminListWorkers handles GET /users/admin/workers
func (h *Handler) AdminListWorkers(c echo.Context) error {
	page, limit := utils.GetPageLimit(c)
	workers, total, err := h.service.AdminListWorkers(c.Request().Context(), c.QueryParam("area"), page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to list workers")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"workers": workers,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// AdminSetWorkerStatus handles PUT /users/admin/workers/:workerId/status
func (h *Handler) AdminSetWorkerStatus(c echo.Context) error {
	var req models.SetWorkerStatusRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	if err := h.service.AdminSetWorkerStatus(c.Request().Context(), c.Param("workerId"), models.WorkerStatus(req.Status)); err != nil {
		return utils.HandleServiceError(c, err, "Failed to update worker status")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"message": "Worker status updated"})
}
