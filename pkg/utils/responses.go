package utils

import (
	"errors"
	"net/http"

	"ecocollect/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes a JSON payload with the given status code.
func RespondWithJSON(c echo.Context, code int, payload interface{}) error {
	return c.JSON(code, payload)
}

// RespondWithError writes a JSON error body with the given status code.
func RespondWithError(c echo.Context, code int, message string) error {
	return c.JSON(code, models.ErrorResponse{Message: message})
}

// HandleServiceError maps domain errors to HTTP responses. Unknown errors
// are logged and reported as a 500 with the caller's fallback message so
// internals never leak.
func HandleServiceError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrScanNotFound),
		errors.Is(err, models.ErrScanExpired),
		errors.Is(err, models.ErrIllegalTransition),
		errors.Is(err, models.ErrOrderNotCancellable),
		errors.Is(err, models.ErrOrderNotCompleted),
		errors.Is(err, models.ErrAlreadyRated):
		return RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrSubscriptionRequired),
		errors.Is(err, models.ErrSubscriptionInactive),
		errors.Is(err, models.ErrQuotaExceeded),
		errors.Is(err, models.ErrWorkerOffDuty),
		errors.Is(err, models.ErrWorkerInactive):
		return RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrOrderUnavailable),
		errors.Is(err, models.ErrConflict):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrInvalidToken):
		return RespondWithError(c, http.StatusUnauthorized, err.Error())
	default:
		c.Logger().Errorf("unexpected service error: %v", err)
		if fallback == "" {
			fallback = "Something went wrong"
		}
		return RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
