package scans

import (
	"net/http"

	"ecocollect/internal/models"
	"ecocollect/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for scan records.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new scan handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// IngestScan stores an analysis result handed over by the AI pipeline.
func (h *Handler) IngestScan(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.IngestScanRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	scan, err := h.svc.Ingest(c.Request().Context(), &userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to save scan")
	}
	return utils.RespondWithJSON(c, http.StatusCreated, scan)
}

// ListMyScans returns the caller's scan history.
func (h *Handler) ListMyScans(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	page, limit := utils.GetPageLimit(c)
	scans, total, err := h.svc.ListMyScans(c.Request().Context(), userID, page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err, "Failed to list scans")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"scans": scans, "total": total})
}
