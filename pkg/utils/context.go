package utils

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ExtractUserInfo reads the authenticated user's ID and role from the
// request context, where the JWT middleware stored them.
func ExtractUserInfo(c echo.Context) (userID string, role string, err error) {
	id, ok := c.Get("userID").(string)
	if !ok || id == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication context")
	}
	r, _ := c.Get("userRole").(string)
	return id, r, nil
}

// GetPageLimit parses pagination query parameters with sane bounds.
func GetPageLimit(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// GetFloatParam parses a float query parameter, falling back to def when the
// parameter is absent or malformed.
func GetFloatParam(c echo.Context, name string, def float64) float64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}
