package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecocollect/internal/models"

	"github.com/labstack/echo/v4"
)

func serveError(t *testing.T, err error, fallback string) (int, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := HandleServiceError(c, err, fallback); err != nil {
		t.Fatalf("HandleServiceError returned %v", err)
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return rec.Code, body.Message
}

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrIllegalTransition, http.StatusBadRequest},
		{models.ErrScanExpired, http.StatusBadRequest},
		{models.ErrQuotaExceeded, http.StatusForbidden},
		{models.ErrWorkerOffDuty, http.StatusForbidden},
		{models.ErrOrderUnavailable, http.StatusConflict},
		{models.ErrInvalidCredentials, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("service.Op: %w", tc.err)
		code, _ := serveError(t, wrapped, "Request failed")
		if code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, code, tc.want)
		}
	}
}

func TestHandleServiceErrorUnknownUsesFallback(t *testing.T) {
	code, msg := serveError(t, errors.New("pq: connection reset"), "Failed to create order")
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", code, http.StatusInternalServerError)
	}
	if msg != "Failed to create order" {
		t.Errorf("message = %q, want the fallback", msg)
	}
	if msg == "pq: connection reset" {
		t.Error("internal error text leaked to the client")
	}
}
