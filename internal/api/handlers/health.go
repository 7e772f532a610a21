// Package handlers implements the HTTP command surface of tinker-voice.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	domain "github.com/bledden/tinker-voice/pkg/types"
)

// KeyStatuser reports vendor key status.
type KeyStatuser interface {
	Status() []domain.KeyStatus
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	keys KeyStatuser
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(keys KeyStatuser) *HealthHandler {
	return &HealthHandler{keys: keys}
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 503 when a configured vendor key failed its last
// connection test. Untested keys count as ready.
func (h *HealthHandler) Readyz(c echo.Context) error {
	var failing []domain.Service
	for _, st := range h.keys.Status() {
		if st.Configured && st.Valid != nil && !*st.Valid {
			failing = append(failing, st.Service)
		}
	}
	if len(failing) > 0 {
		return c.JSON(http.StatusServiceUnavailable, ReadinessResponse{
			Status:  "unavailable",
			Failing: failing,
		})
	}
	return c.JSON(http.StatusOK, ReadinessResponse{Status: "ready"})
}
