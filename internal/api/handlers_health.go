// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/spam-detector/webui/internal/storage"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version    string
	apiBaseURL string
	store      storage.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, apiBaseURL string, store storage.Store) HealthHandler {
	return &HealthHandlerImpl{
		version:    version,
		apiBaseURL: apiBaseURL,
		store:      store,
	}
}

// HandleHealth reports the UI server's own liveness and the number of held
// uploads. It does not call the prediction API; the probe view does that.
// The response is always JSON, including the 503 for a broken upload store.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	if h.store == nil {
		apiErr := NewServiceUnavailableError("upload store is not configured")
		return c.JSON(apiErr.Status, apiErr)
	}

	uploads, err := h.store.List(0)
	if err != nil {
		apiErr := NewServiceUnavailableError("upload store is unavailable")
		apiErr.Details = err.Error()
		return c.JSON(apiErr.Status, apiErr)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"api":     h.apiBaseURL,
		"uploads": len(uploads),
	})
}
