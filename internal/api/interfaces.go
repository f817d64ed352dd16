// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/spam-detector/webui/internal/models"
)

// Predictor is the part of the prediction API client the handlers use.
type Predictor interface {
	Health(ctx context.Context) (json.RawMessage, error)
	PredictSpam(ctx context.Context, subject *string, text string) (*models.Prediction, error)
	PredictBatchFile(ctx context.Context, fileName string, r io.Reader) (*models.BatchResponse, error)
	Probe(ctx context.Context, text string) (*models.ProbeResult, error)
}

// Notifier delivers a transient message to the user who triggered an action.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

// PredictHandler handles the single-text view
type PredictHandler interface {
	HandlePredictPage(c echo.Context) error
	HandlePredict(c echo.Context) error
	HandleClear(c echo.Context) error
	HandleResultJSON(c echo.Context) error
}

// BatchHandler handles the batch upload view
type BatchHandler interface {
	HandleBatchPage(c echo.Context) error
	HandleUpload(c echo.Context) error
	HandleSubmit(c echo.Context) error
	HandleExportCSV(c echo.Context) error
	HandleExportXLSX(c echo.Context) error
	HandleResults(c echo.Context) error
}

// ProbeHandler handles the diagnostic probe view
type ProbeHandler interface {
	HandleProbePage(c echo.Context) error
	HandleProbeHealth(c echo.Context) error
	HandleProbePredict(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
