// routes.go - Route registration helpers
// This file provides a clean way to register all routes
package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spam-detector/webui/internal/metrics"
	"github.com/spam-detector/webui/internal/parser"
	"github.com/spam-detector/webui/internal/session"
	"github.com/spam-detector/webui/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Client        Predictor
	Store         storage.Store
	Sessions      *session.Manager
	Limits        parser.Limits
	Version       string
	APIBaseURL    string
	Logger        *zap.Logger
	CookieName    string
	SessionMaxAge time.Duration
	// Notifier overrides how batch failures reach the user. Nil means
	// the caller's session notices.
	Notifier      NotifierSource
	EnableMetrics bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Predict PredictHandler
	Batch   BatchHandler
	Probe   ProbeHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.APIBaseURL, deps.Store),
		Predict: NewPredictHandler(deps.Client, deps.Limits.MaxTextLength, deps.APIBaseURL, logger),
		Batch:   NewBatchHandler(deps.Client, deps.Store, deps.Limits, deps.Notifier, deps.APIBaseURL, logger),
		Probe:   NewProbeHandler(deps.Client, deps.APIBaseURL, logger),
	}
}

// RegisterRoutes registers all page and API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, deps *Dependencies) {
	// Liveness and metrics stay outside the session middleware
	e.GET("/healthz", handlers.Health.HandleHealth)
	if deps.EnableMetrics {
		e.GET("/metrics", metrics.Handler())
	}

	withSession := SessionMiddleware(deps.Sessions, deps.CookieName, deps.SessionMaxAge)

	// Single-text view
	e.GET("/", handlers.Predict.HandlePredictPage, withSession)
	predictGroup := e.Group("/predict", withSession)
	predictGroup.POST("", handlers.Predict.HandlePredict)
	predictGroup.POST("/clear", handlers.Predict.HandleClear)
	predictGroup.GET("/result.json", handlers.Predict.HandleResultJSON)

	// Batch view
	batchGroup := e.Group("/batch", withSession)
	batchGroup.GET("", handlers.Batch.HandleBatchPage)
	batchGroup.POST("/upload", handlers.Batch.HandleUpload)
	batchGroup.POST("/submit", handlers.Batch.HandleSubmit)
	batchGroup.GET("/export.csv", handlers.Batch.HandleExportCSV)
	batchGroup.GET("/export.xlsx", handlers.Batch.HandleExportXLSX)
	e.GET("/api/batch/results", handlers.Batch.HandleResults, withSession)

	// Probe view
	probeGroup := e.Group("/probe", withSession)
	probeGroup.GET("", handlers.Probe.HandleProbePage)
	probeGroup.POST("/health", handlers.Probe.HandleProbeHealth)
	probeGroup.POST("/predict", handlers.Probe.HandleProbePredict)
}

// SetupMiddleware configures the error handler and page renderer
func SetupMiddleware(e *echo.Echo, renderer echo.Renderer) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
	e.Renderer = renderer
}
