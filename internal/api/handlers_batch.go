// handlers_batch.go - CSV batch upload, submit and export handlers
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spam-detector/webui/internal/client"
	"github.com/spam-detector/webui/internal/export"
	"github.com/spam-detector/webui/internal/metrics"
	"github.com/spam-detector/webui/internal/models"
	"github.com/spam-detector/webui/internal/parser"
	"github.com/spam-detector/webui/internal/session"
	"github.com/spam-detector/webui/internal/storage"
	"github.com/spam-detector/webui/internal/web"
)

// NotifierSource picks the notifier for a request.
type NotifierSource func(c echo.Context) Notifier

// SessionNotifier delivers notices through the caller's session.
func SessionNotifier(c echo.Context) Notifier {
	s, err := currentSession(c)
	if err != nil {
		return NotifierFunc(func(string) {})
	}
	return s
}

// BatchHandlerImpl implements the BatchHandler interface
type BatchHandlerImpl struct {
	client     Predictor
	store      storage.Store
	limits     parser.Limits
	notifier   NotifierSource
	apiBaseURL string
	logger     *zap.Logger
	now        func() time.Time
}

// NewBatchHandler creates a new batch handler instance. Failures of upload
// and submit are reported only through notify.
func NewBatchHandler(c Predictor, store storage.Store, limits parser.Limits, notify NotifierSource, apiBaseURL string, logger *zap.Logger) BatchHandler {
	if notify == nil {
		notify = SessionNotifier
	}
	return &BatchHandlerImpl{
		client:     c,
		store:      store,
		limits:     limits,
		notifier:   notify,
		apiBaseURL: apiBaseURL,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleBatchPage renders the upload form, preview and results.
func (h *BatchHandlerImpl) HandleBatchPage(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, web.PageBatch, Page{
		Title:      "Batch",
		Active:     web.PageBatch,
		APIBaseURL: h.apiBaseURL,
		Notices:    s.DrainNotices(),
		Batch:      newBatchPage(s.Snapshot(), h.limits.MaxRows),
	})
}

// HandleUpload validates an uploaded CSV locally and, if it passes, replaces
// the held upload. A rejected file leaves the previous upload untouched.
func (h *BatchHandlerImpl) HandleUpload(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	notify := h.notifier(c)

	file, err := c.FormFile("file")
	if err != nil {
		notify.Notify(parser.MsgNotCSV)
		metrics.RecordRejectedUpload("no_file")
		return h.done(c)
	}

	if !parser.IsCSVName(file.Filename) {
		notify.Notify(parser.MsgNotCSV)
		metrics.RecordRejectedUpload("not_csv")
		return h.done(c)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(file.Filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			notify.Notify("CSV file is too large.")
			metrics.RecordRejectedUpload("too_large")
			return h.done(c)
		}
		return NewInternalError("failed to save file", err)
	}

	r, err := h.store.Open(info.ID)
	if err != nil {
		_ = h.store.Delete(info.ID)
		return NewInternalError("failed to read saved file", err)
	}

	parsed, err := parser.ParseCSV(file.Filename, r, h.limits)
	if err != nil {
		_ = h.store.Delete(info.ID)
		notify.Notify(parseMessage(err))
		metrics.RecordRejectedUpload(rejectReason(err))
		h.logger.Debug("upload rejected", zap.String("file", file.Filename), zap.Error(err))
		return h.done(c)
	}

	state := parser.Summarize(info.ID, parsed, h.limits)
	if previous := s.AcceptUpload(state); previous != "" && previous != info.ID {
		if err := h.store.Delete(previous); err != nil {
			h.logger.Debug("failed to delete replaced upload", zap.String("file", previous), zap.Error(err))
		}
	}

	h.logger.Info("upload accepted",
		zap.String("file", file.Filename),
		zap.Int("rows", state.TotalRows),
		zap.Int("ready", state.ReadyCount))

	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, map[string]interface{}{
			"file":       info,
			"totalRows":  state.TotalRows,
			"readyCount": state.ReadyCount,
		})
	}
	return h.done(c)
}

// HandleSubmit sends the held file, as uploaded, to the batch endpoint.
func (h *BatchHandlerImpl) HandleSubmit(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	notify := h.notifier(c)

	fileID, err := s.BeginBatch()
	if err != nil {
		if wantsJSON(c) {
			return NewConflictError(err.Error())
		}
		notify.Notify(submitMessage(err))
		return h.done(c)
	}

	info, err := h.store.Get(fileID)
	if err != nil {
		s.FinishBatch(fileID, nil, err)
		return storeError(err, fileID)
	}
	r, err := h.store.Open(fileID)
	if err != nil {
		s.FinishBatch(fileID, nil, err)
		return storeError(err, fileID)
	}

	resp, err := h.client.PredictBatchFile(c.Request().Context(), info.Name, r)
	if err != nil {
		s.FinishBatch(fileID, nil, err)
		msg := client.ErrorMessage(err)
		notify.Notify(msg)
		h.logger.Warn("batch prediction failed",
			zap.String("file", info.Name),
			zap.Int("upstream_status", client.StatusCode(err)),
			zap.String("message", msg))
		if wantsJSON(c) {
			return NewUpstreamError(msg, client.StatusCode(err))
		}
		return h.done(c)
	}

	if !s.FinishBatch(fileID, resp.Results, nil) {
		h.logger.Info("dropped results for replaced upload", zap.String("file", info.Name))
	}
	metrics.RecordBatch(len(resp.Results))

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, resultsEnvelope(resp.Results))
	}
	return h.done(c)
}

// HandleExportCSV downloads the held results as CSV.
func (h *BatchHandlerImpl) HandleExportCSV(c echo.Context) error {
	results, err := h.results(c)
	if err != nil {
		return err
	}

	attachment(c, export.FileName(h.now(), "csv"))
	return c.Blob(http.StatusOK, export.ContentTypeCSV, []byte(export.ResultsCSV(results)))
}

// HandleExportXLSX downloads the held results as a workbook.
func (h *BatchHandlerImpl) HandleExportXLSX(c echo.Context) error {
	results, err := h.results(c)
	if err != nil {
		return err
	}

	data, err := export.ResultsXLSX(results)
	if err != nil {
		return NewInternalError("failed to build workbook", err)
	}

	attachment(c, export.FileName(h.now(), "xlsx"))
	return c.Blob(http.StatusOK, export.ContentTypeXLSX, data)
}

// HandleResults returns the held results as JSON, or MessagePack when the
// client asks for it.
func (h *BatchHandlerImpl) HandleResults(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	results := s.Results()
	if results == nil {
		results = []models.PredictionResult{}
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), export.ContentTypeMsgpack) {
		data, err := export.ResultsMsgpack(results)
		if err != nil {
			return NewInternalError("failed to encode results", err)
		}
		return c.Blob(http.StatusOK, export.ContentTypeMsgpack, data)
	}

	return c.JSON(http.StatusOK, resultsEnvelope(results))
}

func (h *BatchHandlerImpl) results(c echo.Context) ([]models.PredictionResult, error) {
	s, err := currentSession(c)
	if err != nil {
		return nil, err
	}
	results := s.Results()
	if len(results) == 0 {
		return nil, NewNotFoundError("batch results", "")
	}
	return results, nil
}

func (h *BatchHandlerImpl) done(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/batch")
}

func resultsEnvelope(results []models.PredictionResult) map[string]interface{} {
	return map[string]interface{}{
		"results": results,
		"total":   len(results),
	}
}

func attachment(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
}

func storeError(err error, fileID string) *APIError {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("uploaded file", fileID)
	}
	return NewInternalError("failed to read uploaded file", err)
}

func parseMessage(err error) string {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, parser.ErrNotCSV):
		return "not_csv"
	case errors.Is(err, parser.ErrMissingTextColumn):
		return "missing_text_column"
	case errors.Is(err, parser.ErrTooManyRows):
		return "too_many_rows"
	default:
		return "malformed"
	}
}

func submitMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrNoFile):
		return "Please upload a CSV file first."
	case errors.Is(err, session.ErrNothingReady):
		return "No rows are ready to submit."
	case errors.Is(err, session.ErrInFlight):
		return "A batch submission is already in progress."
	default:
		return err.Error()
	}
}
