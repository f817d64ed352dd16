// handlers_predict.go - Single-text prediction handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spam-detector/webui/internal/client"
	"github.com/spam-detector/webui/internal/metrics"
	"github.com/spam-detector/webui/internal/session"
	"github.com/spam-detector/webui/internal/web"
)

// PredictHandlerImpl implements the PredictHandler interface
type PredictHandlerImpl struct {
	client     Predictor
	maxLen     int
	apiBaseURL string
	logger     *zap.Logger
}

// NewPredictHandler creates a new single-text handler
func NewPredictHandler(c Predictor, maxLen int, apiBaseURL string, logger *zap.Logger) PredictHandler {
	return &PredictHandlerImpl{
		client:     c,
		maxLen:     maxLen,
		apiBaseURL: apiBaseURL,
		logger:     logger,
	}
}

// HandlePredictPage renders the single-text form with the last result or error.
func (h *PredictHandlerImpl) HandlePredictPage(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	view := s.Snapshot()
	return c.Render(http.StatusOK, web.PagePredict, Page{
		Title:      "Predict",
		Active:     web.PagePredict,
		APIBaseURL: h.apiBaseURL,
		Notices:    s.DrainNotices(),
		Predict:    newPredictPage(view.Predict, h.maxLen),
	})
}

// HandlePredict classifies the submitted text. Browsers are redirected back
// to the form; JSON clients get the merged result document.
func (h *PredictHandlerImpl) HandlePredict(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	var form predictForm
	if err := c.Bind(&form); err != nil {
		return NewBadRequestError("invalid form body", err)
	}

	if err := form.validate(h.maxLen); err != nil {
		if wantsJSON(c) {
			return err
		}
		s.KeepInput(form.Text)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Details != "" {
			s.Notify(apiErr.Details)
		} else {
			s.Notify(err.Error())
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}

	if err := s.BeginPredict(form.Text, h.maxLen); err != nil {
		if errors.Is(err, session.ErrInFlight) {
			if wantsJSON(c) {
				return NewConflictError(err.Error())
			}
			s.Notify("A prediction is already in progress")
			return c.Redirect(http.StatusSeeOther, "/")
		}
		return NewBadRequestError("invalid text", err)
	}

	pred, err := h.client.PredictSpam(c.Request().Context(), form.subject(), form.Text)
	if err != nil {
		msg := client.ErrorMessage(err)
		s.FinishPredict(nil, msg)
		h.logger.Warn("prediction failed",
			zap.Int("upstream_status", client.StatusCode(err)),
			zap.String("message", msg))
		if wantsJSON(c) {
			return NewUpstreamError(msg, client.StatusCode(err))
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}

	s.FinishPredict(pred, "")
	metrics.RecordPrediction(pred.Label)
	h.logger.Debug("prediction",
		zap.String("label", pred.Label),
		zap.String("request_id", pred.RequestID))

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, pred.Document())
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// HandleClear resets input, result and error together.
func (h *PredictHandlerImpl) HandleClear(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	s.ClearPredict()
	return c.Redirect(http.StatusSeeOther, "/")
}

// HandleResultJSON returns the last result as indented JSON, the same text the
// copy button puts on the clipboard.
func (h *PredictHandlerImpl) HandleResultJSON(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}

	pred := s.LastPrediction()
	if pred == nil {
		return NewNotFoundError("prediction result", "")
	}

	out, err := pred.PrettyJSON()
	if err != nil {
		return NewInternalError("failed to encode result", err)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(out))
}
