// handlers_probe.go - Diagnostic probe handlers
package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spam-detector/webui/internal/client"
	"github.com/spam-detector/webui/internal/web"
)

// ProbeHandlerImpl implements the ProbeHandler interface. The probe view keeps
// no state: each POST renders its own outcome.
type ProbeHandlerImpl struct {
	client     Predictor
	apiBaseURL string
	logger     *zap.Logger
}

// NewProbeHandler creates a new probe handler
func NewProbeHandler(c Predictor, apiBaseURL string, logger *zap.Logger) ProbeHandler {
	return &ProbeHandlerImpl{client: c, apiBaseURL: apiBaseURL, logger: logger}
}

func (h *ProbeHandlerImpl) render(c echo.Context, probe *ProbePage) error {
	var notices = SessionNotices(c)
	return c.Render(http.StatusOK, web.PageProbe, Page{
		Title:      "Probe",
		Active:     web.PageProbe,
		APIBaseURL: h.apiBaseURL,
		Notices:    notices,
		Probe:      probe,
	})
}

// HandleProbePage renders the empty probe view.
func (h *ProbeHandlerImpl) HandleProbePage(c echo.Context) error {
	return h.render(c, &ProbePage{})
}

// HandleProbeHealth shows the API's /health body verbatim.
func (h *ProbeHandlerImpl) HandleProbeHealth(c echo.Context) error {
	page := &ProbePage{Text: c.FormValue("text")}

	body, err := h.client.Health(c.Request().Context())
	if err != nil {
		page.HealthErr = client.ErrorMessage(err)
		h.logger.Warn("health probe failed", zap.String("message", page.HealthErr))
	} else {
		page.Health = compactJSON(body)
	}

	return h.render(c, page)
}

// HandleProbePredict predicts one text through the batch-then-single flow.
func (h *ProbeHandlerImpl) HandleProbePredict(c echo.Context) error {
	page := &ProbePage{Text: c.FormValue("text")}

	result, err := h.client.Probe(c.Request().Context(), page.Text)
	if err != nil {
		page.PredictErr = client.ErrorMessage(err)
		h.logger.Warn("predict probe failed", zap.String("message", page.PredictErr))
		return h.render(c, page)
	}

	page.Result = result
	page.ResultJSON = indentJSON(result.Raw)
	return h.render(c, page)
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func indentJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
