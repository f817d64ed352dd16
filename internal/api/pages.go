// pages.go - View models for the rendered pages
package api

import (
	"github.com/spam-detector/webui/internal/models"
	"github.com/spam-detector/webui/internal/session"
)

// Page is the data every template receives.
type Page struct {
	Title      string
	Active     string
	APIBaseURL string
	Notices    []models.Notice

	Predict *PredictPage
	Batch   *BatchPage
	Probe   *ProbePage
	Error   *ErrorPage
}

// PredictPage is the single-text view.
type PredictPage struct {
	Input      string
	Result     *models.Prediction
	ResultJSON string
	Err        string
	Loading    bool
	MaxLength  int
	CharCount  int
	TooLong    bool
	CanSubmit  bool
}

// BatchPage is the upload, preview and results view.
type BatchPage struct {
	Upload     *models.UploadState
	HasFile    bool
	HasResults bool
	InFlight   bool
	CanSubmit  bool
	MaxRows    int
}

// ProbePage is the diagnostic view.
type ProbePage struct {
	Text       string
	Health     string
	HealthErr  string
	Result     *models.ProbeResult
	ResultJSON string
	PredictErr string
}

// ErrorPage is shown for failed page requests.
type ErrorPage struct {
	Status  int
	Message string
}

func newPredictPage(state models.PredictState, maxLen int) *PredictPage {
	count := models.CharCount(state.Input)
	p := &PredictPage{
		Input:     state.Input,
		Result:    state.Result,
		Err:       state.Err,
		Loading:   state.Loading,
		MaxLength: maxLen,
		CharCount: count,
		TooLong:   count > maxLen,
		CanSubmit: models.CanSubmitText(state.Input, maxLen, state.Loading),
	}
	if state.Result != nil {
		if out, err := state.Result.PrettyJSON(); err == nil {
			p.ResultJSON = out
		}
	}
	return p
}

func newBatchPage(view session.View, maxRows int) *BatchPage {
	return &BatchPage{
		Upload:     view.Batch,
		HasFile:    view.Batch.HasFile(),
		HasResults: view.Batch.HasFile() && len(view.Batch.Results) > 0,
		InFlight:   view.BatchInFlight,
		CanSubmit:  view.Batch.CanSubmit(view.BatchInFlight),
		MaxRows:    maxRows,
	}
}
