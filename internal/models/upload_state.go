package models

// Defaults for upload and text bounds.
const (
	DefaultMaxRows       = 500
	DefaultMaxTextLength = 5000
	DefaultPreviewRows   = 50
)

// PreviewRow is one parsed row shown before submission together with its validation outcome.
type PreviewRow struct {
	Number  int
	Values  Row
	Outcome ValidationOutcome
}

// UploadState is the batch view's lifecycle object. It is replaced wholesale
// when a file is accepted and its results are replaced wholesale on submit.
type UploadState struct {
	FileID      string
	FileName    string
	Headers     []string
	TextColumn  string
	PreviewRows []PreviewRow
	TotalRows   int
	ReadyCount  int
	Results     []PredictionResult
}

// HasFile reports whether an accepted upload is held.
func (s *UploadState) HasFile() bool {
	return s != nil && s.FileID != ""
}

// CanSubmit reports whether the submit control is enabled.
func (s *UploadState) CanSubmit(inFlight bool) bool {
	return s.HasFile() && s.ReadyCount > 0 && !inFlight
}

// CommitResults stores results for fileID. Results for a file that is no
// longer held are dropped and false is returned.
func (s *UploadState) CommitResults(fileID string, results []PredictionResult) bool {
	if !s.HasFile() || s.FileID != fileID {
		return false
	}
	if results == nil {
		results = []PredictionResult{}
	}
	s.Results = results
	return true
}
