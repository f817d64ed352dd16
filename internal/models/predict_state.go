package models

import (
	"strings"
	"unicode/utf8"
)

// PredictState is the single-text view's state: idle, loading, then success or error.
type PredictState struct {
	Input   string
	Result  *Prediction
	Err     string
	Loading bool
}

// Clear resets input, result and error together.
func (s *PredictState) Clear() {
	s.Input = ""
	s.Result = nil
	s.Err = ""
}

// CharCount is the length of text as the UI counts it.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// CanSubmitText reports whether the single-text submit control is enabled:
// text is not blank, not longer than maxLen and no request is in flight.
func CanSubmitText(text string, maxLen int, loading bool) bool {
	return strings.TrimSpace(text) != "" && CharCount(text) <= maxLen && !loading
}
