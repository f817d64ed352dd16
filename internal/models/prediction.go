// Package models contains domain types for the spam detector web UI.
package models

import (
	"encoding/json"
	"fmt"
)

// Prediction labels returned by the remote API.
const (
	LabelSpam = "spam"
	LabelHam  = "ham"
)

// PredictionResult is one row's classification outcome from the batch endpoint.
// Optional fields are nil when the API omitted them or sent null.
type PredictionResult struct {
	Row         int      `json:"row" msgpack:"row"`
	Text        string   `json:"text" msgpack:"text"`
	Label       *string  `json:"label,omitempty" msgpack:"label,omitempty"`
	Probability *float64 `json:"probability,omitempty" msgpack:"probability,omitempty"`
	ElapsedMs   *float64 `json:"elapsed_ms,omitempty" msgpack:"elapsed_ms,omitempty"`
	Error       *string  `json:"error,omitempty" msgpack:"error,omitempty"`
}

// BatchResponse is the body of a /predict/spam-batch call.
type BatchResponse struct {
	Results []PredictionResult `json:"results"`
}

// Prediction is the canonical single-text result. Every response shape the
// API is known to produce is folded into this type by the client.
type Prediction struct {
	Label       string
	Probability *float64
	ElapsedMs   *float64
	Model       string
	ID          string
	RequestID   string
	Input       string

	// Raw is the decoded response body, kept so the result can be echoed back verbatim.
	Raw map[string]any
}

// IsSpam reports whether the API labelled the text as spam.
func (p *Prediction) IsSpam() bool {
	return p != nil && p.Label == LabelSpam
}

// Document returns the response body merged with request_id and input,
// which is what the UI copies to the clipboard.
func (p *Prediction) Document() map[string]any {
	doc := make(map[string]any, len(p.Raw)+2)
	for k, v := range p.Raw {
		doc[k] = v
	}
	doc["request_id"] = p.RequestID
	doc["input"] = p.Input
	return doc
}

// PrettyJSON renders Document with two-space indentation.
func (p *Prediction) PrettyJSON() (string, error) {
	out, err := json.MarshalIndent(p.Document(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal prediction: %w", err)
	}
	return string(out), nil
}

// ProbeResult is what the health-check style probe view shows for a prediction:
// the raw body plus the spam probability derived from it, if any.
type ProbeResult struct {
	Endpoint    string
	Raw         json.RawMessage
	Probability *float64
}

// FormatPercent renders a probability in [0,1] as a percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
