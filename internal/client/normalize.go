package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spam-detector/webui/internal/models"
)

// NormalizePrediction folds a /predict/spam response into the canonical
// prediction. The request id comes from the X-Request-Id header when present,
// else from the body's "id" field.
func NormalizePrediction(body []byte, header http.Header, input string) (*models.Prediction, error) {
	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	p := &models.Prediction{
		Label:       stringField(raw, "label"),
		Probability: ProbabilityFrom(raw),
		ElapsedMs:   numberField(raw, "elapsed_ms"),
		Model:       stringField(raw, "model"),
		ID:          stringField(raw, "id"),
		Input:       input,
		Raw:         raw,
	}

	p.RequestID = header.Get(HeaderRequestID)
	if p.RequestID == "" {
		p.RequestID = p.ID
	}
	return p, nil
}

// ProbabilityFrom derives the spam probability from either response shape:
// a numeric "probability", or the first element of a legacy "probs" array.
func ProbabilityFrom(body map[string]any) *float64 {
	if p := numberField(body, "probability"); p != nil {
		return p
	}
	probs, ok := body["probs"].([]any)
	if !ok || len(probs) == 0 {
		return nil
	}
	if f, ok := probs[0].(float64); ok {
		return &f
	}
	return nil
}

func numberField(m map[string]any, key string) *float64 {
	if f, ok := m[key].(float64); ok {
		return &f
	}
	return nil
}

// stringField renders scalar ids as strings; numeric ids are common.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
