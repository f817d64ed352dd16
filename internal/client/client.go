// Package client is a thin HTTP wrapper around the remote spam prediction API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spam-detector/webui/internal/metrics"
	"github.com/spam-detector/webui/internal/models"
)

// API endpoints.
const (
	PathHealth       = "/health"
	PathVersion      = "/version"
	PathPredictSpam  = "/predict/spam"
	PathPredictBatch = "/predict/spam-batch"
)

// HeaderRequestID carries the server-assigned request id.
const HeaderRequestID = "X-Request-Id"

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client calls the prediction API with a fixed base URL and timeout.
// It never retries and never caches.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL. A non-positive timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is a successful (2xx) raw API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do performs one request. Any non-2xx status or transport failure is returned as *Error.
func (c *Client) Do(ctx context.Context, method, path, contentType string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.do(req)
	elapsed := time.Since(start)
	metrics.ObserveAPICall(path, err, elapsed)

	if err != nil {
		c.logger.Debug("API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.Status),
		zap.Duration("elapsed", elapsed))
	return resp, nil
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, data)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.Do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body))
}

// Health returns the /health body verbatim.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.Do(ctx, http.MethodGet, PathHealth, "", http.NoBody)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// Version returns the /version body verbatim.
func (c *Client) Version(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.Do(ctx, http.MethodGet, PathVersion, "", http.NoBody)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

type predictRequest struct {
	Subject *string `json:"subject"`
	Text    string  `json:"text"`
}

// PredictSpam classifies one text. subject may be nil and is sent as null.
func (c *Client) PredictSpam(ctx context.Context, subject *string, text string) (*models.Prediction, error) {
	resp, err := c.postJSON(ctx, PathPredictSpam, predictRequest{Subject: subject, Text: text})
	if err != nil {
		return nil, err
	}
	return NormalizePrediction(resp.Body, resp.Header, text)
}

// PredictBatchFile uploads a CSV as multipart form field "file". The server
// parses the file itself; the local parse is advisory only.
func (c *Client) PredictBatchFile(ctx context.Context, fileName string, r io.Reader) (*models.BatchResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, PathPredictBatch, writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	return decodeBatch(resp.Body)
}

// PredictBatchTexts classifies texts with the JSON form of the batch endpoint.
func (c *Client) PredictBatchTexts(ctx context.Context, texts []string) (*models.BatchResponse, error) {
	resp, err := c.postJSON(ctx, PathPredictBatch, map[string][]string{"texts": texts})
	if err != nil {
		return nil, err
	}
	return decodeBatch(resp.Body)
}

// Probe predicts one text the way the diagnostic page does: the JSON batch
// endpoint first, then the single endpoint if the batch call was refused.
// Transport failures are not retried against the second endpoint.
func (c *Client) Probe(ctx context.Context, text string) (*models.ProbeResult, error) {
	endpoint := PathPredictBatch
	resp, err := c.postJSON(ctx, endpoint, map[string][]string{"texts": {text}})
	if err != nil {
		if !IsStatusError(err) {
			return nil, err
		}
		endpoint = PathPredictSpam
		resp, err = c.postJSON(ctx, endpoint, map[string]string{"text": text})
		if err != nil {
			return nil, err
		}
	}

	result := &models.ProbeResult{Endpoint: endpoint, Raw: json.RawMessage(resp.Body)}
	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		result.Probability = ProbabilityFrom(body)
	}
	return result, nil
}

func decodeBatch(body []byte) (*models.BatchResponse, error) {
	var out models.BatchResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	if out.Results == nil {
		out.Results = []models.PredictionResult{}
	}
	return &out, nil
}
