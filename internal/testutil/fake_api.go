// Package testutil provides fakes shared by package tests.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Canned responses returned by FakeAPI until overridden.
const (
	DefaultHealthBody  = `{"status":"ok","model_loaded":true}`
	DefaultVersionBody = `{"version":"test"}`
	DefaultPredictBody = `{"label":"spam","probability":0.5,"elapsed_ms":3,"id":"pred-1"}`
	DefaultBatchBody   = `{"results":[{"row":1,"text":"hello","label":"ham","probability":0.1,"elapsed_ms":2,"error":null}]}`
	DefaultRequestID   = "req-1"
)

// Recorded is one request received by FakeAPI.
type Recorded struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

type cannedResponse struct {
	status int
	body   string
}

// FakeAPI is an httptest server speaking the prediction API.
type FakeAPI struct {
	Server *httptest.Server

	mu        sync.Mutex
	responses map[string]cannedResponse
	requestID string
	requests  []Recorded
}

// NewFakeAPI starts a fake API that is closed when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	f := &FakeAPI{
		responses: map[string]cannedResponse{
			"/health":             {http.StatusOK, DefaultHealthBody},
			"/version":            {http.StatusOK, DefaultVersionBody},
			"/predict/spam":       {http.StatusOK, DefaultPredictBody},
			"/predict/spam-batch": {http.StatusOK, DefaultBatchBody},
		},
		requestID: DefaultRequestID,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL of the fake.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// Respond sets the status and body returned for path.
func (f *FakeAPI) Respond(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = cannedResponse{status: status, body: body}
}

// SetRequestID sets the X-Request-Id header on predictions; "" omits it.
func (f *FakeAPI) SetRequestID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestID = id
}

// Requests returns the requests received for path.
func (f *FakeAPI) Requests(path string) []Recorded {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Recorded
	for _, r := range f.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, Recorded{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	resp, ok := f.responses[r.URL.Path]
	requestID := f.requestID
	f.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
		return
	}

	if r.URL.Path == "/predict/spam" && requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	if resp.body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}
