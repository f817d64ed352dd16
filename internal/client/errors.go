package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// UnexpectedError is shown when a failure carries no usable message.
const UnexpectedError = "Unexpected error"

// Error is a failed API call. Status is zero for transport failures.
type Error struct {
	Status  int
	Detail  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newStatusError(status int, body []byte) *Error {
	return &Error{
		Status:  status,
		Detail:  detailFrom(body),
		Message: fmt.Sprintf("Request failed with status code %d", status),
	}
}

// detailFrom extracts the "detail" field of an error body. Structured details
// (FastAPI validation errors, for one) are returned as compact JSON.
func detailFrom(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	if string(payload.Detail) == "null" {
		return ""
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload.Detail); err != nil {
		return string(payload.Detail)
	}
	return compact.String()
}

// ErrorMessage returns the text a user should see for err: the server's
// detail, else the transport or status message, else UnexpectedError.
func ErrorMessage(err error) string {
	if err == nil {
		return UnexpectedError
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
		return UnexpectedError
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return UnexpectedError
}

// IsStatusError reports whether err is an API error carrying an HTTP status.
func IsStatusError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status != 0
}

// StatusCode returns the HTTP status of err, or zero.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
