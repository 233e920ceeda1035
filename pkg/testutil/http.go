// Package testutil carries the HTTP helpers the transport tests share:
// building decision/return requests against the router and unpacking the
// workflow result or error body that comes back.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest builds a request whose body is the JSON encoding of body.
// Typical use is posting a DecisionRequest or ReturnRequest payload.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRequest builds a body-less request, e.g. a register comments read.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewRequestWithBody builds a request around a raw string body, for
// exercising malformed-payload handling.
func NewRequestWithBody(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest runs the request through the handler and captures the response.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// UnmarshalResponse decodes the recorded body into T, failing the test on
// malformed JSON.
func UnmarshalResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) *T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "unmarshal response body")
	return &out
}

// UnmarshalErrorResponse decodes the coded-error body the transport writes
// for rejected requests.
func UnmarshalErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "unmarshal error body")
	return out
}

// AssertStatus checks the recorded status code.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rec.Code, "status code")
}

// AssertStatusOK checks for 200.
func AssertStatusOK(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rec, http.StatusOK)
}

// AssertErrorCode checks the coded-error body carries the expected code.
func AssertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, expected string) {
	t.Helper()
	body := UnmarshalErrorResponse(t, rec)
	assert.Equal(t, expected, body["error"], "error code")
}
