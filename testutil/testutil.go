// Package testutil provides helpers for testing gateway handlers over HTTP.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/broady/gateway"
)

// RequestBuilder constructs requests with a fluent API.
type RequestBuilder struct {
	method  string
	path    string
	body    []byte
	headers http.Header
	query   url.Values
}

// NewRequest returns a builder for GET /.
func NewRequest() *RequestBuilder {
	return &RequestBuilder{
		method:  http.MethodGet,
		path:    "/",
		headers: make(http.Header),
		query:   make(url.Values),
	}
}

// GET sets the method to GET.
func (b *RequestBuilder) GET(path string) *RequestBuilder {
	b.method, b.path = http.MethodGet, path
	return b
}

// POST sets the method to POST.
func (b *RequestBuilder) POST(path string) *RequestBuilder {
	b.method, b.path = http.MethodPost, path
	return b
}

// WithJSON sets v as the JSON body.
func (b *RequestBuilder) WithJSON(v any) *RequestBuilder {
	b.body, _ = json.Marshal(v)
	b.headers.Set("Content-Type", "application/json")
	return b
}

// WithHeader sets a request header.
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.headers.Set(key, value)
	return b
}

// WithRoles sets header to the comma-separated roles, as read by
// gateway.HeaderRoles.
func (b *RequestBuilder) WithRoles(header string, roles ...string) *RequestBuilder {
	if len(roles) > 0 {
		b.headers.Set(header, strings.Join(roles, ","))
	}
	return b
}

// WithQuery adds a query parameter.
func (b *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	b.query.Add(key, value)
	return b
}

// Build returns the request and a recorder for its response.
func (b *RequestBuilder) Build() (*http.Request, *httptest.ResponseRecorder) {
	target := b.path
	if len(b.query) > 0 {
		target += "?" + b.query.Encode()
	}
	var body io.Reader
	if len(b.body) > 0 {
		body = bytes.NewReader(b.body)
	}
	req := httptest.NewRequest(b.method, target, body)
	for k, v := range b.headers {
		req.Header[k] = v
	}
	return req, httptest.NewRecorder()
}

// Do serves the request with h and returns the recorded response.
func (b *RequestBuilder) Do(h http.Handler) *httptest.ResponseRecorder {
	req, w := b.Build()
	h.ServeHTTP(w, req)
	return w
}

// AssertStatus checks the response status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, w.Code, w.Body.String())
	}
}

// DecodeResult decodes the result of a successful response into v.
func DecodeResult(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("expected Content-Type to contain application/json, got %s", ct)
	}
	var env struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v\nBody: %s", err, w.Body.String())
	}
	if err := json.Unmarshal(env.Result, v); err != nil {
		t.Fatalf("failed to decode result: %v\nBody: %s", err, w.Body.String())
	}
}

// AssertError checks that the response carries an error with the expected
// code and returns it.
func AssertError(t *testing.T, w *httptest.ResponseRecorder, expected gateway.ErrorCode) *gateway.Error {
	t.Helper()
	var env struct {
		Error *gateway.Error `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.Error == nil {
		t.Fatalf("failed to decode error response: %v\nBody: %s", err, w.Body.String())
	}
	if env.Error.Code != expected {
		t.Errorf("expected error code %s, got %s (message: %s)", expected, env.Error.Code, env.Error.Message)
	}
	if status := expected.HTTPStatus(); w.Code != status {
		t.Errorf("expected status %d for %s, got %d", status, expected, w.Code)
	}
	return env.Error
}
