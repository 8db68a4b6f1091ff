// internal/testutil/http.go
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// JSONRequest creates an HTTP request with the given value encoded as a
// JSON body, for testing handlers that decode request bodies.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AuthedRequest creates an HTTP request with the given user injected into
// the context, bypassing the session middleware.
func AuthedRequest(method, target string, user models.User) *http.Request {
	return auth.WithTestUser(httptest.NewRequest(method, target, nil), user)
}

// AuthedJSONRequest combines JSONRequest and AuthedRequest.
func AuthedJSONRequest(t *testing.T, method, target string, user models.User, body any) *http.Request {
	t.Helper()
	return auth.WithTestUser(JSONRequest(t, method, target, body), user)
}

// DecodeResponse unmarshals the "response" field of the standard JSON
// envelope into out.
func DecodeResponse(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Response, out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
}
