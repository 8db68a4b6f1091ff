// internal/app/system/envelope/envelope.go

// Package envelope writes the JSON response shapes every API feature
// shares: successful payloads under "response", paged payloads with a
// "pagination" block, and failures under "errors".
package envelope

import (
	"net/http"

	"github.com/dcomingore-pivotal/chorus/internal/app/system/paging"
	"github.com/go-chi/render"
)

type payload struct {
	Response   any                `json:"response"`
	Pagination *paging.Pagination `json:"pagination,omitempty"`
}

type errBody struct {
	Errors errDetail `json:"errors"`
}

type errDetail struct {
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Respond writes {"response": v} with the given status.
func Respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, payload{Response: v})
}

// RespondPage writes one page of results with its pagination block.
func RespondPage(w http.ResponseWriter, r *http.Request, v any, pg paging.Pagination) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, payload{Response: v, Pagination: &pg})
}

// Error writes {"errors": {"message": msg}} with the given status.
func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errBody{Errors: errDetail{Message: msg}})
}

// FieldErrors writes per-field validation failures, one message per
// offending input field.
func FieldErrors(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	render.Status(r, http.StatusUnprocessableEntity)
	render.JSON(w, r, errBody{Errors: errDetail{Fields: fields}})
}

// NotFound is the common 404 body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusNotFound, "not found")
}

// Forbidden is the common 403 body.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusForbidden, "forbidden")
}
