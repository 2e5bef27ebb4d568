// Package httpkit is what modules mount handlers with; they never import the platform http package directly
package httpkit

import (
	"net/http"
	"strings"

	phttp "insightboard/internal/platform/net/http"
)

type (
	// Router is the platform router seam
	Router = phttp.Router
	// Handler is the platform handler shape
	Handler = phttp.Handler
	// Response is a return style handler result
	Response = phttp.Response
	// Envelope is the body every JSON answer is wrapped in
	Envelope = phttp.Envelope
	// Page is the pagination block of a list
	Page = phttp.Page
)

// OK is a 200 with data
func OK(data any) Response { return phttp.OK(data) }

// Created is a 201 with data
func Created(data any) Response { return phttp.Created(data) }

// NoContent is an empty 204
func NoContent() Response { return phttp.NoContent() }

// List is a 200 with items and their page
func List(items any, total, page, size int, cursor string) Response {
	return phttp.List(items, total, page, size, cursor)
}

// WriteError writes err as an envelope, for handlers that write their own success body
func WriteError(w http.ResponseWriter, r *http.Request, err error) { phttp.RespondError(w, r, err) }

// Call adapts a handler without a body; returning a Response picks the status
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) Response { return phttp.Result(fn(r)) })
}

// JSON binds and validates the body into T before fn runs
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler { return phttp.JSONHandler(fn) }

// Get mounts a body-less GET
func Get(r Router, path string, fn func(*http.Request) (any, error)) { r.Get(path, Call(fn)) }

// Post mounts a body-less POST
func Post(r Router, path string, fn func(*http.Request) (any, error)) { r.Post(path, Call(fn)) }

// Delete mounts a DELETE
func Delete(r Router, path string, fn func(*http.Request) (any, error)) { r.Delete(path, Call(fn)) }

// PostJSON mounts a POST whose body binds into T
func PostJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Post(path, JSON(fn))
}

// PutJSON mounts a PUT whose body binds into T
func PutJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Put(path, JSON(fn))
}

// PatchJSON mounts a PATCH whose body binds into T
func PatchJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Patch(path, JSON(fn))
}

// MountAPI scopes mount under /api/{version} with mw applied
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/"+strings.Trim(version, "/"), func(api Router) {
		api.Use(mw...)
		mount(api)
	})
}

// MountAPIV1 is MountAPI for v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
