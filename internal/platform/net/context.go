// Package net keeps the request scoped values every layer reads: request id, dashboard session, caller and forwarded token
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type key uint8

const (
	sessionKey key = iota
	userKey
	tokenKey
)

// WithSession binds ctx to a dashboard session; an empty id leaves ctx unchanged
func WithSession(ctx context.Context, id string) context.Context {
	return with(ctx, sessionKey, id)
}

// WithUser records the authenticated caller
func WithUser(ctx context.Context, id string) context.Context {
	return with(ctx, userKey, id)
}

// WithToken records a bearer token to forward to the data API
func WithToken(ctx context.Context, token string) context.Context {
	return with(ctx, tokenKey, token)
}

// WithRequestID sets the id chi's RequestID middleware would, for callers outside a request
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

// RequestID is the id set by chi's RequestID middleware
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// SessionID is the dashboard session ctx works on, "" when unbound
func SessionID(ctx context.Context) string { return get(ctx, sessionKey) }

// UserID is the authenticated caller, "" when anonymous
func UserID(ctx context.Context) string { return get(ctx, userKey) }

// Token is the forwarded bearer token, "" when none was sent
func Token(ctx context.Context) string { return get(ctx, tokenKey) }

func with(ctx context.Context, k key, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

func get(ctx context.Context, k key) string {
	v, _ := ctx.Value(k).(string)
	return v
}
