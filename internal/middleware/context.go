package middleware

import (
	"context"

	"saas-backoffice/internal/model"
)

type contextKey string

const (
	authClaimsContextKey contextKey = "auth_claims"
	requestIDContextKey  contextKey = "request_id"
)

// WithClaims attaches validated identity claims to a request context.
func WithClaims(ctx context.Context, claims model.Claims) context.Context {
	return context.WithValue(ctx, authClaimsContextKey, claims)
}

// ClaimsFromContext returns the claims attached by the authenticator. Public
// paths carry none.
func ClaimsFromContext(ctx context.Context) (model.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(model.Claims)
	return claims, ok
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
