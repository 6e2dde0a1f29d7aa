package middleware

import (
	"context"

	"github.com/decortz/sill-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxUsername    contextKey = "username"
	ctxAccessLevel contextKey = "access_level"
	ctxClientNITs  contextKey = "client_nits"
	ctxAccessID    contextKey = "access_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUsername).(string); ok {
		return v
	}
	return ""
}

func AccessLevelFromContext(ctx context.Context) enums.AccessLevel {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxAccessLevel).(enums.AccessLevel); ok {
		return v
	}
	return 0
}

// ScopeNITsFromContext returns the client NITs the caller may touch. Nil
// means unscoped: admins see every client.
func ScopeNITsFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if !AccessLevelFromContext(ctx).ScopedToClients() {
		return nil
	}
	if v, ok := ctx.Value(ctxClientNITs).([]string); ok {
		return v
	}
	return nil
}

// AccessIDFromContext returns the session identifier minted at login.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithAccessID injects the session identifier into the context.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithUsername injects the authenticated username into the context.
func WithUsername(ctx context.Context, username string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUsername, username)
}

// WithAccessLevel injects the caller's access level into the context.
func WithAccessLevel(ctx context.Context, level enums.AccessLevel) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessLevel, level)
}

// WithClientNITs injects the caller's assigned client scope into the context.
func WithClientNITs(ctx context.Context, nits []string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClientNITs, nits)
}
