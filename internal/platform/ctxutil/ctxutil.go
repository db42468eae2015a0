// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil reads and writes the request-scoped values defined in
// ctxkey. Getters never fail: a missing value yields the zero value, or
// [slog.Default] for the logger.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/vidtube/internal/platform/ctxkey"
)

// # Request Tracing

// WithRequestID attaches the correlation ID assigned by the RequestID middleware.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID returns the correlation ID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	return value[string](ctx, ctxkey.KeyRequestID)
}

// # Structured Logging

// WithLogger attaches a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger returns the request-scoped logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	if logger := value[*slog.Logger](ctx, ctxkey.KeyLogger); logger != nil {
		return logger
	}
	return slog.Default()
}

// # Identity

// WithUserID attaches the authenticated account ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUserID, userID)
}

// GetUserID returns the authenticated account ID, or "" for anonymous requests.
func GetUserID(ctx context.Context) string {
	return value[string](ctx, ctxkey.KeyUserID)
}

func value[T any](ctx context.Context, k any) T {
	typed, _ := ctx.Value(k).(T)
	return typed
}
