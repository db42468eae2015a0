// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey holds the typed keys under which request-scoped values are
// stored in a [context.Context].
//
// Middleware writes these keys; handlers and services read them back through
// ctxutil or auth.UserFromContext, never by constructing a key themselves.
package ctxkey

// key cannot be constructed outside this package, so only the constants
// below can collide with these slots.
type key uint8

const (
	// KeyRequestID carries the X-Request-ID correlation value.
	KeyRequestID key = iota + 1

	// KeyLogger carries the per-request [*log/slog.Logger].
	KeyLogger

	// KeyUserID carries the authenticated account ID.
	KeyUserID

	// KeyUser carries the authenticated, sanitized account record.
	KeyUser
)

// String names the key for debugging output.
func (k key) String() string {
	switch k {
	case KeyRequestID:
		return "request_id"
	case KeyLogger:
		return "logger"
	case KeyUserID:
		return "user_id"
	case KeyUser:
		return "user"
	default:
		return "unknown"
	}
}
