// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Input Constraints

const (
	// UsernameMaxLength bounds a channel handle.
	UsernameMaxLength = 30

	// FullNameMaxLength bounds a display name.
	FullNameMaxLength = 100

	// EmailMaxLength follows the RFC 5321 path limit.
	EmailMaxLength = 254

	// PasswordMaxBytes is bcrypt's input limit; longer inputs are rejected
	// instead of being silently truncated.
	PasswordMaxBytes = 72
)

// EventPublishTimeout bounds a single account event publish.
const EventPublishTimeout = 2 * time.Second

// # Metric Labels

const (
	eventRegister       = "register"
	eventLogin          = "login"
	eventLogout         = "logout"
	eventRefresh        = "refresh"
	eventChangePassword = "change_password"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeReuse   = "reuse"
)
