// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid issues the identifiers used for account, video and watch-history
rows and for uploaded media keys.

Values are UUIDv7, so they sort by creation time and keep B-tree inserts on
the right-hand edge of the primary key index.
*/
package uuid

import "github.com/google/uuid"

// New returns a fresh UUIDv7 string. It panics only if the system entropy
// source fails.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Valid reports whether s is a canonical 36-character UUID of any version.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	return uuid.Validate(s) == nil
}
