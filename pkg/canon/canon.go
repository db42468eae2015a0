// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package canon canonicalizes user-supplied identity strings.
//
// # Usage
//
// Usernames and emails are unique case-insensitively, so both are stored in
// the canonical form produced here and every lookup canonicalizes its input
// the same way.
package canon

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// lower is safe for concurrent use; cases.Caser is not, so each call builds its own.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Username returns the canonical form of a channel handle.
//
// # Transformation Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Normalizes to NFKC (folds compatibility forms such as full-width letters).
// 3. Lower-cases with Unicode rules.
func Username(s string) string {
	return lower(norm.NFKC.String(strings.TrimSpace(s)))
}

// Email returns the canonical form of an email address. The whole address is
// lower-cased, local part included.
func Email(s string) string {
	return lower(norm.NFC.String(strings.TrimSpace(s)))
}

// FullName trims and collapses internal whitespace runs without changing case.
func FullName(s string) string {
	return strings.Join(strings.FieldsFunc(norm.NFC.String(s), unicode.IsSpace), " ")
}
