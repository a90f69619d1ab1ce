// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

// Package normalize canonicalizes user-supplied identity strings.
//
// # Usage
//
// Usernames and emails are unique keys in the account table. Uniqueness is
// only meaningful if "Alice", "alice", and a fullwidth "ａｌｉｃｅ" all map to
// the same stored value, so every identity string is normalized once at the
// boundary and the canonical form is what gets persisted and queried.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Username converts a raw username into its canonical stored form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFKC (folds fullwidth/compatibility variants: ａ → a).
// 2. Converts to lowercase.
// 3. Trims surrounding whitespace.
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// Email converts a raw email address into its canonical stored form.
//
// Same pipeline as [Username]. Local-part case is technically significant per
// RFC 5321, but no mainstream provider honors it, and case-insensitive
// uniqueness is the safer default for an identity key.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}
