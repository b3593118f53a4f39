// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package textnorm folds user-entered identity strings into canonical form.
//
// # Usage
//
// Emails act as login keys and carry a unique constraint, so every path that
// touches one (register, login, OAuth materialization) must fold it the same
// way. Otherwise "User@ex.com" and "user@ex.com" become distinct accounts.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Email canonicalizes an email address for storage and lookup.
//
// # Transformation Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Normalizes to NFC (composes combining sequences: e + ́ → é).
// 3. Converts to lowercase.
func Email(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// Name canonicalizes a display name.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFC.
// 2. Collapses internal whitespace runs into single spaces.
// 3. Trims surrounding whitespace.
//
// Case is preserved; display names are not lookup keys.
func Name(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
