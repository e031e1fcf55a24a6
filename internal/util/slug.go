// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides URL slug generation and validation plus the name
// normalization used to spot duplicate submissions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlnumRun matches any run of characters that are not a-z or 0-9
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
	// nonAlnum matches single characters that are not a-z or 0-9
	nonAlnum = regexp.MustCompile(`[^a-z0-9]`)
	// slugShape is the form Slugify output always takes
	slugShape = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// stripAccents decomposes s and drops combining marks, so "múltiple" becomes
// "multiple".
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Slugify converts a string to a URL-friendly slug.
// It lowercases, removes accents, collapses every run of non-alphanumeric
// characters into a single hyphen and trims hyphens from both ends.
func Slugify(s string) string {
	result := strings.ToLower(stripAccents(s))
	result = nonAlnumRun.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// IsValidSlug reports whether s is what Slugify produces for some input:
// lowercase ASCII words joined by single hyphens.
func IsValidSlug(s string) bool {
	return slugShape.MatchString(s)
}

// NormalizeKey reduces a display name to its duplicate-detection key:
// transliterated to ASCII, lowercased, trimmed, with everything but letters
// and digits removed. "Martin Garrix" and "martin garrix " share a key.
func NormalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(unidecode.Unidecode(stripAccents(name))))
	return nonAlnum.ReplaceAllString(key, "")
}
