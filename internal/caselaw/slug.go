package caselaw

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	slugSpaces   = regexp.MustCompile(`[\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]+`)
	slugNonWord  = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	slugHyphens  = regexp.MustCompile(`--+`)
	slugTrimEdge = regexp.MustCompile(`^-+|-+$`)
)

// Slugify lowercases text, hyphenates whitespace and drops every character
// outside [A-Za-z0-9_-].
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = slugNonWord.ReplaceAllString(slug, "")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	return slugTrimEdge.ReplaceAllString(slug, "")
}

// SlugOr slugifies text, falling back to prefix plus a short digest of the
// text when nothing slug-safe is left (punctuation or non-Latin titles).
// The fallback is stable, so re-importing the same title yields the same slug.
func SlugOr(prefix, text string) string {
	if slug := Slugify(text); slug != "" {
		return slug
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return prefix + "-" + hex.EncodeToString(sum[:])[:10]
}
