// Package sanitize provides slug derivation and path validation for
// feature directory names.
//
// Feature directories follow the NNN-slug convention (for example
// 003-user-auth). Slugs are derived from free-form descriptions and
// must match: ^[a-z0-9][a-z0-9-]*$
package sanitize

import (
	"strings"
)

const (
	// MaxSlugWords is the number of leading words kept when deriving a
	// slug from a description.
	MaxSlugWords = 3

	// MaxSlugLength is the maximum length of a derived slug. Longer slugs
	// are truncated at a hyphen boundary. The numeric directory prefix
	// provides uniqueness, so no hash suffix is appended.
	MaxSlugLength = 64

	// DefaultSlug is used when derivation produces an empty result.
	DefaultSlug = "feature"
)

// Slug derives a directory slug from a free-form feature description.
//
// Rules applied:
//   - Converts to lowercase
//   - Replaces runs of non-alphanumeric characters with single hyphens
//   - Trims leading/trailing hyphens
//   - Keeps the first MaxSlugWords words
//   - Returns DefaultSlug if the result would be empty
//
// Examples:
//
//	"Add OAuth2 login"       -> "add-oauth2-login"
//	"Fix #42: broken parser" -> "fix-42-broken"
//	"" or "!!!"              -> "feature"
func Slug(s string) string {
	if s == "" {
		return DefaultSlug
	}

	s = strings.ToLower(s)

	// Replace invalid characters with hyphens
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			result.WriteRune(r)
		} else {
			result.WriteRune('-')
		}
	}

	// Collapse multiple hyphens and trim
	slug := result.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return DefaultSlug
	}

	// Keep the leading words only
	words := strings.Split(slug, "-")
	if len(words) > MaxSlugWords {
		words = words[:MaxSlugWords]
	}
	slug = strings.Join(words, "-")

	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}

	return slug
}
