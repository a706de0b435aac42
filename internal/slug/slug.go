package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphens  = regexp.MustCompile(`-+`)
)

const maxLength = 100

// Generate creates a URL-friendly slug from a title. Vietnamese diacritics
// are stripped via NFD decomposition; đ/Đ have no combining form and are
// replaced explicitly.
func Generate(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "đ", "d")
	s = transliterate(s)

	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = nonAlnum.ReplaceAllString(s, "")
	s = hyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxLength {
		s = strings.TrimRight(s[:maxLength], "-")
	}

	return s
}

// GenerateWithFallback falls back to a second source string when the first
// produces an empty slug (e.g. a title made entirely of punctuation).
func GenerateWithFallback(s, fallback string) string {
	if out := Generate(s); out != "" {
		return out
	}
	return Generate(fallback)
}

// WithSuffix appends a numeric suffix used when storage reports a collision.
func WithSuffix(slug string, counter int) string {
	if counter <= 0 {
		return slug
	}
	return slug + "-" + strconv.Itoa(counter)
}

func transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
