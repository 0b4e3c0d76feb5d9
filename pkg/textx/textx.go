// Package textx provides small text utilities used across the project.
package textx

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxSanitizedLen is the character budget for sanitized text; longer input
// is truncated and marked with TruncationSuffix.
const MaxSanitizedLen = 10000

// TruncationSuffix is appended to text truncated by Sanitize.
const TruncationSuffix = "... [truncated]"

// SanitizeFallback is returned whenever sanitization itself fails.
const SanitizeFallback = "Error processing extracted text"

var (
	ctrlRe       = regexp.MustCompile("[\x01-\x08\x0b\x0c\x0e-\x1f\x7f]")
	unicodeEscRe = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)
	hexEscRe     = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)
	octalEscRe   = regexp.MustCompile(`\\[0-7]{1,3}`)
	spaceRunRe   = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// Sanitize normalizes extracted free text into safe, bounded plain text.
// It never fails: any internal panic degrades to SanitizeFallback, and
// empty input yields an empty string. The rewrite order is significant
// for inputs containing escape sequences; keep it stable.
func Sanitize(raw string) (out string) {
	defer func() {
		if recover() != nil {
			out = SanitizeFallback
		}
	}()
	if raw == "" {
		return ""
	}
	s := strings.ReplaceAll(raw, "\x00", "")
	s = ctrlRe.ReplaceAllString(s, "")
	s = unicodeEscRe.ReplaceAllString(s, " ")
	s = hexEscRe.ReplaceAllString(s, " ")
	s = octalEscRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, `\n`, " ")
	s = strings.ReplaceAll(s, `\r`, " ")
	s = strings.ReplaceAll(s, `\t`, " ")
	s = strings.ReplaceAll(s, `\\`, `\`)
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = norm.NFKC.String(s)
	if r := []rune(s); len(r) > MaxSanitizedLen {
		s = string(r[:MaxSanitizedLen]) + TruncationSuffix
	}
	return s
}
