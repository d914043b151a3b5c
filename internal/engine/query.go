package engine

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Only `!bang ` and `\!bang ` prefixes followed by whitespace are stripped.
var bangPrefixRe = regexp.MustCompile(`^\\?![\p{L}\p{N}_]+\s+`)

// NormalizeQuery strips a leading bang command and title-cases all-lowercase input.
func NormalizeQuery(query string) string {
	query = strings.TrimSpace(bangPrefixRe.ReplaceAllString(query, ""))

	if query != "" && isLower(query) {
		query = cases.Title(language.Und).String(query)
	}

	return query
}

// isLower reports whether s has at least one cased letter and no uppercase ones.
func isLower(s string) bool {
	cased := false

	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}

	return cased
}
