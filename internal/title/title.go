package title

import "strings"

const upperHex = "0123456789ABCDEF"

// Escape joins words with underscores and percent-encodes everything except
// unreserved characters and the `/` separator, so `C++ History` becomes
// `C%2B%2B_History`.
func Escape(t string) string {
	s := strings.ReplaceAll(t, " ", "_")

	var b strings.Builder
	b.Grow(len(s))

	for i := range len(s) {
		c := s[i]
		if keep(c) {
			b.WriteByte(c)
			continue
		}

		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}

	return b.String()
}

// Display turns a path title back into words.
func Display(t string) string {
	return strings.ReplaceAll(t, "_", " ")
}

func keep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c == '~', c == '/':
		return true
	default:
		return false
	}
}
