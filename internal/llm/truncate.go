package llm

import "unicode/utf8"

// TruncateHead keeps at most max characters from the start of s. The cut is
// rune-safe so a multi-byte character on the boundary is dropped whole rather
// than split. Same input and cap always produce the same output, which keeps
// retried extraction calls byte-identical.
func TruncateHead(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
