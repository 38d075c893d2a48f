// Package utils provides small string helpers shared by the CLI, the
// dashboard and the validators.
package utils

import (
	"strconv"
	"strings"
)

// SplitAndTrim splits s on sep and trims each part. Blank parts are dropped,
// so "a, ,b" yields [a b] and an empty string yields an empty slice.
func SplitAndTrim(s, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Plural returns word, or word+"s" unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Count formats n followed by word in singular or plural form.
func Count(n int, word string) string {
	return strconv.Itoa(n) + " " + Plural(n, word)
}

// Truncate shortens s to at most max runes, ending in "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// JSONPointerToPath turns a schema error location (RFC 6901 pointer) into
// the dotted form used in validation errors: "/tasks/0/text" becomes
// "tasks[0].text".
func JSONPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.NewReplacer("~1", "/", "~0", "~").Replace(part)
		switch {
		case part == "":
		case isIndex(part):
			b.WriteString("[" + part + "]")
		default:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
