package utils

import "strings"

// SanitizeFilePart makes a string safe for use as one segment of a generated
// filename: path separators, NUL bytes and whitespace are replaced with "-".
// Everything else (including non-ASCII, e.g. Hebrew filenames) passes
// through untouched.
func SanitizeFilePart(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0, ' ', '\t', '\n', '\r':
			return '-'
		}
		return r
	}, s)
}
