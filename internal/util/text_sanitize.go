package util

import "strings"

// SanitizeText removes NUL bytes, which Postgres text columns reject. Every
// other character, controls included, is kept as is.
func SanitizeText(s string) string {
	if s == "" || !strings.Contains(s, "\x00") {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}

// SanitizeNullable applies SanitizeText to an optional column value.
// Nil stays nil.
func SanitizeNullable(s *string) *string {
	if s == nil {
		return nil
	}
	out := SanitizeText(*s)
	return &out
}
