package utils

import "strings"

// QuoteIdentifier wraps an SQLite identifier in double quotes, doubling any embedded
// quote characters. Identifiers that are already double-quoted are returned as-is.
//
// Examples:
//   - "users" -> "\"users\""
//   - "my table" -> "\"my table\""
//   - "we\"ird" -> "\"we\"\"ird\""
//   - "\"users\"" -> "\"users\""
//   - "" -> ""
//
// Table names handed to the migration engine are opaque strings, so every generated
// statement that embeds one goes through this function.
func QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}

	if IsQuoted(name) {
		return name
	}

	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// IsQuoted checks if a string is a single double-quoted SQLite identifier.
//
// Examples:
//   - "\"users\"" -> true
//   - "users" -> false
//   - "\"a\" \"b\"" -> false
//   - "" -> false
func IsQuoted(s string) bool {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return false
	}

	// Inner quotes must come in escaped pairs
	inner := s[1 : len(s)-1]
	return !strings.Contains(strings.ReplaceAll(inner, `""`, ""), `"`)
}

// UnquoteIdentifier removes surrounding double quotes and undoes quote escaping.
//
// Examples:
//   - "\"users\"" -> "users"
//   - "\"we\"\"ird\"" -> "we\"ird"
//   - "users" -> "users"
func UnquoteIdentifier(s string) string {
	if !IsQuoted(s) {
		return s
	}

	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
}
