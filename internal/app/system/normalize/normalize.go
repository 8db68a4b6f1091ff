// Package normalize provides canonical forms for user-entered identifier
// fields so lookups and uniqueness checks behave predictably.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Username lowercases and trims a login name.
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims display names but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}
