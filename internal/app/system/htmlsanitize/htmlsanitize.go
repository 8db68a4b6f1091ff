// Package htmlsanitize strips dangerous markup from user-entered rich text.
// Note and comment bodies pass through here once, at creation time, before
// they enter the event log and the search indexer.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

// policy is UGC plus the table and inline-formatting markup the note editor
// produces.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowTables()
	p.AllowElements("u", "s", "sub", "sup", "mark")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "td", "th")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	return p
}()

// Sanitize returns the input with scripts, event handlers, and other unsafe
// constructs removed. Basic formatting tags survive.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// StripAll removes every tag, leaving plain text. Used for fields that are
// displayed in contexts that never render HTML, such as tag names.
func StripAll(s string) string {
	if s == "" {
		return ""
	}
	return bluemonday.StrictPolicy().Sanitize(s)
}
