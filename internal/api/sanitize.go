package api

import (
	"regexp"
	"strings"
)

// scriptPattern strips <script> blocks from user-supplied text before
// it is stored.
var scriptPattern = regexp.MustCompile(`(?is)<\s*script\b[^>]*>.*?<\s*/\s*script\s*>`)

// categoryPattern bounds the category charset and length.
var categoryPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]{1,64}$`)

// sanitize removes script blocks and surrounding whitespace.
func sanitize(v string) string {
	return strings.TrimSpace(scriptPattern.ReplaceAllString(v, ""))
}

// validCategory reports whether v is an acceptable category. The empty
// string is allowed and means uncategorized.
func validCategory(v string) bool {
	return v == "" || categoryPattern.MatchString(v)
}
