// Package slug derives URL path segments for changelog posts and projects.
package slug

import "strings"

// Base lowercases the input, collapses every run of non-alphanumeric bytes
// into a single hyphen and trims leading/trailing hyphens.
func Base(value string) string {
	var b strings.Builder
	b.Grow(len(value))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ForPost joins the normalized version and title. Deterministic: the same
// (version, title) pair always yields the same slug.
func ForPost(version, title string) string {
	s := Base(version) + "-" + Base(title)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
