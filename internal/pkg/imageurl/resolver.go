// Package imageurl normalizes stored image URL values at render time.
//
// Image records written over the years carry several shapes: absolute
// URLs, /uploads paths, paths under the retired /image/catalog mount,
// and bare filenames. Instead of migrating the data, every reader runs
// the stored value through Resolve, which applies an ordered rule list.
package imageurl

import "strings"

// PlaceholderPath is returned for empty stored values.
const PlaceholderPath = "/img/placeholder.png"

// legacyFragment is the retired mount convention. Values containing it
// anywhere (including behind ../ noise) are re-rooted under the API
// base without a data migration.
const legacyFragment = "image/catalog/"

// knownPrefixes are mount prefixes that only need the API base in front.
var knownPrefixes = []string{
	"/uploads/",
	"/image/catalog/",
}

// rule pairs a predicate with its transform. Order matters: several
// conditions overlap, and a later rule is only tried when every earlier
// one declined. Append new legacy shapes at the appropriate position
// instead of reworking existing rules.
type rule struct {
	match   func(stored string) bool
	resolve func(stored, apiBase string) string
}

var rules = []rule{
	// Empty value: fixed placeholder, no API base.
	{
		match:   func(s string) bool { return strings.TrimSpace(s) == "" },
		resolve: func(_, _ string) string { return PlaceholderPath },
	},
	// Already absolute: pass through unchanged.
	{
		match:   hasScheme,
		resolve: func(s, _ string) string { return s },
	},
	// Current or legacy mount at the start: prefix verbatim.
	{
		match: func(s string) bool {
			for _, prefix := range knownPrefixes {
				if strings.HasPrefix(s, prefix) {
					return true
				}
			}
			return false
		},
		resolve: func(s, base string) string { return base + s },
	},
	// Legacy mount buried in the value (../../image/catalog/...,
	// stray prefixes): extract from the fragment onward and re-root.
	{
		match: func(s string) bool { return strings.Contains(s, legacyFragment) },
		resolve: func(s, base string) string {
			idx := strings.Index(s, legacyFragment)
			return base + "/" + s[idx:]
		},
	},
	// Bare filename / relative value: treat as relative to the default
	// upload mount.
	{
		match:   func(s string) bool { return !strings.HasPrefix(s, "/") },
		resolve: func(s, base string) string { return base + "/uploads/" + s },
	},
}

// Resolve maps any historically stored path representation to one
// canonical absolute URL. Total: every input resolves to something a
// viewer can request.
func Resolve(stored, apiBaseURL string) string {
	base := strings.TrimRight(apiBaseURL, "/")

	for _, r := range rules {
		if r.match(stored) {
			return r.resolve(stored, base)
		}
	}

	// Fallback: an absolute path under an unknown mount still gets the
	// API base in front.
	return base + stored
}

// hasScheme reports whether the value is already an absolute URL. A
// deliberate plain-string check: net/url would also accept values we
// want to treat as relative paths.
func hasScheme(s string) bool {
	idx := strings.Index(s, "://")
	if idx <= 0 {
		return false
	}
	for _, c := range s[:idx] {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return false
		}
	}
	return true
}
