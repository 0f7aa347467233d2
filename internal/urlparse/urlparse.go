// Package urlparse splits raw submitted URLs into the pieces stored on a
// log record: a scheme-normalized URL without its query string, the path,
// and the query parameters.
package urlparse

import (
	"net/url"
	"regexp"
)

const defaultScheme = "https"

// schemeRe matches a URL scheme prefix per RFC 3986. Anchored so a URL
// embedded in a query value does not count as the submission's own scheme.
var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Decompose parses raw and returns the normalized absolute URL (query
// string stripped), the path component, and the query parameters. A URL
// without a scheme gets the default scheme prepended before parsing.
// Parameters with blank values are dropped; a repeated key keeps the last
// value. Malformed input yields an empty path and an empty map.
func Decompose(raw string) (normalized string, path string, params map[string]string) {
	params = map[string]string{}
	if raw == "" {
		return "", "", params
	}
	if !schemeRe.MatchString(raw) {
		raw = defaultScheme + "://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", params
	}
	for key, values := range u.Query() {
		if key == "" || len(values) == 0 {
			continue
		}
		last := values[len(values)-1]
		if last == "" {
			continue
		}
		params[key] = last
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), u.Path, params
}
