// Package httpstatus renders response codes the way the dashboard keys its
// histograms.
package httpstatus

import (
	"fmt"
	"net/http"
)

// Text returns the reason phrase for code, or "Unknown" for codes outside
// the registered table.
func Text(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Unknown"
}

// Label renders a response code as the histogram key, e.g. "200 (OK)".
// Clients align string-keyed series on this exact format.
func Label(code int) string {
	return fmt.Sprintf("%d (%s)", code, Text(code))
}
