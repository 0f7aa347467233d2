// Package uaparse derives browser/OS/device facets from raw user-agent
// strings.
package uaparse

import (
	"strings"

	"github.com/mileusna/useragent"
)

// Facets are the fields derived from one user-agent string. The zero value
// is what an empty or unparseable user agent yields.
type Facets struct {
	BrowserFamily  string
	BrowserVersion string
	OSFamily       string
	OSVersion      string
	DeviceFamily   string
	DeviceBrand    string
	DeviceModel    string
	IsMobile       bool
	IsTablet       bool
	IsPC           bool
	IsTouchCapable bool
	IsBot          bool
}

// Classify parses ua into Facets. It never fails: garbage input leaves the
// facets at their defaults, which the enricher stores as-is.
func Classify(ua string) Facets {
	if strings.TrimSpace(ua) == "" {
		return Facets{}
	}
	parsed := useragent.Parse(ua)
	return Facets{
		BrowserFamily:  parsed.Name,
		BrowserVersion: parsed.Version,
		OSFamily:       parsed.OS,
		OSVersion:      parsed.OSVersion,
		DeviceFamily:   parsed.Device,
		IsMobile:       parsed.Mobile,
		IsTablet:       parsed.Tablet,
		IsPC:           parsed.Desktop,
		IsTouchCapable: parsed.Mobile || parsed.Tablet,
		IsBot:          parsed.Bot,
	}
}
