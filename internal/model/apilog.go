package model

import (
	"time"

	"github.com/google/uuid"
)

// APILog is one observed HTTP request, enriched and stored.
// Fields derived at ingestion (facets, flags, location) are never rewritten
// afterwards, with one exception: Location may be filled in by a background
// geolocation pass after the row exists.
type APILog struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ProjectID      uuid.UUID  `db:"project_id" json:"project_id"`
	URL            string     `db:"url" json:"url"`
	Path           string     `db:"path" json:"path"`
	IPAddress      string     `db:"ip_address" json:"ip_address"`
	UserAgent      string     `db:"user_agent" json:"user_agent"`
	BrowserFamily  string     `db:"browser_family" json:"browser_family"`
	BrowserVersion string     `db:"browser_version" json:"browser_version"`
	OSFamily       string     `db:"os_family" json:"os_family"`
	OSVersion      string     `db:"os_version" json:"os_version"`
	DeviceFamily   string     `db:"device_family" json:"device_family"`
	DeviceBrand    string     `db:"device_brand" json:"device_brand"`
	DeviceModel    string     `db:"device_model" json:"device_model"`
	IsMobile       bool       `db:"is_mobile" json:"is_mobile"`
	IsTablet       bool       `db:"is_tablet" json:"is_tablet"`
	IsPC           bool       `db:"is_pc" json:"is_pc"`
	IsTouchCapable bool       `db:"is_touch_capable" json:"is_touch_capable"`
	IsBot          bool       `db:"is_bot" json:"is_bot"`
	BotID          *int64     `db:"bot_id" json:"bot_id,omitempty"`
	Location       *string    `db:"location" json:"location,omitempty"`
	ResponseCode   *int       `db:"response_code" json:"response_code,omitempty"`
	ResponseText   *string    `db:"response_code_text" json:"response_code_text,omitempty"`
	ResponseTime   *float64   `db:"response_time" json:"response_time,omitempty"` // seconds
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`

	// Populated on reads only.
	QueryParams []QueryParam  `db:"-" json:"query_params,omitempty"`
	Bot         *BotSignature `db:"-" json:"bot,omitempty"`
}

// QueryParam is one key/value pair extracted from the request URL's query
// string. Blank values are dropped at ingestion; a repeated key keeps the
// last value.
type QueryParam struct {
	ID       int64     `db:"id" json:"-"`
	APILogID uuid.UUID `db:"api_log_id" json:"-"`
	Key      string    `db:"key" json:"key"`
	Value    string    `db:"value" json:"value"`
}
