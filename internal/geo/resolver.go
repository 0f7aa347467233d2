// Package geo resolves IP addresses to coarse location strings through an
// external lookup service.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Resolver performs bounded-timeout lookups against an ip-api style JSON
// endpoint (GET <endpoint><ip>). Failures are errors the caller treats as
// "no location", never as ingestion errors.
type Resolver struct {
	endpoint string
	client   *http.Client
}

// NewResolver returns a Resolver for the given endpoint. The timeout bounds
// every lookup; resolution is the slowest enrichment step and must never
// hold up the ingest path longer than this.
func NewResolver(endpoint string, timeout time.Duration) *Resolver {
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &Resolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type lookupResponse struct {
	City    string `json:"city"`
	Region  string `json:"regionName"`
	Country string `json:"country"`
}

// Resolve looks up ip and returns a "city, region, country" string with
// empty segments elided. A comma-separated forwarded chain uses only the
// first address.
func (r *Resolver) Resolve(ctx context.Context, ip string) (string, error) {
	if idx := strings.Index(ip, ","); idx >= 0 {
		ip = ip[:idx]
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", fmt.Errorf("empty ip")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+ip, nil)
	if err != nil {
		return "", fmt.Errorf("build lookup request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geolocation lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geolocation lookup: status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode lookup response: %w", err)
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{body.City, body.Region, body.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("lookup returned no location for %s", ip)
	}
	return strings.Join(parts, ", "), nil
}
