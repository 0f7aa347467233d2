package analytics

import (
	"context"

	"github.com/whowhywhen/whowhywhen/internal/httpstatus"
	"github.com/whowhywhen/whowhywhen/internal/repository"
)

const topUserAgents = 10

// CountEntry is one named histogram bucket.
type CountEntry struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// SummaryResult is the categorical-count summary for a filter set.
// Browser/OS histograms exclude bot traffic; the Bot* variants carry the
// bots-only view. ResponseCodes is keyed "<code> (<reason>)". UserAgents
// holds the top ten plus a summed "Other" bucket.
type SummaryResult struct {
	Browsers      []CountEntry `json:"browsers"`
	BotBrowsers   []CountEntry `json:"bot_browsers"`
	OSes          []CountEntry `json:"oses"`
	BotOSes       []CountEntry `json:"bot_oses"`
	DeviceTypes   []CountEntry `json:"device_types"`
	ResponseCodes []CountEntry `json:"response_codes"`
	UserAgents    []CountEntry `json:"user_agents"`
}

// Summary computes every categorical histogram in one call.
func (e *Engine) Summary(ctx context.Context, f repository.Filters) (*SummaryResult, error) {
	browsers, err := e.store.FacetCounts(ctx, f, "browser_family", false)
	if err != nil {
		return nil, err
	}
	botBrowsers, err := e.store.FacetCounts(ctx, f, "browser_family", true)
	if err != nil {
		return nil, err
	}
	oses, err := e.store.FacetCounts(ctx, f, "os_family", false)
	if err != nil {
		return nil, err
	}
	botOSes, err := e.store.FacetCounts(ctx, f, "os_family", true)
	if err != nil {
		return nil, err
	}
	deviceTypes, err := e.store.DeviceTypeCounts(ctx, f)
	if err != nil {
		return nil, err
	}
	codes, err := e.store.ResponseCodeCounts(ctx, f)
	if err != nil {
		return nil, err
	}
	userAgents, err := e.store.UserAgentCounts(ctx, f)
	if err != nil {
		return nil, err
	}

	codeEntries := make([]CountEntry, 0, len(codes))
	for _, c := range codes {
		codeEntries = append(codeEntries, CountEntry{Key: httpstatus.Label(c.Code), Count: c.Count})
	}

	return &SummaryResult{
		Browsers:      toEntries(browsers),
		BotBrowsers:   toEntries(botBrowsers),
		OSes:          toEntries(oses),
		BotOSes:       toEntries(botOSes),
		DeviceTypes:   toEntries(deviceTypes),
		ResponseCodes: codeEntries,
		UserAgents:    topWithOther(toEntries(userAgents), topUserAgents),
	}, nil
}

func toEntries(rows []repository.CountRow) []CountEntry {
	out := make([]CountEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, CountEntry{Key: r.Key, Count: r.Count})
	}
	return out
}

// topWithOther keeps the first n entries and folds the remainder into a
// single "Other" bucket. Input order is the ranking, so ties already sit
// in first-encountered order.
func topWithOther(entries []CountEntry, n int) []CountEntry {
	if len(entries) <= n {
		return entries
	}
	out := make([]CountEntry, n, n+1)
	copy(out, entries[:n])
	var rest int64
	for _, e := range entries[n:] {
		rest += e.Count
	}
	return append(out, CountEntry{Key: "Other", Count: rest})
}
