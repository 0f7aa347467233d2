package analytics

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/whowhywhen/whowhywhen/internal/httpstatus"
	"github.com/whowhywhen/whowhywhen/internal/repository"
)

const (
	defaultLeaderboardSize = 10
	botDetailLimit         = 10
)

// DeviceBreakdown is a bot's traffic split by device class.
type DeviceBreakdown struct {
	Mobile int64 `json:"mobile"`
	Tablet int64 `json:"tablet"`
	PC     int64 `json:"pc"`
}

// BotStat is one leaderboard entry.
type BotStat struct {
	BotID         int64           `json:"bot_id"`
	Name          string          `json:"name"`
	Website       string          `json:"website"`
	Count         int64           `json:"count"`
	LastSeen      time.Time       `json:"last_seen"`
	LastSeenAgo   string          `json:"last_seen_ago"`
	Devices       DeviceBreakdown `json:"devices"`
	TopPaths      []CountEntry    `json:"top_paths"`
	ResponseCodes []CountEntry    `json:"response_codes"`
}

// BotLeaderboard returns the top limit bots by matching traffic volume,
// each annotated with its device breakdown, top endpoints, response-code
// distribution and a humanized last-seen.
func (e *Engine) BotLeaderboard(ctx context.Context, f repository.Filters, limit int) ([]BotStat, error) {
	if limit < 1 {
		limit = defaultLeaderboardSize
	}
	traffic, err := e.store.BotTraffic(ctx, f, limit)
	if err != nil {
		return nil, err
	}

	out := make([]BotStat, 0, len(traffic))
	for _, row := range traffic {
		paths, err := e.store.BotPathCounts(ctx, f, row.BotID, botDetailLimit)
		if err != nil {
			return nil, err
		}
		codes, err := e.store.BotCodeCounts(ctx, f, row.BotID, botDetailLimit)
		if err != nil {
			return nil, err
		}
		codeEntries := make([]CountEntry, 0, len(codes))
		for _, c := range codes {
			codeEntries = append(codeEntries, CountEntry{Key: httpstatus.Label(c.Code), Count: c.Count})
		}
		out = append(out, BotStat{
			BotID:       row.BotID,
			Name:        row.Name,
			Website:     row.Website,
			Count:       row.Count,
			LastSeen:    row.LastSeen,
			LastSeenAgo: humanize.Time(row.LastSeen),
			Devices: DeviceBreakdown{
				Mobile: row.MobileCount,
				Tablet: row.TabletCount,
				PC:     row.PCCount,
			},
			TopPaths:      toEntries(paths),
			ResponseCodes: codeEntries,
		})
	}
	return out, nil
}
