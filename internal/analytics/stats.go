package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/whowhywhen/whowhywhen/internal/repository"
)

// Frequency selects the time-bucket width.
type Frequency string

const (
	FreqMinute Frequency = "minute"
	FreqHour   Frequency = "hour"
	FreqDay    Frequency = "day"
)

// defaultWindow returns how far back the window reaches when the caller
// gives no explicit range: an hour of minutes, a day of hours, thirty days
// of days.
func (f Frequency) defaultWindow() time.Duration {
	switch f {
	case FreqMinute:
		return time.Hour
	case FreqDay:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// truncate floors t to the frequency's unit, in UTC.
func (f Frequency) truncate(t time.Time) time.Time {
	t = t.UTC()
	switch f {
	case FreqMinute:
		return t.Truncate(time.Minute)
	case FreqDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(time.Hour)
	}
}

// next advances one bucket.
func (f Frequency) next(t time.Time) time.Time {
	switch f {
	case FreqMinute:
		return t.Add(time.Minute)
	case FreqDay:
		return t.AddDate(0, 0, 1)
	default:
		return t.Add(time.Hour)
	}
}

// label renders the bucket's series key at the frequency's granularity.
// Clients align series on these strings, so the formats are contractual.
func (f Frequency) label(t time.Time) string {
	if f == FreqDay {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}

// ParseFrequency maps a query-string selector to a Frequency; anything
// unknown falls back to hours.
func ParseFrequency(s string) Frequency {
	switch s {
	case "minute":
		return FreqMinute
	case "day":
		return FreqDay
	default:
		return FreqHour
	}
}

// BucketPoint is one gap-filled time bucket.
type BucketPoint struct {
	Label           string  `json:"label"`
	Count2xx        int     `json:"count_2xx"`
	Count3xx        int     `json:"count_3xx"`
	Count4xx        int     `json:"count_4xx"`
	Count5xx        int     `json:"count_5xx"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

// StatsResult is the full bucket series for a window.
type StatsResult struct {
	Frequency Frequency     `json:"frequency"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Buckets   []BucketPoint `json:"buckets"`
}

// Stats computes the time-bucketed series for the filter set. The window
// defaults per frequency and may be overridden by f.Start/f.End; both ends
// are truncated to the unit and every bucket from start to end inclusive
// appears in the output, zero-filled when empty.
func (e *Engine) Stats(ctx context.Context, f repository.Filters, freq Frequency) (*StatsResult, error) {
	now := time.Now().UTC()
	end := now
	if f.End != nil {
		end = *f.End
	}
	start := end.Add(-freq.defaultWindow())
	if f.Start != nil {
		start = *f.Start
	}
	start = freq.truncate(start)
	end = freq.truncate(end)
	if end.Before(start) {
		return nil, fmt.Errorf("window end %s before start %s", end, start)
	}

	// The query window covers the truncated range.
	f.Start, f.End = &start, &end
	endExclusive := freq.next(end)
	f.End = &endExclusive

	rows, err := e.store.TimeBuckets(ctx, f, string(freq))
	if err != nil {
		return nil, err
	}
	return &StatsResult{
		Frequency: freq,
		Start:     start,
		End:       end,
		Buckets:   fillBuckets(rows, start, end, freq),
	}, nil
}

// fillBuckets walks the window one unit at a time and merges in the
// non-empty rows, producing a contiguous ascending series.
func fillBuckets(rows []repository.BucketRow, start, end time.Time, freq Frequency) []BucketPoint {
	byBucket := make(map[time.Time]repository.BucketRow, len(rows))
	for _, row := range rows {
		byBucket[freq.truncate(row.Bucket)] = row
	}
	var out []BucketPoint
	for t := start; !t.After(end); t = freq.next(t) {
		point := BucketPoint{Label: freq.label(t)}
		if row, ok := byBucket[t]; ok {
			point.Count2xx = row.Count2xx
			point.Count3xx = row.Count3xx
			point.Count4xx = row.Count4xx
			point.Count5xx = row.Count5xx
			point.AvgResponseTime = row.AvgResponseTime
		}
		out = append(out, point)
	}
	return out
}
