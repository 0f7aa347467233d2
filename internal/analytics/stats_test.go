package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/whowhywhen/whowhywhen/internal/repository"
)

func TestStats_GapFills(t *testing.T) {
	store := &fakeStore{buckets: []repository.BucketRow{
		{Bucket: utc(2026, 8, 1, 11, 0), Count2xx: 5, Count5xx: 1, AvgResponseTime: 0.25},
	}}
	e := NewEngine(store)

	start := utc(2026, 8, 1, 10, 0)
	end := utc(2026, 8, 1, 13, 0)
	result, err := e.Stats(context.Background(), repository.Filters{Start: &start, End: &end}, FreqHour)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if store.bucketUnit != "hour" {
		t.Fatalf("expected hour unit passed through, got %q", store.bucketUnit)
	}
	if len(result.Buckets) != 4 {
		t.Fatalf("expected 4 contiguous buckets, got %d", len(result.Buckets))
	}
	labels := []string{"2026-08-01 10:00", "2026-08-01 11:00", "2026-08-01 12:00", "2026-08-01 13:00"}
	for i, want := range labels {
		if result.Buckets[i].Label != want {
			t.Fatalf("bucket %d: expected label %q, got %q", i, want, result.Buckets[i].Label)
		}
	}
	if result.Buckets[1].Count2xx != 5 || result.Buckets[1].Count5xx != 1 {
		t.Fatalf("expected stored counts in bucket 1, got %+v", result.Buckets[1])
	}
	for _, i := range []int{0, 2, 3} {
		b := result.Buckets[i]
		if b.Count2xx != 0 || b.Count3xx != 0 || b.Count4xx != 0 || b.Count5xx != 0 || b.AvgResponseTime != 0 {
			t.Fatalf("expected bucket %d zero-filled, got %+v", i, b)
		}
	}
}

func TestStats_QueryWindowEndExclusive(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(store)

	start := utc(2026, 8, 1, 0, 0)
	end := utc(2026, 8, 3, 0, 0)
	if _, err := e.Stats(context.Background(), repository.Filters{Start: &start, End: &end}, FreqDay); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if store.bucketFilt.End == nil || !store.bucketFilt.End.Equal(utc(2026, 8, 4, 0, 0)) {
		t.Fatalf("expected query end one bucket past the window, got %v", store.bucketFilt.End)
	}
}

func TestStats_EndBeforeStart(t *testing.T) {
	e := NewEngine(&fakeStore{})
	start := utc(2026, 8, 2, 0, 0)
	end := utc(2026, 8, 1, 0, 0)
	if _, err := e.Stats(context.Background(), repository.Filters{Start: &start, End: &end}, FreqHour); err == nil {
		t.Fatal("expected inverted window to error")
	}
}

func TestFillBuckets_SingleBucketWindow(t *testing.T) {
	at := utc(2026, 8, 1, 10, 30)
	got := fillBuckets(nil, FreqMinute.truncate(at), FreqMinute.truncate(at), FreqMinute)
	if len(got) != 1 {
		t.Fatalf("expected one bucket when start equals end, got %d", len(got))
	}
	if got[0].Label != "2026-08-01 10:30" {
		t.Fatalf("unexpected label %q", got[0].Label)
	}
}

func TestParseFrequency(t *testing.T) {
	cases := map[string]Frequency{
		"minute":  FreqMinute,
		"day":     FreqDay,
		"hour":    FreqHour,
		"":        FreqHour,
		"monthly": FreqHour,
	}
	for in, want := range cases {
		if got := ParseFrequency(in); got != want {
			t.Fatalf("ParseFrequency(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFrequency_DefaultWindows(t *testing.T) {
	if FreqMinute.defaultWindow() != time.Hour {
		t.Fatal("minute window should be one hour")
	}
	if FreqHour.defaultWindow() != 24*time.Hour {
		t.Fatal("hour window should be one day")
	}
	if FreqDay.defaultWindow() != 30*24*time.Hour {
		t.Fatal("day window should be thirty days")
	}
}

func TestFrequency_DayLabel(t *testing.T) {
	if got := FreqDay.label(utc(2026, 8, 1, 15, 4)); got != "2026-08-01" {
		t.Fatalf("expected date-only label for days, got %q", got)
	}
}
