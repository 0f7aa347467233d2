package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/whowhywhen/whowhywhen/internal/repository"
)

func TestBotLeaderboard(t *testing.T) {
	lastSeen := time.Now().Add(-2 * time.Hour)
	store := &fakeStore{
		botTraffic: []repository.BotTrafficRow{
			{BotID: 1, Name: "Googlebot", Website: "google.com", Count: 100, LastSeen: lastSeen, MobileCount: 10, PCCount: 90},
		},
		botPaths: map[int64][]repository.CountRow{1: {{Key: "/", Count: 60}}},
		botCodes: map[int64][]repository.ResponseCodeRow{1: {{Code: 200, Count: 95}, {Code: 404, Count: 5}}},
	}
	e := NewEngine(store)

	got, err := e.BotLeaderboard(context.Background(), repository.Filters{}, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one bot, got %d", len(got))
	}
	bot := got[0]
	if bot.Name != "Googlebot" || bot.Count != 100 {
		t.Fatalf("unexpected entry: %+v", bot)
	}
	if bot.Devices.Mobile != 10 || bot.Devices.PC != 90 {
		t.Fatalf("unexpected device breakdown: %+v", bot.Devices)
	}
	if bot.LastSeenAgo == "" {
		t.Fatal("expected humanized last seen")
	}
	if len(bot.ResponseCodes) != 2 || bot.ResponseCodes[0].Key != "200 (OK)" {
		t.Fatalf("unexpected response codes: %+v", bot.ResponseCodes)
	}
	if len(bot.TopPaths) != 1 || bot.TopPaths[0].Key != "/" {
		t.Fatalf("unexpected top paths: %+v", bot.TopPaths)
	}
}
