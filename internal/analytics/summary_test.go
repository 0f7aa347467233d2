package analytics

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whowhywhen/whowhywhen/internal/repository"
)

func TestSummary(t *testing.T) {
	store := &fakeStore{
		facets: map[string][]repository.CountRow{
			"browser_family":      {{Key: "Chrome", Count: 80}, {Key: "Firefox", Count: 20}},
			"browser_family/bots": {{Key: "Googlebot", Count: 7}},
			"os_family":           {{Key: "Windows", Count: 60}},
			"os_family/bots":      {{Key: "Linux", Count: 7}},
		},
		deviceTypes: []repository.CountRow{{Key: "PC", Count: 60}, {Key: "Phone", Count: 30}, {Key: "Bot", Count: 10}},
		codes:       []repository.ResponseCodeRow{{Code: 200, Count: 90}, {Code: 404, Count: 10}},
		userAgents:  []repository.CountRow{{Key: "ua-1", Count: 50}},
	}
	e := NewEngine(store)

	got, err := e.Summary(context.Background(), repository.Filters{})
	require.NoError(t, err)

	require.Equal(t, []CountEntry{{Key: "Chrome", Count: 80}, {Key: "Firefox", Count: 20}}, got.Browsers)
	require.Equal(t, []CountEntry{{Key: "Googlebot", Count: 7}}, got.BotBrowsers)
	require.Equal(t, []CountEntry{{Key: "Linux", Count: 7}}, got.BotOSes)
	require.Equal(t, []CountEntry{{Key: "200 (OK)", Count: 90}, {Key: "404 (Not Found)", Count: 10}}, got.ResponseCodes)
	require.Equal(t, []CountEntry{{Key: "ua-1", Count: 50}}, got.UserAgents)
	require.Equal(t, []CountEntry{{Key: "PC", Count: 60}, {Key: "Phone", Count: 30}, {Key: "Bot", Count: 10}}, got.DeviceTypes)
}

func TestTopWithOther(t *testing.T) {
	entries := make([]CountEntry, 0, 12)
	for i := 0; i < 12; i++ {
		entries = append(entries, CountEntry{Key: fmt.Sprintf("ua-%d", i), Count: int64(100 - i)})
	}

	got := topWithOther(entries, 10)
	require.Len(t, got, 11)
	require.Equal(t, "ua-0", got[0].Key)
	require.Equal(t, "ua-9", got[9].Key)
	require.Equal(t, CountEntry{Key: "Other", Count: 90 + 89}, got[10])
}

func TestTopWithOther_NoFoldBelowLimit(t *testing.T) {
	entries := []CountEntry{{Key: "a", Count: 2}, {Key: "b", Count: 1}}
	require.Equal(t, entries, topWithOther(entries, 10))
}
