package repository

import (
	"strings"
	"testing"
)

// The device buckets must form a partition: bot wins over every device
// flag, then mobile, tablet, pc, and only a record with no flag at all
// lands in Other.
func TestDeviceTypeCase_Priority(t *testing.T) {
	branches := []string{
		"WHEN is_bot THEN 'Bot'",
		"WHEN is_mobile THEN 'Phone'",
		"WHEN is_tablet THEN 'Tablet'",
		"WHEN is_pc THEN 'PC'",
		"ELSE 'Other'",
	}
	pos := -1
	for _, branch := range branches {
		idx := strings.Index(deviceTypeCase, branch)
		if idx < 0 {
			t.Fatalf("missing branch %q", branch)
		}
		if idx <= pos {
			t.Fatalf("branch %q out of priority order", branch)
		}
		if strings.Index(deviceTypeCase[idx+1:], branch) >= 0 {
			t.Fatalf("branch %q appears more than once", branch)
		}
		pos = idx
	}
	if strings.Count(deviceTypeCase, "WHEN") != 4 {
		t.Fatalf("expected exactly four WHEN branches, got:\n%s", deviceTypeCase)
	}
}
