package rewards

import (
	"testing"
	"time"
)

func boardAccount(userID string, points int, lastActive time.Time) Account {
	active := lastActive
	return Account{
		UserID: userID,
		Name:   userID,
		Points: points,
		Level:  levelFor(points),
		Statistics: Statistics{
			LastActiveAt: &active,
		},
	}
}

func TestRankAccounts_TieBreakByEarlierActivity(t *testing.T) {
	accounts := []Account{
		boardAccount("late", 300, ts("2026-03-05T10:00:00Z")),
		boardAccount("top", 500, ts("2026-03-01T10:00:00Z")),
		boardAccount("early", 300, ts("2026-03-02T10:00:00Z")),
	}

	entries := rankAccounts(accounts, TimeframeAll, 0, ts("2026-03-06T00:00:00Z"))

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Ties are distinct ranks; earlier activity wins the higher position.
	wantOrder := []struct {
		userID string
		rank   int
	}{
		{"top", 1},
		{"early", 2},
		{"late", 3},
	}
	for i, want := range wantOrder {
		if entries[i].UserID != want.userID || entries[i].Rank != want.rank {
			t.Errorf("position %d: expected %s rank %d, got %s rank %d",
				i, want.userID, want.rank, entries[i].UserID, entries[i].Rank)
		}
	}
}

func TestRankAccounts_WeeklyWindow(t *testing.T) {
	now := ts("2026-03-10T12:00:00Z")
	accounts := []Account{
		boardAccount("recent", 100, ts("2026-03-08T10:00:00Z")),
		boardAccount("stale", 900, ts("2026-02-20T10:00:00Z")),
	}

	entries := rankAccounts(accounts, TimeframeWeekly, 0, now)

	if len(entries) != 1 || entries[0].UserID != "recent" {
		t.Fatalf("weekly window must drop stale accounts, got %+v", entries)
	}

	monthly := rankAccounts(accounts, TimeframeMonthly, 0, now)
	if len(monthly) != 2 {
		t.Fatalf("monthly window should keep both, got %d", len(monthly))
	}
}

func TestRankAccounts_Limit(t *testing.T) {
	accounts := []Account{
		boardAccount("a", 3, ts("2026-03-01T10:00:00Z")),
		boardAccount("b", 2, ts("2026-03-01T10:00:00Z")),
		boardAccount("c", 1, ts("2026-03-01T10:00:00Z")),
	}

	entries := rankAccounts(accounts, TimeframeAll, 2, ts("2026-03-02T00:00:00Z"))

	if len(entries) != 2 || entries[0].UserID != "a" || entries[1].UserID != "b" {
		t.Fatalf("limit not applied in order, got %+v", entries)
	}
}

func TestRankOf_TiesShareRank(t *testing.T) {
	accounts := []Account{
		boardAccount("a", 500, ts("2026-03-01T10:00:00Z")),
		boardAccount("b", 300, ts("2026-03-01T10:00:00Z")),
		boardAccount("c", 300, ts("2026-03-02T10:00:00Z")),
	}

	for userID, want := range map[string]int{"a": 1, "b": 2, "c": 2} {
		rank, ok := rankOf(accounts, userID)
		if !ok {
			t.Fatalf("expected %s to be ranked", userID)
		}
		if rank != want {
			t.Errorf("rankOf(%s) = %d, want %d", userID, rank, want)
		}
	}

	if _, ok := rankOf(accounts, "missing"); ok {
		t.Fatal("unknown user must not be ranked")
	}
}

func TestParseTimeframe(t *testing.T) {
	for raw, want := range map[string]Timeframe{
		"":        TimeframeAll,
		"all":     TimeframeAll,
		"weekly":  TimeframeWeekly,
		"monthly": TimeframeMonthly,
	} {
		got, err := ParseTimeframe(raw)
		if err != nil || got != want {
			t.Errorf("ParseTimeframe(%q) = %v, %v; want %v", raw, got, err, want)
		}
	}

	if _, err := ParseTimeframe("yearly"); err == nil {
		t.Fatal("expected error for unsupported timeframe")
	}
}
