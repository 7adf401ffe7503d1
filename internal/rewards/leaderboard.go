package rewards

import (
	"sort"
	"time"
)

// Timeframe selects the rolling activity window a leaderboard covers.
type Timeframe string

const (
	TimeframeAll     Timeframe = "all"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// ParseTimeframe maps a query value to a Timeframe; empty means all-time.
func ParseTimeframe(raw string) (Timeframe, error) {
	switch Timeframe(raw) {
	case "", TimeframeAll:
		return TimeframeAll, nil
	case TimeframeWeekly:
		return TimeframeWeekly, nil
	case TimeframeMonthly:
		return TimeframeMonthly, nil
	default:
		return "", ErrInvalidTimeframe
	}
}

// rankAccounts produces the timeframe-filtered leaderboard: points descending,
// ties broken by earlier last activity (the longer-standing score ranks
// higher), then by user id so the order is fully deterministic. Ranks are
// 1-based positions after sorting; tied scores still get distinct ranks.
func rankAccounts(accounts []Account, timeframe Timeframe, limit int, now time.Time) []LeaderboardEntry {
	var cutoff time.Time
	switch timeframe {
	case TimeframeWeekly:
		cutoff = now.AddDate(0, 0, -7)
	case TimeframeMonthly:
		cutoff = now.AddDate(0, -1, 0)
	}

	filtered := make([]Account, 0, len(accounts))
	for _, account := range accounts {
		if !cutoff.IsZero() {
			if account.Statistics.LastActiveAt == nil || account.Statistics.LastActiveAt.Before(cutoff) {
				continue
			}
		}
		filtered = append(filtered, account)
	}

	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		at, bt := a.Statistics.LastActiveAt, b.Statistics.LastActiveAt
		switch {
		case at == nil && bt == nil:
			return a.UserID < b.UserID
		case at == nil:
			return false
		case bt == nil:
			return true
		case !at.Equal(*bt):
			return at.Before(*bt)
		}
		return a.UserID < b.UserID
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	entries := make([]LeaderboardEntry, len(filtered))
	for i, account := range filtered {
		entries[i] = LeaderboardEntry{
			Rank:          i + 1,
			UserID:        account.UserID,
			Name:          account.Name,
			Points:        account.Points,
			Level:         account.Level,
			CurrentStreak: account.Statistics.CurrentStreak,
			LastActiveAt:  account.Statistics.LastActiveAt,
		}
	}
	return entries
}

// rankOf is the simpler unfiltered rank: one plus the number of accounts with
// strictly more points. Tied accounts share this rank. It is deliberately a
// separate definition from the leaderboard ordering; callers depend on each.
func rankOf(accounts []Account, userID string) (int, bool) {
	for i := range accounts {
		if accounts[i].UserID == userID {
			return rankForPoints(accounts, userID, accounts[i].Points), true
		}
	}
	return 0, false
}

// rankForPoints ranks a known balance against the population, excluding the
// user's own row. It also works for an account the snapshot does not contain
// yet, such as one created moments ago.
func rankForPoints(accounts []Account, userID string, points int) int {
	higher := 0
	for i := range accounts {
		if accounts[i].UserID == userID {
			continue
		}
		if accounts[i].Points > points {
			higher++
		}
	}
	return higher + 1
}
