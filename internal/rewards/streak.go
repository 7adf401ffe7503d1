package rewards

import "time"

// recordActivity updates the consecutive-day counters for an activity at the
// given instant. Calendar days compare in UTC so the streak boundary does not
// depend on the server's zone or the request's wall clock.
//
// Same-day repeat activity leaves the streak unchanged; the day after the last
// active day extends it; anything else (including the very first activity)
// starts it over at 1.
func recordActivity(account *Account, at time.Time) {
	today := calendarDay(at)

	switch {
	case account.Statistics.LastActiveAt == nil:
		account.Statistics.CurrentStreak = 1
	default:
		prev := calendarDay(*account.Statistics.LastActiveAt)
		switch daysBetween(prev, today) {
		case 0:
			// Repeat activity on the same day.
		case 1:
			account.Statistics.CurrentStreak++
		default:
			account.Statistics.CurrentStreak = 1
		}
	}

	if account.Statistics.CurrentStreak > account.Statistics.LongestStreak {
		account.Statistics.LongestStreak = account.Statistics.CurrentStreak
	}

	instant := at
	account.Statistics.LastActiveAt = &instant
}

// calendarDay truncates an instant to its UTC calendar day.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b; both must be day-truncated.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
