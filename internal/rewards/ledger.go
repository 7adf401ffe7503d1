package rewards

import (
	"math"
	"time"
)

// applyCredit applies a validated credit to the account: multiplier, balance,
// lifetime total, statistic deltas, and the weekly rollup. It returns the
// effective point delta after the multiplier.
//
// Rounding policy: a boosted amount rounds half up to the nearest integer
// (2.5 points become 3). Tests pin this down.
func applyCredit(account *Account, credit Credit, at time.Time) int {
	effective := credit.Amount
	if account.Multiplier > 1 && account.MultiplierExpiry != nil && at.Before(*account.MultiplierExpiry) {
		effective = int(math.Floor(float64(credit.Amount)*account.Multiplier + 0.5))
	}

	account.Points += effective
	account.TotalPoints += effective

	account.Statistics.TotalReports += credit.Reports
	account.Statistics.ResolvedReports += credit.ResolvedReports
	account.Statistics.TotalRecycledKG += credit.RecycledKG

	rollupWeeklyActivity(account, credit, effective, at)

	return effective
}

// rollupWeeklyActivity accumulates the credit into the ISO-week bucket for the
// activity instant, appending a new bucket when the week rolls over.
func rollupWeeklyActivity(account *Account, credit Credit, points int, at time.Time) {
	year, week := at.UTC().ISOWeek()
	for i := range account.Statistics.WeeklyActivity {
		entry := &account.Statistics.WeeklyActivity[i]
		if entry.Year == year && entry.Week == week {
			entry.Points += points
			entry.Reports += credit.Reports
			entry.RecycledKG += credit.RecycledKG
			return
		}
	}
	account.Statistics.WeeklyActivity = append(account.Statistics.WeeklyActivity, WeeklyActivity{
		Week:       week,
		Year:       year,
		Points:     points,
		Reports:    credit.Reports,
		RecycledKG: credit.RecycledKG,
	})
}
