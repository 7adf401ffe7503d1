package rewards

// levelThresholds maps each level to the lifetime points required to reach it.
// Level 7 is the cap.
var levelThresholds = []struct {
	Level  int
	Points int
}{
	{1, 0},
	{2, 100},
	{3, 500},
	{4, 1000},
	{5, 5000},
	{6, 10000},
	{7, 50000},
}

const maxLevel = 7

// levelFor returns the highest level whose threshold is at or below totalPoints.
func levelFor(totalPoints int) int {
	level := 1
	for _, t := range levelThresholds {
		if totalPoints >= t.Points {
			level = t.Level
		}
	}
	return level
}

// NextLevelInfo describes progression toward the next level. NextLevel is nil
// at the cap, where Progress is pinned to 100.
type NextLevelInfo struct {
	CurrentLevel int     `json:"current_level"`
	NextLevel    *int    `json:"next_level"`
	PointsNeeded int     `json:"points_needed"`
	Progress     float64 `json:"progress"`
}

// nextLevelInfo computes progression for the account's lifetime points.
func nextLevelInfo(account *Account) NextLevelInfo {
	current := levelFor(account.TotalPoints)
	if current >= maxLevel {
		return NextLevelInfo{CurrentLevel: current, Progress: 100}
	}

	required := levelThresholds[current].Points // index current holds the next level's threshold
	next := current + 1
	progress := float64(account.TotalPoints) / float64(required) * 100
	if progress > 100 {
		progress = 100
	}

	return NextLevelInfo{
		CurrentLevel: current,
		NextLevel:    &next,
		PointsNeeded: max(0, required-account.TotalPoints),
		Progress:     progress,
	}
}
