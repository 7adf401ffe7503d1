package events

import "time"

// BadgeEarned is emitted when the rewards engine unlocks a badge for a user.
// The notification dispatcher owns delivery; this payload is what it receives.
type BadgeEarned struct {
	UserID      string    `json:"userId"`
	Badge       string    `json:"badge"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// LevelUp is emitted when a point credit pushes a user past a level threshold.
type LevelUp struct {
	UserID    string    `json:"userId"`
	FromLevel int       `json:"fromLevel"`
	ToLevel   int       `json:"toLevel"`
	ReachedAt time.Time `json:"reachedAt"`
}

// RewardClaimed is emitted when a user exchanges points for a shop reward.
type RewardClaimed struct {
	UserID     string    `json:"userId"`
	RewardName string    `json:"rewardName"`
	PointsCost int       `json:"pointsCost"`
	Code       string    `json:"code"`
	ClaimedAt  time.Time `json:"claimedAt"`
}
