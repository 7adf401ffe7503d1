package rewards

import (
	"context"
	"time"
)

// BadgeName identifies a badge. The set is fixed; clients store these values,
// so they must remain stable.
type BadgeName string

const (
	BadgeFirstReport       BadgeName = "FIRST_REPORT"
	BadgeWeeklyChampion    BadgeName = "WEEKLY_CHAMPION"
	BadgeMonthlyStar       BadgeName = "MONTHLY_STAR"
	BadgeRecyclingMaster   BadgeName = "RECYCLING_MASTER"
	BadgeCommunityHero     BadgeName = "COMMUNITY_HERO"
	BadgePerfectWeek       BadgeName = "PERFECT_WEEK"
	BadgeEarlyBird         BadgeName = "EARLY_BIRD"
	BadgeNightOwl          BadgeName = "NIGHT_OWL"
	BadgeEnvironmentSavior BadgeName = "ENVIRONMENT_SAVIOR"
	BadgeZeroWasteHero     BadgeName = "ZERO_WASTE_HERO"
	BadgeReportingPro      BadgeName = "REPORTING_PRO"
	BadgeEcoWarrior        BadgeName = "ECO_WARRIOR"
)

// Badge is a one-time achievement flag earned by crossing a statistic threshold.
type Badge struct {
	Name        BadgeName `json:"name" firestore:"name"`
	Icon        string    `json:"icon" firestore:"icon"`
	Description string    `json:"description" firestore:"description"`
	EarnedAt    time.Time `json:"earned_at" firestore:"earned_at"`
}

// AchievementProgress is the persisted per-account state for a catalog achievement.
type AchievementProgress struct {
	ID          string     `json:"id" firestore:"id"`
	Title       string     `json:"title" firestore:"title"`
	Target      float64    `json:"target" firestore:"target"`
	Current     float64    `json:"current" firestore:"current"`
	CompletedAt *time.Time `json:"completed_at" firestore:"completed_at"`
}

// WeeklyActivity is a per-ISO-week rollup of earning activity.
type WeeklyActivity struct {
	Week       int     `json:"week" firestore:"week"`
	Year       int     `json:"year" firestore:"year"`
	Points     int     `json:"points" firestore:"points"`
	Reports    int     `json:"reports" firestore:"reports"`
	RecycledKG float64 `json:"recycled_kg" firestore:"recycled_kg"`
}

// Statistics holds the counters badge predicates evaluate against.
type Statistics struct {
	TotalReports    int              `json:"total_reports" firestore:"total_reports"`
	ResolvedReports int              `json:"resolved_reports" firestore:"resolved_reports"`
	TotalRecycledKG float64          `json:"total_recycled_kg" firestore:"total_recycled_kg"`
	CurrentStreak   int              `json:"current_streak" firestore:"current_streak"`
	LongestStreak   int              `json:"longest_streak" firestore:"longest_streak"`
	LastActiveAt    *time.Time       `json:"last_active_at" firestore:"last_active_at"`
	WeeklyActivity  []WeeklyActivity `json:"weekly_activity" firestore:"weekly_activity"`
}

// Claim is an append-only audit record of a reward redemption.
type Claim struct {
	RewardName string    `json:"reward_name" firestore:"reward_name"`
	PointsCost int       `json:"points_cost" firestore:"points_cost"`
	ClaimedAt  time.Time `json:"claimed_at" firestore:"claimed_at"`
	Code       string    `json:"code" firestore:"code"`
}

// Account is the per-user reward aggregate. Points is the spendable balance;
// TotalPoints is lifetime earnings and never decreases. Level derives from
// TotalPoints only. Version backs the repository's optimistic concurrency check.
type Account struct {
	UserID           string                `json:"user_id" firestore:"user_id"`
	Name             string                `json:"name" firestore:"name"`
	Points           int                   `json:"points" firestore:"points"`
	TotalPoints      int                   `json:"total_points" firestore:"total_points"`
	Level            int                   `json:"level" firestore:"level"`
	Multiplier       float64               `json:"multiplier" firestore:"multiplier"`
	MultiplierExpiry *time.Time            `json:"multiplier_expiry" firestore:"multiplier_expiry"`
	Badges           []Badge               `json:"badges" firestore:"badges"`
	Achievements     []AchievementProgress `json:"achievements" firestore:"achievements"`
	Statistics       Statistics            `json:"statistics" firestore:"statistics"`
	Claims           []Claim               `json:"claims" firestore:"claims"`
	Version          int64                 `json:"-" firestore:"version"`
	CreatedAt        time.Time             `json:"created_at" firestore:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at" firestore:"updated_at"`
}

// NewAccount returns a fresh aggregate for a user who has not earned yet.
func NewAccount(userID string, now time.Time) *Account {
	return &Account{
		UserID:     userID,
		Points:     0,
		Level:      1,
		Multiplier: 1.0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// HasBadge reports whether the badge was already earned.
func (a *Account) HasBadge(name BadgeName) bool {
	for _, b := range a.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Clone deep-copies the aggregate so a failed operation never leaves a
// partially mutated account behind.
func (a *Account) Clone() *Account {
	out := *a
	out.Badges = append([]Badge(nil), a.Badges...)
	out.Achievements = make([]AchievementProgress, len(a.Achievements))
	for i, ach := range a.Achievements {
		out.Achievements[i] = ach
		if ach.CompletedAt != nil {
			t := *ach.CompletedAt
			out.Achievements[i].CompletedAt = &t
		}
	}
	out.Claims = append([]Claim(nil), a.Claims...)
	out.Statistics.WeeklyActivity = append([]WeeklyActivity(nil), a.Statistics.WeeklyActivity...)
	if a.Statistics.LastActiveAt != nil {
		t := *a.Statistics.LastActiveAt
		out.Statistics.LastActiveAt = &t
	}
	if a.MultiplierExpiry != nil {
		t := *a.MultiplierExpiry
		out.MultiplierExpiry = &t
	}
	return &out
}

// Credit describes one point-earning action. Amount is the raw delta before the
// multiplier. The statistic deltas let a single credit path carry the counters
// a report submission or recycling log changes alongside its points.
type Credit struct {
	Amount          int
	Reason          string
	Reports         int
	ResolvedReports int
	RecycledKG      float64
	// At is the activity instant; the zero value means "now".
	At time.Time
}

// CreditResult is the outcome of AddPoints: the updated snapshot plus the
// events the caller hands to the notification dispatcher.
type CreditResult struct {
	Account       *Account
	AppliedPoints int
	AwardedBadges []Badge
	LevelUp       *LevelUpEvent
}

// LevelUpEvent signals that the credit crossed a level threshold.
type LevelUpEvent struct {
	FromLevel int
	ToLevel   int
}

// ClaimResult is the outcome of a successful redemption.
type ClaimResult struct {
	Claim           Claim
	RemainingPoints int
}

// LeaderboardEntry is a derived ranking row; it is never persisted.
type LeaderboardEntry struct {
	Rank          int        `json:"rank"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	Points        int        `json:"points"`
	Level         int        `json:"level"`
	CurrentStreak int        `json:"current_streak"`
	LastActiveAt  *time.Time `json:"last_active_at"`
}

// AccountView is the my-rewards response: the snapshot plus level progression
// and the caller's rank over the whole population.
type AccountView struct {
	Account   *Account      `json:"account"`
	NextLevel NextLevelInfo `json:"next_level"`
	Rank      int           `json:"rank"`
}

// LeaderboardView is the leaderboard response. ViewerRank is the caller's rank
// over the unfiltered population, present only for authenticated requests.
type LeaderboardView struct {
	Timeframe  Timeframe          `json:"timeframe"`
	Entries    []LeaderboardEntry `json:"leaderboard"`
	ViewerRank *int               `json:"user_rank,omitempty"`
}

// Repository is the keyed get/put abstraction the engine persists through.
type Repository interface {
	// Get returns the account or ErrAccountNotFound.
	Get(ctx context.Context, userID string) (*Account, error)
	// Create stores a new account or fails with ErrConflict when one exists.
	Create(ctx context.Context, account *Account) error
	// Update persists the account if its Version still matches the stored one,
	// then increments Version. A mismatch fails with ErrConflict.
	Update(ctx context.Context, account *Account) error
	// List returns a snapshot of every account for ranking.
	List(ctx context.Context) ([]Account, error)
	// ReserveClaimCode registers a claim code, failing with ErrCodeCollision
	// if it was ever issued before. This is what makes codes unique rather
	// than merely unlikely to collide.
	ReserveClaimCode(ctx context.Context, code string) error
}

// Service is the rewards engine surface consumed by the HTTP layer and by the
// report/recycling/review collaborators.
type Service interface {
	AddPoints(ctx context.Context, userID string, credit Credit) (*CreditResult, error)
	ClaimReward(ctx context.Context, userID, rewardName string, pointsCost int) (*ClaimResult, error)
	MyRewards(ctx context.Context, userID string) (*AccountView, error)
	Leaderboard(ctx context.Context, timeframe Timeframe, limit int, viewerID string) (*LeaderboardView, error)
	Achievements(ctx context.Context, userID string) ([]AchievementStatus, error)
	Shop(ctx context.Context, userID string) ([]ShopItemStatus, error)
}
