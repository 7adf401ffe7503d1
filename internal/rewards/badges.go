package rewards

import "time"

// badgeDefinition pairs a badge with the pure predicate that unlocks it.
type badgeDefinition struct {
	Name        BadgeName
	Icon        string
	Description string
	Unlocked    func(Statistics) bool
}

// badgeDefinitions is the canonical predicate table. Badges without a counter
// predicate (WEEKLY_CHAMPION, MONTHLY_STAR, EARLY_BIRD, NIGHT_OWL) are
// reserved names awarded by out-of-band campaigns, not by the engine.
func badgeDefinitions() []badgeDefinition {
	return []badgeDefinition{
		{
			Name:        BadgeFirstReport,
			Icon:        "📝",
			Description: "Submitted your first report",
			Unlocked:    func(s Statistics) bool { return s.TotalReports >= 1 },
		},
		{
			Name:        BadgeReportingPro,
			Icon:        "📋",
			Description: "Submitted 10 reports",
			Unlocked:    func(s Statistics) bool { return s.TotalReports >= 10 },
		},
		{
			Name:        BadgeCommunityHero,
			Icon:        "🦸",
			Description: "Submitted 50 reports",
			Unlocked:    func(s Statistics) bool { return s.TotalReports >= 50 },
		},
		{
			Name:        BadgeRecyclingMaster,
			Icon:        "♻️",
			Description: "Recycled 100kg of waste",
			Unlocked:    func(s Statistics) bool { return s.TotalRecycledKG >= 100 },
		},
		{
			Name:        BadgeEcoWarrior,
			Icon:        "🌿",
			Description: "Recycled 500kg of waste",
			Unlocked:    func(s Statistics) bool { return s.TotalRecycledKG >= 500 },
		},
		{
			Name:        BadgeEnvironmentSavior,
			Icon:        "🌍",
			Description: "Recycled 1 ton of waste",
			Unlocked:    func(s Statistics) bool { return s.TotalRecycledKG >= 1000 },
		},
		{
			Name:        BadgePerfectWeek,
			Icon:        "📅",
			Description: "Active for 7 consecutive days",
			Unlocked:    func(s Statistics) bool { return s.CurrentStreak >= 7 },
		},
		{
			Name:        BadgeZeroWasteHero,
			Icon:        "🔥",
			Description: "Active for 30 consecutive days",
			Unlocked:    func(s Statistics) bool { return s.CurrentStreak >= 30 },
		},
	}
}

// evaluateBadges appends every badge whose predicate holds and was not already
// earned, returning only the newly awarded ones. Calling it again with
// unchanged statistics returns nothing.
func evaluateBadges(account *Account, at time.Time) []Badge {
	var awarded []Badge
	for _, def := range badgeDefinitions() {
		if account.HasBadge(def.Name) || !def.Unlocked(account.Statistics) {
			continue
		}
		badge := Badge{
			Name:        def.Name,
			Icon:        def.Icon,
			Description: def.Description,
			EarnedAt:    at,
		}
		account.Badges = append(account.Badges, badge)
		awarded = append(awarded, badge)
	}
	return awarded
}
