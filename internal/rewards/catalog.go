package rewards

import "time"

// ShopItem is a redeemable reward from the catalog.
type ShopItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PointsCost  int    `json:"points_cost"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`

	// Boost items activate a temporary point multiplier when claimed.
	BoostMultiplier float64 `json:"-"`
	BoostDays       int     `json:"-"`
}

// ShopItemStatus annotates a catalog item with the viewer's affordability.
type ShopItemStatus struct {
	ShopItem
	CanAfford  bool `json:"can_afford"`
	UserPoints int  `json:"user_points"`
}

// shopItems is the reward catalog. IDs are stable; clients reference them.
func shopItems() []ShopItem {
	return []ShopItem{
		{ID: 1, Name: "₹50 Gift Card", Description: "Amazon/Flipkart voucher", PointsCost: 500, Icon: "🎁", Category: "Shopping"},
		{ID: 2, Name: "Plant a Tree", Description: "We will plant a tree in your name", PointsCost: 200, Icon: "🌳", Category: "Environment"},
		{ID: 3, Name: "Premium Badge", Description: "Exclusive profile badge", PointsCost: 1000, Icon: "⭐", Category: "Profile"},
		{ID: 4, Name: "2x Points Multiplier", Description: "Double points for 7 days", PointsCost: 800, Icon: "⚡", Category: "Boost", BoostMultiplier: 2.0, BoostDays: 7},
		{ID: 5, Name: "Community Hero Title", Description: "Special title on profile", PointsCost: 1500, Icon: "👑", Category: "Profile"},
		{ID: 6, Name: "Recycling Kit", Description: "Free recycling starter kit", PointsCost: 300, Icon: "♻️", Category: "Physical"},
	}
}

// shopItemByName resolves a catalog item; claims for names outside the catalog
// are still honored (the catalog is presentation, not an allow-list), they
// just carry no boost.
func shopItemByName(name string) (ShopItem, bool) {
	for _, item := range shopItems() {
		if item.Name == name {
			return item, true
		}
	}
	return ShopItem{}, false
}

// achievementDefinition is a static achievement template with the statistic
// it measures.
type achievementDefinition struct {
	ID          string
	Title       string
	Description string
	Target      float64
	Points      int
	Icon        string
	Current     func(Statistics) float64
}

// AchievementStatus is the computed progress view returned by the API.
type AchievementStatus struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Target      float64    `json:"target"`
	Current     float64    `json:"current"`
	Points      int        `json:"points"`
	Icon        string     `json:"icon"`
	Progress    float64    `json:"progress"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func achievementDefinitions() []achievementDefinition {
	reports := func(s Statistics) float64 { return float64(s.TotalReports) }
	recycled := func(s Statistics) float64 { return s.TotalRecycledKG }
	streak := func(s Statistics) float64 { return float64(s.CurrentStreak) }

	return []achievementDefinition{
		{ID: "report_10", Title: "Active Citizen", Description: "Submit 10 reports", Target: 10, Points: 100, Icon: "📋", Current: reports},
		{ID: "report_50", Title: "Community Hero", Description: "Submit 50 reports", Target: 50, Points: 500, Icon: "🦸", Current: reports},
		{ID: "recycle_100", Title: "Recycling Master", Description: "Recycle 100kg of waste", Target: 100, Points: 200, Icon: "♻️", Current: recycled},
		{ID: "recycle_1000", Title: "Environment Savior", Description: "Recycle 1 ton of waste", Target: 1000, Points: 1000, Icon: "🌍", Current: recycled},
		{ID: "streak_7", Title: "Perfect Week", Description: "Active for 7 consecutive days", Target: 7, Points: 150, Icon: "📅", Current: streak},
		{ID: "streak_30", Title: "Dedicated Citizen", Description: "Active for 30 consecutive days", Target: 30, Points: 500, Icon: "🔥", Current: streak},
	}
}

// updateAchievements refreshes the persisted achievement progress from the
// current statistics, stamping CompletedAt the first time a target is crossed.
func updateAchievements(account *Account, at time.Time) {
	for _, def := range achievementDefinitions() {
		current := def.Current(account.Statistics)

		idx := -1
		for i := range account.Achievements {
			if account.Achievements[i].ID == def.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			account.Achievements = append(account.Achievements, AchievementProgress{
				ID:     def.ID,
				Title:  def.Title,
				Target: def.Target,
			})
			idx = len(account.Achievements) - 1
		}

		progress := &account.Achievements[idx]
		progress.Current = current
		if current >= def.Target && progress.CompletedAt == nil {
			completed := at
			progress.CompletedAt = &completed
		}
	}
}

// achievementStatuses builds the API progress view for an account.
func achievementStatuses(account *Account) []AchievementStatus {
	statuses := make([]AchievementStatus, 0, len(achievementDefinitions()))
	for _, def := range achievementDefinitions() {
		current := def.Current(account.Statistics)
		percent := current / def.Target * 100
		if percent > 100 {
			percent = 100
		}

		status := AchievementStatus{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Target:      def.Target,
			Current:     current,
			Points:      def.Points,
			Icon:        def.Icon,
			Progress:    percent,
			Completed:   current >= def.Target,
		}
		for _, p := range account.Achievements {
			if p.ID == def.ID {
				status.CompletedAt = p.CompletedAt
				break
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
