package rewards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cleancity/rewards-service/events"
)

// conflictAttempts bounds how often a mutating operation is retried from a
// fresh read after an optimistic concurrency conflict.
const conflictAttempts = 3

type service struct {
	repo  Repository
	locks *accountLocker
	now   func() time.Time
}

// NewService creates the rewards engine over the given repository.
func NewService(repo Repository) Service {
	return &service{
		repo:  repo,
		locks: newAccountLocker(),
		now:   time.Now,
	}
}

// AddPoints applies one point-earning action: ledger, streak, level, badges,
// achievement progress, then a single persist. The per-user lock plus the
// repository version check guarantee concurrent credits to the same account
// serialize; credits to different accounts proceed independently. On any
// error the stored account is untouched.
func (s *service) AddPoints(ctx context.Context, userID string, credit Credit) (*CreditResult, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if credit.Amount < 0 {
		return nil, ErrInvalidAmount
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	for attempt := 0; attempt < conflictAttempts; attempt++ {
		account, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}

		work := account.Clone()
		now := s.now()
		at := credit.At
		if at.IsZero() {
			at = now
		}

		levelBefore := work.Level
		applied := applyCredit(work, credit, at)
		recordActivity(work, at)
		work.Level = levelFor(work.TotalPoints)
		awarded := evaluateBadges(work, at)
		updateAchievements(work, at)
		work.UpdatedAt = now

		if err := s.repo.Update(ctx, work); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return nil, err
		}

		result := &CreditResult{
			Account:       work,
			AppliedPoints: applied,
			AwardedBadges: awarded,
		}
		if work.Level > levelBefore {
			result.LevelUp = &LevelUpEvent{FromLevel: levelBefore, ToLevel: work.Level}
		}
		return result, nil
	}

	return nil, ErrConflict
}

// ClaimReward exchanges spendable points for a reward, issuing a claim code
// whose uniqueness the repository enforces. Lifetime points, level, badges and
// streaks are untouched. Claiming a boost item from the catalog activates its
// point multiplier.
func (s *service) ClaimReward(ctx context.Context, userID, rewardName string, pointsCost int) (*ClaimResult, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if pointsCost < 0 {
		return nil, ErrInvalidAmount
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	for attempt := 0; attempt < conflictAttempts; attempt++ {
		account, err := s.repo.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		if account.Points < pointsCost {
			return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPoints, account.Points, pointsCost)
		}

		work := account.Clone()
		now := s.now()

		code, err := s.issueClaimCode(ctx, now)
		if err != nil {
			return nil, err
		}

		claim := Claim{
			RewardName: rewardName,
			PointsCost: pointsCost,
			ClaimedAt:  now,
			Code:       code,
		}
		work.Points -= pointsCost
		work.Claims = append(work.Claims, claim)

		if item, ok := shopItemByName(rewardName); ok && item.BoostMultiplier > 1 {
			expiry := now.AddDate(0, 0, item.BoostDays)
			work.Multiplier = item.BoostMultiplier
			work.MultiplierExpiry = &expiry
		}
		work.UpdatedAt = now

		if err := s.repo.Update(ctx, work); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return nil, err
		}

		return &ClaimResult{Claim: claim, RemainingPoints: work.Points}, nil
	}

	return nil, ErrConflict
}

// MyRewards returns the caller's snapshot with level progression and rank,
// creating the account on first use. The account fetch and the population
// snapshot for the rank run concurrently.
func (s *service) MyRewards(ctx context.Context, userID string) (*AccountView, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	var (
		account  *Account
		accounts []Account
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		unlock := s.locks.lock(userID)
		defer unlock()
		a, err := s.getOrCreate(gctx, userID)
		if err != nil {
			return err
		}
		account = a
		return nil
	})

	g.Go(func() error {
		list, err := s.repo.List(gctx)
		if err != nil {
			return err
		}
		accounts = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &AccountView{
		Account:   account,
		NextLevel: nextLevelInfo(account),
		Rank:      rankForPoints(accounts, account.UserID, account.Points),
	}, nil
}

// Leaderboard ranks the population over the requested timeframe. When a
// viewer is known, their rank over the unfiltered population is included.
func (s *service) Leaderboard(ctx context.Context, timeframe Timeframe, limit int, viewerID string) (*LeaderboardView, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	view := &LeaderboardView{
		Timeframe: timeframe,
		Entries:   rankAccounts(accounts, timeframe, limit, s.now()),
	}
	if viewerID != "" {
		if rank, ok := rankOf(accounts, viewerID); ok {
			view.ViewerRank = &rank
		}
	}
	return view, nil
}

// Achievements returns the caller's progress against the achievement catalog.
func (s *service) Achievements(ctx context.Context, userID string) ([]AchievementStatus, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	unlock := s.locks.lock(userID)
	account, err := s.getOrCreate(ctx, userID)
	unlock()
	if err != nil {
		return nil, err
	}

	return achievementStatuses(account), nil
}

// Shop returns the reward catalog annotated with the caller's balance. A user
// with no account yet sees the catalog priced against a zero balance.
func (s *service) Shop(ctx context.Context, userID string) ([]ShopItemStatus, error) {
	points := 0
	if userID != "" {
		account, err := s.repo.Get(ctx, userID)
		switch {
		case err == nil:
			points = account.Points
		case errors.Is(err, ErrAccountNotFound):
		default:
			return nil, err
		}
	}

	items := shopItems()
	statuses := make([]ShopItemStatus, len(items))
	for i, item := range items {
		statuses[i] = ShopItemStatus{
			ShopItem:   item,
			CanAfford:  points >= item.PointsCost,
			UserPoints: points,
		}
	}
	return statuses, nil
}

// getOrCreate loads the account, creating a fresh one (points=0, level=1) the
// first time the user shows up. A create racing another writer falls back to
// the stored account.
func (s *service) getOrCreate(ctx context.Context, userID string) (*Account, error) {
	account, err := s.repo.Get(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	fresh := NewAccount(userID, s.now())
	if err := s.repo.Create(ctx, fresh); err != nil {
		if errors.Is(err, ErrConflict) {
			return s.repo.Get(ctx, userID)
		}
		return nil, err
	}
	return fresh, nil
}

// issueClaimCode generates a SWM-prefixed code and reserves it with the
// repository. Reservation is what upgrades "collision-resistant" into
// "unique": a duplicate is rejected and regenerated.
func (s *service) issueClaimCode(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < conflictAttempts; attempt++ {
		token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:9]
		code := fmt.Sprintf("SWM-%d-%s", now.UnixMilli(), token)

		err := s.repo.ReserveClaimCode(ctx, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, ErrCodeCollision) {
			return "", err
		}
	}
	return "", ErrCodeCollision
}

// NotificationEvents converts a credit outcome into the payloads the
// notification dispatcher consumes. The engine never dispatches itself.
func (r *CreditResult) NotificationEvents() ([]events.BadgeEarned, *events.LevelUp) {
	earned := make([]events.BadgeEarned, 0, len(r.AwardedBadges))
	for _, badge := range r.AwardedBadges {
		earned = append(earned, events.BadgeEarned{
			UserID:      r.Account.UserID,
			Badge:       string(badge.Name),
			Description: badge.Description,
			EarnedAt:    badge.EarnedAt,
		})
	}

	var levelUp *events.LevelUp
	if r.LevelUp != nil {
		levelUp = &events.LevelUp{
			UserID:    r.Account.UserID,
			FromLevel: r.LevelUp.FromLevel,
			ToLevel:   r.LevelUp.ToLevel,
			ReachedAt: r.Account.UpdatedAt,
		}
	}
	return earned, levelUp
}

// NotificationEvent converts a claim outcome into its dispatcher payload.
func (r *ClaimResult) NotificationEvent(userID string) events.RewardClaimed {
	return events.RewardClaimed{
		UserID:     userID,
		RewardName: r.Claim.RewardName,
		PointsCost: r.Claim.PointsCost,
		Code:       r.Claim.Code,
		ClaimedAt:  r.Claim.ClaimedAt,
	}
}
