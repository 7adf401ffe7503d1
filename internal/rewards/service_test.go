package rewards

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeRepo struct {
	getFn              func(context.Context, string) (*Account, error)
	createFn           func(context.Context, *Account) error
	updateFn           func(context.Context, *Account) error
	listFn             func(context.Context) ([]Account, error)
	reserveClaimCodeFn func(context.Context, string) error
}

func (f *fakeRepo) Get(ctx context.Context, userID string) (*Account, error) {
	if f.getFn != nil {
		return f.getFn(ctx, userID)
	}
	return nil, errors.New("getFn not provided")
}

func (f *fakeRepo) Create(ctx context.Context, account *Account) error {
	if f.createFn != nil {
		return f.createFn(ctx, account)
	}
	return errors.New("createFn not provided")
}

func (f *fakeRepo) Update(ctx context.Context, account *Account) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, account)
	}
	return errors.New("updateFn not provided")
}

func (f *fakeRepo) List(ctx context.Context) ([]Account, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeRepo) ReserveClaimCode(ctx context.Context, code string) error {
	if f.reserveClaimCodeFn != nil {
		return f.reserveClaimCodeFn(ctx, code)
	}
	return nil
}

func newTestService(repo Repository, now time.Time) *service {
	return &service{
		repo:  repo,
		locks: newAccountLocker(),
		now:   func() time.Time { return now },
	}
}

func TestAddPoints_RejectsNegativeWithoutTouchingStore(t *testing.T) {
	repo := &fakeRepo{
		getFn: func(context.Context, string) (*Account, error) {
			t.Fatal("store must not be read for an invalid amount")
			return nil, nil
		},
	}
	svc := newTestService(repo, ts("2026-03-01T09:00:00Z"))

	if _, err := svc.AddPoints(context.Background(), "user-1", Credit{Amount: -5}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAddPoints_RequiresUserID(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))

	if _, err := svc.AddPoints(context.Background(), "", Credit{Amount: 10}); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
}

func TestAddPoints_CreatesAccountOnFirstUse(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))

	result, err := svc.AddPoints(context.Background(), "user-1", Credit{Amount: 10, Reason: "report"})
	if err != nil {
		t.Fatalf("AddPoints returned error: %v", err)
	}

	if result.Account.Points != 10 || result.Account.TotalPoints != 10 {
		t.Fatalf("unexpected balance: %+v", result.Account)
	}
	if result.Account.Level != 1 {
		t.Fatalf("expected level 1, got %d", result.Account.Level)
	}
	if result.Account.Statistics.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", result.Account.Statistics.CurrentStreak)
	}
}

func TestAddPoints_LevelTracksTotalPoints(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	result, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 100})
	if err != nil {
		t.Fatalf("AddPoints returned error: %v", err)
	}

	// Exactly 100 lifetime points reaches level 2.
	if result.Account.Level != 2 {
		t.Fatalf("expected level 2 at 100 points, got %d", result.Account.Level)
	}
	if result.LevelUp == nil || result.LevelUp.FromLevel != 1 || result.LevelUp.ToLevel != 2 {
		t.Fatalf("expected level-up event 1->2, got %+v", result.LevelUp)
	}
	if result.Account.Level != levelFor(result.Account.TotalPoints) {
		t.Fatal("level drifted from levelFor(totalPoints)")
	}
}

func TestAddPoints_TotalPointsMonotonicAcrossClaim(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	if _, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 500}); err != nil {
		t.Fatalf("AddPoints returned error: %v", err)
	}

	result, err := svc.ClaimReward(ctx, "user-1", "Recycling Kit", 500)
	if err != nil {
		t.Fatalf("ClaimReward returned error: %v", err)
	}
	// Exact-cost claim returns the balance to its pre-credit value.
	if result.RemainingPoints != 0 {
		t.Fatalf("expected net-zero balance, got %d", result.RemainingPoints)
	}

	account, err := svc.repo.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if account.TotalPoints != 500 {
		t.Fatalf("lifetime points must survive the claim, got %d", account.TotalPoints)
	}
	if account.Level != levelFor(account.TotalPoints) {
		t.Fatal("claim must not change the level")
	}
}

func TestAddPoints_RecyclingMasterAwardedExactlyOnce(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	if _, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 990, RecycledKG: 99}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	result, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 10, RecycledKG: 1})
	if err != nil {
		t.Fatalf("AddPoints returned error: %v", err)
	}

	awarded := 0
	for _, badge := range result.AwardedBadges {
		if badge.Name == BadgeRecyclingMaster {
			awarded++
		}
	}
	if awarded != 1 {
		t.Fatalf("expected RECYCLING_MASTER awarded once, got %d (%+v)", awarded, result.AwardedBadges)
	}

	again, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 10, RecycledKG: 1})
	if err != nil {
		t.Fatalf("AddPoints returned error: %v", err)
	}
	for _, badge := range again.AwardedBadges {
		if badge.Name == BadgeRecyclingMaster {
			t.Fatal("RECYCLING_MASTER must not be awarded twice")
		}
	}
}

func TestAddPoints_PerfectWeekOnSeventhDay(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	var last *CreditResult
	for day := 1; day <= 7; day++ {
		result, err := svc.AddPoints(ctx, "user-1", Credit{
			Amount: 5,
			At:     time.Date(2026, 3, day, 9, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("day %d credit failed: %v", day, err)
		}
		last = result
	}

	if last.Account.Statistics.CurrentStreak != 7 {
		t.Fatalf("expected streak 7, got %d", last.Account.Statistics.CurrentStreak)
	}
	found := false
	for _, badge := range last.AwardedBadges {
		if badge.Name == BadgePerfectWeek {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected PERFECT_WEEK on the seventh day, got %+v", last.AwardedBadges)
	}
}

func TestAddPoints_SameDayRepeatKeepsStreak(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	if _, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 5, At: ts("2026-03-01T09:00:00Z")}); err != nil {
		t.Fatalf("first credit failed: %v", err)
	}
	result, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 5, At: ts("2026-03-01T20:00:00Z")})
	if err != nil {
		t.Fatalf("second credit failed: %v", err)
	}

	if result.Account.Statistics.CurrentStreak != 1 {
		t.Fatalf("same-day credit must keep streak at 1, got %d", result.Account.Statistics.CurrentStreak)
	}
}

func TestAddPoints_RetriesAfterConflict(t *testing.T) {
	stored := NewAccount("user-1", ts("2026-03-01T09:00:00Z"))
	conflicts := 0
	repo := &fakeRepo{
		getFn: func(context.Context, string) (*Account, error) {
			return stored.Clone(), nil
		},
		updateFn: func(_ context.Context, account *Account) error {
			if conflicts == 0 {
				conflicts++
				return ErrConflict
			}
			stored = account.Clone()
			return nil
		},
	}
	svc := newTestService(repo, ts("2026-03-01T10:00:00Z"))

	result, err := svc.AddPoints(context.Background(), "user-1", Credit{Amount: 10})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if conflicts != 1 {
		t.Fatalf("expected one conflict before success, got %d", conflicts)
	}
	if result.Account.Points != 10 {
		t.Fatalf("credit lost across retry: %+v", result.Account)
	}
}

func TestAddPoints_ConcurrentCreditsSerialize(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 5}); err != nil {
				t.Errorf("concurrent credit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	account, err := svc.repo.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if account.Points != workers*5 {
		t.Fatalf("lost or duplicated credits: got %d, want %d", account.Points, workers*5)
	}
}

func TestClaimReward_InsufficientLeavesStateUntouched(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	if _, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 50}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	_, err := svc.ClaimReward(ctx, "user-1", "Plant a Tree", 200)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	account, err := svc.repo.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if account.Points != 50 || len(account.Claims) != 0 {
		t.Fatalf("rejected claim mutated the account: %+v", account)
	}
}

func TestClaimReward_UnknownAccount(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))

	if _, err := svc.ClaimReward(context.Background(), "ghost", "Plant a Tree", 200); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestClaimReward_CodesAreUniqueAndPrefixed(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	if _, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 1000}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		result, err := svc.ClaimReward(ctx, "user-1", "Plant a Tree", 200)
		if err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
		code := result.Claim.Code
		if !strings.HasPrefix(code, "SWM-") {
			t.Fatalf("unexpected code format: %s", code)
		}
		if seen[code] {
			t.Fatalf("duplicate claim code issued: %s", code)
		}
		seen[code] = true
	}
}

func TestClaimReward_RegeneratesOnCodeCollision(t *testing.T) {
	stored := NewAccount("user-1", ts("2026-03-01T09:00:00Z"))
	stored.Points = 500

	collisions := 0
	repo := &fakeRepo{
		getFn: func(context.Context, string) (*Account, error) {
			return stored.Clone(), nil
		},
		updateFn: func(_ context.Context, account *Account) error {
			stored = account.Clone()
			return nil
		},
		reserveClaimCodeFn: func(context.Context, string) error {
			if collisions == 0 {
				collisions++
				return ErrCodeCollision
			}
			return nil
		},
	}
	svc := newTestService(repo, ts("2026-03-01T09:00:00Z"))

	result, err := svc.ClaimReward(context.Background(), "user-1", "Plant a Tree", 200)
	if err != nil {
		t.Fatalf("expected collision to be retried, got %v", err)
	}
	if collisions != 1 {
		t.Fatalf("expected one collision, got %d", collisions)
	}
	if result.Claim.Code == "" {
		t.Fatal("expected a claim code after regeneration")
	}
}

func TestClaimReward_BoostActivatesMultiplier(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	if _, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 1000}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}
	if _, err := svc.ClaimReward(ctx, "user-1", "2x Points Multiplier", 800); err != nil {
		t.Fatalf("boost claim failed: %v", err)
	}

	result, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 10})
	if err != nil {
		t.Fatalf("boosted credit failed: %v", err)
	}
	if result.AppliedPoints != 20 {
		t.Fatalf("expected boosted credit of 20, got %d", result.AppliedPoints)
	}
}

func TestMyRewards_CreatesAccountAndRanks(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(repo, ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	if _, err := svc.AddPoints(ctx, "veteran", Credit{Amount: 500}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	view, err := svc.MyRewards(ctx, "newcomer")
	if err != nil {
		t.Fatalf("MyRewards returned error: %v", err)
	}

	if view.Account.Points != 0 || view.Account.Level != 1 {
		t.Fatalf("fresh account expected, got %+v", view.Account)
	}
	if view.Rank != 2 {
		t.Fatalf("expected rank 2 behind the veteran, got %d", view.Rank)
	}
	if view.NextLevel.NextLevel == nil || *view.NextLevel.NextLevel != 2 {
		t.Fatalf("expected next level 2, got %+v", view.NextLevel)
	}
}

func TestAchievements_ProgressAndCompletion(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 10, Reports: 1}); err != nil {
			t.Fatalf("credit %d failed: %v", i, err)
		}
	}

	statuses, err := svc.Achievements(ctx, "user-1")
	if err != nil {
		t.Fatalf("Achievements returned error: %v", err)
	}

	byID := map[string]AchievementStatus{}
	for _, status := range statuses {
		byID[status.ID] = status
	}

	reports10 := byID["report_10"]
	if !reports10.Completed || reports10.Progress != 100 {
		t.Fatalf("report_10 should be complete: %+v", reports10)
	}
	if reports10.CompletedAt == nil {
		t.Fatal("completion timestamp missing")
	}

	reports50 := byID["report_50"]
	if reports50.Completed || reports50.Current != 10 {
		t.Fatalf("report_50 should be in progress: %+v", reports50)
	}
}

func TestShop_AffordabilityAgainstBalance(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))
	ctx := context.Background()

	if _, err := svc.AddPoints(ctx, "user-1", Credit{Amount: 300}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	items, err := svc.Shop(ctx, "user-1")
	if err != nil {
		t.Fatalf("Shop returned error: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected a non-empty catalog")
	}

	for _, item := range items {
		wantAfford := item.PointsCost <= 300
		if item.CanAfford != wantAfford {
			t.Errorf("%s: canAfford = %v, want %v", item.Name, item.CanAfford, wantAfford)
		}
		if item.UserPoints != 300 {
			t.Errorf("%s: userPoints = %d, want 300", item.Name, item.UserPoints)
		}
	}

	// A stranger sees the catalog against a zero balance.
	anonymous, err := svc.Shop(ctx, "nobody")
	if err != nil {
		t.Fatalf("Shop for unknown user returned error: %v", err)
	}
	for _, item := range anonymous {
		if item.CanAfford {
			t.Errorf("%s should be unaffordable with no account", item.Name)
		}
	}
}

func TestCreditResult_NotificationEvents(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-01T09:00:00Z"))

	result, err := svc.AddPoints(context.Background(), "user-1", Credit{Amount: 150, Reports: 1})
	if err != nil {
		t.Fatalf("AddPoints returned error: %v", err)
	}

	badges, levelUp := result.NotificationEvents()
	if len(badges) != 1 || badges[0].Badge != string(BadgeFirstReport) {
		t.Fatalf("expected a FIRST_REPORT event, got %+v", badges)
	}
	if levelUp == nil || levelUp.ToLevel != 2 {
		t.Fatalf("expected a level-up event to 2, got %+v", levelUp)
	}
	for _, event := range badges {
		if event.UserID != "user-1" {
			t.Fatalf("event missing user id: %+v", event)
		}
	}
}

func TestLeaderboard_ViewerRankOverUnfilteredPopulation(t *testing.T) {
	svc := newTestService(NewMemoryRepository(), ts("2026-03-20T09:00:00Z"))
	ctx := context.Background()

	// The stale account falls outside the weekly window but still counts
	// toward the viewer's unfiltered rank.
	if _, err := svc.AddPoints(ctx, "stale", Credit{Amount: 900, At: ts("2026-02-01T09:00:00Z")}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}
	if _, err := svc.AddPoints(ctx, "viewer", Credit{Amount: 100, At: ts("2026-03-19T09:00:00Z")}); err != nil {
		t.Fatalf("seed credit failed: %v", err)
	}

	view, err := svc.Leaderboard(ctx, TimeframeWeekly, 10, "viewer")
	if err != nil {
		t.Fatalf("Leaderboard returned error: %v", err)
	}

	if len(view.Entries) != 1 || view.Entries[0].UserID != "viewer" {
		t.Fatalf("weekly board should contain only the recent account, got %+v", view.Entries)
	}
	if view.ViewerRank == nil || *view.ViewerRank != 2 {
		t.Fatalf("viewer rank must span the whole population, got %v", view.ViewerRank)
	}
}

