package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/Aldiyar97/quiz-league/repositories"
)

// RankingNotifier pushes leaderboard updates to connected clients. Implemented
// by the realtime hub; nil disables broadcasting.
type RankingNotifier interface {
	NotifyDivision(divisionID int, event string, payload interface{})
}

// LeaderboardCache is the read-through cache for per-division leaderboards.
// Implemented by repositories.RedisRankingCache; nil disables caching.
type LeaderboardCache interface {
	GetLeaderboard(ctx context.Context, divisionID int) (*models.WeeklyRanking, error)
	SetLeaderboard(ctx context.Context, divisionID int, ranking *models.WeeklyRanking) error
	Invalidate(ctx context.Context, divisionID int) error
}

// RankingMember is the input to the pure ranking computation: one user with
// the point total to rank by.
type RankingMember struct {
	UserID   int
	Username string
	Points   int
}

// NormalizeWeekStart truncates a time to the Monday 00:00 UTC that opens its
// week.
func NormalizeWeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// BuildRankings assigns dense 1..N ranks over the members, ordered by points
// descending with user id ascending as the tie-break. previousRanks, keyed by
// user id, carries last week's positions; absent users enter as "new".
func BuildRankings(members []RankingMember, previousRanks map[int]int) []models.RankingEntry {
	sorted := make([]RankingMember, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	entries := make([]models.RankingEntry, len(sorted))
	for i, m := range sorted {
		entry := models.RankingEntry{
			UserID:   m.UserID,
			Username: m.Username,
			Points:   m.Points,
			Rank:     i + 1,
			Status:   models.RankingStatusNew,
		}
		if prev, ok := previousRanks[m.UserID]; ok {
			p := prev
			entry.PreviousRank = &p
		}
		entries[i] = entry
	}
	return entries
}

type RankingService interface {
	// BuildWeek snapshots every division for the week containing weekStart.
	// Rebuilding an unprocessed week overwrites it; a processed week is
	// rejected with ErrWeekAlreadyProcessed.
	BuildWeek(ctx context.Context, weekStart time.Time) (*BuildWeekResult, error)
	// GetLeaderboard returns the latest snapshot for a division.
	GetLeaderboard(ctx context.Context, divisionID int) (*models.WeeklyRanking, error)
}

type BuildWeekResult struct {
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
	Divisions int       `json:"divisions"`
	Members   int       `json:"members"`
	Skipped   int       `json:"skipped"`
}

type rankingService struct {
	divisionRepo repositories.DivisionRepository
	userRepo     repositories.UserRepository
	rankingRepo  repositories.RankingRepository
	cache        LeaderboardCache
	notifier     RankingNotifier
	logger       *slog.Logger
}

func NewRankingService(
	divisionRepo repositories.DivisionRepository,
	userRepo repositories.UserRepository,
	rankingRepo repositories.RankingRepository,
	cache LeaderboardCache,
	notifier RankingNotifier,
	logger *slog.Logger,
) RankingService {
	return &rankingService{
		divisionRepo: divisionRepo,
		userRepo:     userRepo,
		rankingRepo:  rankingRepo,
		cache:        cache,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *rankingService) BuildWeek(ctx context.Context, weekStart time.Time) (*BuildWeekResult, error) {
	weekStart = NormalizeWeekStart(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 6)

	divisions, err := s.divisionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load division ladder: %w", err)
	}
	if len(divisions) == 0 {
		return nil, ErrLadderNotConfigured
	}

	result := &BuildWeekResult{WeekStart: weekStart, WeekEnd: weekEnd}
	for _, division := range divisions {
		// Membership is live classification by current points, not a
		// historical view.
		users, err := s.userRepo.ListByPointsRange(ctx, division.MinPoints, division.MaxPoints)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of %s: %w", division.Name, err)
		}

		members := make([]RankingMember, len(users))
		for i, u := range users {
			members[i] = RankingMember{UserID: u.ID, Username: u.Username, Points: u.Points}
		}

		ranking := &models.WeeklyRanking{
			WeekStart:  weekStart,
			WeekEnd:    weekEnd,
			DivisionID: division.ID,
			Entries:    BuildRankings(members, s.previousRanks(ctx, weekStart, division.ID)),
		}

		if err := s.rankingRepo.Upsert(ctx, ranking); err != nil {
			if errors.Is(err, repositories.ErrRankingAlreadyProcessed) {
				s.logger.WarnContext(ctx, "skipping processed snapshot",
					slog.String("division", division.Name), slog.Time("week_start", weekStart))
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to store snapshot for %s: %w", division.Name, err)
		}

		result.Divisions++
		result.Members += len(ranking.Entries)
		s.publish(ctx, division.ID, ranking)
	}

	if result.Divisions == 0 && result.Skipped > 0 {
		return nil, ErrWeekAlreadyProcessed
	}
	return result, nil
}

func (s *rankingService) GetLeaderboard(ctx context.Context, divisionID int) (*models.WeeklyRanking, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetLeaderboard(ctx, divisionID); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.logger.WarnContext(ctx, "leaderboard cache read failed", slog.Any("error", err))
		}
	}

	ranking, err := s.rankingRepo.GetLatestByDivision(ctx, divisionID)
	if err != nil {
		if errors.Is(err, repositories.ErrRankingNotFound) {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLeaderboard(ctx, divisionID, ranking); err != nil {
			s.logger.WarnContext(ctx, "leaderboard cache write failed", slog.Any("error", err))
		}
	}
	return ranking, nil
}

// previousRanks maps user id to last week's rank for the same division.
// Missing snapshots simply mean everyone enters as "new".
func (s *rankingService) previousRanks(ctx context.Context, weekStart time.Time, divisionID int) map[int]int {
	prior, err := s.rankingRepo.GetByWeekAndDivision(ctx, nil, weekStart.AddDate(0, 0, -7), divisionID)
	if err != nil {
		return nil
	}
	ranks := make(map[int]int, len(prior.Entries))
	for _, e := range prior.Entries {
		ranks[e.UserID] = e.Rank
	}
	return ranks
}

func (s *rankingService) publish(ctx context.Context, divisionID int, ranking *models.WeeklyRanking) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, divisionID); err != nil {
			s.logger.WarnContext(ctx, "leaderboard cache invalidation failed",
				slog.Int("division_id", divisionID), slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyDivision(divisionID, "RANKING_UPDATED", ranking)
	}
}
