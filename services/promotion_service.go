package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/Aldiyar97/quiz-league/repositories"
)

// ApplyThresholds assigns promotion statuses over a rank-ordered entry list:
// the top promoteK entries are promoted, the bottom relegateK relegated,
// everyone else stays. When a small division makes the two slices overlap,
// promotion wins; an entry can never be demoted after qualifying for
// promotion.
func ApplyThresholds(entries []models.RankingEntry, promoteK, relegateK int) []models.RankingEntry {
	out := make([]models.RankingEntry, len(entries))
	copy(out, entries)

	if promoteK < 0 {
		promoteK = 0
	}
	if relegateK < 0 {
		relegateK = 0
	}
	if promoteK > len(out) {
		promoteK = len(out)
	}
	relegateFrom := len(out) - relegateK
	if relegateFrom < 0 {
		relegateFrom = 0
	}

	for i := range out {
		switch {
		case i < promoteK:
			out[i].Status = models.RankingStatusPromoted
		case i >= relegateFrom:
			out[i].Status = models.RankingStatusRelegated
		default:
			out[i].Status = models.RankingStatusStayed
		}
	}
	return out
}

type PromotionService interface {
	// ProcessWeek applies promotion and relegation for every division snapshot
	// of the given week. Each division is handled in its own transaction: the
	// is_processed claim, the status updates and all point shifts commit or
	// roll back together. Re-running a processed week mutates nothing and
	// returns ErrWeekAlreadyProcessed.
	ProcessWeek(ctx context.Context, weekStart time.Time) (*ProcessWeekResult, error)
}

type ProcessWeekResult struct {
	WeekStart time.Time `json:"week_start"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Promoted  int       `json:"promoted"`
	Relegated int       `json:"relegated"`
}

type promotionService struct {
	txRunner     repositories.TxRunner
	divisionRepo repositories.DivisionRepository
	userRepo     repositories.UserRepository
	rankingRepo  repositories.RankingRepository
	cache        LeaderboardCache
	notifier     RankingNotifier
	logger       *slog.Logger
}

func NewPromotionService(
	txRunner repositories.TxRunner,
	divisionRepo repositories.DivisionRepository,
	userRepo repositories.UserRepository,
	rankingRepo repositories.RankingRepository,
	cache LeaderboardCache,
	notifier RankingNotifier,
	logger *slog.Logger,
) PromotionService {
	return &promotionService{
		txRunner:     txRunner,
		divisionRepo: divisionRepo,
		userRepo:     userRepo,
		rankingRepo:  rankingRepo,
		cache:        cache,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *promotionService) ProcessWeek(ctx context.Context, weekStart time.Time) (*ProcessWeekResult, error) {
	weekStart = NormalizeWeekStart(weekStart)

	divisions, err := s.divisionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load division ladder: %w", err)
	}
	if len(divisions) == 0 {
		return nil, ErrLadderNotConfigured
	}

	result := &ProcessWeekResult{WeekStart: weekStart}
	missing := 0

	for i, division := range divisions {
		promoted, relegated, err := s.processDivision(ctx, weekStart, divisions, i)
		switch {
		case errors.Is(err, repositories.ErrRankingNotFound):
			missing++
			continue
		case errors.Is(err, repositories.ErrRankingAlreadyProcessed):
			s.logger.WarnContext(ctx, "division already processed",
				slog.String("division", division.Name), slog.Time("week_start", weekStart))
			result.Skipped++
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to process %s: %w", division.Name, err)
		}

		result.Processed++
		result.Promoted += promoted
		result.Relegated += relegated
	}

	if result.Processed == 0 {
		if result.Skipped > 0 {
			return nil, ErrWeekAlreadyProcessed
		}
		if missing == len(divisions) {
			return nil, ErrRankingNotFound
		}
	}
	return result, nil
}

func (s *promotionService) processDivision(ctx context.Context, weekStart time.Time, divisions []models.Division, index int) (int, int, error) {
	division := divisions[index]
	var promoted, relegated int

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		ranking, err := s.rankingRepo.GetByWeekAndDivision(ctx, exec, weekStart, division.ID)
		if err != nil {
			return err
		}

		// Claim first. If the claim fails nothing below runs, so concurrent
		// or repeated cron calls cannot shift points twice.
		if err := s.rankingRepo.ClaimProcessing(ctx, exec, ranking.ID); err != nil {
			return err
		}

		entries := ApplyThresholds(ranking.Entries, division.PromotionThreshold, division.RelegationThreshold)
		if err := s.rankingRepo.UpdateEntryStatuses(ctx, exec, ranking.ID, entries); err != nil {
			return err
		}

		for _, entry := range entries {
			switch entry.Status {
			case models.RankingStatusPromoted:
				if index == 0 {
					continue // already at the top tier
				}
				target := divisions[index-1].MinPoints + 1
				if err := s.userRepo.SetPoints(ctx, exec, entry.UserID, target); err != nil {
					return fmt.Errorf("failed to promote user %d: %w", entry.UserID, err)
				}
				promoted++
			case models.RankingStatusRelegated:
				if index == len(divisions)-1 {
					continue // nowhere further down
				}
				target := divisions[index+1].MinPoints + 1
				if err := s.userRepo.SetPoints(ctx, exec, entry.UserID, target); err != nil {
					return fmt.Errorf("failed to relegate user %d: %w", entry.UserID, err)
				}
				relegated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.Invalidate(ctx, division.ID); cacheErr != nil {
			s.logger.WarnContext(ctx, "leaderboard cache invalidation failed",
				slog.Int("division_id", division.ID), slog.Any("error", cacheErr))
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyDivision(division.ID, "PROMOTIONS_PROCESSED", map[string]interface{}{
			"week_start": weekStart,
			"promoted":   promoted,
			"relegated":  relegated,
		})
	}
	return promoted, relegated, nil
}
