package services

import (
	"context"
	"errors"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/Aldiyar97/quiz-league/repositories"
)

// UnclassifiedName is shown for point totals below the lowest division floor.
const UnclassifiedName = "Non classé"

// MyDivisionView is the /me/division response. Rank comes from the latest
// weekly snapshot; WeeklyXP is an informational week-scoped sum and is not
// the key the ranking sorts by.
type MyDivisionView struct {
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	Points   int    `json:"points"`
	Rank     int    `json:"rank"`
	WeeklyXP int    `json:"weekly_xp"`
	Streak   int    `json:"streak"`
}

// WeeklyXPView is the /me/weekly-xp response.
type WeeklyXPView struct {
	WeekStart time.Time         `json:"week_start"`
	WeekEnd   time.Time         `json:"week_end"`
	Total     int               `json:"total"`
	Days      []models.DayScore `json:"days"`
}

type StatsService interface {
	MyDivision(ctx context.Context, userID int) (*MyDivisionView, error)
	WeeklyXP(ctx context.Context, userID int, weekStart time.Time) (*WeeklyXPView, error)
}

type statsService struct {
	userRepo     repositories.UserRepository
	divisionRepo repositories.DivisionRepository
	rankingRepo  repositories.RankingRepository
	attemptRepo  repositories.AttemptRepository
	streaks      StreakService
	now          func() time.Time
}

func NewStatsService(
	userRepo repositories.UserRepository,
	divisionRepo repositories.DivisionRepository,
	rankingRepo repositories.RankingRepository,
	attemptRepo repositories.AttemptRepository,
	streaks StreakService,
) StatsService {
	return &statsService{
		userRepo:     userRepo,
		divisionRepo: divisionRepo,
		rankingRepo:  rankingRepo,
		attemptRepo:  attemptRepo,
		streaks:      streaks,
		now:          time.Now,
	}
}

func (s *statsService) MyDivision(ctx context.Context, userID int) (*MyDivisionView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := s.now()
	weekStart := NormalizeWeekStart(now)
	weeklyXP, err := s.attemptRepo.SumScoreBetween(ctx, userID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}

	streak, err := s.streaks.ComputeStreak(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	view := &MyDivisionView{
		Name:     UnclassifiedName,
		Points:   user.Points,
		WeeklyXP: weeklyXP,
		Streak:   streak,
	}

	divisions, err := s.divisionRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	division := Classify(divisions, user.Points)
	if division == nil {
		return view, nil // rank 0, "Non classé"
	}
	view.Name = division.Name
	view.Color = division.Color

	ranking, err := s.rankingRepo.GetLatestByDivision(ctx, division.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrRankingNotFound) {
			return view, nil // no snapshot yet this season
		}
		return nil, err
	}
	if entry := ranking.EntryForUser(userID); entry != nil {
		view.Rank = entry.Rank
	}
	return view, nil
}

func (s *statsService) WeeklyXP(ctx context.Context, userID int, weekStart time.Time) (*WeeklyXPView, error) {
	weekStart = NormalizeWeekStart(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 7)

	days, err := s.attemptRepo.DailyScores(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, d := range days {
		total += d.XP
	}
	return &WeeklyXPView{
		WeekStart: weekStart,
		WeekEnd:   weekStart.AddDate(0, 0, 6),
		Total:     total,
		Days:      days,
	}, nil
}
