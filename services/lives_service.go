package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/Aldiyar97/quiz-league/repositories"
	"golang.org/x/sync/errgroup"
)

// Default life pool for new accounts.
const (
	DefaultMaxLives         = 5
	DefaultRegenerationRate = 4 // hours per life
)

// regenerateWorkers bounds the concurrency of the hourly catch-up batch.
const regenerateWorkers = 8

// Regenerate returns the pool after applying time-based regeneration at the
// given instant, plus whether anything changed. lastRegeneration advances by
// exactly livesToAdd*rate hours, never to now, so partial progress toward the
// next life is carried instead of lost.
func Regenerate(pool models.LifePool, now time.Time) (models.LifePool, bool) {
	if pool.Current >= pool.Max || pool.RegenerationRate <= 0 {
		return pool, false
	}

	hoursElapsed := int(now.Sub(pool.LastRegeneration).Hours())
	if hoursElapsed < pool.RegenerationRate {
		return pool, false
	}

	livesToAdd := hoursElapsed / pool.RegenerationRate
	pool.Current += livesToAdd
	if pool.Current > pool.Max {
		pool.Current = pool.Max
	}
	pool.LastRegeneration = pool.LastRegeneration.Add(time.Duration(livesToAdd*pool.RegenerationRate) * time.Hour)
	return pool, true
}

type LivesService interface {
	// Get returns the user's pool with any pending regeneration applied and
	// persisted, so idle users see correct values without the batch job.
	Get(ctx context.Context, userID int) (*models.LifePool, error)
	// Consume spends one life, the gate a quiz attempt must pass. Fails with
	// ErrInsufficientLives on an empty pool.
	Consume(ctx context.Context, userID int) (*models.LifePool, error)
	// RegenerateAll is the hourly catch-up over every user below max.
	RegenerateAll(ctx context.Context) (*RegenerateAllResult, error)
}

type RegenerateAllResult struct {
	Scanned     int `json:"scanned"`
	Regenerated int `json:"regenerated"`
}

type livesService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewLivesService(userRepo repositories.UserRepository, logger *slog.Logger) LivesService {
	return &livesService{userRepo: userRepo, logger: logger, now: time.Now}
}

func (s *livesService) Get(ctx context.Context, userID int) (*models.LifePool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	pool, err := s.applyRegeneration(ctx, user)
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func (s *livesService) Consume(ctx context.Context, userID int) (*models.LifePool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Regenerate first so a user who waited long enough is not refused with
	// stale zero lives.
	pool, err := s.applyRegeneration(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.ConsumeLife(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNoLivesRemaining) {
			return nil, ErrInsufficientLives
		}
		return nil, fmt.Errorf("failed to consume life: %w", err)
	}
	pool.Current--
	return &pool, nil
}

func (s *livesService) RegenerateAll(ctx context.Context) (*RegenerateAllResult, error) {
	users, err := s.userRepo.ListRegenerable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for regeneration: %w", err)
	}

	now := s.now()
	result := &RegenerateAllResult{Scanned: len(users)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(regenerateWorkers)
	regenerated := make(chan int, len(users))

	for _, user := range users {
		user := user
		g.Go(func() error {
			pool, changed := Regenerate(user.Lives, now)
			if !changed {
				return nil
			}
			if err := s.userRepo.UpdateLifePool(gctx, user.ID, pool); err != nil {
				return fmt.Errorf("failed to persist regeneration for user %d: %w", user.ID, err)
			}
			regenerated <- user.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(regenerated)
	for range regenerated {
		result.Regenerated++
	}

	s.logger.InfoContext(ctx, "life regeneration batch finished",
		slog.Int("scanned", result.Scanned), slog.Int("regenerated", result.Regenerated))
	return result, nil
}

func (s *livesService) getUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// applyRegeneration runs the pure regeneration step and persists the result
// when it changed anything.
func (s *livesService) applyRegeneration(ctx context.Context, user *models.User) (models.LifePool, error) {
	pool, changed := Regenerate(user.Lives, s.now())
	if !changed {
		return user.Lives, nil
	}
	if err := s.userRepo.UpdateLifePool(ctx, user.ID, pool); err != nil {
		return models.LifePool{}, fmt.Errorf("failed to persist regeneration: %w", err)
	}
	return pool, nil
}
