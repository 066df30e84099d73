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

// QuizContent is the contract with the quiz content store. The core never
// loads question bodies; it only needs counts and a correctness check.
type QuizContent interface {
	QuestionCount(ctx context.Context, quizID int) (int, error)
	IsCorrect(ctx context.Context, quizID, questionIndex, choiceIndex int) (bool, error)
}

var ErrQuizNotFound = errors.New("quiz not found")

// AnswerResult reports the outcome of a single submitted answer.
type AnswerResult struct {
	Correct  bool                 `json:"correct"`
	Progress *models.QuizProgress `json:"progress"`
	// Attempt is set when this answer completed the quiz.
	Attempt *models.Attempt `json:"attempt,omitempty"`
}

type AttemptService interface {
	// StartQuiz opens (or resumes) the progress for a quiz. A brand-new start
	// passes the life gate and consumes one pool life; resuming does not.
	StartQuiz(ctx context.Context, userID, quizID int) (*models.QuizProgress, error)
	// SubmitAnswer records one answer, spending an attempt-local life on a
	// wrong one. Completing the last question writes the ledger attempt,
	// awards XP and refreshes the advisory streak.
	SubmitAnswer(ctx context.Context, userID, quizID, choiceIndex int) (*AnswerResult, error)
	// ResetQuiz discards the current progress and starts over, passing the
	// life gate again.
	ResetQuiz(ctx context.Context, userID, quizID int) (*models.QuizProgress, error)
}

type attemptService struct {
	attemptRepo  repositories.AttemptRepository
	progressRepo repositories.QuizProgressRepository
	userRepo     repositories.UserRepository
	lives        LivesService
	streaks      StreakService
	content      QuizContent
	logger       *slog.Logger
}

func NewAttemptService(
	attemptRepo repositories.AttemptRepository,
	progressRepo repositories.QuizProgressRepository,
	userRepo repositories.UserRepository,
	lives LivesService,
	streaks StreakService,
	content QuizContent,
	logger *slog.Logger,
) AttemptService {
	return &attemptService{
		attemptRepo:  attemptRepo,
		progressRepo: progressRepo,
		userRepo:     userRepo,
		lives:        lives,
		streaks:      streaks,
		content:      content,
		logger:       logger,
	}
}

func (s *attemptService) StartQuiz(ctx context.Context, userID, quizID int) (*models.QuizProgress, error) {
	if _, err := s.questionCount(ctx, quizID); err != nil {
		return nil, err
	}

	existing, err := s.progressRepo.GetByUserAndQuiz(ctx, userID, quizID)
	if err == nil {
		// Resume without charging another life.
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrQuizProgressNotFound) {
		return nil, err
	}

	return s.createProgress(ctx, userID, quizID)
}

func (s *attemptService) SubmitAnswer(ctx context.Context, userID, quizID, choiceIndex int) (*AnswerResult, error) {
	progress, err := s.progressRepo.GetByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		if errors.Is(err, repositories.ErrQuizProgressNotFound) {
			return nil, ErrProgressNotFound
		}
		return nil, err
	}
	if progress.IsCompleted {
		return nil, ErrQuizAlreadyCompleted
	}
	if progress.IsFailed {
		return nil, ErrQuizAttemptFailed
	}

	questionCount, err := s.questionCount(ctx, quizID)
	if err != nil {
		return nil, err
	}

	correct, err := s.content.IsCorrect(ctx, quizID, progress.CurrentQuestion, choiceIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to check answer: %w", err)
	}

	progress.Answers = append(progress.Answers, correct)
	progress.CurrentQuestion++
	if !correct {
		progress.Lives--
		if progress.Lives <= 0 {
			progress.Lives = 0
			progress.IsFailed = true
		}
	}

	result := &AnswerResult{Correct: correct, Progress: progress}

	if !progress.IsFailed && progress.CurrentQuestion >= questionCount {
		progress.IsCompleted = true
		attempt, err := s.recordCompletion(ctx, userID, quizID, progress.Answers)
		if err != nil {
			return nil, err
		}
		result.Attempt = attempt
	}

	if err := s.progressRepo.Update(ctx, progress); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *attemptService) ResetQuiz(ctx context.Context, userID, quizID int) (*models.QuizProgress, error) {
	err := s.progressRepo.DeleteByUserAndQuiz(ctx, userID, quizID)
	if err != nil && !errors.Is(err, repositories.ErrQuizProgressNotFound) {
		return nil, err
	}
	return s.createProgress(ctx, userID, quizID)
}

// questionCount maps a missing quiz to the service sentinel; any other
// failure (the content store being down, say) propagates as-is so it surfaces
// as a server error, not a 404.
func (s *attemptService) questionCount(ctx context.Context, quizID int) (int, error) {
	count, err := s.content.QuestionCount(ctx, quizID)
	if err != nil {
		if errors.Is(err, repositories.ErrQuizNotFound) {
			return 0, ErrQuizNotFound
		}
		return 0, fmt.Errorf("failed to load quiz content: %w", err)
	}
	return count, nil
}

func (s *attemptService) createProgress(ctx context.Context, userID, quizID int) (*models.QuizProgress, error) {
	// The gate: one pool life per fresh start.
	if _, err := s.lives.Consume(ctx, userID); err != nil {
		return nil, err
	}

	progress := &models.QuizProgress{
		UserID:  userID,
		QuizID:  quizID,
		Lives:   models.AttemptLives,
		Answers: []bool{},
	}
	if err := s.progressRepo.Create(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// recordCompletion appends the immutable ledger entry and applies its
// derived effects: XP award and the advisory streak refresh.
func (s *attemptService) recordCompletion(ctx context.Context, userID, quizID int, answers []bool) (*models.Attempt, error) {
	score := 0
	for _, ok := range answers {
		if ok {
			score++
		}
	}

	attempt := &models.Attempt{
		UserID:  userID,
		QuizID:  quizID,
		Score:   score,
		Answers: answers,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	if score > 0 {
		if err := s.userRepo.AddPoints(ctx, nil, userID, score); err != nil {
			return nil, fmt.Errorf("failed to award points: %w", err)
		}
	}

	// Best effort: the cached value is advisory, reads recompute from the
	// ledger anyway.
	if streak, err := s.streaks.ComputeStreak(ctx, userID, time.Now()); err == nil {
		if err := s.userRepo.UpdateStreak(ctx, userID, streak); err != nil {
			s.logger.WarnContext(ctx, "failed to refresh cached streak",
				slog.Int("user_id", userID), slog.Any("error", err))
		}
	}

	return attempt, nil
}
