package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Aldiyar97/quiz-league/models"
	"github.com/lib/pq"
)

var (
	ErrQuizProgressNotFound = errors.New("quiz progress not found")
	ErrQuizProgressConflict = errors.New("quiz progress already exists")
)

type QuizProgressRepository interface {
	GetByUserAndQuiz(ctx context.Context, userID, quizID int) (*models.QuizProgress, error)
	Create(ctx context.Context, progress *models.QuizProgress) error
	Update(ctx context.Context, progress *models.QuizProgress) error
	DeleteByUserAndQuiz(ctx context.Context, userID, quizID int) error
}

type postgresQuizProgressRepository struct {
	db *sql.DB
}

func NewPostgresQuizProgressRepository(db *sql.DB) QuizProgressRepository {
	return &postgresQuizProgressRepository{db: db}
}

func (r *postgresQuizProgressRepository) GetByUserAndQuiz(ctx context.Context, userID, quizID int) (*models.QuizProgress, error) {
	query := `
		SELECT id, user_id, quiz_id, lives, current_question, answers,
		       is_completed, is_failed, started_at, last_activity_at
		FROM quiz_progress
		WHERE user_id = $1 AND quiz_id = $2`

	var p models.QuizProgress
	var answers pq.BoolArray
	err := r.db.QueryRowContext(ctx, query, userID, quizID).Scan(
		&p.ID, &p.UserID, &p.QuizID, &p.Lives, &p.CurrentQuestion, &answers,
		&p.IsCompleted, &p.IsFailed, &p.StartedAt, &p.LastActivityAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuizProgressNotFound
		}
		return nil, err
	}
	p.Answers = answers
	return &p, nil
}

func (r *postgresQuizProgressRepository) Create(ctx context.Context, progress *models.QuizProgress) error {
	query := `
		INSERT INTO quiz_progress (user_id, quiz_id, lives, current_question, answers, is_completed, is_failed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, started_at, last_activity_at`

	err := r.db.QueryRowContext(ctx, query,
		progress.UserID,
		progress.QuizID,
		progress.Lives,
		progress.CurrentQuestion,
		pq.Array(progress.Answers),
		progress.IsCompleted,
		progress.IsFailed,
	).Scan(&progress.ID, &progress.StartedAt, &progress.LastActivityAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// unique (user_id, quiz_id): one active progress per quiz
			return ErrQuizProgressConflict
		}
		return err
	}
	return nil
}

func (r *postgresQuizProgressRepository) Update(ctx context.Context, progress *models.QuizProgress) error {
	query := `
		UPDATE quiz_progress
		SET lives = $1, current_question = $2, answers = $3,
		    is_completed = $4, is_failed = $5, last_activity_at = NOW()
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		progress.Lives,
		progress.CurrentQuestion,
		pq.Array(progress.Answers),
		progress.IsCompleted,
		progress.IsFailed,
		progress.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrQuizProgressNotFound)
}

func (r *postgresQuizProgressRepository) DeleteByUserAndQuiz(ctx context.Context, userID, quizID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM quiz_progress WHERE user_id = $1 AND quiz_id = $2`, userID, quizID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrQuizProgressNotFound)
}
