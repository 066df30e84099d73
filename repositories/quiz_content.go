package repositories

import (
	"context"
	"database/sql"
	"errors"
)

var ErrQuizNotFound = errors.New("quiz not found")

// PostgresQuizContent adapts the quiz authoring tables (owned by the content
// system) to the correctness-check contract the attempt flow needs. The core
// never loads question bodies.
type PostgresQuizContent struct {
	db *sql.DB
}

func NewPostgresQuizContent(db *sql.DB) *PostgresQuizContent {
	return &PostgresQuizContent{db: db}
}

func (q *PostgresQuizContent) QuestionCount(ctx context.Context, quizID int) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_questions WHERE quiz_id = $1`, quizID).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, ErrQuizNotFound
	}
	return count, nil
}

func (q *PostgresQuizContent) IsCorrect(ctx context.Context, quizID, questionIndex, choiceIndex int) (bool, error) {
	var correctChoice int
	err := q.db.QueryRowContext(ctx, `
		SELECT correct_choice
		FROM quiz_questions
		WHERE quiz_id = $1 AND question_index = $2`,
		quizID, questionIndex).Scan(&correctChoice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrQuizNotFound
		}
		return false, err
	}
	return choiceIndex == correctChoice, nil
}
