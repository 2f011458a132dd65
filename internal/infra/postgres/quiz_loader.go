package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lpk-quiz-service/internal/domain"
)

// QuizLoader loads quiz rows from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz     domain.Quiz
		startsAt *time.Time
		endsAt   *time.Time
		config   []byte
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, title, category_id, starts_at, ends_at, is_active, config FROM quizzes WHERE id=$1`,
		quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.CategoryID, &startsAt, &endsAt, &quiz.IsActive, &config)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.StartsAt = startsAt
	quiz.EndsAt = endsAt
	quiz.Config = config
	return quiz, nil
}
