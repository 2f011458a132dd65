package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lpk-quiz-service/internal/domain"
)

const questionColumns = `q.id, q.content, q.options, q.correct_answer, q.explanation, q.type, q.category_id`

// QuestionStore reads questions with pgx.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) FindByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions q WHERE q.id = ANY($1) ORDER BY q.id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	return scanQuestions(rows)
}

// FindByFilter picks random questions matching the filter; empty fields match everything.
func (s *QuestionStore) FindByFilter(ctx context.Context, filter domain.QuestionFilter, limit int) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions q
		 WHERE ($1 = '' OR q.type = $1) AND ($2 = '' OR q.category_id = $2)
		 ORDER BY random()
		 LIMIT $3`,
		filter.Type, filter.CategoryID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("filter questions: %w", err)
	}
	return scanQuestions(rows)
}

func (s *QuestionStore) CuratedForQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM quiz_questions qq
		 JOIN questions q ON q.id = qq.question_id
		 WHERE qq.quiz_id = $1
		 ORDER BY qq.position`,
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("curated questions: %w", err)
	}
	return scanQuestions(rows)
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		var (
			q           domain.Question
			options     []byte
			explanation *string
		)
		if err := rows.Scan(&q.ID, &q.Content, &options, &q.CorrectAnswer, &explanation, &q.Type, &q.CategoryID); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
			}
		}
		if explanation != nil {
			q.Explanation = *explanation
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
