package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"lpk-quiz-service/internal/domain"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID             string            `bun:"id,pk,type:uuid"`
	UserID         string            `bun:"user_id,notnull"`
	QuizID         string            `bun:"quiz_id,notnull"`
	Score          int               `bun:"score,notnull"`
	CorrectCount   int               `bun:"correct_count,notnull"`
	TotalQuestions int               `bun:"total_questions,notnull"`
	Answers        map[string]string `bun:"answers,type:jsonb,notnull"`
	StartedAt      time.Time         `bun:"started_at,notnull"`
	FinishedAt     time.Time         `bun:"finished_at,notnull"`
}

func newAttemptRow(a domain.Attempt) *attemptRow {
	return &attemptRow{
		ID:             a.ID,
		UserID:         a.UserID,
		QuizID:         a.QuizID,
		Score:          a.Score,
		CorrectCount:   a.CorrectCount,
		TotalQuestions: a.TotalQuestions,
		Answers:        a.Answers,
		StartedAt:      a.StartedAt,
		FinishedAt:     a.FinishedAt,
	}
}

type ledgerRow struct {
	bun.BaseModel `bun:"table:point_ledger,alias:pl"`

	ID        string    `bun:"id,pk,type:uuid"`
	UserID    string    `bun:"user_id,notnull"`
	Action    string    `bun:"action,notnull"`
	Points    int       `bun:"points,notnull"`
	Reference string    `bun:"reference,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (r ledgerRow) domain() domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:        r.ID,
		UserID:    r.UserID,
		Action:    r.Action,
		Points:    r.Points,
		Reference: r.Reference,
		CreatedAt: r.CreatedAt,
	}
}

type balanceRow struct {
	bun.BaseModel `bun:"table:user_points,alias:up"`

	UserID      string    `bun:"user_id,pk"`
	TotalPoints int64     `bun:"total_points,notnull"`
	Level       int       `bun:"level,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (r balanceRow) domain() domain.Balance {
	return domain.Balance{
		UserID:      r.UserID,
		TotalPoints: r.TotalPoints,
		Level:       r.Level,
		UpdatedAt:   r.UpdatedAt,
	}
}

type certificateRow struct {
	bun.BaseModel `bun:"table:certificates,alias:c"`

	ID       string    `bun:"id,pk,type:uuid"`
	UserID   string    `bun:"user_id,notnull"`
	QuizID   string    `bun:"quiz_id,notnull"`
	Code     string    `bun:"code,notnull"`
	URL      string    `bun:"url,notnull"`
	IssuedAt time.Time `bun:"issued_at,notnull"`
}

func (r certificateRow) domain() domain.Certificate {
	return domain.Certificate{
		ID:       r.ID,
		UserID:   r.UserID,
		QuizID:   r.QuizID,
		Code:     r.Code,
		URL:      r.URL,
		IssuedAt: r.IssuedAt,
	}
}
