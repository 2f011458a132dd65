package app

import (
	"context"
	"time"

	"lpk-quiz-service/internal/certificate"
	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/ledger"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuestionStore is a read-only lookup of questions.
type QuestionStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Question, error)
	FindByFilter(ctx context.Context, filter domain.QuestionFilter, limit int) ([]domain.Question, error)
	// CuratedForQuiz returns the quiz's hand-picked questions in order, or none.
	CuratedForQuiz(ctx context.Context, quizID string) ([]domain.Question, error)
}

// SessionRepository remembers when a user started a quiz.
type SessionRepository interface {
	MarkStarted(ctx context.Context, quizID, userID string, at time.Time, ttl time.Duration) error
	StartedAt(ctx context.Context, quizID, userID string) (time.Time, bool, error)
	Clear(ctx context.Context, quizID, userID string) error
}

// AttemptStore appends attempts. Attempts are never updated or deleted.
type AttemptStore interface {
	Insert(ctx context.Context, attempt domain.Attempt) error
	ScoresFor(ctx context.Context, userID, quizID string) ([]int, error)
}

// Tx groups the stores that share one transaction.
type Tx struct {
	Attempts AttemptStore
	Ledger   ledger.Store
}

// UnitOfWork runs fn atomically: every write made through tx commits or none does.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// CertificateIssuer is the certificate step of a submission.
type CertificateIssuer interface {
	IssueIfEligible(ctx context.Context, userID, quizID, userName, quizTitle string, score int) (certificate.Outcome, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error)
}

// EventPublisher forwards committed domain events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }
