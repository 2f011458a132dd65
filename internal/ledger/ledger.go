// Package ledger keeps the append-only log of point awards and the running
// total derived from it.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/metrics"
)

// ActionQuiz is the ledger action for quiz attempts.
const ActionQuiz = "quiz"

// Store persists ledger entries and balances. Implementations bound to a
// transaction must make LockBalance block other writers for the same user
// until the transaction ends.
type Store interface {
	// LockBalance returns the user's balance, creating an empty one if needed,
	// and holds the user's row for the rest of the transaction.
	LockBalance(ctx context.Context, userID string) (domain.Balance, error)
	AppendEntry(ctx context.Context, entry domain.LedgerEntry) error
	SaveBalance(ctx context.Context, balance domain.Balance) error
	Balance(ctx context.Context, userID string) (domain.Balance, error)
	History(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error)
}

// Transactor runs fn with a Store bound to a single transaction. Either every
// write made through that Store commits or none does.
type Transactor interface {
	RunLedgerTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// Service applies point awards.
type Service struct {
	store  Store
	tx     Transactor
	levels Levels
	now    func() time.Time
	newID  func() string
}

func NewService(store Store, tx Transactor, levels Levels) *Service {
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	return &Service{
		store:  store,
		tx:     tx,
		levels: levels,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// AwardPoints credits amount to the user in its own transaction.
func (s *Service) AwardPoints(ctx context.Context, userID, action string, amount int, reference string) (domain.Balance, error) {
	var balance domain.Balance
	err := s.tx.RunLedgerTx(ctx, func(ctx context.Context, store Store) error {
		var err error
		balance, err = s.Award(ctx, store, userID, action, amount, reference)
		return err
	})
	if err != nil {
		return domain.Balance{}, err
	}
	return balance, nil
}

// Award credits amount using a store already bound to an open transaction.
// A zero amount writes nothing and returns the current balance.
func (s *Service) Award(ctx context.Context, store Store, userID, action string, amount int, reference string) (domain.Balance, error) {
	if amount < 0 {
		return domain.Balance{}, domain.ErrNegativePoints
	}

	balance, err := store.LockBalance(ctx, userID)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("lock balance: %w", err)
	}
	if amount == 0 {
		balance.Level = s.levels.For(balance.TotalPoints)
		return balance, nil
	}

	now := s.now()
	entry := domain.LedgerEntry{
		ID:        s.newID(),
		UserID:    userID,
		Action:    action,
		Points:    amount,
		Reference: reference,
		CreatedAt: now,
	}
	if err := store.AppendEntry(ctx, entry); err != nil {
		return domain.Balance{}, fmt.Errorf("append ledger entry: %w", err)
	}

	balance.UserID = userID
	balance.TotalPoints += int64(amount)
	balance.Level = s.levels.For(balance.TotalPoints)
	balance.UpdatedAt = now
	if err := store.SaveBalance(ctx, balance); err != nil {
		return domain.Balance{}, fmt.Errorf("save balance: %w", err)
	}

	metrics.PointsAwarded.WithLabelValues(action).Add(float64(amount))
	return balance, nil
}

// Balance returns the user's running total. Users without awards have zero points.
func (s *Service) Balance(ctx context.Context, userID string) (domain.Balance, error) {
	balance, err := s.store.Balance(ctx, userID)
	if err != nil {
		return domain.Balance{}, err
	}
	balance.UserID = userID
	balance.Level = s.levels.For(balance.TotalPoints)
	return balance, nil
}

// History returns the most recent entries first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.History(ctx, userID, limit)
}

// QuizReference is the ledger reference key for quiz awards.
func QuizReference(quizID string) string {
	return "quiz_" + quizID
}
