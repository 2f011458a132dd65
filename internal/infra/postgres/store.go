package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"lpk-quiz-service/internal/app"
	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/ledger"
)

// Store writes attempts and the points ledger with bun. Both live in the same
// database so a submission commits in one transaction.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, app.Tx{
			Attempts: &attemptStore{db: tx},
			Ledger:   &ledgerStore{db: tx},
		})
	})
}

func (s *Store) RunLedgerTx(ctx context.Context, fn func(ctx context.Context, store ledger.Store) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &ledgerStore{db: tx})
	})
}

// Ledger returns a ledger.Store for reads outside a transaction.
func (s *Store) Ledger() ledger.Store {
	return &ledgerStore{db: s.db}
}

type attemptStore struct {
	db bun.IDB
}

func (s *attemptStore) Insert(ctx context.Context, attempt domain.Attempt) error {
	_, err := s.db.NewInsert().Model(newAttemptRow(attempt)).Exec(ctx)
	return err
}

func (s *attemptStore) ScoresFor(ctx context.Context, userID, quizID string) ([]int, error) {
	var scores []int
	err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		Column("score").
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Scan(ctx, &scores)
	if err != nil {
		return nil, err
	}
	return scores, nil
}

type ledgerStore struct {
	db bun.IDB
}

// LockBalance creates the user's row when missing and locks it with FOR UPDATE.
// Concurrent transactions for the same user wait here until this one ends.
func (s *ledgerStore) LockBalance(ctx context.Context, userID string) (domain.Balance, error) {
	seed := &balanceRow{UserID: userID, Level: 1, UpdatedAt: time.Now()}
	if _, err := s.db.NewInsert().Model(seed).On("CONFLICT (user_id) DO NOTHING").Exec(ctx); err != nil {
		return domain.Balance{}, fmt.Errorf("seed balance: %w", err)
	}

	var row balanceRow
	err := s.db.NewSelect().Model(&row).Where("user_id = ?", userID).For("UPDATE").Scan(ctx)
	if err != nil {
		return domain.Balance{}, err
	}
	return row.domain(), nil
}

func (s *ledgerStore) AppendEntry(ctx context.Context, entry domain.LedgerEntry) error {
	row := &ledgerRow{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Points:    entry.Points,
		Reference: entry.Reference,
		CreatedAt: entry.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (s *ledgerStore) SaveBalance(ctx context.Context, balance domain.Balance) error {
	row := &balanceRow{
		UserID:      balance.UserID,
		TotalPoints: balance.TotalPoints,
		Level:       balance.Level,
		UpdatedAt:   balance.UpdatedAt,
	}
	_, err := s.db.NewUpdate().Model(row).WherePK().Exec(ctx)
	return err
}

func (s *ledgerStore) Balance(ctx context.Context, userID string) (domain.Balance, error) {
	var row balanceRow
	err := s.db.NewSelect().Model(&row).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Balance{UserID: userID}, nil
	}
	if err != nil {
		return domain.Balance{}, err
	}
	return row.domain(), nil
}

func (s *ledgerStore) History(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	var rows []ledgerRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LedgerEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}
