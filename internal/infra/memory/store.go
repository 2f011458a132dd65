package memory

import (
	"context"
	"sort"
	"sync"

	"lpk-quiz-service/internal/app"
	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/ledger"
)

// Store keeps attempts, ledger entries and balances in memory. Transactions
// hold a store-wide lock and restore a snapshot when fn fails.
type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	attempts []domain.Attempt
	entries  []domain.LedgerEntry
	balances map[string]domain.Balance
}

func NewStore() *Store {
	return &Store{state: &state{balances: make(map[string]domain.Balance)}}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	view := &stateView{st: s.state}
	if err := fn(ctx, app.Tx{Attempts: view, Ledger: view}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) RunLedgerTx(ctx context.Context, fn func(ctx context.Context, store ledger.Store) error) error {
	return s.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		return fn(ctx, tx.Ledger)
	})
}

// Ledger returns a ledger.Store for reads outside a transaction.
func (s *Store) Ledger() ledger.Store {
	return &lockedLedger{store: s}
}

// Attempts returns every recorded attempt of a user on a quiz, oldest first.
func (s *Store) Attempts(userID, quizID string) []domain.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Attempt
	for _, a := range s.state.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out
}

func (st *state) clone() *state {
	balances := make(map[string]domain.Balance, len(st.balances))
	for k, v := range st.balances {
		balances[k] = v
	}
	return &state{
		attempts: append([]domain.Attempt(nil), st.attempts...),
		entries:  append([]domain.LedgerEntry(nil), st.entries...),
		balances: balances,
	}
}

// stateView operates on state without locking; callers hold Store.mu.
type stateView struct {
	st *state
}

func (v *stateView) Insert(_ context.Context, attempt domain.Attempt) error {
	answers := make(map[string]string, len(attempt.Answers))
	for k, val := range attempt.Answers {
		answers[k] = val
	}
	attempt.Answers = answers
	v.st.attempts = append(v.st.attempts, attempt)
	return nil
}

func (v *stateView) ScoresFor(_ context.Context, userID, quizID string) ([]int, error) {
	var scores []int
	for _, a := range v.st.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			scores = append(scores, a.Score)
		}
	}
	return scores, nil
}

func (v *stateView) LockBalance(_ context.Context, userID string) (domain.Balance, error) {
	b, ok := v.st.balances[userID]
	if !ok {
		b = domain.Balance{UserID: userID}
		v.st.balances[userID] = b
	}
	return b, nil
}

func (v *stateView) AppendEntry(_ context.Context, entry domain.LedgerEntry) error {
	v.st.entries = append(v.st.entries, entry)
	return nil
}

func (v *stateView) SaveBalance(_ context.Context, balance domain.Balance) error {
	v.st.balances[balance.UserID] = balance
	return nil
}

func (v *stateView) Balance(_ context.Context, userID string) (domain.Balance, error) {
	b, ok := v.st.balances[userID]
	if !ok {
		return domain.Balance{UserID: userID}, nil
	}
	return b, nil
}

func (v *stateView) History(_ context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, e := range v.st.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type lockedLedger struct {
	store *Store
}

func (l *lockedLedger) view() (*stateView, func()) {
	l.store.mu.Lock()
	return &stateView{st: l.store.state}, l.store.mu.Unlock
}

func (l *lockedLedger) LockBalance(ctx context.Context, userID string) (domain.Balance, error) {
	v, unlock := l.view()
	defer unlock()
	return v.LockBalance(ctx, userID)
}

func (l *lockedLedger) AppendEntry(ctx context.Context, entry domain.LedgerEntry) error {
	v, unlock := l.view()
	defer unlock()
	return v.AppendEntry(ctx, entry)
}

func (l *lockedLedger) SaveBalance(ctx context.Context, balance domain.Balance) error {
	v, unlock := l.view()
	defer unlock()
	return v.SaveBalance(ctx, balance)
}

func (l *lockedLedger) Balance(ctx context.Context, userID string) (domain.Balance, error) {
	v, unlock := l.view()
	defer unlock()
	return v.Balance(ctx, userID)
}

func (l *lockedLedger) History(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	v, unlock := l.view()
	defer unlock()
	return v.History(ctx, userID, limit)
}
