package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"lpk-quiz-service/internal/domain"
)

// CertificateStore relies on the unique (user_id, quiz_id) index: inserts that
// lose a race fall through to reading the winner's row.
type CertificateStore struct {
	db bun.IDB
}

func NewCertificateStore(db bun.IDB) *CertificateStore {
	return &CertificateStore{db: db}
}

func (s *CertificateStore) FindByUserQuiz(ctx context.Context, userID, quizID string) (domain.Certificate, error) {
	var row certificateRow
	err := s.db.NewSelect().
		Model(&row).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Certificate{}, domain.ErrCertificateNotFound
	}
	if err != nil {
		return domain.Certificate{}, err
	}
	return row.domain(), nil
}

func (s *CertificateStore) Create(ctx context.Context, cert domain.Certificate) (domain.Certificate, bool, error) {
	row := &certificateRow{
		ID:       cert.ID,
		UserID:   cert.UserID,
		QuizID:   cert.QuizID,
		Code:     cert.Code,
		URL:      cert.URL,
		IssuedAt: cert.IssuedAt,
	}
	res, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, quiz_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Certificate{}, false, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return row.domain(), true, nil
	}

	existing, err := s.FindByUserQuiz(ctx, cert.UserID, cert.QuizID)
	if err != nil {
		return domain.Certificate{}, false, err
	}
	return existing, false, nil
}

func (s *CertificateStore) ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error) {
	var rows []certificateRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("issued_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Certificate, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}
