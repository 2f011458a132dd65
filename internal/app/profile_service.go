package app

import (
	"context"

	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/ledger"
)

// PointsSummary is a user's running total with their latest ledger entries.
type PointsSummary struct {
	Balance domain.Balance       `json:"balance"`
	Entries []domain.LedgerEntry `json:"entries"`
}

// ProfileService serves a user's own points and certificates.
type ProfileService struct {
	ledger       *ledger.Service
	certificates CertificateIssuer
}

func NewProfileService(ledger *ledger.Service, certificates CertificateIssuer) *ProfileService {
	return &ProfileService{ledger: ledger, certificates: certificates}
}

func (s *ProfileService) Points(ctx context.Context, userID string, limit int) (PointsSummary, error) {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return PointsSummary{}, err
	}
	entries, err := s.ledger.History(ctx, userID, limit)
	if err != nil {
		return PointsSummary{}, err
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	return PointsSummary{Balance: balance, Entries: entries}, nil
}

func (s *ProfileService) Certificates(ctx context.Context, userID string) ([]domain.Certificate, error) {
	certs, err := s.certificates.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if certs == nil {
		certs = []domain.Certificate{}
	}
	return certs, nil
}
