package memory

import (
	"context"
	"sort"
	"sync"

	"lpk-quiz-service/internal/domain"
)

// CertificateStore enforces one certificate per (user, quiz) under a mutex.
type CertificateStore struct {
	mu    sync.Mutex
	certs map[string]domain.Certificate
}

func NewCertificateStore() *CertificateStore {
	return &CertificateStore{certs: make(map[string]domain.Certificate)}
}

func (s *CertificateStore) FindByUserQuiz(_ context.Context, userID, quizID string) (domain.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cert, ok := s.certs[key(quizID, userID)]
	if !ok {
		return domain.Certificate{}, domain.ErrCertificateNotFound
	}
	return cert, nil
}

func (s *CertificateStore) Create(_ context.Context, cert domain.Certificate) (domain.Certificate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(cert.QuizID, cert.UserID)
	if existing, ok := s.certs[k]; ok {
		return existing, false, nil
	}
	s.certs[k] = cert
	return cert, true, nil
}

func (s *CertificateStore) ListByUser(_ context.Context, userID string) ([]domain.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Certificate
	for _, c := range s.certs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out, nil
}

// Count returns the number of stored certificates.
func (s *CertificateStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.certs)
}
