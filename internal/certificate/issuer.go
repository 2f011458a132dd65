// Package certificate decides when a quiz result earns a certificate and
// records each (user, quiz) issuance exactly once.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/metrics"
)

const (
	// PassingScore is the minimum score that earns a certificate.
	PassingScore = 70
	// MaxCodeLength bounds generated certificate codes.
	MaxCodeLength = 48

	defaultRenderTimeout = 10 * time.Second
)

// Store persists certificates. Create must rely on a uniqueness constraint on
// (user, quiz): when a row already exists it returns that row and created=false.
type Store interface {
	FindByUserQuiz(ctx context.Context, userID, quizID string) (domain.Certificate, error)
	Create(ctx context.Context, cert domain.Certificate) (stored domain.Certificate, created bool, err error)
	ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error)
}

// Document carries everything printed on a certificate.
type Document struct {
	Code      string
	UserName  string
	QuizTitle string
	Score     int
	IssuedAt  time.Time
}

// Artifact is a rendered certificate stored somewhere addressable.
type Artifact struct {
	Key string
	URL string
}

// Renderer produces the certificate artifact.
type Renderer interface {
	Render(ctx context.Context, doc Document) (Artifact, error)
	Discard(ctx context.Context, key string) error
}

// Outcome is the result of the certificate step of a submission.
type Outcome struct {
	Status      domain.CertificateStatus
	Certificate *domain.Certificate
}

// URL returns the artifact location, or nil when nothing was issued.
func (o Outcome) URL() *string {
	if o.Certificate == nil || o.Certificate.URL == "" {
		return nil
	}
	url := o.Certificate.URL
	return &url
}

// Issuer issues certificates for passing scores.
type Issuer struct {
	store         Store
	renderer      Renderer
	renderTimeout time.Duration
	now           func() time.Time
	newID         func() string
}

func NewIssuer(store Store, renderer Renderer, renderTimeout time.Duration) *Issuer {
	if renderTimeout <= 0 {
		renderTimeout = defaultRenderTimeout
	}
	return &Issuer{
		store:         store,
		renderer:      renderer,
		renderTimeout: renderTimeout,
		now:           time.Now,
		newID:         func() string { return uuid.NewString() },
	}
}

// WithClock is test-only for deterministic timestamps and codes.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	clone := *i
	clone.now = now
	return &clone
}

// IssueIfEligible returns the user's certificate for the quiz, rendering and
// recording a new one when score passes and none exists yet. Rendering
// failures are reported through the outcome status together with the error.
func (i *Issuer) IssueIfEligible(ctx context.Context, userID, quizID, userName, quizTitle string, score int) (Outcome, error) {
	if score < PassingScore {
		return Outcome{Status: domain.CertificateNotEligible}, nil
	}

	existing, err := i.store.FindByUserQuiz(ctx, userID, quizID)
	switch {
	case err == nil:
		return i.record(Outcome{Status: domain.CertificateExisting, Certificate: &existing}), nil
	case !errors.Is(err, domain.ErrCertificateNotFound):
		return i.record(Outcome{Status: domain.CertificateFailed}), fmt.Errorf("find certificate: %w", err)
	}

	issuedAt := i.now()
	doc := Document{
		Code:      GenerateCode(quizID, userID, issuedAt),
		UserName:  userName,
		QuizTitle: quizTitle,
		Score:     score,
		IssuedAt:  issuedAt,
	}

	artifact, err := i.render(ctx, doc)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return i.record(Outcome{Status: domain.CertificatePending}), fmt.Errorf("render certificate: %w", err)
		}
		return i.record(Outcome{Status: domain.CertificateFailed}), fmt.Errorf("render certificate: %w", err)
	}

	stored, created, err := i.store.Create(ctx, domain.Certificate{
		ID:       i.newID(),
		UserID:   userID,
		QuizID:   quizID,
		Code:     doc.Code,
		URL:      artifact.URL,
		IssuedAt: issuedAt,
	})
	if err != nil {
		i.discard(artifact.Key)
		return i.record(Outcome{Status: domain.CertificateFailed}), fmt.Errorf("store certificate: %w", err)
	}
	if !created {
		// a concurrent submission won the insert
		if stored.Code != doc.Code {
			i.discard(artifact.Key)
		}
		return i.record(Outcome{Status: domain.CertificateExisting, Certificate: &stored}), nil
	}
	return i.record(Outcome{Status: domain.CertificateIssued, Certificate: &stored}), nil
}

// ListByUser returns all certificates a user holds.
func (i *Issuer) ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error) {
	return i.store.ListByUser(ctx, userID)
}

type renderResult struct {
	artifact Artifact
	err      error
}

func (i *Issuer) render(ctx context.Context, doc Document) (Artifact, error) {
	renderCtx, cancel := context.WithTimeout(ctx, i.renderTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan renderResult, 1)
	go func() {
		artifact, err := i.renderer.Render(renderCtx, doc)
		if err == nil && renderCtx.Err() != nil {
			// finished after the caller gave up; nothing will reference it
			i.discard(artifact.Key)
		}
		done <- renderResult{artifact: artifact, err: err}
	}()

	select {
	case res := <-done:
		metrics.CertificateRenderDuration.Observe(time.Since(start).Seconds())
		return res.artifact, res.err
	case <-renderCtx.Done():
		return Artifact{}, renderCtx.Err()
	}
}

func (i *Issuer) discard(key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), i.renderTimeout)
	defer cancel()
	if err := i.renderer.Discard(ctx, key); err != nil {
		log.Printf("discard certificate artifact %s: %v", key, err)
	}
}

func (i *Issuer) record(o Outcome) Outcome {
	metrics.Certificates.WithLabelValues(string(o.Status)).Inc()
	return o
}

// GenerateCode derives a certificate code from the quiz, a truncated user ID
// and a nanosecond timestamp, upper-cased and bounded by MaxCodeLength bytes.
// Long quiz IDs are shortened so the timestamp suffix always survives. Cuts
// fall on rune boundaries so multibyte IDs stay valid UTF-8.
func GenerateCode(quizID, userID string, at time.Time) string {
	userPart := truncate(strings.ToUpper(userID), 8)
	suffix := "-" + userPart + "-" + strings.ToUpper(strconv.FormatInt(at.UnixNano(), 36))
	prefix := truncate("CERT-"+strings.ToUpper(quizID), MaxCodeLength-len(suffix))
	return prefix + suffix
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
