package domain

import (
	"encoding/json"
	"time"
)

// User is the authenticated identity supplied by the auth middleware.
type User struct {
	ID   string
	Name string
}

// Quiz is administrator-owned content; the submission flow only reads it.
type Quiz struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	CategoryID string          `json:"categoryId"`
	StartsAt   *time.Time      `json:"startsAt,omitempty"`
	EndsAt     *time.Time      `json:"endsAt,omitempty"`
	IsActive   bool            `json:"isActive"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// CheckAvailable reports whether the quiz accepts attempts at now.
func (q Quiz) CheckAvailable(now time.Time) error {
	if !q.IsActive {
		return ErrQuizInactive
	}
	if q.StartsAt != nil && now.Before(*q.StartsAt) {
		return ErrQuizNotStarted
	}
	if q.EndsAt != nil && now.After(*q.EndsAt) {
		return ErrQuizEnded
	}
	return nil
}

// Question models a single-answer question. CorrectAnswer is compared to the
// submitted value with exact equality.
type Question struct {
	ID            string   `json:"id"`
	Content       string   `json:"content"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	Type          string   `json:"type,omitempty"`
	CategoryID    string   `json:"categoryId,omitempty"`
}

// View strips the answer key.
func (q Question) View() QuestionView {
	return QuestionView{ID: q.ID, Content: q.Content, Options: q.Options}
}

// QuestionView is what a user sees while taking a quiz.
type QuestionView struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Options []string `json:"options"`
}

// QuestionFilter selects questions when a quiz has no curated list.
type QuestionFilter struct {
	Type       string
	CategoryID string
}

// Attempt is one scored submission. Attempts are only ever appended.
type Attempt struct {
	ID             string
	UserID         string
	QuizID         string
	Score          int
	CorrectCount   int
	TotalQuestions int
	Answers        map[string]string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// LedgerEntry is one point-awarding event.
type LedgerEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Points    int       `json:"points"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"createdAt"`
}

// Balance is the materialised running total of a user's ledger.
type Balance struct {
	UserID      string    `json:"userId"`
	TotalPoints int64     `json:"totalPoints"`
	Level       int       `json:"level"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Certificate records one issuance per (user, quiz).
type Certificate struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	QuizID   string    `json:"quizId"`
	Code     string    `json:"code"`
	URL      string    `json:"url"`
	IssuedAt time.Time `json:"issuedAt"`
}

// CertificateStatus describes what happened to the certificate step of a submission.
type CertificateStatus string

const (
	CertificateNotEligible CertificateStatus = "not_eligible"
	CertificateIssued      CertificateStatus = "issued"
	CertificateExisting    CertificateStatus = "existing"
	CertificateFailed      CertificateStatus = "failed"
	CertificatePending     CertificateStatus = "pending"
)

// QuizStart is returned when a user begins a quiz.
type QuizStart struct {
	QuizID          string         `json:"quizId"`
	Title           string         `json:"title"`
	DurationMinutes int            `json:"duration"`
	StartedAt       time.Time      `json:"startedAt"`
	Questions       []QuestionView `json:"questions"`
}

// QuestionResult is the per-question review shown after submitting.
// CorrectAnswer and Explanation stay nil unless the user answered correctly.
type QuestionResult struct {
	ID              string   `json:"id"`
	Content         string   `json:"content"`
	Options         []string `json:"options"`
	SubmittedAnswer string   `json:"submittedAnswer"`
	IsCorrect       bool     `json:"isCorrect"`
	CorrectAnswer   *string  `json:"correctAnswer"`
	Explanation     *string  `json:"explanation"`
}

// SubmitResult summarizes a submission for the caller.
type SubmitResult struct {
	AttemptID         string            `json:"attemptId"`
	Score             int               `json:"score"`
	CorrectCount      int               `json:"correctCount"`
	TotalQuestions    int               `json:"totalQuestions"`
	EarnedPoints      int               `json:"earnedPoints"`
	TotalPoints       int64             `json:"totalPoints"`
	Level             int               `json:"level"`
	CertificateURL    *string           `json:"certificateUrl"`
	CertificateStatus CertificateStatus `json:"certificateStatus"`
	Results           []QuestionResult  `json:"results"`
}
