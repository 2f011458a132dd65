package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizInactive is returned for quizzes switched off by an administrator.
	ErrQuizInactive = errors.New("quiz is not active")
	// ErrQuizNotStarted is returned before the quiz activity window opens.
	ErrQuizNotStarted = errors.New("quiz has not started yet")
	// ErrQuizEnded is returned after the quiz activity window closes.
	ErrQuizEnded = errors.New("quiz has ended")
	// ErrInvalidQuizID is returned for a blank quiz identifier.
	ErrInvalidQuizID = errors.New("invalid quiz id")
	// ErrEmptyAnswers rejects a submission without answers.
	ErrEmptyAnswers = errors.New("answers are required")
	// ErrInvalidQuizConfig indicates the stored quiz configuration is malformed.
	ErrInvalidQuizConfig = errors.New("invalid quiz configuration")
	// ErrNegativePoints rejects ledger awards below zero.
	ErrNegativePoints = errors.New("points amount must not be negative")
	// ErrUnauthorized is returned when no valid identity is present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCertificateNotFound is returned when a (user, quiz) pair has no certificate.
	ErrCertificateNotFound = errors.New("certificate not found")
)
