package domain

import "time"

// EventType doubles as the routing key for published events.
type EventType string

const (
	EventPointsAwarded     EventType = "points.awarded"
	EventCertificateIssued EventType = "certificate.issued"
)

// Event is emitted after a submission commits.
type Event struct {
	Type            EventType `json:"type"`
	UserID          string    `json:"userId"`
	QuizID          string    `json:"quizId"`
	AttemptID       string    `json:"attemptId,omitempty"`
	Points          int       `json:"points,omitempty"`
	TotalPoints     int64     `json:"totalPoints,omitempty"`
	Level           int       `json:"level,omitempty"`
	CertificateCode string    `json:"certificateCode,omitempty"`
	CertificateURL  string    `json:"certificateUrl,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}
