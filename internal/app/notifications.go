package app

import (
	"sync"

	"lpk-quiz-service/internal/domain"
	"lpk-quiz-service/internal/metrics"
)

// Notification is pushed to a user's open streams.
type Notification struct {
	Type    string       `json:"type"`
	Payload domain.Event `json:"payload"`
}

const (
	NotificationPointsAwarded     = "pointsAwarded"
	NotificationCertificateIssued = "certificateIssued"
)

// NotificationHub fans out notifications to per-user subscribers.
type NotificationHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan Notification]struct{}
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		subscribers: make(map[string]map[chan Notification]struct{}),
	}
}

// Subscribe returns a channel that receives notifications for userID.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *NotificationHub) Subscribe(userID string) (<-chan Notification, func()) {
	ch := make(chan Notification, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[userID]
	if !ok {
		subs = make(map[chan Notification]struct{})
		h.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()
	metrics.NotificationSubscribers.Inc()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[userID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
			metrics.NotificationSubscribers.Dec()
		}
		if len(subs) == 0 {
			delete(h.subscribers, userID)
		}
	}
	return ch, cancel
}

// Publish delivers n to every subscriber of userID without blocking.
func (h *NotificationHub) Publish(userID string, n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[userID] {
		select {
		case ch <- n:
		default:
			// slow consumer: drop the oldest pending notification
			select {
			case <-ch:
			default:
			}
			ch <- n
		}
	}
}

// Subscribers reports how many streams userID has open.
func (h *NotificationHub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[userID])
}
