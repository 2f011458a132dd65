package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis implementation of app.SessionRepository. Start
// markers are shared by every instance and expire on their own:
// SET quiz:start:{quizID}:{userID} {RFC3339Nano} EX ttl
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore uses ttl for markers created without their own TTL.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) MarkStarted(ctx context.Context, quizID, userID string, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.client.Set(ctx, s.key(quizID, userID), at.UTC().Format(time.RFC3339Nano), ttl).Err()
}

func (s *SessionStore) StartedAt(ctx context.Context, quizID, userID string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, s.key(quizID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, nil
	}
	return at, true, nil
}

func (s *SessionStore) Clear(ctx context.Context, quizID, userID string) error {
	return s.client.Del(ctx, s.key(quizID, userID)).Err()
}

func (s *SessionStore) key(quizID, userID string) string {
	return "quiz:start:" + quizID + ":" + userID
}
