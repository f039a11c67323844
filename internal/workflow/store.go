package workflow

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"telereport/internal/models"
)

const (
	// SessionTTL bounds how long an abandoned workflow survives.
	SessionTTL = 30 * time.Minute
	// SessionKeyPrefix is the Redis key prefix for workflow sessions.
	SessionKeyPrefix = "report_session:"
	// CooldownKeyPrefix is the Redis key prefix for report cooldowns.
	CooldownKeyPrefix = "report_cooldown:"
)

// SessionStore persists workflow sessions in Redis, keyed by user ID.
// Many in-flight workflows coexist cheaply; the TTL expires abandoned ones.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(userID int64) string {
	return SessionKeyPrefix + formatID(userID)
}

// Save serializes the session and resets its TTL.
func (s *SessionStore) Save(ctx context.Context, session *Session) error {
	if s == nil || s.client == nil {
		return models.ErrUnavailable
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.UserID), data, SessionTTL).Err()
}

// Load returns the in-flight session for a user, or ErrNotFound.
func (s *SessionStore) Load(ctx context.Context, userID int64) (*Session, error) {
	if s == nil || s.client == nil {
		return nil, models.ErrUnavailable
	}
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete discards a session.
func (s *SessionStore) Delete(ctx context.Context, userID int64) error {
	if s == nil || s.client == nil {
		return models.ErrUnavailable
	}
	return s.client.Del(ctx, sessionKey(userID)).Err()
}

// RedisCooldown implements Cooldown with a TTL key per user.
type RedisCooldown struct {
	client *redis.Client
	window time.Duration
}

func NewRedisCooldown(client *redis.Client, window time.Duration) *RedisCooldown {
	return &RedisCooldown{client: client, window: window}
}

// Active reports whether the user submitted within the window. Redis
// errors fail open; the cooldown is a courtesy, not a correctness gate.
func (c *RedisCooldown) Active(ctx context.Context, userID int64) bool {
	if c == nil || c.client == nil || c.window <= 0 {
		return false
	}
	n, err := c.client.Exists(ctx, CooldownKeyPrefix+formatID(userID)).Result()
	return err == nil && n > 0
}

// Arm starts the cooldown window after a successful commit.
func (c *RedisCooldown) Arm(ctx context.Context, userID int64) {
	if c == nil || c.client == nil || c.window <= 0 {
		return
	}
	c.client.Set(ctx, CooldownKeyPrefix+formatID(userID), "1", c.window)
}

func formatID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
