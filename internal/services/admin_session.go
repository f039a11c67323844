package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/redis/go-redis/v9"

	"telereport/internal/models"
)

const (
	// AdminSessionDuration is how long a console login stays valid.
	AdminSessionDuration = 24 * time.Hour
	// AdminSessionKeyPrefix is the Redis key prefix for console sessions.
	AdminSessionKeyPrefix = "admin_session:"
)

// AdminSessions issues and validates review-console session tokens,
// stored in Redis with a TTL. The token maps to the Telegram admin ID
// the console operator authenticated as.
type AdminSessions struct {
	client *redis.Client
}

func NewAdminSessions(client *redis.Client) *AdminSessions {
	return &AdminSessions{client: client}
}

// Create issues a new session token for an admin ID.
func (s *AdminSessions) Create(ctx context.Context, adminID string) (string, error) {
	if s == nil || s.client == nil {
		return "", models.ErrUnavailable
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	if err := s.client.Set(ctx, AdminSessionKeyPrefix+token, adminID, AdminSessionDuration).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Validate checks a token and returns the admin ID it belongs to.
func (s *AdminSessions) Validate(ctx context.Context, token string) (string, bool) {
	if s == nil || s.client == nil || token == "" {
		return "", false
	}
	adminID, err := s.client.Get(ctx, AdminSessionKeyPrefix+token).Result()
	if err != nil {
		return "", false
	}
	return adminID, true
}

// Invalidate removes a session token.
func (s *AdminSessions) Invalidate(ctx context.Context, token string) error {
	if s == nil || s.client == nil {
		return models.ErrUnavailable
	}
	return s.client.Del(ctx, AdminSessionKeyPrefix+token).Err()
}
