package services

import (
	"context"
	"log"
	"time"

	"telereport/internal/auth"
	"telereport/internal/models"
	"telereport/internal/storage"
)

// UserService creates users on first interaction and exposes the ledger.
type UserService struct {
	store    *storage.UserStore
	resolver *auth.Resolver

	// FreeTokens is the starting balance for new users.
	FreeTokens int
}

func NewUserService(store *storage.UserStore, resolver *auth.Resolver, freeTokens int) *UserService {
	return &UserService{store: store, resolver: resolver, FreeTokens: freeTokens}
}

// Ensure returns the user record, creating it on first interaction with
// the role resolved from configuration.
func (s *UserService) Ensure(ctx context.Context, userID int64, username, firstName, lastName string) (*models.User, error) {
	user, err := s.store.Get(ctx, userID)
	if err == nil {
		return user, nil
	}
	if err != models.ErrNotFound {
		return nil, err
	}

	user = &models.User{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      s.resolver.Resolve(userID),
		Tokens:    s.FreeTokens,
		JoinedAt:  time.Now().UTC(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("✅ New user created: %d (%s)", userID, username)
	return user, nil
}

// Balance returns the token balance, 0 for unknown users.
func (s *UserService) Balance(ctx context.Context, userID int64) (int, error) {
	return s.store.Balance(ctx, userID)
}

// Grant credits tokens to a user (admin paths only ever add).
func (s *UserService) Grant(ctx context.Context, userID int64, n int) error {
	if n <= 0 {
		return models.ErrValidation
	}
	return s.store.Credit(ctx, userID, n)
}

// Touch updates the user's last-active timestamp; failures are logged
// only, activity tracking is not correctness-critical.
func (s *UserService) Touch(ctx context.Context, userID int64) {
	if err := s.store.TouchLastActive(ctx, userID); err != nil {
		log.Printf("touch user %d: %v", userID, err)
	}
}
