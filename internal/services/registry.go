package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"telereport/internal/auth"
	"telereport/internal/models"
	"telereport/pkg/utils"
)

// AccountRegistryStore is the account surface the registry needs.
type AccountRegistryStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Account, error)
	Get(ctx context.Context, accountID string) (*models.Account, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Insert(ctx context.Context, account *models.Account) error
	SetStatus(ctx context.Context, accountID string, status models.AccountStatus) error
	Rename(ctx context.Context, accountID, name string) error
	SetPrimary(ctx context.Context, userID int64, accountID string) error
	Delete(ctx context.Context, accountID string) error
	Stats(ctx context.Context) (total, active int64, err error)
}

// Registry manages reporting accounts: enrollment, status, primary flag,
// rename, deletion.
type Registry struct {
	store    AccountRegistryStore
	resolver *auth.Resolver
	cipher   *utils.Cipher

	// MaxPerUser caps accounts per user; privileged roles are exempt.
	MaxPerUser int
}

func NewRegistry(store AccountRegistryStore, resolver *auth.Resolver, cipher *utils.Cipher, maxPerUser int) *Registry {
	return &Registry{store: store, resolver: resolver, cipher: cipher, MaxPerUser: maxPerUser}
}

// List returns a user's accounts, primary first.
func (r *Registry) List(ctx context.Context, userID int64) ([]models.Account, error) {
	return r.store.ListByUser(ctx, userID)
}

// Get returns one account by ID.
func (r *Registry) Get(ctx context.Context, accountID string) (*models.Account, error) {
	return r.store.Get(ctx, accountID)
}

// Create enrolls a new reporting account. The first account becomes
// primary. The stored session secret is encrypted at rest when a cipher
// is configured.
func (r *Registry) Create(ctx context.Context, userID int64, phone, name string) (*models.Account, error) {
	count, err := r.store.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= int64(r.MaxPerUser) && !r.resolver.Privileged(userID) {
		return nil, models.ErrCapacityExceeded
	}

	if name == "" {
		name = defaultAccountName(phone)
	}
	if !utils.ValidateAccountName(name) {
		return nil, models.ErrValidation
	}

	sessionData := fmt.Sprintf("session_%d_%d", userID, time.Now().UnixNano())
	if r.cipher != nil {
		sessionData, err = r.cipher.Encrypt(sessionData)
		if err != nil {
			return nil, err
		}
	}

	account := &models.Account{
		AccountID:   uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Phone:       phone,
		SessionData: sessionData,
		Status:      models.AccountActive,
		IsPrimary:   count == 0,
		AddedAt:     time.Now().UTC(),
	}
	if err := r.store.Insert(ctx, account); err != nil {
		return nil, err
	}

	log.Printf("✅ New account added for user %d", userID)
	return account, nil
}

// SetPrimary makes one account primary, clearing the flag on the rest.
func (r *Registry) SetPrimary(ctx context.Context, userID int64, accountID string) error {
	return r.store.SetPrimary(ctx, userID, accountID)
}

// SetStatus changes an account's status.
func (r *Registry) SetStatus(ctx context.Context, accountID string, status models.AccountStatus) error {
	if !models.ValidAccountStatus(status) {
		return models.ErrValidation
	}
	return r.store.SetStatus(ctx, accountID, status)
}

// Rename changes the display name, bounded to 3-50 runes.
func (r *Registry) Rename(ctx context.Context, accountID, name string) error {
	if !utils.ValidateAccountName(name) {
		return models.ErrValidation
	}
	return r.store.Rename(ctx, accountID, name)
}

// Delete hard-deletes an account. If the deleted account was primary and
// others remain, the oldest remaining one is promoted so the one-primary
// invariant holds whenever the user has any accounts.
func (r *Registry) Delete(ctx context.Context, accountID string) error {
	account, err := r.store.Get(ctx, accountID)
	if err != nil {
		return err
	}

	if err := r.store.Delete(ctx, accountID); err != nil {
		return err
	}

	if account.IsPrimary {
		remaining, err := r.store.ListByUser(ctx, account.UserID)
		if err != nil || len(remaining) == 0 {
			return nil
		}
		oldest := remaining[0]
		for _, a := range remaining[1:] {
			if a.AddedAt.Before(oldest.AddedAt) {
				oldest = a
			}
		}
		if err := r.store.SetPrimary(ctx, account.UserID, oldest.AccountID); err != nil {
			log.Printf("promote primary after delete for user %d: %v", account.UserID, err)
		}
	}
	return nil
}

// Stats counts accounts overall and active, for the admin panel.
func (r *Registry) Stats(ctx context.Context) (total, active int64, err error) {
	return r.store.Stats(ctx)
}

func defaultAccountName(phone string) string {
	if len(phone) >= 4 {
		return "Account " + phone[len(phone)-4:]
	}
	return "Account " + phone
}
