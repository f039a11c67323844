package services

import (
	"context"
	"testing"
	"time"

	"telereport/internal/auth"
	"telereport/internal/config"
	"telereport/internal/models"
)

// fakeAccountStore mirrors the Mongo store's semantics, including the
// set-first-then-clear SetPrimary ordering.
type fakeAccountStore struct {
	accounts map[string]*models.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[string]*models.Account)}
}

func (f *fakeAccountStore) ListByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	var out []models.Account
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAccountStore) Get(ctx context.Context, accountID string) (*models.Account, error) {
	a, ok := f.accounts[accountID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAccountStore) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for _, a := range f.accounts {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAccountStore) Insert(ctx context.Context, account *models.Account) error {
	copied := *account
	f.accounts[account.AccountID] = &copied
	return nil
}

func (f *fakeAccountStore) SetStatus(ctx context.Context, accountID string, status models.AccountStatus) error {
	a, ok := f.accounts[accountID]
	if !ok {
		return models.ErrNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeAccountStore) Rename(ctx context.Context, accountID, name string) error {
	a, ok := f.accounts[accountID]
	if !ok {
		return models.ErrNotFound
	}
	a.Name = name
	return nil
}

func (f *fakeAccountStore) SetPrimary(ctx context.Context, userID int64, accountID string) error {
	target, ok := f.accounts[accountID]
	if !ok || target.UserID != userID {
		return models.ErrNotFound
	}
	target.IsPrimary = true
	for _, a := range f.accounts {
		if a.UserID == userID && a.AccountID != accountID {
			a.IsPrimary = false
		}
	}
	return nil
}

func (f *fakeAccountStore) Delete(ctx context.Context, accountID string) error {
	if _, ok := f.accounts[accountID]; !ok {
		return models.ErrNotFound
	}
	delete(f.accounts, accountID)
	return nil
}

func (f *fakeAccountStore) Stats(ctx context.Context) (total, active int64, err error) {
	for _, a := range f.accounts {
		total++
		if a.Status == models.AccountActive {
			active++
		}
	}
	return total, active, nil
}

func (f *fakeAccountStore) primaries(userID int64) []string {
	var out []string
	for _, a := range f.accounts {
		if a.UserID == userID && a.IsPrimary {
			out = append(out, a.AccountID)
		}
	}
	return out
}

const ownerUserID = int64(100)

func newRegistryFixture(t *testing.T, maxPerUser int) (*Registry, *fakeAccountStore) {
	t.Helper()
	store := newFakeAccountStore()
	resolver := auth.NewResolver(&config.Config{AdminIDs: []int64{1}})
	return NewRegistry(store, resolver, nil, maxPerUser), store
}

func mustCreate(t *testing.T, r *Registry, userID int64, name string) *models.Account {
	t.Helper()
	account, err := r.Create(context.Background(), userID, "+14155550123", name)
	if err != nil {
		t.Fatalf("Create(%q): %v", name, err)
	}
	return account
}

// An identity with accounts must always have exactly one primary. The
// first account gets the flag; later ones do not.
func TestCreateFirstAccountBecomesPrimary(t *testing.T) {
	r, store := newRegistryFixture(t, 5)

	first := mustCreate(t, r, ownerUserID, "First")
	if !first.IsPrimary {
		t.Fatal("first account not primary")
	}

	second := mustCreate(t, r, ownerUserID, "Second")
	if second.IsPrimary {
		t.Fatal("second account claimed primary")
	}
	if got := store.primaries(ownerUserID); len(got) != 1 || got[0] != first.AccountID {
		t.Fatalf("primaries = %v, want exactly [%s]", got, first.AccountID)
	}
}

func TestCreateCapExceeded(t *testing.T) {
	r, _ := newRegistryFixture(t, 2)

	mustCreate(t, r, ownerUserID, "One")
	mustCreate(t, r, ownerUserID, "Two")

	if _, err := r.Create(context.Background(), ownerUserID, "+14155550123", "Three"); err != models.ErrCapacityExceeded {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	// Privileged identities are exempt from the cap.
	mustCreate(t, r, adminID, "A-One")
	mustCreate(t, r, adminID, "A-Two")
	if _, err := r.Create(context.Background(), adminID, "+14155550123", "A-Three"); err != nil {
		t.Fatalf("privileged create over cap: %v", err)
	}
}

func TestSetPrimarySwitchesExactlyOne(t *testing.T) {
	r, store := newRegistryFixture(t, 5)
	ctx := context.Background()

	mustCreate(t, r, ownerUserID, "First")
	second := mustCreate(t, r, ownerUserID, "Second")

	if err := r.SetPrimary(ctx, ownerUserID, second.AccountID); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	if got := store.primaries(ownerUserID); len(got) != 1 || got[0] != second.AccountID {
		t.Fatalf("primaries = %v, want exactly [%s]", got, second.AccountID)
	}
}

// A bad account ID must fail without disturbing the current primary; the
// user can never end up with zero primaries from this path.
func TestSetPrimaryUnknownAccountKeepsPrimary(t *testing.T) {
	r, store := newRegistryFixture(t, 5)
	ctx := context.Background()

	first := mustCreate(t, r, ownerUserID, "First")
	mustCreate(t, r, ownerUserID, "Second")

	if err := r.SetPrimary(ctx, ownerUserID, "vanished"); err != models.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := store.primaries(ownerUserID); len(got) != 1 || got[0] != first.AccountID {
		t.Fatalf("primaries after failed switch = %v, want exactly [%s]", got, first.AccountID)
	}
}

// Deleting the primary promotes exactly one survivor (the oldest).
func TestDeletePrimaryPromotesOldest(t *testing.T) {
	r, store := newRegistryFixture(t, 5)
	ctx := context.Background()

	first := mustCreate(t, r, ownerUserID, "First")
	second := mustCreate(t, r, ownerUserID, "Second")
	third := mustCreate(t, r, ownerUserID, "Third")

	// Fix creation order explicitly; map-backed fakes have no insert order.
	base := time.Now().UTC()
	store.accounts[first.AccountID].AddedAt = base
	store.accounts[second.AccountID].AddedAt = base.Add(time.Minute)
	store.accounts[third.AccountID].AddedAt = base.Add(2 * time.Minute)

	if err := r.Delete(ctx, first.AccountID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := store.primaries(ownerUserID); len(got) != 1 || got[0] != second.AccountID {
		t.Fatalf("primaries after delete = %v, want exactly [%s]", got, second.AccountID)
	}
}

func TestDeleteNonPrimaryKeepsPrimary(t *testing.T) {
	r, store := newRegistryFixture(t, 5)
	ctx := context.Background()

	first := mustCreate(t, r, ownerUserID, "First")
	second := mustCreate(t, r, ownerUserID, "Second")

	if err := r.Delete(ctx, second.AccountID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := store.primaries(ownerUserID); len(got) != 1 || got[0] != first.AccountID {
		t.Fatalf("primaries after delete = %v, want exactly [%s]", got, first.AccountID)
	}
}

func TestDeleteLastAccountLeavesNone(t *testing.T) {
	r, store := newRegistryFixture(t, 5)
	ctx := context.Background()

	only := mustCreate(t, r, ownerUserID, "Only")
	if err := r.Delete(ctx, only.AccountID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := store.CountByUser(ctx, ownerUserID); n != 0 {
		t.Fatalf("accounts remaining: %d", n)
	}
}

func TestRenameValidation(t *testing.T) {
	r, store := newRegistryFixture(t, 5)
	ctx := context.Background()

	account := mustCreate(t, r, ownerUserID, "First")
	if err := r.Rename(ctx, account.AccountID, "ab"); err != models.ErrValidation {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := r.Rename(ctx, account.AccountID, "Renamed"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if store.accounts[account.AccountID].Name != "Renamed" {
		t.Fatal("rename not applied")
	}
}
