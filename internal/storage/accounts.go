package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"telereport/internal/models"
)

// AccountStore persists reporting accounts in the accounts collection.
type AccountStore struct {
	db *mongo.Database
}

func NewAccountStore(db *mongo.Database) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) col() (*mongo.Collection, error) {
	if s == nil || s.db == nil {
		return nil, models.ErrUnavailable
	}
	return s.db.Collection("accounts"), nil
}

// ListByUser returns a user's accounts, primary first, then newest.
func (s *AccountStore) ListByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "is_primary", Value: -1},
		{Key: "added_at", Value: -1},
	})

	cur, err := col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var accounts []models.Account
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Get returns an account by ID, or ErrNotFound.
func (s *AccountStore) Get(ctx context.Context, accountID string) (*models.Account, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	var account models.Account
	err = col.FindOne(ctx, bson.M{"account_id": accountID}).Decode(&account)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// CountByUser returns how many accounts a user has enrolled.
func (s *AccountStore) CountByUser(ctx context.Context, userID int64) (int64, error) {
	col, err := s.col()
	if err != nil {
		return 0, err
	}
	return col.CountDocuments(ctx, bson.M{"user_id": userID})
}

// Insert stores a new account.
func (s *AccountStore) Insert(ctx context.Context, account *models.Account) error {
	col, err := s.col()
	if err != nil {
		return err
	}
	if account.AddedAt.IsZero() {
		account.AddedAt = time.Now().UTC()
	}
	_, err = col.InsertOne(ctx, account)
	return err
}

// SetStatus updates an account's status.
func (s *AccountStore) SetStatus(ctx context.Context, accountID string, status models.AccountStatus) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"account_id": accountID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Rename updates the display name.
func (s *AccountStore) Rename(ctx context.Context, accountID, name string) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"account_id": accountID},
		bson.M{"$set": bson.M{"name": name}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetPrimary makes one account primary, then clears the flag on the
// rest. Setting the target first means an unknown account ID fails with
// ErrNotFound before anything is cleared, so the user is never left with
// zero primaries. Two updates, not atomic; concurrent calls for the same
// user are unsupported.
func (s *AccountStore) SetPrimary(ctx context.Context, userID int64, accountID string) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"account_id": accountID, "user_id": userID},
		bson.M{"$set": bson.M{"is_primary": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}

	_, err = col.UpdateMany(ctx,
		bson.M{"user_id": userID, "account_id": bson.M{"$ne": accountID}},
		bson.M{"$set": bson.M{"is_primary": false}},
	)
	return err
}

// MarkUsed bumps the usage counter and stamps last_used_at.
func (s *AccountStore) MarkUsed(ctx context.Context, accountID string) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	_, err = col.UpdateOne(ctx,
		bson.M{"account_id": accountID},
		bson.M{
			"$inc": bson.M{"reports_used": 1},
			"$set": bson.M{"last_used_at": time.Now().UTC()},
		},
	)
	return err
}

// Delete hard-deletes an account. Reports referencing it keep their
// account_id; workflows holding it fail at commit with ErrNotFound.
func (s *AccountStore) Delete(ctx context.Context, accountID string) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	res, err := col.DeleteOne(ctx, bson.M{"account_id": accountID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Stats returns totals for the admin panel.
func (s *AccountStore) Stats(ctx context.Context) (total, active int64, err error) {
	col, err := s.col()
	if err != nil {
		return 0, 0, err
	}

	total, err = col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, err
	}
	active, err = col.CountDocuments(ctx, bson.M{"status": models.AccountActive})
	return total, active, err
}
