package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"telereport/internal/models"
)

// UserStore persists users and their token ledger in the users collection.
type UserStore struct {
	db *mongo.Database
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) col() (*mongo.Collection, error) {
	if s == nil || s.db == nil {
		return nil, models.ErrUnavailable
	}
	return s.db.Collection("users"), nil
}

// Get returns a user by Telegram ID, or ErrNotFound.
func (s *UserStore) Get(ctx context.Context, userID int64) (*models.User, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user record.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if user.JoinedAt.IsZero() {
		user.JoinedAt = now
	}
	user.LastActive = now

	_, err = col.InsertOne(ctx, user)
	return err
}

// Balance returns the token balance, defaulting to 0 for unknown users.
func (s *UserStore) Balance(ctx context.Context, userID int64) (int, error) {
	user, err := s.Get(ctx, userID)
	if err == models.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return user.Tokens, nil
}

// Credit atomically adds n tokens to a user's balance.
func (s *UserStore) Credit(ctx context.Context, userID int64, n int) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$inc": bson.M{"tokens": n}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Debit atomically subtracts n tokens, but only when the balance covers
// it: the filter matches tokens >= n so the balance can never go
// negative, closing the check-then-act race between concurrent
// submissions for the same user.
func (s *UserStore) Debit(ctx context.Context, userID int64, n int) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"user_id": userID, "tokens": bson.M{"$gte": n}},
		bson.M{"$inc": bson.M{"tokens": -n}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrInsufficientBalance
	}
	return nil
}

// IncrementReportCount bumps the cumulative report counter and touches
// last_active. Independent of the balance write; not transactional with it.
func (s *UserStore) IncrementReportCount(ctx context.Context, userID int64) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	_, err = col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$inc": bson.M{"total_reports": 1},
			"$set": bson.M{"last_active": time.Now().UTC()},
		},
	)
	return err
}

// TouchLastActive updates the last-active timestamp.
func (s *UserStore) TouchLastActive(ctx context.Context, userID int64) error {
	col, err := s.col()
	if err != nil {
		return err
	}
	_, err = col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"last_active": time.Now().UTC()}},
	)
	return err
}

// SetBlocked flips the blocked flag.
func (s *UserStore) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"is_blocked": blocked}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// List returns users newest-first with pagination.
func (s *UserStore) List(ctx context.Context, skip, limit int64) ([]models.User, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "joined_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the total user count.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	col, err := s.col()
	if err != nil {
		return 0, err
	}
	return col.CountDocuments(ctx, bson.M{})
}
