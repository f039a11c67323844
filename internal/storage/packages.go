package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"telereport/internal/models"
)

// PackageStore holds the static token package catalog.
type PackageStore struct {
	db *mongo.Database
}

func NewPackageStore(db *mongo.Database) *PackageStore {
	return &PackageStore{db: db}
}

func (s *PackageStore) col() (*mongo.Collection, error) {
	if s == nil || s.db == nil {
		return nil, models.ErrUnavailable
	}
	return s.db.Collection("token_packages"), nil
}

// Seed inserts the default catalog entries that don't exist yet.
func (s *PackageStore) Seed(ctx context.Context) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	defaults := []models.TokenPackage{
		{PackageID: "basic", Name: "Basic Pack", Tokens: 5, PriceStars: 50, PriceINR: 50, Description: "5 reports - Perfect for testing", IsActive: true},
		{PackageID: "standard", Name: "Standard Pack", Tokens: 15, PriceStars: 120, PriceINR: 120, Description: "15 reports - Most popular choice", IsActive: true},
		{PackageID: "premium", Name: "Premium Pack", Tokens: 30, PriceStars: 200, PriceINR: 200, Description: "30 reports - Great value", IsActive: true},
		{PackageID: "pro", Name: "Pro Pack", Tokens: 100, PriceStars: 500, PriceINR: 500, Description: "100 reports - For power users", IsActive: true},
	}

	for _, pkg := range defaults {
		count, err := col.CountDocuments(ctx, bson.M{"package_id": pkg.PackageID})
		if err != nil {
			return err
		}
		if count == 0 {
			if _, err := col.InsertOne(ctx, pkg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListActive returns active packages ordered by token count.
func (s *PackageStore) ListActive(ctx context.Context) ([]models.TokenPackage, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "tokens", Value: 1}})
	cur, err := col.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var packages []models.TokenPackage
	if err := cur.All(ctx, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// Get returns a package by ID, or ErrNotFound.
func (s *PackageStore) Get(ctx context.Context, packageID string) (*models.TokenPackage, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	var pkg models.TokenPackage
	err = col.FindOne(ctx, bson.M{"package_id": packageID}).Decode(&pkg)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}
