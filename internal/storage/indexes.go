package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes configures the MongoDB indexes. Called on startup from
// main after Mongo has connected.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("idx_user_id").SetUnique(true),
			},
		},
		"accounts": {
			{
				Keys:    bson.D{{Key: "account_id", Value: 1}},
				Options: options.Index().SetName("idx_account_id").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "added_at", Value: -1}},
				Options: options.Index().SetName("idx_account_user"),
			},
		},
		"reports": {
			{
				Keys:    bson.D{{Key: "report_id", Value: 1}},
				Options: options.Index().SetName("idx_report_id").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_report_user"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_report_status"),
			},
		},
		"token_packages": {
			{
				Keys:    bson.D{{Key: "package_id", Value: 1}},
				Options: options.Index().SetName("idx_package_id").SetUnique(true),
			},
		},
	}

	for collection, ms := range indexes {
		col := db.Collection(collection)
		for _, m := range ms {
			if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
				return err
			}
		}
	}
	return nil
}
