package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"telereport/internal/models"
)

// ReportStore persists reports in the reports collection.
type ReportStore struct {
	db *mongo.Database
}

func NewReportStore(db *mongo.Database) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) col() (*mongo.Collection, error) {
	if s == nil || s.db == nil {
		return nil, models.ErrUnavailable
	}
	return s.db.Collection("reports"), nil
}

// Insert stores a new report.
func (s *ReportStore) Insert(ctx context.Context, report *models.Report) error {
	col, err := s.col()
	if err != nil {
		return err
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	_, err = col.InsertOne(ctx, report)
	return err
}

// Get returns a report by its short ID, or ErrNotFound.
func (s *ReportStore) Get(ctx context.Context, reportID string) (*models.Report, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	var report models.Report
	err = col.FindOne(ctx, bson.M{"report_id": reportID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByUser returns a user's reports newest-first with pagination.
func (s *ReportStore) ListByUser(ctx context.Context, userID int64, skip, limit int64) ([]models.Report, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reports []models.Report
	if err := cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ListPending returns pending reports oldest-first for review.
func (s *ReportStore) ListPending(ctx context.Context, limit int64) ([]models.Report, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cur, err := col.Find(ctx, bson.M{"status": models.ReportPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reports []models.Report
	if err := cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ListAll returns reports newest-first, optionally filtered by status.
func (s *ReportStore) ListAll(ctx context.Context, status models.ReportStatus, skip, limit int64) ([]models.Report, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reports []models.Report
	if err := cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// SetStatus updates the review sub-record of a single report.
func (s *ReportStore) SetStatus(ctx context.Context, reportID string, status models.ReportStatus, reviewerID int64, result string) error {
	col, err := s.col()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":      status,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
	}
	if result != "" {
		set["result"] = result
	}

	res, err := col.UpdateOne(ctx, bson.M{"report_id": reportID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ReportStats summarizes the reports collection for the admin panel.
type ReportStats struct {
	Total    int64            `json:"total"`
	Pending  int64            `json:"pending"`
	Resolved int64            `json:"resolved"`
	Rejected int64            `json:"rejected"`
	Today    int64            `json:"today"`
	ByType   map[string]int64 `json:"by_type"`
}

// Stats counts reports by status and type.
func (s *ReportStore) Stats(ctx context.Context) (*ReportStats, error) {
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	stats := &ReportStats{ByType: make(map[string]int64)}

	if stats.Total, err = col.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, err
	}
	if stats.Pending, err = col.CountDocuments(ctx, bson.M{"status": models.ReportPending}); err != nil {
		return nil, err
	}
	if stats.Resolved, err = col.CountDocuments(ctx, bson.M{"status": models.ReportResolved}); err != nil {
		return nil, err
	}
	if stats.Rejected, err = col.CountDocuments(ctx, bson.M{"status": models.ReportRejected}); err != nil {
		return nil, err
	}

	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	if stats.Today, err = col.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": dayStart}}); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$type", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			continue
		}
		stats.ByType[row.ID] = row.Count
	}
	return stats, cur.Err()
}
