package services

import (
	"context"
	"testing"
	"time"

	"telereport/internal/auth"
	"telereport/internal/config"
	"telereport/internal/models"
	"telereport/internal/storage"
)

type fakeReviewStore struct {
	reports map[string]*models.Report

	lastStatus   models.ReportStatus
	lastReviewer int64
	lastResult   string
}

func (f *fakeReviewStore) Get(ctx context.Context, reportID string) (*models.Report, error) {
	r, ok := f.reports[reportID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r, nil
}

func (f *fakeReviewStore) ListPending(ctx context.Context, limit int64) ([]models.Report, error) {
	var out []models.Report
	for _, r := range f.reports {
		if r.Status == models.ReportPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) ListAll(ctx context.Context, status models.ReportStatus, skip, limit int64) ([]models.Report, error) {
	var out []models.Report
	for _, r := range f.reports {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) SetStatus(ctx context.Context, reportID string, status models.ReportStatus, reviewerID int64, result string) error {
	r, ok := f.reports[reportID]
	if !ok {
		return models.ErrNotFound
	}
	r.Status = status
	f.lastStatus = status
	f.lastReviewer = reviewerID
	f.lastResult = result
	return nil
}

func (f *fakeReviewStore) Stats(ctx context.Context) (*storage.ReportStats, error) {
	return &storage.ReportStats{Total: int64(len(f.reports))}, nil
}

type recordingNotifier struct {
	userIDs []int64
	texts   []string
}

func (n *recordingNotifier) NotifyUser(userID int64, text string) {
	n.userIDs = append(n.userIDs, userID)
	n.texts = append(n.texts, text)
}

const (
	adminID  = int64(1)
	normalID = int64(2)
)

func newReviewFixture(notify UserNotifier) (*Review, *fakeReviewStore) {
	store := &fakeReviewStore{reports: map[string]*models.Report{
		"ABC123DEF456": {
			ReportID:  "ABC123DEF456",
			UserID:    500,
			Target:    "@spammer123",
			Category:  "spam",
			Status:    models.ReportPending,
			CreatedAt: time.Now().UTC(),
		},
	}}
	resolver := auth.NewResolver(&config.Config{AdminIDs: []int64{adminID}})
	return NewReview(store, nil, resolver, notify), store
}

func TestSetStatusResolvesAndNotifiesReporter(t *testing.T) {
	notify := &recordingNotifier{}
	review, store := newReviewFixture(notify)

	err := review.SetStatus(context.Background(), adminID, "ABC123DEF456", models.ReportResolved, "account banned")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if store.lastStatus != models.ReportResolved || store.lastReviewer != adminID || store.lastResult != "account banned" {
		t.Fatalf("review fields not stamped: %+v", store)
	}
	if len(notify.userIDs) != 1 || notify.userIDs[0] != 500 {
		t.Fatalf("reporter not notified: %v", notify.userIDs)
	}
}

// The status change must go through even when no notifier is wired; the
// notification is best-effort.
func TestSetStatusWithoutNotifier(t *testing.T) {
	review, store := newReviewFixture(nil)

	err := review.SetStatus(context.Background(), adminID, "ABC123DEF456", models.ReportRejected, "")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if store.lastStatus != models.ReportRejected {
		t.Fatalf("status not updated: %q", store.lastStatus)
	}
}

func TestSetStatusRejectsInvalidStatus(t *testing.T) {
	review, _ := newReviewFixture(nil)

	for _, status := range []models.ReportStatus{models.ReportPending, "made_up", ""} {
		if err := review.SetStatus(context.Background(), adminID, "ABC123DEF456", status, ""); err != models.ErrValidation {
			t.Errorf("SetStatus(%q) = %v, want ErrValidation", status, err)
		}
	}
}

func TestSetStatusUnknownReport(t *testing.T) {
	notify := &recordingNotifier{}
	review, _ := newReviewFixture(notify)

	if err := review.SetStatus(context.Background(), adminID, "NOPE", models.ReportResolved, ""); err != models.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(notify.userIDs) != 0 {
		t.Fatal("notified for a missing report")
	}
}

func TestReviewForbiddenForNormalUsers(t *testing.T) {
	review, _ := newReviewFixture(nil)
	ctx := context.Background()

	if err := review.SetStatus(ctx, normalID, "ABC123DEF456", models.ReportResolved, ""); err != ErrForbidden {
		t.Errorf("SetStatus: %v, want ErrForbidden", err)
	}
	if _, err := review.ListPending(ctx, normalID, 10); err != ErrForbidden {
		t.Errorf("ListPending: %v, want ErrForbidden", err)
	}
	if _, err := review.Get(ctx, normalID, "ABC123DEF456"); err != ErrForbidden {
		t.Errorf("Get: %v, want ErrForbidden", err)
	}
}
