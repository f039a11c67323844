package services

import (
	"context"
	"fmt"

	"telereport/internal/auth"
	"telereport/internal/models"
	"telereport/internal/storage"
)

// ReportReviewStore is the report surface the review console needs.
type ReportReviewStore interface {
	Get(ctx context.Context, reportID string) (*models.Report, error)
	ListPending(ctx context.Context, limit int64) ([]models.Report, error)
	ListAll(ctx context.Context, status models.ReportStatus, skip, limit int64) ([]models.Report, error)
	SetStatus(ctx context.Context, reportID string, status models.ReportStatus, reviewerID int64, result string) error
	Stats(ctx context.Context) (*storage.ReportStats, error)
}

// UserNotifier delivers best-effort messages to a user; implementations
// must swallow transport failures.
type UserNotifier interface {
	NotifyUser(userID int64, text string)
}

// Review is the administrative console over reports and users. Every
// operation checks the caller's resolved role.
type Review struct {
	reports  ReportReviewStore
	users    *storage.UserStore
	resolver *auth.Resolver
	notify   UserNotifier
}

func NewReview(reports ReportReviewStore, users *storage.UserStore, resolver *auth.Resolver, notify UserNotifier) *Review {
	return &Review{reports: reports, users: users, resolver: resolver, notify: notify}
}

// ErrForbidden is returned when the caller is not privileged.
var ErrForbidden = fmt.Errorf("forbidden")

func (r *Review) authorize(callerID int64) error {
	if !r.resolver.Privileged(callerID) {
		return ErrForbidden
	}
	return nil
}

// ListPending returns pending reports oldest-first.
func (r *Review) ListPending(ctx context.Context, callerID int64, limit int64) ([]models.Report, error) {
	if err := r.authorize(callerID); err != nil {
		return nil, err
	}
	return r.reports.ListPending(ctx, limit)
}

// ListAll returns reports newest-first, optionally filtered by status.
func (r *Review) ListAll(ctx context.Context, callerID int64, status models.ReportStatus, skip, limit int64) ([]models.Report, error) {
	if err := r.authorize(callerID); err != nil {
		return nil, err
	}
	return r.reports.ListAll(ctx, status, skip, limit)
}

// Get returns a single report.
func (r *Review) Get(ctx context.Context, callerID int64, reportID string) (*models.Report, error) {
	if err := r.authorize(callerID); err != nil {
		return nil, err
	}
	return r.reports.Get(ctx, reportID)
}

// SetStatus transitions a report to resolved or rejected, stamping the
// reviewer and timestamp, then notifies the original reporter
// best-effort. Notification failure never affects the status mutation.
func (r *Review) SetStatus(ctx context.Context, callerID int64, reportID string, status models.ReportStatus, result string) error {
	if err := r.authorize(callerID); err != nil {
		return err
	}
	if status != models.ReportResolved && status != models.ReportRejected {
		return models.ErrValidation
	}

	report, err := r.reports.Get(ctx, reportID)
	if err != nil {
		return err
	}

	if err := r.reports.SetStatus(ctx, reportID, status, callerID, result); err != nil {
		return err
	}

	if r.notify != nil {
		text := fmt.Sprintf("📋 Your report `%s` has been *%s*.", reportID, status)
		if result != "" {
			text += "\n\n*Result:* " + result
		}
		r.notify.NotifyUser(report.UserID, text)
	}
	return nil
}

// ListUsers returns users newest-first.
func (r *Review) ListUsers(ctx context.Context, callerID int64, skip, limit int64) ([]models.User, error) {
	if err := r.authorize(callerID); err != nil {
		return nil, err
	}
	return r.users.List(ctx, skip, limit)
}

// Block prevents a user from starting workflows.
func (r *Review) Block(ctx context.Context, callerID, userID int64) error {
	if err := r.authorize(callerID); err != nil {
		return err
	}
	return r.users.SetBlocked(ctx, userID, true)
}

// Unblock reverses Block.
func (r *Review) Unblock(ctx context.Context, callerID, userID int64) error {
	if err := r.authorize(callerID); err != nil {
		return err
	}
	return r.users.SetBlocked(ctx, userID, false)
}

// GrantTokens credits tokens to a user's ledger.
func (r *Review) GrantTokens(ctx context.Context, callerID, userID int64, n int) error {
	if err := r.authorize(callerID); err != nil {
		return err
	}
	if n <= 0 {
		return models.ErrValidation
	}
	return r.users.Credit(ctx, userID, n)
}

// Stats summarizes reports and users for the admin panel.
func (r *Review) Stats(ctx context.Context, callerID int64) (*storage.ReportStats, int64, error) {
	if err := r.authorize(callerID); err != nil {
		return nil, 0, err
	}
	stats, err := r.reports.Stats(ctx)
	if err != nil {
		return nil, 0, err
	}
	users, err := r.users.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return stats, users, nil
}
