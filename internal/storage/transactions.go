package storage

import (
	"context"
	"database/sql"
	"time"

	"telereport/internal/models"
)

// TransactionStore persists token purchases in PostgreSQL.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Insert stores a new pending transaction.
func (s *TransactionStore) Insert(ctx context.Context, tx *models.Transaction) error {
	if s == nil || s.db == nil {
		return models.ErrUnavailable
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.Status == "" {
		tx.Status = models.TransactionPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (transaction_id, user_id, amount, currency, tokens, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, tx.TransactionID, tx.UserID, tx.Amount, tx.Currency, tx.Tokens, tx.Method, tx.Status, tx.CreatedAt)
	return err
}

// Get returns a transaction by ID, or ErrNotFound.
func (s *TransactionStore) Get(ctx context.Context, transactionID string) (*models.Transaction, error) {
	if s == nil || s.db == nil {
		return nil, models.ErrUnavailable
	}

	var tx models.Transaction
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT transaction_id, user_id, amount, currency, tokens, method, status, created_at, completed_at
		FROM transactions WHERE transaction_id = $1
	`, transactionID).Scan(&tx.TransactionID, &tx.UserID, &tx.Amount, &tx.Currency,
		&tx.Tokens, &tx.Method, &tx.Status, &tx.CreatedAt, &completedAt)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		tx.CompletedAt = &completedAt.Time
	}
	return &tx, nil
}

// Complete flips a pending transaction to completed. The WHERE clause on
// status makes the transition idempotent: only the first call reports
// completed=true, so the ledger is credited exactly once.
func (s *TransactionStore) Complete(ctx context.Context, transactionID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, models.ErrUnavailable
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET status = 'completed', completed_at = NOW()
		WHERE transaction_id = $1 AND status = 'pending'
	`, transactionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListPending returns pending transactions oldest-first for admin verification.
func (s *TransactionStore) ListPending(ctx context.Context) ([]models.Transaction, error) {
	if s == nil || s.db == nil {
		return nil, models.ErrUnavailable
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, user_id, amount, currency, tokens, method, status, created_at, completed_at
		FROM transactions WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByUser returns a user's transactions newest-first.
func (s *TransactionStore) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	if s == nil || s.db == nil {
		return nil, models.ErrUnavailable
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, user_id, amount, currency, tokens, method, status, created_at, completed_at
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// Revenue sums completed purchase amounts and tokens sold.
func (s *TransactionStore) Revenue(ctx context.Context) (amount, tokens int64, err error) {
	if s == nil || s.db == nil {
		return 0, 0, models.ErrUnavailable
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0), COALESCE(SUM(tokens), 0)
		FROM transactions WHERE status = 'completed'
	`).Scan(&amount, &tokens)
	return amount, tokens, err
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var completedAt sql.NullTime
		if err := rows.Scan(&tx.TransactionID, &tx.UserID, &tx.Amount, &tx.Currency,
			&tx.Tokens, &tx.Method, &tx.Status, &tx.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			tx.CompletedAt = &completedAt.Time
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
