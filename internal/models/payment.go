package models

import "time"

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
)

// Transaction is a token purchase record. It is created pending and flips
// to completed exactly once; that transition is what credits the ledger.
// Stored in PostgreSQL, not MongoDB.
type Transaction struct {
	TransactionID string            `json:"transaction_id"`
	UserID        int64             `json:"user_id"`
	Amount        int               `json:"amount"`
	Currency      string            `json:"currency"` // "stars" or "inr"
	Tokens        int               `json:"tokens"`
	Method        string            `json:"method"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}

// TokenPackage is a static catalog entry; seeded on startup and read-only
// at runtime.
type TokenPackage struct {
	PackageID   string `bson:"package_id" json:"package_id"`
	Name        string `bson:"name" json:"name"`
	Tokens      int    `bson:"tokens" json:"tokens"`
	PriceStars  int    `bson:"price_stars" json:"price_stars"`
	PriceINR    int    `bson:"price_inr" json:"price_inr"`
	Description string `bson:"description" json:"description"`
	IsActive    bool   `bson:"is_active" json:"is_active"`
}
