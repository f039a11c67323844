package services

import (
	"context"
	"log"

	"telereport/internal/models"
	"telereport/internal/storage"
	"telereport/pkg/utils"
)

// Payments handles the token purchase flow: package catalog, pending
// transactions, and the completed-exactly-once credit to the ledger.
type Payments struct {
	packages     *storage.PackageStore
	transactions *storage.TransactionStore
	users        *storage.UserStore
}

func NewPayments(packages *storage.PackageStore, transactions *storage.TransactionStore, users *storage.UserStore) *Payments {
	return &Payments{packages: packages, transactions: transactions, users: users}
}

// Packages returns the active catalog.
func (p *Payments) Packages(ctx context.Context) ([]models.TokenPackage, error) {
	return p.packages.ListActive(ctx)
}

// Begin creates a pending transaction for a package purchase.
// currency selects which of the two catalog prices applies.
func (p *Payments) Begin(ctx context.Context, userID int64, packageID, currency, method string) (*models.Transaction, error) {
	if currency != "stars" && currency != "inr" {
		return nil, models.ErrValidation
	}

	pkg, err := p.packages.Get(ctx, packageID)
	if err != nil {
		return nil, err
	}

	amount := pkg.PriceStars
	if currency == "inr" {
		amount = pkg.PriceINR
	}

	tx := &models.Transaction{
		TransactionID: utils.NewTransactionID(),
		UserID:        userID,
		Amount:        amount,
		Currency:      currency,
		Tokens:        pkg.Tokens,
		Method:        method,
		Status:        models.TransactionPending,
	}
	if err := p.transactions.Insert(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Complete flips a pending transaction to completed and credits the
// ledger. The flip is idempotent at the storage layer, so repeated calls
// credit at most once.
func (p *Payments) Complete(ctx context.Context, transactionID string) (*models.Transaction, error) {
	completed, err := p.transactions.Complete(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	tx, err := p.transactions.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if completed {
		if err := p.users.Credit(ctx, tx.UserID, tx.Tokens); err != nil {
			// The transaction is marked completed but the credit failed;
			// surfaced so an operator can reconcile manually.
			log.Printf("❌ transaction %s completed but credit of %d tokens to user %d failed: %v",
				transactionID, tx.Tokens, tx.UserID, err)
			return tx, err
		}
		log.Printf("✅ Transaction %s completed, added %d tokens to user %d", transactionID, tx.Tokens, tx.UserID)
	}
	return tx, nil
}

// Pending lists transactions awaiting manual verification.
func (p *Payments) Pending(ctx context.Context) ([]models.Transaction, error) {
	return p.transactions.ListPending(ctx)
}

// History lists a user's recent transactions.
func (p *Payments) History(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	return p.transactions.ListByUser(ctx, userID, limit)
}

// Revenue sums completed purchases for the stats panel.
func (p *Payments) Revenue(ctx context.Context) (amount, tokens int64, err error) {
	return p.transactions.Revenue(ctx)
}
