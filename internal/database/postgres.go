package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens the PostgreSQL connection used for purchase
// transactions and creates the schema if needed.
func ConnectPostgres(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		return nil, err
	}

	log.Println("✅ Connected to PostgreSQL")

	if err = initTables(db); err != nil {
		return nil, err
	}
	return db, nil
}

func initTables(db *sql.DB) error {
	queries := []string{
		// Token purchase transactions. The pending->completed flip is the
		// trigger that credits the Mongo-side ledger.
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id VARCHAR(16) PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount INTEGER NOT NULL,
			currency VARCHAR(8) NOT NULL,
			tokens INTEGER NOT NULL,
			method VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions (status, created_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}
