package postgres

import (
	"context"
	"fmt"
	"log/slog"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS staff_accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		product_code TEXT NOT NULL,
		principal NUMERIC(14,2) NOT NULL,
		net_proceeds NUMERIC(14,2) NOT NULL,
		origination_fee NUMERIC(14,2) NOT NULL,
		rate_percent NUMERIC(8,4) NOT NULL,
		term_weeks INT NOT NULL,
		status TEXT NOT NULL,
		remaining_balance NUMERIC(14,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id),
		amount NUMERIC(14,2) NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		processed_by TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_customer ON loans(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(status)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_loan ON transactions(loan_id)`,
}

// EnsureSchema creates the tables on startup when they do not exist yet.
func EnsureSchema(ctx context.Context, db DBPool, logger *slog.Logger) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			logger.Error("Failed to apply schema statement", "error", err)
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	logger.Info("Database schema ensured")
	return nil
}
