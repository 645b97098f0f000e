package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent so it can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        phone TEXT NOT NULL UNIQUE,
        tier TEXT NOT NULL,
        pin_hash BYTEA NOT NULL,
        first_name TEXT NOT NULL DEFAULT '',
        middle_name TEXT NOT NULL DEFAULT '',
        last_name TEXT NOT NULL DEFAULT '',
        suffix TEXT NOT NULL DEFAULT '',
        birthdate DATE,
        gender TEXT NOT NULL DEFAULT '',
        nationality TEXT NOT NULL DEFAULT '',
        country TEXT NOT NULL DEFAULT '',
        province TEXT NOT NULL DEFAULT '',
        municipality TEXT NOT NULL DEFAULT '',
        barangay TEXT NOT NULL DEFAULT '',
        street TEXT NOT NULL DEFAULT '',
        profile_image TEXT NOT NULL DEFAULT '',
        token_version INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMPTZ NOT NULL,
        last_login TIMESTAMPTZ
    )`,
	`CREATE TABLE IF NOT EXISTS accounts (
        id UUID PRIMARY KEY,
        code TEXT NOT NULL UNIQUE
    )`,
	`CREATE TABLE IF NOT EXISTS transactions (
        id UUID PRIMARY KEY,
        client_tx_id TEXT NOT NULL,
        kind TEXT NOT NULL,
        status TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        UNIQUE (kind, client_tx_id)
    )`,
	`CREATE TABLE IF NOT EXISTS entries (
        id UUID PRIMARY KEY,
        transaction_id UUID NOT NULL REFERENCES transactions (id),
        account_id UUID NOT NULL REFERENCES accounts (id),
        amount BIGINT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS entries_account_idx ON entries (account_id)`,
	`CREATE TABLE IF NOT EXISTS wallets (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL UNIQUE REFERENCES users (id),
        account_code TEXT NOT NULL REFERENCES accounts (code),
        currency TEXT NOT NULL,
        status TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS loans (
        id UUID PRIMARY KEY,
        borrower_id UUID NOT NULL REFERENCES users (id),
        wallet_id UUID NOT NULL REFERENCES wallets (id),
        principal BIGINT NOT NULL,
        interest BIGINT NOT NULL,
        total BIGINT NOT NULL,
        rate_bp INTEGER NOT NULL,
        purpose TEXT NOT NULL,
        duration_months INTEGER NOT NULL,
        employment TEXT NOT NULL,
        monthly_income BIGINT NOT NULL,
        status TEXT NOT NULL,
        disbursement_tx_id TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL,
        completed_at TIMESTAMPTZ
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS loans_one_active_idx ON loans (borrower_id) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS installments (
        loan_id UUID NOT NULL REFERENCES loans (id),
        number INTEGER NOT NULL,
        due_date DATE NOT NULL,
        amount BIGINT NOT NULL,
        status TEXT NOT NULL,
        paid_at TIMESTAMPTZ,
        transaction_id TEXT,
        PRIMARY KEY (loan_id, number)
    )`,
	`CREATE TABLE IF NOT EXISTS notifications (
        id UUID PRIMARY KEY,
        user_id UUID NOT NULL REFERENCES users (id),
        kind TEXT NOT NULL,
        title TEXT NOT NULL,
        body TEXT NOT NULL,
        read_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC)`,
}

// EnsureSchema creates the tables the repositories expect.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
