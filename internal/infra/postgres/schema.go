package postgres

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		account_id         TEXT PRIMARY KEY,
		customer_id        TEXT,
		fin_ent_account_id TEXT,
		balance            NUMERIC(20, 2) NOT NULL DEFAULT 0,
		access_id          TEXT,
		access_url         TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                             BIGSERIAL PRIMARY KEY,
		account_id                     TEXT NOT NULL,
		operational_date               DATE NOT NULL,
		value_date                     DATE NOT NULL,
		amount                         NUMERIC(20, 2) NOT NULL,
		temp_balance                   NUMERIC(20, 2),
		statement_description          TEXT NOT NULL DEFAULT '',
		statement_description_extended TEXT,
		operational_date_position      INTEGER NOT NULL,
		key_value                      TEXT NOT NULL,
		create_ts                      TIMESTAMPTZ NOT NULL,
		initial_id                     TEXT NOT NULL,
		export_ts                      TIMESTAMPTZ,
		receipt                        TEXT,
		receipt_checksum               TEXT,
		UNIQUE (account_id, key_value)
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_account_date_idx
		ON transactions (account_id, operational_date)`,
}

// EnsureSchema creates the ledger tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("EnsureSchema: %w", err)
		}
	}
	return nil
}
