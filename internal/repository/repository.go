package repository

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
)

// ErrAccountNotFound is returned by GetAccount for unknown ids.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository provides read access to crawled accounts.
type AccountRepository interface {
	// ListAllAccounts retrieves every account.
	ListAllAccounts(ctx context.Context) ([]*domain.Account, error)

	// GetAccount retrieves one account by id.
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// LedgerRepository provides access to persisted transactions.
type LedgerRepository interface {
	// ListLedger returns the account's full ledger, ascending by persistence identity.
	ListLedger(ctx context.Context, accountID string) ([]domain.StoredRecord, error)

	// ListStoredRecords returns the account's records with an operational
	// date in [from, to], the comparison set for reconciliation.
	ListStoredRecords(ctx context.Context, accountID string, from, to civil.Date) ([]domain.StoredRecord, error)

	// InsertTransactions inserts records not yet present for their
	// (account, KeyValue) and reports how many were new.
	InsertTransactions(ctx context.Context, recs []domain.FinalRecord) (int, error)
}

// SchemaManager creates the tables a backend needs.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
}

// Store bundles everything the commands need from a backend.
type Store interface {
	AccountRepository
	LedgerRepository
	SchemaManager
	Close() error
}
