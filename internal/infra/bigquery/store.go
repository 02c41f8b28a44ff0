package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/repository"
)

const (
	accountsTable     = "accounts"
	transactionsTable = "transactions"
)

// Dataset locates the ledger tables.
type Dataset struct {
	ProjectID string
	DatasetID string
}

func (d Dataset) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.ProjectID, d.DatasetID, name)
}

// Store is the BigQuery implementation of repository.Store. It holds a
// shared client to avoid creating a new connection for each operation.
type Store struct {
	client *bigquery.Client
	ds     Dataset
}

// NewStore creates a Store with its own BigQuery client.
func NewStore(ctx context.Context, ds Dataset) (*Store, error) {
	client, err := bigquery.NewClient(ctx, ds.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return &Store{client: client, ds: ds}, nil
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ListAllAccounts delegates to ListAllAccountsWithClient with the shared client.
func (s *Store) ListAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	return ListAllAccountsWithClient(ctx, s.client, s.ds)
}

// GetAccount delegates to GetAccountWithClient with the shared client.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return GetAccountWithClient(ctx, s.client, s.ds, accountID)
}

// ListLedger delegates to ListLedgerWithClient with the shared client.
func (s *Store) ListLedger(ctx context.Context, accountID string) ([]domain.StoredRecord, error) {
	return ListLedgerWithClient(ctx, s.client, s.ds, accountID)
}

// ListStoredRecords delegates to ListStoredRecordsWithClient with the shared client.
func (s *Store) ListStoredRecords(ctx context.Context, accountID string, from, to civil.Date) ([]domain.StoredRecord, error) {
	return ListStoredRecordsWithClient(ctx, s.client, s.ds, accountID, from, to)
}

// InsertTransactions delegates to InsertTransactionsWithClient with the shared client.
func (s *Store) InsertTransactions(ctx context.Context, recs []domain.FinalRecord) (int, error) {
	return InsertTransactionsWithClient(ctx, s.client, s.ds, recs)
}

// EnsureSchema delegates to EnsureSchemaWithClient with the shared client.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return EnsureSchemaWithClient(ctx, s.client, s.ds)
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)
