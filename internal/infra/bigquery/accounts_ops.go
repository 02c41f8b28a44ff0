package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/repository"
	"google.golang.org/api/iterator"
)

const accountColumns = `
			account_id,
			customer_id,
			fin_ent_account_id,
			balance,
			access_id,
			access_url`

// ListAllAccountsWithClient retrieves all accounts using the provided BigQuery client.
func ListAllAccountsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]*domain.Account, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY account_id
	`, accountColumns, ds.table(accountsTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAllAccountsWithClient: reading query: %w", err)
	}

	var accounts []*domain.Account
	for {
		var row AccountRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAllAccountsWithClient: iterating: %w", err)
		}
		acc, err := toAccount(&row)
		if err != nil {
			return nil, fmt.Errorf("ListAllAccountsWithClient: %w", err)
		}
		accounts = append(accounts, acc)
	}

	return accounts, nil
}

// GetAccountWithClient retrieves a single account by id.
func GetAccountWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, accountID string) (*domain.Account, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE account_id = @account_id
		LIMIT 1
	`, accountColumns, ds.table(accountsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetAccountWithClient: reading query: %w", err)
	}

	var row AccountRow
	err = it.Next(&row)
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("GetAccountWithClient %s: %w", accountID, repository.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetAccountWithClient: iterating: %w", err)
	}
	return toAccount(&row)
}
