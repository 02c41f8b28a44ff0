package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"google.golang.org/api/iterator"
)

const transactionColumns = `
			account_id,
			ledger_seq,
			operational_date,
			value_date,
			amount,
			temp_balance,
			statement_description,
			statement_description_extended,
			operational_date_position,
			key_value,
			create_ts,
			initial_id,
			export_ts,
			receipt,
			receipt_checksum`

// ListLedgerWithClient returns the account's transactions ordered by ledger_seq.
func ListLedgerWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, accountID string) ([]domain.StoredRecord, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE account_id = @account_id
		ORDER BY ledger_seq
	`, transactionColumns, ds.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
	}

	recs, err := readTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListLedgerWithClient: %w", err)
	}
	return recs, nil
}

// ListStoredRecordsWithClient returns the account's transactions with an
// operational date inside [from, to].
func ListStoredRecordsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, accountID string, from, to civil.Date) ([]domain.StoredRecord, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE account_id = @account_id
		  AND operational_date >= @from_date
		  AND operational_date <= @to_date
		ORDER BY ledger_seq
	`, transactionColumns, ds.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
		{Name: "from_date", Value: from},
		{Name: "to_date", Value: to},
	}

	recs, err := readTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListStoredRecordsWithClient: %w", err)
	}
	return recs, nil
}

func readTransactions(ctx context.Context, q *bigquery.Query) ([]domain.StoredRecord, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var recs []domain.StoredRecord
	for {
		var row TransactionRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		rec, err := toStoredRecord(&row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// InsertTransactionsWithClient streams the records whose key_value is not
// yet stored for their account. New rows get ledger_seq values after the
// account's current maximum, and the key value doubles as the streaming
// insert id so retried inserts are deduplicated too. One writer per account
// is assumed.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, recs []domain.FinalRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	byAccount := make(map[string][]domain.FinalRecord)
	var order []string
	for _, r := range recs {
		if r.AccountID == "" || r.KeyValue == "" {
			return 0, fmt.Errorf("InsertTransactionsWithClient: record without account or key value")
		}
		if _, ok := byAccount[r.AccountID]; !ok {
			order = append(order, r.AccountID)
		}
		byAccount[r.AccountID] = append(byAccount[r.AccountID], r)
	}

	inserter := client.DatasetInProject(ds.ProjectID, ds.DatasetID).Table(transactionsTable).Inserter()

	inserted := 0
	for _, accountID := range order {
		existing, maxSeq, err := existingKeys(ctx, client, ds, accountID, byAccount[accountID])
		if err != nil {
			return inserted, fmt.Errorf("InsertTransactionsWithClient: %w", err)
		}

		var savers []*bigquery.StructSaver
		for _, r := range byAccount[accountID] {
			if existing[r.KeyValue] {
				continue
			}
			existing[r.KeyValue] = true
			maxSeq++
			savers = append(savers, &bigquery.StructSaver{
				Struct:   toTransactionRow(r, maxSeq),
				InsertID: accountID + "/" + r.KeyValue,
			})
		}
		if len(savers) == 0 {
			continue
		}
		if err := inserter.Put(ctx, savers); err != nil {
			return inserted, fmt.Errorf("InsertTransactionsWithClient: inserting rows: %w", err)
		}
		inserted += len(savers)
	}

	return inserted, nil
}

// existingKeys returns the batch keys already stored for the account and
// the account's highest ledger_seq.
func existingKeys(ctx context.Context, client *bigquery.Client, ds Dataset, accountID string, recs []domain.FinalRecord) (map[string]bool, int64, error) {
	keys := make([]string, 0, len(recs))
	for _, r := range recs {
		keys = append(keys, r.KeyValue)
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			ARRAY(
				SELECT key_value FROM %[1]s
				WHERE account_id = @account_id AND key_value IN UNNEST(@keys)
			) AS keys,
			(SELECT IFNULL(MAX(ledger_seq), 0) FROM %[1]s WHERE account_id = @account_id) AS max_seq
	`, ds.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
		{Name: "keys", Value: keys},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("existing keys query: %w", err)
	}
	var row struct {
		Keys   []string `bigquery:"keys"`
		MaxSeq int64    `bigquery:"max_seq"`
	}
	if err := it.Next(&row); err != nil {
		return nil, 0, fmt.Errorf("existing keys iter: %w", err)
	}

	existing := make(map[string]bool, len(row.Keys))
	for _, k := range row.Keys {
		existing[k] = true
	}
	return existing, row.MaxSeq, nil
}
