package bigquery

import "math/big"

// AccountRow is one row of the accounts table.
type AccountRow struct {
	AccountID       string   `bigquery:"account_id"`         // REQUIRED
	CustomerID      string   `bigquery:"customer_id"`        // NULLABLE
	FinEntAccountID string   `bigquery:"fin_ent_account_id"` // NULLABLE
	Balance         *big.Rat `bigquery:"balance"`            // NUMERIC, declared by the bank
	AccessID        string   `bigquery:"access_id"`          // NULLABLE
	AccessURL       string   `bigquery:"access_url"`         // NULLABLE
}
