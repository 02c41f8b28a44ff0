package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	AccountID string `bigquery:"account_id"` // REQUIRED
	LedgerSeq int64  `bigquery:"ledger_seq"` // REQUIRED, per-account persistence identity

	OperationalDate civil.Date `bigquery:"operational_date"` // REQUIRED
	ValueDate       civil.Date `bigquery:"value_date"`       // REQUIRED

	Amount      *big.Rat `bigquery:"amount"`       // REQUIRED NUMERIC
	TempBalance *big.Rat `bigquery:"temp_balance"` // NULLABLE NUMERIC

	StatementDescription         string              `bigquery:"statement_description"`
	StatementDescriptionExtended bigquery.NullString `bigquery:"statement_description_extended"`

	OperationalDatePosition int64  `bigquery:"operational_date_position"`
	KeyValue                string `bigquery:"key_value"` // REQUIRED, unique per account

	CreateTS        time.Time              `bigquery:"create_ts"`
	InitialID       string                 `bigquery:"initial_id"`
	ExportTS        bigquery.NullTimestamp `bigquery:"export_ts"`
	Receipt         bigquery.NullString    `bigquery:"receipt"`
	ReceiptChecksum bigquery.NullString    `bigquery:"receipt_checksum"`
}
