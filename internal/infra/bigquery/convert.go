package bigquery

import (
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// BigQuery NUMERIC carries nine fractional digits.
const numericScale = 9

func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(r.FloatString(numericScale))
	if err != nil {
		return decimal.Zero, fmt.Errorf("converting NUMERIC %s: %w", r.String(), err)
	}
	return d, nil
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func toAccount(row *AccountRow) (*domain.Account, error) {
	balance, err := ratToDecimal(row.Balance)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", row.AccountID, err)
	}
	return &domain.Account{
		ID:                       row.AccountID,
		CustomerID:               row.CustomerID,
		FinancialEntityAccountID: row.FinEntAccountID,
		Balance:                  balance,
		AccessID:                 row.AccessID,
		AccessURL:                row.AccessURL,
	}, nil
}

func toTransactionRow(rec domain.FinalRecord, seq int64) *TransactionRow {
	row := &TransactionRow{
		AccountID:                    rec.AccountID,
		LedgerSeq:                    seq,
		OperationalDate:              rec.OperationalDate,
		ValueDate:                    rec.ValueDate,
		Amount:                       rec.Amount.Rat(),
		StatementDescription:         rec.StatementDescription,
		StatementDescriptionExtended: nullString(rec.StatementDescriptionExtended),
		OperationalDatePosition:      int64(rec.OperationalDatePosition),
		KeyValue:                     rec.KeyValue,
		CreateTS:                     rec.CreateTimeStamp,
		InitialID:                    rec.InitialID,
		Receipt:                      nullString(rec.Receipt),
		ReceiptChecksum:              nullString(rec.ReceiptChecksum),
	}
	if rec.TempBalance.Valid {
		row.TempBalance = rec.TempBalance.Decimal.Rat()
	}
	if !rec.ExportTimeStamp.IsZero() {
		row.ExportTS = bigquery.NullTimestamp{Timestamp: rec.ExportTimeStamp, Valid: true}
	}
	return row
}

func toStoredRecord(row *TransactionRow) (domain.StoredRecord, error) {
	amount, err := ratToDecimal(row.Amount)
	if err != nil {
		return domain.StoredRecord{}, err
	}
	rec := domain.FinalRecord{
		AccountID:                    row.AccountID,
		OperationalDate:              row.OperationalDate,
		ValueDate:                    row.ValueDate,
		Amount:                       amount,
		StatementDescription:         row.StatementDescription,
		StatementDescriptionExtended: row.StatementDescriptionExtended.StringVal,
		OperationalDatePosition:      int(row.OperationalDatePosition),
		KeyValue:                     row.KeyValue,
		CreateTimeStamp:              row.CreateTS,
		InitialID:                    row.InitialID,
		Receipt:                      row.Receipt.StringVal,
		ReceiptChecksum:              row.ReceiptChecksum.StringVal,
	}
	if row.TempBalance != nil {
		bal, err := ratToDecimal(row.TempBalance)
		if err != nil {
			return domain.StoredRecord{}, err
		}
		rec.TempBalance = decimal.NewNullDecimal(bal)
	}
	if row.ExportTS.Valid {
		rec.ExportTimeStamp = row.ExportTS.Timestamp
	}
	return domain.StoredRecord{ID: row.LedgerSeq, FinalRecord: rec}, nil
}
