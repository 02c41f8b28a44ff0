package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ParsedRecord is one row as a crawler extracted it. Dates are still in the
// scraper's local format and only meaningful for equality.
type ParsedRecord struct {
	OperationDate       string              // from "operation_date"
	ValueDate           string              // from "value_date"
	Amount              decimal.Decimal     // from "amount" (IN = positive, OUT = negative)
	TempBalance         decimal.NullDecimal // from "temp_balance" or null
	Description         string              // from "description"
	DescriptionExtended string              // from "description_extended", optional
}

// GroupDate implements ordering.Dated.
func (r ParsedRecord) GroupDate() string { return r.OperationDate }

// RunningBalance implements ordering.Balanced.
func (r ParsedRecord) RunningBalance() decimal.NullDecimal { return r.TempBalance }

// Movement implements ordering.Balanced.
func (r ParsedRecord) Movement() decimal.Decimal { return r.Amount }

// FinalRecord is the normalized form handed to persistence.
type FinalRecord struct {
	AccountID string

	OperationalDate civil.Date
	ValueDate       civil.Date

	Amount      decimal.Decimal
	TempBalance decimal.NullDecimal

	StatementDescription         string
	StatementDescriptionExtended string

	// OperationalDatePosition is the 1-based position of the record among
	// the batch's records sharing its OperationalDate.
	OperationalDatePosition int

	// KeyValue is the persistence dedup key.
	KeyValue string

	// Provenance, carried forward from the first observation.
	CreateTimeStamp time.Time
	InitialID       string
	ExportTimeStamp time.Time // zero until exported
	Receipt         string
	ReceiptChecksum string
}

// GroupDate implements ordering.Dated.
func (r FinalRecord) GroupDate() string { return r.OperationalDate.String() }

// RunningBalance implements ordering.Balanced.
func (r FinalRecord) RunningBalance() decimal.NullDecimal { return r.TempBalance }

// Movement implements ordering.Balanced.
func (r FinalRecord) Movement() decimal.Decimal { return r.Amount }

// CopyProvenance overwrites r's first-seen metadata with the stored values.
// Everything else on r stays as freshly observed.
func (r *FinalRecord) CopyProvenance(from FinalRecord) {
	r.CreateTimeStamp = from.CreateTimeStamp
	r.InitialID = from.InitialID
	r.ExportTimeStamp = from.ExportTimeStamp
	r.Receipt = from.Receipt
	r.ReceiptChecksum = from.ReceiptChecksum
}

// StoredRecord is a FinalRecord read back from persistence. ID is the
// persistence identity and defines ledger order.
type StoredRecord struct {
	ID int64
	FinalRecord
}
