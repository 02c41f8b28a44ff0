package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// openTestStore connects to POSTGRES_TEST_DSN, skipping when it is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return s
}

func TestInsertAndListLedger(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	account := "test-" + uuid.NewString()
	day := civil.Date{Year: 2024, Month: time.March, Day: 4}

	recs := []domain.FinalRecord{
		{
			AccountID: account, OperationalDate: day, ValueDate: day,
			Amount:      decimal.RequireFromString("-10.50"),
			TempBalance: decimal.NewNullDecimal(decimal.RequireFromString("89.50")),
			KeyValue:    "a", OperationalDatePosition: 1,
			CreateTimeStamp: time.Now().UTC(), InitialID: uuid.NewString(),
		},
		{
			AccountID: account, OperationalDate: day, ValueDate: day,
			Amount:   decimal.RequireFromString("5"),
			KeyValue: "b", OperationalDatePosition: 2,
			CreateTimeStamp: time.Now().UTC(), InitialID: uuid.NewString(),
		},
	}

	n, err := s.InsertTransactions(ctx, recs)
	if err != nil {
		t.Fatalf("InsertTransactions: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted %d, want 2", n)
	}

	n, err = s.InsertTransactions(ctx, recs[:1])
	if err != nil {
		t.Fatalf("second InsertTransactions: %v", err)
	}
	if n != 0 {
		t.Errorf("re-insert added %d rows", n)
	}

	ledger, err := s.ListLedger(ctx, account)
	if err != nil {
		t.Fatalf("ListLedger: %v", err)
	}
	if len(ledger) != 2 || ledger[0].KeyValue != "a" || ledger[1].KeyValue != "b" {
		t.Fatalf("unexpected ledger: %+v", ledger)
	}
	if ledger[1].TempBalance.Valid {
		t.Error("unknown balance came back as known")
	}
	if !ledger[0].TempBalance.Decimal.Equal(decimal.RequireFromString("89.50")) {
		t.Errorf("balance = %s", ledger[0].TempBalance.Decimal)
	}

	window, err := s.ListStoredRecords(ctx, account, day.AddDays(1), day.AddDays(2))
	if err != nil {
		t.Fatalf("ListStoredRecords: %v", err)
	}
	if len(window) != 0 {
		t.Errorf("window outside dates returned %d records", len(window))
	}
}
