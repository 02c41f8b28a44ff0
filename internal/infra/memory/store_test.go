package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

func rec(day int, key string) domain.FinalRecord {
	d := civil.Date{Year: 2024, Month: time.June, Day: day}
	return domain.FinalRecord{
		AccountID:       "acc",
		OperationalDate: d,
		ValueDate:       d,
		Amount:          decimal.NewFromInt(int64(day)),
		KeyValue:        key,
	}
}

func TestInsertTransactions_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	n, err := s.InsertTransactions(ctx, []domain.FinalRecord{rec(1, "a"), rec(2, "b")})
	if err != nil || n != 2 {
		t.Fatalf("first insert = %d, %v", n, err)
	}
	n, err = s.InsertTransactions(ctx, []domain.FinalRecord{rec(2, "b"), rec(3, "c")})
	if err != nil || n != 1 {
		t.Fatalf("second insert = %d, %v; want 1 new", n, err)
	}

	ledger, _ := s.ListLedger(ctx, "acc")
	if len(ledger) != 3 {
		t.Fatalf("ledger has %d records, want 3", len(ledger))
	}
	for i := 1; i < len(ledger); i++ {
		if ledger[i].ID <= ledger[i-1].ID {
			t.Errorf("ledger not ascending by id: %d then %d", ledger[i-1].ID, ledger[i].ID)
		}
	}
}

func TestInsertTransactions_RequiresKey(t *testing.T) {
	r := rec(1, "")
	if _, err := NewStore().InsertTransactions(context.Background(), []domain.FinalRecord{r}); err == nil {
		t.Error("expected error for empty key value")
	}
}

func TestListStoredRecords_DateWindow(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.InsertTransactions(ctx, []domain.FinalRecord{rec(1, "a"), rec(5, "b"), rec(9, "c")})

	got, err := s.ListStoredRecords(ctx, "acc",
		civil.Date{Year: 2024, Month: time.June, Day: 2},
		civil.Date{Year: 2024, Month: time.June, Day: 9})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].KeyValue != "b" || got[1].KeyValue != "c" {
		t.Errorf("window returned %+v", got)
	}
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutAccount(domain.Account{ID: "b"})
	s.PutAccount(domain.Account{ID: "a", Balance: decimal.NewFromInt(5)})

	all, _ := s.ListAllAccounts(ctx)
	if len(all) != 2 || all[0].ID != "a" {
		t.Errorf("ListAllAccounts = %+v", all)
	}
	if _, err := s.GetAccount(ctx, "zzz"); !errors.Is(err, repository.ErrAccountNotFound) {
		t.Errorf("GetAccount(zzz) error = %v", err)
	}
}
