package pipeline

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func parsed(date, amount, balance, desc string) domain.ParsedRecord {
	r := domain.ParsedRecord{
		OperationDate: date,
		ValueDate:     date,
		Amount:        decimal.RequireFromString(amount),
		Description:   desc,
	}
	if balance != "" {
		r.TempBalance = decimal.NewNullDecimal(decimal.RequireFromString(balance))
	}
	return r
}

func TestFinalize_PositionsAndKeys(t *testing.T) {
	batch := []domain.ParsedRecord{
		parsed("2024-03-04", "-1.00", "", "COFFEE"),
		parsed("2024-03-04", "-1.00", "", "COFFEE"),
		parsed("2024-03-04", "-5.00", "", "LUNCH"),
		parsed("2024-03-05", "-1.00", "", "COFFEE"),
	}
	now := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

	out, err := Finalize(batch, "acc", "2006-01-02", civil.DateOf(now), now, counter())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	wantPos := []int{1, 2, 3, 1}
	for i, r := range out {
		if r.OperationalDatePosition != wantPos[i] {
			t.Errorf("record %d position = %d, want %d", i, r.OperationalDatePosition, wantPos[i])
		}
		if r.AccountID != "acc" || r.InitialID != fmt.Sprintf("id-%d", i+1) || !r.CreateTimeStamp.Equal(now) {
			t.Errorf("record %d provenance = %+v", i, r)
		}
	}

	// The two identical coffees share a fingerprint and need the position.
	if !strings.HasSuffix(out[0].KeyValue, "/1") || !strings.HasSuffix(out[1].KeyValue, "/2") {
		t.Errorf("duplicate keys = %q, %q", out[0].KeyValue, out[1].KeyValue)
	}
	if strings.Contains(out[2].KeyValue, "/") || strings.Contains(out[3].KeyValue, "/") {
		t.Errorf("unique records should use the bare fingerprint: %q, %q", out[2].KeyValue, out[3].KeyValue)
	}
	seen := map[string]bool{}
	for _, r := range out {
		if seen[r.KeyValue] {
			t.Errorf("duplicate key %q", r.KeyValue)
		}
		seen[r.KeyValue] = true
	}
}

func TestFinalize_YearlessLayout(t *testing.T) {
	batch := []domain.ParsedRecord{
		parsed("30/12", "1", "", "A"),
		parsed("02/01", "1", "", "B"),
	}
	ref := civil.Date{Year: 2024, Month: time.January, Day: 3}

	out, err := Finalize(batch, "acc", "02/01", ref, time.Now(), counter())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got := out[0].OperationalDate.String(); got != "2023-12-30" {
		t.Errorf("december date = %s", got)
	}
	if got := out[1].OperationalDate.String(); got != "2024-01-02" {
		t.Errorf("january date = %s", got)
	}
}

func TestFinalize_BadDate(t *testing.T) {
	_, err := Finalize([]domain.ParsedRecord{parsed("2024-13-01", "1", "", "A")}, "acc", "2006-01-02", civil.Date{Year: 2024, Month: 1, Day: 1}, time.Now(), counter())
	if err == nil {
		t.Fatal("expected error for invalid month")
	}
}

func TestDateWindow(t *testing.T) {
	d := func(day int) civil.Date { return civil.Date{Year: 2024, Month: time.March, Day: day} }
	recs := []domain.FinalRecord{{OperationalDate: d(5)}, {OperationalDate: d(2)}, {OperationalDate: d(9)}}

	from, to, ok := DateWindow(recs)
	if !ok || from != d(2) || to != d(9) {
		t.Errorf("DateWindow = %s %s %v", from, to, ok)
	}
	if _, _, ok := DateWindow(nil); ok {
		t.Error("empty batch should have no window")
	}
}

func TestValidateRecords(t *testing.T) {
	issues := ValidateRecords([]domain.ParsedRecord{
		{OperationDate: "2024-01-01", Description: "ok"},
		{OperationDate: "2024-01-01"},
		{OperationDate: " ", Description: "x"},
	})
	if len(issues) != 2 {
		t.Fatalf("issues = %v", issues)
	}
	if issues[0].Index != 1 || issues[0].Fatal {
		t.Errorf("missing description should be a warning: %+v", issues[0])
	}
	if issues[1].Index != 2 || !issues[1].Fatal {
		t.Errorf("missing date should be fatal: %+v", issues[1])
	}
}
