package audit

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// syntheticLedger builds an ascending ledger starting from b0 where each
// running balance is round(b0 + a1 + ... + ai, 2).
func syntheticLedger(accountID string, b0 decimal.Decimal, amounts ...string) []domain.StoredRecord {
	day := civil.Date{Year: 2024, Month: time.January, Day: 1}
	bal := b0
	var ledger []domain.StoredRecord
	for i, a := range amounts {
		amt := dec(a)
		bal = bal.Add(amt).Round(2)
		ledger = append(ledger, domain.StoredRecord{
			ID: int64(i + 1),
			FinalRecord: domain.FinalRecord{
				AccountID:            accountID,
				OperationalDate:      day.AddDays(i / 2),
				ValueDate:            day.AddDays(i / 2),
				Amount:               amt,
				TempBalance:          decimal.NewNullDecimal(bal),
				StatementDescription: fmt.Sprintf("tx %d", i+1),
				KeyValue:             fmt.Sprintf("k%d", i+1),
			},
		})
	}
	return ledger
}

func TestCheckLedger_RoundTrip(t *testing.T) {
	ledger := syntheticLedger("acc", dec("100.00"), "-10.25", "5.50", "-0.01", "250", "-45.99")
	last := ledger[len(ledger)-1].TempBalance.Decimal
	acc := domain.Account{ID: "acc", Balance: last}

	v := CheckLedger(acc, ledger)
	if v.Status != StatusPassed {
		t.Fatalf("status = %s (%s), want PASSED", v.Status, v.Msg)
	}
	if v.Records != len(ledger) {
		t.Errorf("Records = %d", v.Records)
	}

	for i := 1; i < len(ledger); i++ {
		perturbed := append([]domain.StoredRecord(nil), ledger...)
		perturbed[i].Amount = perturbed[i].Amount.Add(dec("0.01"))

		v := CheckLedger(acc, perturbed)
		if v.Status != StatusFailed {
			t.Fatalf("perturbing #%d: status = %s, want FAILED", i, v.Status)
		}
		if !strings.Contains(v.Msg, fmt.Sprintf("id=%d ", perturbed[i-1].ID)) ||
			!strings.Contains(v.Msg, fmt.Sprintf("id=%d ", perturbed[i].ID)) {
			t.Errorf("perturbing #%d: message does not quote the offending pair: %s", i, v.Msg)
		}
	}
}

func TestCheckLedger_DeclaredBalanceMismatch(t *testing.T) {
	ledger := syntheticLedger("acc", dec("0"), "10", "20")
	v := CheckLedger(domain.Account{ID: "acc", Balance: dec("31")}, ledger)
	if v.Status != StatusFailed {
		t.Fatalf("status = %s, want FAILED", v.Status)
	}
	if !strings.Contains(v.Msg, "31.00") || !strings.Contains(v.Msg, "30.00") {
		t.Errorf("message should quote both balances: %s", v.Msg)
	}
}

func TestCheckLedger_Trivial(t *testing.T) {
	tests := []struct {
		name   string
		ledger []domain.StoredRecord
		bal    string
	}{
		{name: "empty", ledger: nil, bal: "123.45"},
		{name: "single", ledger: syntheticLedger("acc", dec("10"), "5"), bal: "15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := CheckLedger(domain.Account{ID: "acc", Balance: dec(tt.bal)}, tt.ledger)
			if v.Status != StatusPassed {
				t.Errorf("status = %s (%s), want PASSED", v.Status, v.Msg)
			}
		})
	}
}

func TestCheckLedger_RoundsSum(t *testing.T) {
	ledger := syntheticLedger("acc", dec("0"), "1.005")
	ledger = append(ledger, domain.StoredRecord{
		ID: 2,
		FinalRecord: domain.FinalRecord{
			Amount:      dec("0.004"),
			TempBalance: decimal.NewNullDecimal(dec("1.01")),
		},
	})
	// 1.01 + 0.004 rounds to 1.01
	v := CheckLedger(domain.Account{Balance: dec("1.01")}, ledger)
	if v.Status != StatusPassed {
		t.Errorf("status = %s (%s), want PASSED", v.Status, v.Msg)
	}
}

func TestCheckLedger_NullBalance(t *testing.T) {
	ledger := syntheticLedger("acc", dec("0"), "1", "2", "3")
	ledger[1].TempBalance = decimal.NullDecimal{}
	v := CheckLedger(domain.Account{ID: "acc", Balance: dec("6")}, ledger)
	if v.Status != StatusInconclusive {
		t.Errorf("status = %s, want INCONCLUSIVE", v.Status)
	}
}
