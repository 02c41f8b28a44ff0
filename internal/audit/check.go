// Package audit verifies that every account's stored ledger is internally
// consistent and ends at the balance the bank declares.
package audit

import (
	"fmt"

	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/jobs"
)

// Status is where an account stands in a check.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusChecking     Status = "CHECKING"
	StatusPassed       Status = "PASSED"
	StatusFailed       Status = "FAILED"
	StatusInconclusive Status = "INCONCLUSIVE"
)

// Verdict is the outcome of checking one account.
type Verdict struct {
	Account domain.Account
	Status  Status
	Msg     string
	Records int
}

// CheckLedger compares the ledger's last running balance with the declared
// account balance, then walks adjacent pairs until the first one where
// round(prev.TempBalance + curr.Amount, 2) differs from curr.TempBalance.
// A record with an unknown running balance makes the verdict INCONCLUSIVE.
func CheckLedger(acc domain.Account, ledger []domain.StoredRecord) Verdict {
	v := Verdict{Account: acc, Records: len(ledger)}

	for _, rec := range ledger {
		if !rec.TempBalance.Valid {
			v.Status = StatusInconclusive
			v.Msg = fmt.Sprintf("record %s has no running balance", describe(rec))
			return v
		}
	}

	if len(ledger) > 0 {
		last := ledger[len(ledger)-1].TempBalance.Decimal
		if !last.Equal(acc.Balance) {
			v.Status = StatusFailed
			v.Msg = fmt.Sprintf("declared balance %s does not match last running balance %s",
				acc.Balance.StringFixed(2), last.StringFixed(2))
			return v
		}
	}

	for i := 1; i < len(ledger); i++ {
		prev, curr := ledger[i-1], ledger[i]
		expected := prev.TempBalance.Decimal.Add(curr.Amount).Round(2)
		if !expected.Equal(curr.TempBalance.Decimal) {
			v.Status = StatusFailed
			v.Msg = fmt.Sprintf("%s followed by %s: expected running balance %s",
				describe(prev), describe(curr), expected.StringFixed(2))
			return v
		}
	}

	v.Status = StatusPassed
	return v
}

func describe(rec domain.StoredRecord) string {
	bal := "null"
	if rec.TempBalance.Valid {
		bal = rec.TempBalance.Decimal.StringFixed(2)
	}
	return fmt.Sprintf("[id=%d date=%s amount=%s balance=%s %q]",
		rec.ID, rec.OperationalDate, rec.Amount.StringFixed(2), bal, rec.StatementDescription)
}

// jobStatus maps a verdict onto the worker queue's terminal statuses.
func (s Status) jobStatus() jobs.JobStatus {
	switch s {
	case StatusPassed:
		return jobs.JobStatusPassed
	case StatusFailed:
		return jobs.JobStatusFailed
	default:
		return jobs.JobStatusInconclusive
	}
}

func statusFromJob(s jobs.JobStatus) Status {
	switch s {
	case jobs.JobStatusPassed:
		return StatusPassed
	case jobs.JobStatusFailed:
		return StatusFailed
	case jobs.JobStatusPending:
		return StatusPending
	case jobs.JobStatusChecking, jobs.JobStatusRetrying:
		return StatusChecking
	default:
		return StatusInconclusive
	}
}
