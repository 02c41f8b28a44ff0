package audit

import (
	"os"
	"strings"
	"testing"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

func TestReportSet_RecreatesFiles(t *testing.T) {
	dir := t.TempDir()
	passedPath, _ := ReportPaths(dir, fixedStart)
	if err := os.WriteFile(passedPath, []byte("stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := NewReportSet(dir, fixedStart)
	if err != nil {
		t.Fatalf("NewReportSet: %v", err)
	}
	acc := domain.Account{ID: "a1", CustomerID: "c1", FinancialEntityAccountID: "f1", AccessID: "x", AccessURL: "u"}
	if ok, err := rs.Write(Verdict{Account: acc, Status: StatusFailed, Msg: `balance "1,00" vs 2`}); !ok || err != nil {
		t.Fatalf("Write failed verdict: %v %v", ok, err)
	}
	if ok, _ := rs.Write(Verdict{Account: acc, Status: StatusInconclusive}); ok {
		t.Error("inconclusive verdict should not be written")
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	passed := readReport(t, rs.PassedPath)
	if len(passed) != 1 {
		t.Errorf("passed report = %v, want header only", passed)
	}
	failed := readReport(t, rs.FailedPath)
	if len(failed) != 2 || failed[1][5] != `balance "1,00" vs 2` {
		t.Errorf("failed report = %v", failed)
	}
	if !strings.HasSuffix(rs.FailedPath, "_failed.csv") {
		t.Errorf("FailedPath = %s", rs.FailedPath)
	}
}
