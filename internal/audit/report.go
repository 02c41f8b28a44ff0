package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportHeader is the first row of both report files.
var ReportHeader = []string{"AccountId", "CustomerId", "FinEntAccountId", "AccessId", "AccessUrl", "Msg"}

const reportStampLayout = "20060102_150405"

// ReportSet owns the PASSED and FAILED report files of one run. It is not
// safe for concurrent use; the auditor's collector is its only writer.
type ReportSet struct {
	PassedPath string
	FailedPath string

	passedFile *os.File
	failedFile *os.File
	passed     *csv.Writer
	failed     *csv.Writer
}

// ReportPaths returns the file names for a run started at t.
func ReportPaths(dir string, t time.Time) (passed, failed string) {
	stamp := t.Format(reportStampLayout)
	return filepath.Join(dir, "balance_check_"+stamp+"_passed.csv"),
		filepath.Join(dir, "balance_check_"+stamp+"_failed.csv")
}

// NewReportSet (re)creates both report files and writes their headers.
func NewReportSet(dir string, startedAt time.Time) (*ReportSet, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewReportSet: creating %s: %w", dir, err)
	}

	rs := &ReportSet{}
	rs.PassedPath, rs.FailedPath = ReportPaths(dir, startedAt)

	var err error
	if rs.passedFile, rs.passed, err = createReport(rs.PassedPath); err != nil {
		return nil, err
	}
	if rs.failedFile, rs.failed, err = createReport(rs.FailedPath); err != nil {
		rs.passedFile.Close()
		return nil, err
	}
	return rs, nil
}

func createReport(path string) (*os.File, *csv.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("NewReportSet: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(ReportHeader); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("NewReportSet: writing header to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("NewReportSet: flushing %s: %w", path, err)
	}
	return f, w, nil
}

// Write appends v to the sink for its status. Verdicts that are neither
// PASSED nor FAILED are not reported and return false.
func (rs *ReportSet) Write(v Verdict) (bool, error) {
	var w *csv.Writer
	switch v.Status {
	case StatusPassed:
		w = rs.passed
	case StatusFailed:
		w = rs.failed
	default:
		return false, nil
	}

	row := []string{
		v.Account.ID,
		v.Account.CustomerID,
		v.Account.FinancialEntityAccountID,
		v.Account.AccessID,
		v.Account.AccessURL,
		v.Msg,
	}
	if err := w.Write(row); err != nil {
		return false, fmt.Errorf("ReportSet.Write %s: %w", v.Account.ID, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("ReportSet.Write %s: %w", v.Account.ID, err)
	}
	return true, nil
}

// Files lists the report paths.
func (rs *ReportSet) Files() []string {
	return []string{rs.PassedPath, rs.FailedPath}
}

// Close flushes and closes both files.
func (rs *ReportSet) Close() error {
	var firstErr error
	for _, pair := range []struct {
		w *csv.Writer
		f *os.File
	}{{rs.passed, rs.passedFile}, {rs.failed, rs.failedFile}} {
		pair.w.Flush()
		if err := pair.w.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := pair.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("ReportSet.Close: %w", firstErr)
	}
	return nil
}
