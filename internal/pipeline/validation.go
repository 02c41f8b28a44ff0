package pipeline

import (
	"fmt"
	"strings"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

// RecordIssue describes a problem with one record of a batch. Fatal issues
// reject the batch; the rest are logged.
type RecordIssue struct {
	Index  int
	Reason string
	Fatal  bool
}

func (e RecordIssue) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}

// ValidateRecords checks every record has an operation date and a
// description. A missing description is tolerated, since some banks leave
// it blank for fees, but it weakens reconciliation.
func ValidateRecords(recs []domain.ParsedRecord) []RecordIssue {
	var issues []RecordIssue
	for i, r := range recs {
		if strings.TrimSpace(r.OperationDate) == "" {
			issues = append(issues, RecordIssue{Index: i, Reason: "empty operation date", Fatal: true})
		}
		if strings.TrimSpace(r.Description) == "" && strings.TrimSpace(r.DescriptionExtended) == "" {
			issues = append(issues, RecordIssue{Index: i, Reason: "empty description"})
		}
	}
	return issues
}
