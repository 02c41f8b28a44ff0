package pipeline

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/dates"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/fingerprint"
)

// Finalize canonicalizes an ascending batch for persistence. Dates are
// parsed with layout (year-less layouts are placed relative to ref), each
// record gets its 1-based position among the batch records sharing its
// operational date, fresh provenance, and a KeyValue: the fingerprint when
// it is unique in the batch, otherwise the fingerprint and the position.
func Finalize(batch []domain.ParsedRecord, accountID, layout string, ref civil.Date, now time.Time, newID func() string) ([]domain.FinalRecord, error) {
	out := make([]domain.FinalRecord, 0, len(batch))
	positions := make(map[civil.Date]int)

	for i, r := range batch {
		opDate, err := dates.Parse(r.OperationDate, layout, ref)
		if err != nil {
			return nil, fmt.Errorf("Finalize: record %d operation date: %w", i, err)
		}
		valDate, err := dates.Parse(r.ValueDate, layout, ref)
		if err != nil {
			return nil, fmt.Errorf("Finalize: record %d value date: %w", i, err)
		}

		positions[opDate]++
		out = append(out, domain.FinalRecord{
			AccountID:                    accountID,
			OperationalDate:              opDate,
			ValueDate:                    valDate,
			Amount:                       r.Amount,
			TempBalance:                  r.TempBalance,
			StatementDescription:         r.Description,
			StatementDescriptionExtended: r.DescriptionExtended,
			OperationalDatePosition:      positions[opDate],
			CreateTimeStamp:              now,
			InitialID:                    newID(),
		})
	}

	unique := fingerprint.Unique(out)
	for i := range out {
		h := fingerprint.Of(out[i])
		if _, ok := unique[h]; ok {
			out[i].KeyValue = h.String()
		} else {
			out[i].KeyValue = fmt.Sprintf("%s/%d", h, out[i].OperationalDatePosition)
		}
	}
	return out, nil
}

// DateWindow returns the earliest and latest operational dates of recs.
func DateWindow(recs []domain.FinalRecord) (from, to civil.Date, ok bool) {
	for i, r := range recs {
		if i == 0 || r.OperationalDate.Before(from) {
			from = r.OperationalDate
		}
		if i == 0 || r.OperationalDate.After(to) {
			to = r.OperationalDate
		}
	}
	return from, to, len(recs) > 0
}
