// Package reconcile carries first-seen provenance from stored records over
// to freshly scraped ones.
package reconcile

import (
	"context"

	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/similarity"
)

// FuzzyThreshold is the minimum description MatchScore for a fuzzy match.
const FuzzyThreshold = 0.9

// MatchKind classifies how a fresh record was matched.
type MatchKind int

const (
	NoMatch MatchKind = iota
	Exact
	Fuzzy
)

func (k MatchKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Fuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Outcome records the decision for the batch record at Index.
type Outcome struct {
	Index    int
	Kind     MatchKind
	StoredID int64   // zero for NoMatch
	Score    float64 // description score for fuzzy matches
}

// Result is the output of Merge.
type Result struct {
	Records   []domain.FinalRecord
	Unmatched []domain.StoredRecord
	Outcomes  []Outcome
}

// Counts returns how many records matched exactly, fuzzily or not at all.
func (r Result) Counts() (exact, fuzzy, fresh int) {
	for _, o := range r.Outcomes {
		switch o.Kind {
		case Exact:
			exact++
		case Fuzzy:
			fuzzy++
		default:
			fresh++
		}
	}
	return exact, fuzzy, fresh
}

// Merge matches every batch record, in order, against the candidates not
// yet consumed. The first candidate with equal dates and amount and either
// the same description or the same intraday position with a description
// score of at least FuzzyThreshold wins and hands over its provenance. A
// candidate is consumed at most once; leftovers are returned as Unmatched.
// Both sides must already use canonical dates. Inputs are not modified.
func Merge(ctx context.Context, batch []domain.FinalRecord, candidates []domain.StoredRecord) Result {
	log := logger.FromContext(ctx)

	pool := make([]domain.StoredRecord, len(candidates))
	copy(pool, candidates)
	startedEmpty := len(pool) == 0

	res := Result{
		Records:  make([]domain.FinalRecord, len(batch)),
		Outcomes: make([]Outcome, 0, len(batch)),
	}
	copy(res.Records, batch)

	for i := range res.Records {
		rec := &res.Records[i]
		j, kind, score := findMatch(*rec, pool)
		if kind == NoMatch {
			res.Outcomes = append(res.Outcomes, Outcome{Index: i, Kind: NoMatch})
			if !startedEmpty {
				log.Info().
					Str("account_id", rec.AccountID).
					Str("operational_date", rec.OperationalDate.String()).
					Str("amount", rec.Amount.StringFixed(2)).
					Str("description", rec.StatementDescription).
					Msg("New transaction, no stored counterpart")
			}
			continue
		}

		stored := pool[j]
		rec.CopyProvenance(stored.FinalRecord)
		pool = append(pool[:j], pool[j+1:]...)
		res.Outcomes = append(res.Outcomes, Outcome{Index: i, Kind: kind, StoredID: stored.ID, Score: score})

		if kind == Fuzzy {
			log.Warn().
				Str("account_id", rec.AccountID).
				Int64("stored_id", stored.ID).
				Str("operational_date", rec.OperationalDate.String()).
				Str("fresh_description", rec.StatementDescription).
				Str("stored_description", stored.StatementDescription).
				Float64("score", score).
				Msg("Description changed since first observation")
		}
	}

	res.Unmatched = pool
	return res
}

func findMatch(rec domain.FinalRecord, pool []domain.StoredRecord) (int, MatchKind, float64) {
	for j, c := range pool {
		if c.OperationalDate != rec.OperationalDate ||
			c.ValueDate != rec.ValueDate ||
			!c.Amount.Equal(rec.Amount) {
			continue
		}
		if c.StatementDescription == rec.StatementDescription {
			return j, Exact, 1.0
		}
		if c.OperationalDatePosition != rec.OperationalDatePosition {
			continue
		}
		if score := similarity.MatchScore(rec.StatementDescription, c.StatementDescription); score >= FuzzyThreshold {
			return j, Fuzzy, score
		}
	}
	return -1, NoMatch, 0
}
