// Package ordering infers and repairs the chronology of a scraped batch.
package ordering

import (
	"github.com/shopspring/decimal"
)

// Ordering is the inferred chronology of a batch.
type Ordering int

const (
	// Unknown means the balances could not decide, or contradict each other.
	Unknown Ordering = iota
	Ascending
	Descending
)

func (o Ordering) String() string {
	switch o {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return "unknown"
	}
}

// Balanced is a record carrying a running balance and the movement that led to it.
type Balanced interface {
	RunningBalance() decimal.NullDecimal
	Movement() decimal.Decimal
}

// Dated is a record that can be grouped by its (canonical or opaque) date.
type Dated interface {
	GroupDate() string
}

// DetectDescending walks consecutive pairs and decides the chronology from
// the balance deltas. Pairs with an unknown balance are skipped. A pair
// consistent with neither direction returns Unknown immediately; a pair
// consistent with both is inconclusive and the walk continues.
func DetectDescending[T Balanced](batch []T) Ordering {
	for i := 1; i < len(batch); i++ {
		prev, curr := batch[i-1], batch[i]
		pb, cb := prev.RunningBalance(), curr.RunningBalance()
		if !pb.Valid || !cb.Valid {
			continue
		}

		// Newest first: the previous row's balance includes its own movement.
		descending := round2(pb.Decimal).Equal(round2(cb.Decimal.Add(prev.Movement())))
		ascending := round2(cb.Decimal).Equal(round2(pb.Decimal.Add(curr.Movement())))

		switch {
		case descending && ascending:
			continue
		case descending:
			return Descending
		case ascending:
			return Ascending
		default:
			return Unknown
		}
	}
	return Unknown
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Reverse returns a reversed copy of batch.
func Reverse[T any](batch []T) []T {
	out := make([]T, len(batch))
	for i, r := range batch {
		out[len(batch)-1-i] = r
	}
	return out
}

// ReorderDates splits batch into maximal runs of equal dates and reverses
// the internal order of the runs whose date is in datesToReverse. Runs keep
// their relative order.
func ReorderDates[T Dated](batch []T, datesToReverse map[string]bool) []T {
	out := make([]T, 0, len(batch))
	for start := 0; start < len(batch); {
		end := start + 1
		date := batch[start].GroupDate()
		for end < len(batch) && batch[end].GroupDate() == date {
			end++
		}
		run := batch[start:end]
		if datesToReverse[date] {
			run = Reverse(run)
		}
		out = append(out, run...)
		start = end
	}
	return out
}

// DropOldestDate removes every record sharing the first record's date from
// an ascending batch, since the oldest day of a rescrape may be only
// partially observed. It returns the dropped date, or false for an empty batch.
func DropOldestDate[T Dated](batchAsc []T) ([]T, string, bool) {
	if len(batchAsc) == 0 {
		return []T{}, "", false
	}
	oldest := batchAsc[0].GroupDate()
	out := make([]T, 0, len(batchAsc))
	for _, r := range batchAsc {
		if r.GroupDate() != oldest {
			out = append(out, r)
		}
	}
	return out, oldest, true
}
