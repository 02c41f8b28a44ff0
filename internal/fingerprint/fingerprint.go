// Package fingerprint derives content hashes that identify a transaction
// independently of any persistence-assigned id.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

// Hash is a SHA-256 digest of a record's canonical fields.
type Hash [sha256.Size]byte

// String returns the lowercase hex form used as KeyValue.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

const sep = "\x1f"

// Of hashes OperationalDate, ValueDate, Amount, TempBalance and the
// whitespace-normalized description, in that order.
func Of(rec domain.FinalRecord) Hash {
	balance := ""
	if rec.TempBalance.Valid {
		balance = rec.TempBalance.Decimal.StringFixed(2)
	}
	fields := []string{
		rec.OperationalDate.String(),
		rec.ValueDate.String(),
		rec.Amount.StringFixed(2),
		balance,
		cleanDescription(rec.StatementDescription),
	}
	return sha256.Sum256([]byte(strings.Join(fields, sep)))
}

func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Counts fingerprints every record and returns how often each hash occurs.
func Counts(recs []domain.FinalRecord) map[Hash]int {
	counts := make(map[Hash]int, len(recs))
	for _, r := range recs {
		counts[Of(r)]++
	}
	return counts
}

// Unique returns the hashes that occur exactly once in recs.
func Unique(recs []domain.FinalRecord) map[Hash]struct{} {
	out := make(map[Hash]struct{})
	for h, n := range Counts(recs) {
		if n == 1 {
			out[h] = struct{}{}
		}
	}
	return out
}

// Duplicates returns the hashes that occur more than once, with counts.
func Duplicates(recs []domain.FinalRecord) map[Hash]int {
	out := make(map[Hash]int)
	for h, n := range Counts(recs) {
		if n > 1 {
			out[h] = n
		}
	}
	return out
}
