package reconcile

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

var day = civil.Date{Year: 2024, Month: time.April, Day: 10}

func fresh(amount, desc string, pos int) domain.FinalRecord {
	return domain.FinalRecord{
		AccountID:               "acc-1",
		OperationalDate:         day,
		ValueDate:               day,
		Amount:                  decimal.RequireFromString(amount),
		StatementDescription:    desc,
		OperationalDatePosition: pos,
		CreateTimeStamp:         time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
		InitialID:               "fresh-" + desc,
	}
}

func stored(id int64, amount, desc string, pos int) domain.StoredRecord {
	r := fresh(amount, desc, pos)
	r.CreateTimeStamp = time.Date(2024, 4, 11, 8, 0, 0, 0, time.UTC)
	r.InitialID = "first-seen"
	r.Receipt = "receipt.pdf"
	r.ReceiptChecksum = "chk"
	return domain.StoredRecord{ID: id, FinalRecord: r}
}

func TestMerge_ExactMatchCarriesProvenance(t *testing.T) {
	batch := []domain.FinalRecord{fresh("-10.00", "GROCERY STORE", 1)}
	cands := []domain.StoredRecord{stored(7, "-10", "GROCERY STORE", 3)}

	res := Merge(context.Background(), batch, cands)

	got := res.Records[0]
	if got.InitialID != "first-seen" || got.Receipt != "receipt.pdf" || got.ReceiptChecksum != "chk" {
		t.Errorf("provenance not carried: %+v", got)
	}
	if got.OperationalDatePosition != 1 {
		t.Errorf("fresh fields must survive, position = %d", got.OperationalDatePosition)
	}
	if res.Outcomes[0].Kind != Exact || res.Outcomes[0].StoredID != 7 {
		t.Errorf("outcome = %+v", res.Outcomes[0])
	}
	if len(res.Unmatched) != 0 {
		t.Errorf("expected no unmatched, got %d", len(res.Unmatched))
	}
	if batch[0].InitialID != "fresh-GROCERY STORE" {
		t.Errorf("input batch was mutated")
	}
}

func TestMerge_FuzzyNeedsSamePosition(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(buf))

	batch := []domain.FinalRecord{fresh("-5", "PAYMENT CARD 4321 STORE", 2)}

	other := Merge(ctx, batch, []domain.StoredRecord{stored(1, "-5", "PAYMENT CARD 4321 SHOP", 1)})
	if other.Outcomes[0].Kind != NoMatch {
		t.Errorf("different position must not fuzzy-match, got %v", other.Outcomes[0].Kind)
	}
	if len(other.Unmatched) != 1 {
		t.Errorf("candidate should stay unmatched")
	}

	same := Merge(ctx, batch, []domain.StoredRecord{stored(2, "-5", "PAYMENT CARD 4321 SHOP", 2)})
	if same.Outcomes[0].Kind != Fuzzy || same.Outcomes[0].Score < FuzzyThreshold {
		t.Errorf("expected fuzzy match, got %+v", same.Outcomes[0])
	}
	if same.Records[0].InitialID != "first-seen" {
		t.Errorf("fuzzy match should carry provenance")
	}
	if !strings.Contains(buf.String(), "Description changed since first observation") {
		t.Errorf("expected fuzzy discrepancy log, got: %s", buf.String())
	}
}

func TestMerge_LowScoreIsNew(t *testing.T) {
	batch := []domain.FinalRecord{fresh("-5", "PAYMENT CARD 4321 SHOP", 1)}
	res := Merge(context.Background(), batch, []domain.StoredRecord{stored(3, "-5", "PAYMENT CARD 9999 STORE", 1)})
	if res.Outcomes[0].Kind != NoMatch {
		t.Errorf("expected no match, got %v", res.Outcomes[0].Kind)
	}
	if res.Records[0].InitialID != "fresh-PAYMENT CARD 4321 SHOP" {
		t.Errorf("unmatched record must keep fresh provenance")
	}
}

func TestMerge_AmountAndDatesMustBeExact(t *testing.T) {
	batch := []domain.FinalRecord{fresh("-5.00", "X", 1)}
	c1 := stored(1, "-5.01", "X", 1)
	c2 := stored(2, "-5.00", "X", 1)
	c2.ValueDate = day.AddDays(1)

	res := Merge(context.Background(), batch, []domain.StoredRecord{c1, c2})
	if res.Outcomes[0].Kind != NoMatch || len(res.Unmatched) != 2 {
		t.Errorf("expected no match and two leftovers, got %+v / %d", res.Outcomes[0], len(res.Unmatched))
	}
}

func TestMerge_AtMostOnce(t *testing.T) {
	batch := []domain.FinalRecord{fresh("-20", "RENT", 1)}
	cands := []domain.StoredRecord{stored(1, "-20", "RENT", 1), stored(2, "-20", "RENT", 1)}

	res := Merge(context.Background(), batch, cands)

	if res.Outcomes[0].StoredID != 1 {
		t.Errorf("expected the first candidate to win, got %d", res.Outcomes[0].StoredID)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0].ID != 2 {
		t.Errorf("expected candidate 2 left over, got %+v", res.Unmatched)
	}
	if len(cands) != 2 {
		t.Errorf("candidate slice was modified")
	}
}

func TestMerge_TwinsConsumeDistinctCandidates(t *testing.T) {
	batch := []domain.FinalRecord{fresh("-1", "FEE", 1), fresh("-1", "FEE", 2), fresh("-1", "FEE", 3)}
	cands := []domain.StoredRecord{stored(10, "-1", "FEE", 1), stored(11, "-1", "FEE", 2)}

	res := Merge(context.Background(), batch, cands)

	exact, fuzzy, added := res.Counts()
	if exact != 2 || fuzzy != 0 || added != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/0/1", exact, fuzzy, added)
	}
	if res.Outcomes[0].StoredID == res.Outcomes[1].StoredID {
		t.Errorf("one candidate consumed twice")
	}
}

func TestMerge_EmptyPoolIsQuiet(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(buf))

	res := Merge(ctx, []domain.FinalRecord{fresh("-1", "A", 1)}, nil)

	if res.Outcomes[0].Kind != NoMatch {
		t.Errorf("expected NoMatch")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log lines for an empty pool, got: %s", buf.String())
	}

	buf.Reset()
	Merge(ctx, []domain.FinalRecord{fresh("-1", "A", 1)}, []domain.StoredRecord{stored(1, "-2", "B", 1)})
	if !strings.Contains(buf.String(), "New transaction") {
		t.Errorf("expected new-record log with a non-empty pool, got: %s", buf.String())
	}
}

func TestMerge_BlankDescriptionMatchesAtSamePosition(t *testing.T) {
	batch := []domain.FinalRecord{fresh("-8", "  ...  ", 4)}

	res := Merge(context.Background(), batch, []domain.StoredRecord{stored(9, "-8", "ELECTRICITY BILL 2024", 4)})
	if res.Outcomes[0].Kind != Fuzzy || res.Outcomes[0].StoredID != 9 || res.Outcomes[0].Score != 1.0 {
		t.Errorf("blank description should fuzzy-match at the same position, got %+v", res.Outcomes[0])
	}
	if res.Records[0].InitialID != "first-seen" {
		t.Errorf("blank match should carry provenance, got %q", res.Records[0].InitialID)
	}

	moved := Merge(context.Background(), batch, []domain.StoredRecord{stored(10, "-8", "ELECTRICITY BILL 2024", 5)})
	if moved.Outcomes[0].Kind != NoMatch {
		t.Errorf("blank description at another position must not match, got %v", moved.Outcomes[0].Kind)
	}
}
