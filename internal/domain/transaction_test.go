package domain

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func TestCopyProvenance(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	exported := created.Add(time.Hour)
	stored := FinalRecord{
		StatementDescription: "OLD TEXT",
		CreateTimeStamp:      created,
		InitialID:            "first-id",
		ExportTimeStamp:      exported,
		Receipt:              "gs://receipts/r1.pdf",
		ReceiptChecksum:      "abc",
	}
	fresh := FinalRecord{
		StatementDescription: "NEW TEXT",
		Amount:               decimal.RequireFromString("-3.10"),
		CreateTimeStamp:      created.Add(48 * time.Hour),
		InitialID:            "second-id",
	}

	fresh.CopyProvenance(stored)

	if !fresh.CreateTimeStamp.Equal(created) || fresh.InitialID != "first-id" {
		t.Errorf("provenance not copied: %+v", fresh)
	}
	if !fresh.ExportTimeStamp.Equal(exported) || fresh.Receipt != "gs://receipts/r1.pdf" || fresh.ReceiptChecksum != "abc" {
		t.Errorf("export/receipt not copied: %+v", fresh)
	}
	if fresh.StatementDescription != "NEW TEXT" {
		t.Errorf("description should stay fresh, got %q", fresh.StatementDescription)
	}
}

func TestGroupDate(t *testing.T) {
	p := ParsedRecord{OperationDate: "02/01/2024"}
	if p.GroupDate() != "02/01/2024" {
		t.Errorf("ParsedRecord.GroupDate() = %q", p.GroupDate())
	}
	f := FinalRecord{OperationalDate: civil.Date{Year: 2024, Month: time.January, Day: 2}}
	if f.GroupDate() != "2024-01-02" {
		t.Errorf("FinalRecord.GroupDate() = %q", f.GroupDate())
	}
}
