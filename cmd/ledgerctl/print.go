package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

func printRecords(w io.Writer, recs []domain.FinalRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tVALUE DATE\tPOS\tAMOUNT\tBALANCE\tDESCRIPTION\tKEY")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.OperationalDate, r.ValueDate, r.OperationalDatePosition,
			r.Amount.StringFixed(2), balance(r), r.StatementDescription, r.KeyValue)
	}
	tw.Flush()
}

func printLedger(w io.Writer, ledger []domain.StoredRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tBALANCE\tDESCRIPTION\tFIRST SEEN")
	for _, r := range ledger {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.OperationalDate, r.Amount.StringFixed(2), balance(r.FinalRecord),
			r.StatementDescription, r.CreateTimeStamp.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func balance(r domain.FinalRecord) string {
	if !r.TempBalance.Valid {
		return "-"
	}
	return r.TempBalance.Decimal.StringFixed(2)
}
