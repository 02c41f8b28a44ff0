package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/statement-ledger/internal/gcsuploader"
	"github.com/dvloznov/statement-ledger/internal/pipeline"
	"github.com/google/subcommands"
)

type ingestCmd struct {
	input            string
	account          string
	dateLayout       string
	reverseDates     string
	keepOldest       bool
	assumeDescending bool
	dryRun           bool
}

func (*ingestCmd) Name() string { return "ingest" }
func (*ingestCmd) Synopsis() string {
	return "reconcile a crawler batch with the stored ledger and persist new records"
}
func (*ingestCmd) Usage() string {
	return `ledgerctl ingest -input <path|gs://bucket/object> [-account <id>] [-date-layout <layout>]
    [-reverse-dates <d1,d2>] [-keep-oldest] [-assume-descending] [-dry-run]

  Reads a crawler batch, puts it in ascending order, drops its oldest
  (possibly partial) day, carries provenance over from matching stored
  records and inserts the records that are new.
`
}

func (c *ingestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "input", "", "Batch file: local path, gs:// URI, or object name in BATCH_BUCKET.")
	f.StringVar(&c.account, "account", "", "Account id, overriding the batch's.")
	f.StringVar(&c.dateLayout, "date-layout", "", "Go layout of the batch dates, overriding the batch's.")
	f.StringVar(&c.reverseDates, "reverse-dates", "", "Comma separated dates, in the batch's format, whose records are listed in reverse.")
	f.BoolVar(&c.keepOldest, "keep-oldest", false, "Keep the oldest date of the batch.")
	f.BoolVar(&c.assumeDescending, "assume-descending", false, "Treat the batch as newest first when balances do not tell.")
	f.BoolVar(&c.dryRun, "dry-run", false, "Reconcile and print the records without storing or publishing anything.")
}

func (c *ingestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.input == "" {
		fmt.Fprintln(os.Stderr, "-input is required")
		return subcommands.ExitUsageError
	}

	e, err := setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	store, err := e.store()
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to open ledger store")
		return subcommands.ExitFailure
	}
	defer store.Close()

	publisher := e.publisher()
	defer publisher.Close()

	deps := pipeline.Deps{
		Ledgers: store,
		Storage: gcsuploader.NewGCSStorageService(),
		Events:  publisher,
	}
	opts := pipeline.Options{
		AccountID:         c.account,
		DateLayout:        c.dateLayout,
		DefaultDateLayout: e.cfg.DateLayout,
		ReverseDates:      splitCSV(c.reverseDates),
		KeepOldest:        c.keepOldest,
		AssumeDescending:  c.assumeDescending,
		DryRun:            c.dryRun,
	}

	state, err := pipeline.IngestBatch(e.ctx, deps, opts, e.resolveInput(c.input))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	exact, fuzzy, added := state.Merge.Counts()
	fmt.Printf("Account %s: %d records (%s), %d exact, %d fuzzy, %d new, %d inserted\n",
		state.AccountID, len(state.Final), state.Ordering, exact, fuzzy, added, state.Inserted)
	if state.DroppedDate != "" {
		fmt.Printf("Dropped oldest date %s\n", state.DroppedDate)
	}
	if c.dryRun {
		printRecords(os.Stdout, state.Final)
	}
	return subcommands.ExitSuccess
}
