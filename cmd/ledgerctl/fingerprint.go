package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/statement-ledger/internal/fingerprint"
	"github.com/dvloznov/statement-ledger/internal/gcsuploader"
	"github.com/dvloznov/statement-ledger/internal/pipeline"
	"github.com/google/subcommands"
	"github.com/google/uuid"
)

type fingerprintCmd struct {
	input            string
	account          string
	dateLayout       string
	assumeDescending bool
}

func (*fingerprintCmd) Name() string { return "fingerprint" }
func (*fingerprintCmd) Synopsis() string {
	return "print the keys a batch would be stored under"
}
func (*fingerprintCmd) Usage() string {
	return `ledgerctl fingerprint -input <path|gs://bucket/object> [-account <id>] [-date-layout <layout>] [-assume-descending]

  Orders and canonicalizes a batch without touching the store and prints
  every record with its key, then the fingerprints shared by several records.
`
}

func (c *fingerprintCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "input", "", "Batch file: local path, gs:// URI, or object name in BATCH_BUCKET.")
	f.StringVar(&c.account, "account", "", "Account id, overriding the batch's.")
	f.StringVar(&c.dateLayout, "date-layout", "", "Go layout of the batch dates, overriding the batch's.")
	f.BoolVar(&c.assumeDescending, "assume-descending", false, "Treat the batch as newest first when balances do not tell.")
}

func (c *fingerprintCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.input == "" {
		fmt.Fprintln(os.Stderr, "-input is required")
		return subcommands.ExitUsageError
	}
	e, err := setup(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	state := &pipeline.PipelineState{Source: e.resolveInput(c.input)}
	p := pipeline.NewPipeline(
		&pipeline.FetchBatchStep{Storage: gcsuploader.NewGCSStorageService()},
		&pipeline.DecodeBatchStep{AccountID: c.account, DateLayout: c.dateLayout, DefaultDateLayout: e.cfg.DateLayout},
		&pipeline.OrderBatchStep{AssumeDescending: c.assumeDescending},
		&pipeline.FinalizeStep{Now: time.Now, NewID: uuid.NewString},
	)
	if err := p.Execute(e.ctx, state); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printRecords(os.Stdout, state.Final)

	dups := fingerprint.Duplicates(state.Final)
	if len(dups) > 0 {
		fmt.Println()
		for h, n := range dups {
			fmt.Printf("%s occurs %d times\n", h, n)
		}
	}
	return subcommands.ExitSuccess
}
