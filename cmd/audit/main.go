// Command audit checks every account's stored ledger against the balance
// declared by its bank and writes the PASSED and FAILED reports.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dvloznov/statement-ledger/internal/audit"
	"github.com/dvloznov/statement-ledger/internal/config"
	"github.com/dvloznov/statement-ledger/internal/events"
	"github.com/dvloznov/statement-ledger/internal/events/kafka"
	"github.com/dvloznov/statement-ledger/internal/gcsuploader"
	"github.com/dvloznov/statement-ledger/internal/infra"
	"github.com/dvloznov/statement-ledger/internal/logger"
)

// newPublisher is replaced in tests.
var newPublisher = func(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) > 0 {
		return kafka.NewPublisher(cfg.KafkaBrokers)
	}
	return events.Noop{}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: os.Stderr})
	ctx := logger.WithContext(context.Background(), log)

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Balance audit failed")
	}
}

// run opens the store and the publisher, audits every account and closes
// both before returning.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := infra.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("run: opening ledger store: %w", err)
	}
	defer store.Close()

	publisher := newPublisher(cfg)
	defer publisher.Close()

	auditor := &audit.Auditor{
		Accounts:     store,
		Ledgers:      store,
		Workers:      cfg.AuditWorkers,
		ReportDir:    cfg.ReportDir,
		ReportBucket: cfg.ReportBucket,
		Events:       publisher,
		Out:          out,
	}
	if cfg.ReportBucket != "" {
		auditor.Storage = gcsuploader.NewGCSStorageService()
	}

	sum, err := auditor.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Checked %d accounts: %d passed, %d failed, %d inconclusive\n",
		sum.Total, sum.Passed, sum.Failed, sum.Inconclusive)
	if len(sum.Unfinished) > 0 {
		fmt.Fprintf(out, "Not checked: %s\n", strings.Join(sum.Unfinished, ", "))
	}
	return nil
}
