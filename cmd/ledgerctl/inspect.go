package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/statement-ledger/internal/audit"
	"github.com/dvloznov/statement-ledger/internal/repository"
	"github.com/google/subcommands"
)

type inspectCmd struct {
	account string
	quiet   bool
}

func (*inspectCmd) Name() string     { return "inspect" }
func (*inspectCmd) Synopsis() string { return "print an account's ledger and its balance check" }
func (*inspectCmd) Usage() string {
	return `ledgerctl inspect -account <id> [-q]

  Prints the stored ledger of one account in persistence order, followed by
  the same verdict the balance audit would give it.
`
}

func (c *inspectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id.")
	f.BoolVar(&c.quiet, "q", false, "Only print the verdict.")
}

func (c *inspectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		fmt.Fprintln(os.Stderr, "-account is required")
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

	acc, err := store.GetAccount(e.ctx, c.account)
	if errors.Is(err, repository.ErrAccountNotFound) {
		fmt.Fprintf(os.Stderr, "unknown account %s\n", c.account)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	ledger, err := store.ListLedger(e.ctx, acc.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if !c.quiet {
		printLedger(os.Stdout, ledger)
		fmt.Println()
	}

	v := audit.CheckLedger(*acc, ledger)
	fmt.Printf("%s (%s): declared balance %s, %d records: %s\n",
		acc.ID, acc.FinancialEntityAccountID, acc.Balance.StringFixed(2), v.Records, v.Status)
	if v.Msg != "" {
		fmt.Println(v.Msg)
	}
	if v.Status != audit.StatusPassed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
