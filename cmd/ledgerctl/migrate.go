package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create the ledger tables of the configured backend" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate

  Creates the accounts and transactions tables when they do not exist.
  Existing tables are left untouched.
`
}

func (*migrateCmd) SetFlags(f *flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if err := store.EnsureSchema(e.ctx); err != nil {
		e.log.Error().Err(err).Str("backend", e.cfg.Backend).Msg("Schema migration failed")
		return subcommands.ExitFailure
	}
	e.log.Info().Str("backend", e.cfg.Backend).Msg("Schema is up to date")
	return subcommands.ExitSuccess
}
