// Package infra selects and opens the configured storage backend.
package infra

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-ledger/internal/config"
	"github.com/dvloznov/statement-ledger/internal/infra/bigquery"
	"github.com/dvloznov/statement-ledger/internal/infra/memory"
	"github.com/dvloznov/statement-ledger/internal/infra/postgres"
	"github.com/dvloznov/statement-ledger/internal/repository"
)

// Open returns the store named by cfg.Backend. Callers must Close it.
func Open(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Backend {
	case config.BackendBigQuery:
		s, err := bigquery.NewStore(ctx, bigquery.Dataset{ProjectID: cfg.BQProject, DatasetID: cfg.BQDataset})
		if err != nil {
			return nil, fmt.Errorf("infra.Open: %w", err)
		}
		return s, nil
	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("infra.Open: %w", err)
		}
		return s, nil
	case config.BackendMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("infra.Open: unknown backend %q", cfg.Backend)
	}
}
