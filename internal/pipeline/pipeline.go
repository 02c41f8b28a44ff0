// Package pipeline turns a crawler batch into ledger records: it decodes the
// batch, puts it in ascending order, canonicalizes it, reconciles it with the
// stored ledger and persists what is new.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/statement-ledger/internal/events"
	"github.com/dvloznov/statement-ledger/internal/gcsuploader"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/repository"
	"github.com/google/uuid"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Deps are the collaborators of an ingestion run.
type Deps struct {
	Ledgers repository.LedgerRepository
	Storage gcsuploader.StorageService
	Events  events.Publisher
	Now     func() time.Time
	NewID   func() string
}

// Options tune one ingestion run.
type Options struct {
	AccountID         string // overrides the batch's account id
	DateLayout        string // overrides the batch's date layout
	DefaultDateLayout string
	ReverseDates      []string
	KeepOldest        bool
	AssumeDescending  bool
	DryRun            bool // stop before persisting and publishing
}

// NewBatchIngestionPipeline creates the standard ingestion pipeline.
func NewBatchIngestionPipeline(deps Deps, opts Options) *Pipeline {
	deps = deps.withDefaults()
	steps := []PipelineStep{
		&FetchBatchStep{Storage: deps.Storage},
		&DecodeBatchStep{AccountID: opts.AccountID, DateLayout: opts.DateLayout, DefaultDateLayout: opts.DefaultDateLayout},
		&ValidateBatchStep{},
		&OrderBatchStep{AssumeDescending: opts.AssumeDescending},
		&ReorderDatesStep{Dates: opts.ReverseDates},
		&DropOldestDateStep{KeepOldest: opts.KeepOldest},
		&FinalizeStep{Now: deps.Now, NewID: deps.NewID},
		&LoadCandidatesStep{Ledgers: deps.Ledgers},
		&MergeStep{},
	}
	if !opts.DryRun {
		steps = append(steps,
			&PersistStep{Ledgers: deps.Ledgers},
			&PublishStep{Events: deps.Events, Now: deps.Now},
		)
	}
	return NewPipeline(steps...)
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// IngestBatch runs the ingestion pipeline for one batch file and returns the
// final state.
func IngestBatch(ctx context.Context, deps Deps, opts Options, source string) (*PipelineState, error) {
	state := &PipelineState{RunID: uuid.NewString(), Source: source}
	return state, ingest(ctx, deps, opts, state)
}

// IngestBytes is IngestBatch for a batch already in memory.
func IngestBytes(ctx context.Context, deps Deps, opts Options, source string, data []byte) (*PipelineState, error) {
	state := &PipelineState{RunID: uuid.NewString(), Source: source, Data: data}
	return state, ingest(ctx, deps, opts, state)
}

func ingest(ctx context.Context, deps Deps, opts Options, state *PipelineState) error {
	log := logger.FromContext(ctx).With().Str("run_id", state.RunID).Str("source", state.Source).Logger()
	ctx = logger.WithContext(ctx, log)

	if err := NewBatchIngestionPipeline(deps, opts).Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Batch ingestion failed")
		return fmt.Errorf("IngestBatch %s: %w", state.Source, err)
	}

	exact, fuzzy, added := state.Merge.Counts()
	log.Info().
		Str("account_id", state.AccountID).
		Str("ordering", state.Ordering.String()).
		Int("records", len(state.Final)).
		Int("exact", exact).
		Int("fuzzy", fuzzy).
		Int("new", added).
		Int("inserted", state.Inserted).
		Bool("dry_run", opts.DryRun).
		Msg("Batch ingested")
	return nil
}
