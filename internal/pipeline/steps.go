package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/events"
	"github.com/dvloznov/statement-ledger/internal/gcsuploader"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/ordering"
	"github.com/dvloznov/statement-ledger/internal/reconcile"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID  string
	Source string // local path or gs:// URI
	Data   []byte

	AccountID  string
	DateLayout string

	Parsed      []domain.ParsedRecord
	Ordering    ordering.Ordering
	DroppedDate string

	Final      []domain.FinalRecord
	Candidates []domain.StoredRecord
	Merge      reconcile.Result
	Inserted   int
}

// Step 1: FetchBatchStep reads the batch file from GCS or the local disk.
type FetchBatchStep struct {
	Storage gcsuploader.StorageService
}

func (s *FetchBatchStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Data != nil {
		return nil
	}
	if gcsuploader.IsGCSURI(state.Source) {
		if s.Storage == nil {
			return fmt.Errorf("FetchBatchStep: no storage service for %s", state.Source)
		}
		data, err := s.Storage.FetchFromGCS(ctx, state.Source)
		if err != nil {
			return fmt.Errorf("FetchBatchStep: %w", err)
		}
		state.Data = data
		return nil
	}
	data, err := os.ReadFile(state.Source)
	if err != nil {
		return fmt.Errorf("FetchBatchStep: %w", err)
	}
	state.Data = data
	return nil
}

// Step 2: DecodeBatchStep decodes the crawler JSON. Explicit options win
// over values found in the file.
type DecodeBatchStep struct {
	AccountID         string
	DateLayout        string
	DefaultDateLayout string
}

func (s *DecodeBatchStep) Execute(ctx context.Context, state *PipelineState) error {
	batch, err := DecodeBatch(state.Data)
	if err != nil {
		return err
	}
	state.Parsed = batch.Records
	state.AccountID = firstNonEmpty(s.AccountID, batch.AccountID)
	state.DateLayout = firstNonEmpty(s.DateLayout, batch.DateLayout, s.DefaultDateLayout)
	if state.AccountID == "" {
		return fmt.Errorf("DecodeBatchStep: batch has no account id")
	}
	if state.DateLayout == "" {
		return fmt.Errorf("DecodeBatchStep: no date layout")
	}
	return nil
}

// Step 3: ValidateBatchStep rejects batches with fatal record issues.
type ValidateBatchStep struct{}

func (s *ValidateBatchStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	for _, issue := range ValidateRecords(state.Parsed) {
		if issue.Fatal {
			return fmt.Errorf("ValidateBatchStep: %w", issue)
		}
		log.Warn().Int("record", issue.Index).Str("reason", issue.Reason).Msg("Suspicious record in batch")
	}
	return nil
}

// Step 4: OrderBatchStep infers the chronology and turns the batch ascending.
// When the balances can not decide, AssumeDescending picks the fallback.
type OrderBatchStep struct {
	AssumeDescending bool
}

func (s *OrderBatchStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Ordering = ordering.DetectDescending(state.Parsed)

	descending := state.Ordering == ordering.Descending
	if state.Ordering == ordering.Unknown {
		descending = s.AssumeDescending
		log := logger.FromContext(ctx)
		log.Warn().
			Bool("assume_descending", s.AssumeDescending).
			Int("records", len(state.Parsed)).
			Msg("Balances do not determine batch ordering")
	}
	if descending {
		state.Parsed = ordering.Reverse(state.Parsed)
	}
	return nil
}

// Step 5: ReorderDatesStep reverses same-date runs known to be mis-ordered.
// Dates are given in the batch's own format.
type ReorderDatesStep struct {
	Dates []string
}

func (s *ReorderDatesStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(s.Dates) == 0 {
		return nil
	}
	set := make(map[string]bool, len(s.Dates))
	for _, d := range s.Dates {
		set[d] = true
	}
	state.Parsed = ordering.ReorderDates(state.Parsed, set)
	return nil
}

// Step 6: DropOldestDateStep removes the possibly partial oldest day.
type DropOldestDateStep struct {
	KeepOldest bool
}

func (s *DropOldestDateStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.KeepOldest {
		return nil
	}
	out, dropped, ok := ordering.DropOldestDate(state.Parsed)
	if ok {
		log := logger.FromContext(ctx)
		log.Debug().
			Str("date", dropped).
			Int("dropped", len(state.Parsed)-len(out)).
			Msg("Dropped oldest date of batch")
		state.DroppedDate = dropped
	}
	state.Parsed = out
	return nil
}

// Step 7: FinalizeStep canonicalizes dates and assigns keys and provenance.
type FinalizeStep struct {
	Now   func() time.Time
	NewID func() string
}

func (s *FinalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	now := s.Now()
	final, err := Finalize(state.Parsed, state.AccountID, state.DateLayout, civil.DateOf(now), now.UTC(), s.NewID)
	if err != nil {
		return err
	}
	state.Final = final
	return nil
}

// Step 8: LoadCandidatesStep reads stored records in the batch's date window.
type LoadCandidatesStep struct {
	Ledgers interface {
		ListStoredRecords(ctx context.Context, accountID string, from, to civil.Date) ([]domain.StoredRecord, error)
	}
}

func (s *LoadCandidatesStep) Execute(ctx context.Context, state *PipelineState) error {
	from, to, ok := DateWindow(state.Final)
	if !ok {
		return nil
	}
	candidates, err := s.Ledgers.ListStoredRecords(ctx, state.AccountID, from, to)
	if err != nil {
		return fmt.Errorf("LoadCandidatesStep: %w", err)
	}
	state.Candidates = candidates
	return nil
}

// Step 9: MergeStep carries provenance over from matching stored records.
type MergeStep struct{}

func (s *MergeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Merge = reconcile.Merge(ctx, state.Final, state.Candidates)
	state.Final = state.Merge.Records
	return nil
}

// Step 10: PersistStep inserts the records that matched nothing stored.
// Matched records are already in the ledger, possibly under an older
// description and therefore an older key.
type PersistStep struct {
	Ledgers interface {
		InsertTransactions(ctx context.Context, recs []domain.FinalRecord) (int, error)
	}
}

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	fresh := state.Final
	if len(state.Merge.Outcomes) == len(state.Final) {
		fresh = make([]domain.FinalRecord, 0, len(state.Final))
		for _, o := range state.Merge.Outcomes {
			if o.Kind == reconcile.NoMatch {
				fresh = append(fresh, state.Final[o.Index])
			}
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	n, err := s.Ledgers.InsertTransactions(ctx, fresh)
	if err != nil {
		return fmt.Errorf("PersistStep: %w", err)
	}
	state.Inserted = n
	return nil
}

// Step 11: PublishStep announces the ingested batch. Publishing failures are
// logged; the batch is already stored.
type PublishStep struct {
	Events events.Publisher
	Now    func() time.Time
}

func (s *PublishStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Events == nil {
		return nil
	}
	exact, fuzzy, added := state.Merge.Counts()
	ev := events.BatchIngested{
		RunID:       state.RunID,
		AccountID:   state.AccountID,
		Source:      state.Source,
		Records:     len(state.Final),
		Inserted:    state.Inserted,
		Exact:       exact,
		Fuzzy:       fuzzy,
		New:         added,
		Ordering:    state.Ordering.String(),
		DroppedDate: state.DroppedDate,
		OccurredAt:  s.Now().UTC(),
	}
	if err := s.Events.Publish(ctx, events.TopicBatchIngested, ev); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to publish batch event")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
