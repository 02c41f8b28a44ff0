package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/events"
	"github.com/dvloznov/statement-ledger/internal/gcsuploader"
	"github.com/dvloznov/statement-ledger/internal/jobs"
	"github.com/dvloznov/statement-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/repository"
	"github.com/google/uuid"
)

// DefaultWorkers bounds concurrent ledger reads against the shared store.
const DefaultWorkers = 12

// Auditor checks every account's ledger on a bounded worker pool.
type Auditor struct {
	Accounts repository.AccountRepository
	Ledgers  repository.LedgerRepository

	Workers   int
	ReportDir string

	// Retries is how many times an erroring check is repeated before it
	// becomes INCONCLUSIVE, waiting RetryBackoff times the attempt number.
	Retries      int
	RetryBackoff time.Duration

	// Storage and ReportBucket enable uploading the finished reports.
	Storage      gcsuploader.StorageService
	ReportBucket string

	// Events receives one AuditVerdict per account when set.
	Events events.Publisher

	// JobStore records job transitions; a fresh in-memory store is used
	// when nil. After the workers stop it tells which checks never finished.
	JobStore jobs.JobStore

	// Out receives progress lines. Defaults to stdout.
	Out io.Writer

	Now func() time.Time
}

// Summary describes a finished run.
type Summary struct {
	RunID        string
	Total        int
	Passed       int
	Failed       int
	Inconclusive int
	Retried      int
	Unfinished   []string // accounts whose check never reached a verdict
	Elapsed      time.Duration
	Files        []string
	Verdicts     []Verdict
}

// Run recreates both report files, audits all accounts and prints one
// progress line per account followed by the elapsed time. Only failing to
// prepare the reports or to list accounts returns an error; per-account
// failures become INCONCLUSIVE verdicts.
func (a *Auditor) Run(ctx context.Context) (Summary, error) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	out := a.Out
	if out == nil {
		out = os.Stdout
	}
	workers := a.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	store := a.JobStore
	if store == nil {
		store = inmemory.NewStore()
	}

	started := now()
	runID := uuid.New().String()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	reports, err := NewReportSet(a.ReportDir, started)
	if err != nil {
		return Summary{}, fmt.Errorf("Auditor.Run: %w", err)
	}

	accounts, err := a.Accounts.ListAllAccounts(ctx)
	if err != nil {
		reports.Close()
		return Summary{}, fmt.Errorf("Auditor.Run: listing accounts: %w", err)
	}
	log.Info().Int("accounts", len(accounts)).Int("workers", workers).Msg("Starting balance audit")

	byID := make(map[string]domain.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = *acc
	}

	queue := inmemory.NewQueue(inmemory.Options{
		Workers:      workers,
		BufferSize:   len(accounts),
		MaxRetries:   a.Retries,
		RetryBackoff: a.RetryBackoff,
		Store:        store,
	})
	if err := queue.Start(ctx, a.checkHandler(byID)); err != nil {
		reports.Close()
		return Summary{}, fmt.Errorf("Auditor.Run: starting workers: %w", err)
	}

	sum := Summary{RunID: runID, Total: len(accounts), Files: reports.Files()}
	collected := make(chan error, 1)
	go func() {
		collected <- a.collect(ctx, queue.Completed(), byID, reports, out, &sum)
	}()

	for _, acc := range accounts {
		job := &jobs.AccountCheckJob{RunID: runID, AccountID: acc.ID, FinEntAccountID: acc.FinancialEntityAccountID}
		if err := queue.PublishCheck(ctx, job); err != nil {
			log.Error().Err(err).Str("account_id", acc.ID).Msg("Failed to enqueue account check")
		}
	}
	if err := queue.Drain(ctx); err != nil {
		log.Error().Err(err).Msg("Audit workers did not finish")
	}

	writeErr := <-collected
	if err := reports.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	a.sweep(ctx, store, &sum)

	sum.Elapsed = now().Sub(started)
	fmt.Fprintf(out, "Elapsed: %s\n", sum.Elapsed.Round(time.Millisecond))

	a.upload(ctx, reports.Files())

	log.Info().
		Int("total", sum.Total).
		Int("passed", sum.Passed).
		Int("failed", sum.Failed).
		Int("inconclusive", sum.Inconclusive).
		Int("retried", sum.Retried).
		Int("unfinished", len(sum.Unfinished)).
		Dur("elapsed", sum.Elapsed).
		Msg("Balance audit finished")

	if writeErr != nil {
		return sum, fmt.Errorf("Auditor.Run: writing reports: %w", writeErr)
	}
	return sum, nil
}

// checkHandler reads one account's ledger and checks it.
func (a *Auditor) checkHandler(byID map[string]domain.Account) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.AccountCheckJob) (jobs.JobStatus, string, error) {
		acc, ok := byID[job.AccountID]
		if !ok {
			return "", "", fmt.Errorf("account %s was not listed", job.AccountID)
		}
		ledger, err := a.Ledgers.ListLedger(ctx, acc.ID)
		if err != nil {
			return "", "", fmt.Errorf("reading ledger: %w", err)
		}
		v := CheckLedger(acc, ledger)
		return v.Status.jobStatus(), v.Msg, nil
	}
}

// collect is the only writer of the reports and of sum.
func (a *Auditor) collect(ctx context.Context, done <-chan *jobs.AccountCheckJob, byID map[string]domain.Account, reports *ReportSet, out io.Writer, sum *Summary) error {
	var firstErr error
	i := 0
	for job := range done {
		i++
		acc := byID[job.AccountID]
		v := Verdict{Account: acc, Status: statusFromJob(job.Status), Msg: job.Message}
		sum.Verdicts = append(sum.Verdicts, v)

		log := logger.ForAccount(logger.FromContext(ctx), acc.ID, acc.FinancialEntityAccountID)
		switch v.Status {
		case StatusPassed:
			sum.Passed++
		case StatusFailed:
			sum.Failed++
			log.Warn().Str("msg_detail", v.Msg).Msg("Ledger does not reconcile")
		default:
			sum.Inconclusive++
			log.Error().Str("error", job.Error).Str("msg_detail", v.Msg).Msg("Account check inconclusive")
		}

		if _, err := reports.Write(v); err != nil && firstErr == nil {
			firstErr = err
		}
		fmt.Fprintf(out, "#%d/%d: %s (%s): %s\n", i, sum.Total, acc.ID, acc.FinancialEntityAccountID, v.Status)

		if a.Events != nil {
			ev := events.AuditVerdict{
				RunID:           sum.RunID,
				AccountID:       acc.ID,
				FinEntAccountID: acc.FinancialEntityAccountID,
				Status:          string(v.Status),
				Message:         v.Msg,
				DeclaredBalance: acc.Balance,
				OccurredAt:      time.Now().UTC(),
			}
			if err := a.Events.Publish(ctx, events.TopicAuditVerdict, ev); err != nil {
				log.Warn().Err(err).Msg("Failed to publish audit verdict")
			}
		}
	}
	return firstErr
}

// sweep reads back this run's jobs once the workers are gone. Accounts left
// without a terminal status were never checked, typically because ctx ended
// first.
func (a *Auditor) sweep(ctx context.Context, store jobs.JobStore, sum *Summary) {
	log := logger.FromContext(ctx)
	recorded, err := store.ListJobs(ctx, jobs.JobFilter{RunID: sum.RunID})
	if err != nil {
		log.Error().Err(err).Msg("Failed to read back audit jobs")
		return
	}
	for _, job := range recorded {
		if job.RetryCount > 0 {
			sum.Retried++
		}
		if job.Status.Terminal() {
			continue
		}
		sum.Unfinished = append(sum.Unfinished, job.AccountID)
		accLog := logger.ForAccount(log, job.AccountID, job.FinEntAccountID)
		accLog.Error().Str("status", string(job.Status)).Msg("Account check did not finish")
	}
}

func (a *Auditor) upload(ctx context.Context, files []string) {
	if a.Storage == nil || a.ReportBucket == "" {
		return
	}
	log := logger.FromContext(ctx)
	for _, f := range files {
		object := gcsuploader.ReportObjectName(f)
		if err := a.Storage.UploadFile(ctx, a.ReportBucket, object, f); err != nil {
			log.Error().Err(err).Str("file", f).Msg("Failed to upload report")
			continue
		}
		log.Info().Str("gcs_uri", "gs://"+a.ReportBucket+"/"+object).Msg("Uploaded report")
	}
}
