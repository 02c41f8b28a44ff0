package jobs

import (
	"context"
	"time"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusChecking indicates a worker is reading and checking the ledger.
	JobStatusChecking JobStatus = "checking"
	// JobStatusRetrying indicates the check errored and will run again.
	JobStatusRetrying JobStatus = "retrying"
	// JobStatusPassed indicates the ledger reconciled with the declared balance.
	JobStatusPassed JobStatus = "passed"
	// JobStatusFailed indicates the ledger did not reconcile.
	JobStatusFailed JobStatus = "failed"
	// JobStatusInconclusive indicates the check could not reach a verdict.
	JobStatusInconclusive JobStatus = "inconclusive"
)

// Terminal reports whether no further transition follows s.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusPassed, JobStatusFailed, JobStatusInconclusive:
		return true
	}
	return false
}

// AccountCheckJob is one account's pass through the balance auditor.
type AccountCheckJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// RunID groups the jobs of one audit run.
	RunID string `json:"run_id,omitempty"`

	AccountID       string `json:"account_id"`
	FinEntAccountID string `json:"fin_ent_account_id,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// Message explains a FAILED or INCONCLUSIVE outcome.
	Message string `json:"message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the check itself broke.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// JobHandler checks one account and returns its terminal status and a
// message. A non-nil error means no verdict was reached; the job is retried
// while retries remain and is INCONCLUSIVE afterwards.
type JobHandler func(ctx context.Context, job *AccountCheckJob) (JobStatus, string, error)

// JobStore records job state.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *AccountCheckJob) error

	// ListJobs retrieves jobs with optional filtering, oldest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*AccountCheckJob, error)
}

// JobFilter narrows ListJobs. An empty RunID matches every run.
type JobFilter struct {
	RunID string
}
