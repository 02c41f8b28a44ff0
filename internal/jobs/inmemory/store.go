package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/statement-ledger/internal/jobs"
)

// Store keeps the latest snapshot of every job in memory and is safe for
// concurrent use. The queue saves a snapshot on each transition.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]jobs.AccountCheckJob
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]jobs.AccountCheckJob)}
}

// SaveJob stores a copy of job, replacing any earlier snapshot.
func (s *Store) SaveJob(ctx context.Context, job *jobs.AccountCheckJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = *job
	return nil
}

// ListJobs returns copies of the matching jobs ordered by creation time,
// ties broken by ID.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.AccountCheckJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*jobs.AccountCheckJob
	for _, job := range s.jobs {
		if filter.RunID != "" && job.RunID != filter.RunID {
			continue
		}
		cp := job
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].JobID < out[j].JobID
	})
	return out, nil
}

var _ jobs.JobStore = (*Store)(nil)
