package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/repository"
)

// Store is an in-memory implementation of repository.Store.
// It is safe for concurrent use and loses everything on exit, which makes it
// the backend for tests and dry runs.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	ledgers  map[string][]domain.StoredRecord
	keys     map[string]map[string]bool // account -> KeyValue set
	nextID   int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		ledgers:  make(map[string][]domain.StoredRecord),
		keys:     make(map[string]map[string]bool),
	}
}

// PutAccount adds or replaces an account.
func (s *Store) PutAccount(acc domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := acc
	s.accounts[acc.ID] = &a
}

// ListAllAccounts implements repository.AccountRepository, ordered by id.
func (s *Store) ListAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetAccount implements repository.AccountRepository.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("GetAccount %s: %w", accountID, repository.ErrAccountNotFound)
	}
	cp := *a
	return &cp, nil
}

// ListLedger implements repository.LedgerRepository.
func (s *Store) ListLedger(ctx context.Context, accountID string) ([]domain.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StoredRecord, len(s.ledgers[accountID]))
	copy(out, s.ledgers[accountID])
	return out, nil
}

// ListStoredRecords implements repository.LedgerRepository.
func (s *Store) ListStoredRecords(ctx context.Context, accountID string, from, to civil.Date) ([]domain.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.StoredRecord
	for _, r := range s.ledgers[accountID] {
		if r.OperationalDate.Before(from) || r.OperationalDate.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// InsertTransactions implements repository.LedgerRepository. Records whose
// KeyValue is already stored for the account are skipped.
func (s *Store) InsertTransactions(ctx context.Context, recs []domain.FinalRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, r := range recs {
		if r.AccountID == "" || r.KeyValue == "" {
			return inserted, fmt.Errorf("InsertTransactions: record without account or key value")
		}
		keys := s.keys[r.AccountID]
		if keys == nil {
			keys = make(map[string]bool)
			s.keys[r.AccountID] = keys
		}
		if keys[r.KeyValue] {
			continue
		}
		s.nextID++
		keys[r.KeyValue] = true
		s.ledgers[r.AccountID] = append(s.ledgers[r.AccountID], domain.StoredRecord{ID: s.nextID, FinalRecord: r})
		inserted++
	}
	return inserted, nil
}

// EnsureSchema implements repository.SchemaManager; nothing to create.
func (s *Store) EnsureSchema(ctx context.Context) error { return nil }

// Close implements repository.Store.
func (s *Store) Close() error { return nil }

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)
