// Package events defines the notifications the ledger emits for downstream
// consumers and a publisher abstraction over the message broker.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Topics.
const (
	TopicBatchIngested = "ledger.batch_ingested"
	TopicAuditVerdict  = "ledger.audit_verdict"
)

// Publisher delivers an event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// BatchIngested is emitted after a crawler batch has been persisted.
type BatchIngested struct {
	RunID       string    `json:"run_id"`
	AccountID   string    `json:"account_id"`
	Source      string    `json:"source"`
	Records     int       `json:"records"`
	Inserted    int       `json:"inserted"`
	Exact       int       `json:"exact_matches"`
	Fuzzy       int       `json:"fuzzy_matches"`
	New         int       `json:"new_records"`
	Ordering    string    `json:"ordering"`
	DroppedDate string    `json:"dropped_date,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// AuditVerdict is emitted for every account the auditor checks.
type AuditVerdict struct {
	RunID           string          `json:"run_id"`
	AccountID       string          `json:"account_id"`
	FinEntAccountID string          `json:"fin_ent_account_id,omitempty"`
	Status          string          `json:"status"`
	Message         string          `json:"message,omitempty"`
	DeclaredBalance decimal.Decimal `json:"declared_balance"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// Noop discards every event. It stands in when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error {
	return nil
}

func (Noop) Close() error {
	return nil
}

// Recorder keeps published events in memory, for tests and dry runs.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

// Recorded is one event captured by a Recorder.
type Recorded struct {
	Topic string
	Event any
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Topic: topic, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}

var (
	_ Publisher = Noop{}
	_ Publisher = (*Recorder)(nil)
)
