package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/statement-ledger/internal/config"
	"github.com/dvloznov/statement-ledger/internal/events"
)

type closingPublisher struct {
	*events.Recorder
	closed bool
}

func (p *closingPublisher) Close() error {
	p.closed = true
	return nil
}

func withPublisher(t *testing.T) *closingPublisher {
	t.Helper()
	pub := &closingPublisher{Recorder: events.NewRecorder()}
	orig := newPublisher
	newPublisher = func(*config.Config) events.Publisher { return pub }
	t.Cleanup(func() { newPublisher = orig })
	return pub
}

func TestRun_EmptyLedger(t *testing.T) {
	pub := withPublisher(t)
	cfg := &config.Config{Backend: config.BackendMemory, AuditWorkers: 2, ReportDir: t.TempDir()}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Checked 0 accounts") {
		t.Errorf("Expected summary line, got: %s", out.String())
	}
	if !pub.closed {
		t.Error("Expected publisher to be closed")
	}
}

func TestRun_ClosesPublisherOnFailure(t *testing.T) {
	pub := withPublisher(t)

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Backend: config.BackendMemory, ReportDir: filepath.Join(blocker, "reports")}

	if err := run(context.Background(), cfg, &bytes.Buffer{}); err == nil {
		t.Fatal("Expected an error when the report directory cannot be created")
	}
	if !pub.closed {
		t.Error("Expected publisher to be closed before returning the error")
	}
}

func TestRun_UnknownBackend(t *testing.T) {
	withPublisher(t)
	cfg := &config.Config{Backend: "cassandra", ReportDir: t.TempDir()}
	if err := run(context.Background(), cfg, &bytes.Buffer{}); err == nil {
		t.Fatal("Expected an error for an unknown backend")
	}
}
