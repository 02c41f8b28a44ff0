package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dvloznov/statement-ledger/internal/config"
	"github.com/dvloznov/statement-ledger/internal/events"
	"github.com/dvloznov/statement-ledger/internal/events/kafka"
	"github.com/dvloznov/statement-ledger/internal/infra"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/repository"
	"github.com/rs/zerolog"
)

// env is what every subcommand needs: configuration, a logger in the
// context and, on demand, the store and the event publisher.
type env struct {
	cfg *config.Config
	log zerolog.Logger
	ctx context.Context
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: os.Stderr})
	return &env{cfg: cfg, log: log, ctx: logger.WithContext(ctx, log)}, nil
}

func (e *env) store() (repository.Store, error) {
	return infra.Open(e.ctx, e.cfg)
}

func (e *env) publisher() events.Publisher {
	if len(e.cfg.KafkaBrokers) == 0 {
		return events.Noop{}
	}
	return kafka.NewPublisher(e.cfg.KafkaBrokers)
}

// resolveInput expands a bare object name against BATCH_BUCKET.
func (e *env) resolveInput(input string) string {
	if e.cfg.BatchBucket == "" || strings.HasPrefix(input, "gs://") || strings.ContainsAny(input, `/\`) {
		return input
	}
	if _, err := os.Stat(input); err == nil {
		return input
	}
	return fmt.Sprintf("gs://%s/%s", e.cfg.BatchBucket, input)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
