package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/blackmichael/spotreport/internal/metrics"
)

// SchemaCreator is implemented by Repository.
type SchemaCreator interface {
	EnsureSchema(ctx context.Context) error
}

// Migrator creates the schema in the background, retrying with exponential
// backoff until it succeeds, the attempt budget runs out, or the context is
// cancelled.
type Migrator struct {
	schema       SchemaCreator
	logger       *slog.Logger
	initialDelay time.Duration
	maxDelay     time.Duration
	maxAttempts  int

	ready atomic.Bool
	done  chan struct{}
	err   error
}

// MigratorOptions control the retry schedule. MaxAttempts of zero retries
// until the context is cancelled.
type MigratorOptions struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// NewMigrator creates a Migrator. Call Run to start it.
func NewMigrator(schema SchemaCreator, opts MigratorOptions, logger *slog.Logger) *Migrator {
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay < opts.InitialDelay {
		opts.MaxDelay = opts.InitialDelay
	}
	return &Migrator{
		schema:       schema,
		logger:       logger,
		initialDelay: opts.InitialDelay,
		maxDelay:     opts.MaxDelay,
		maxAttempts:  opts.MaxAttempts,
		done:         make(chan struct{}),
	}
}

// Run blocks until the schema exists or retrying stops. It returns the last
// error when it gives up. Run must be called only once.
func (m *Migrator) Run(ctx context.Context) error {
	defer close(m.done)

	delay := m.initialDelay
	for attempt := 1; ; attempt++ {
		metrics.SchemaAttempts.Inc()

		err := m.schema.EnsureSchema(ctx)
		if err == nil {
			m.ready.Store(true)
			metrics.SchemaReady.Set(1)
			m.logger.Info("database schema ready", "attempts", attempt)
			return nil
		}

		if m.maxAttempts > 0 && attempt >= m.maxAttempts {
			m.err = err
			m.logger.Error("giving up on database schema", "attempts", attempt, "error", err)
			return err
		}

		m.logger.Warn("database not ready, retrying", "attempt", attempt, "retry_in", delay, "error", err)
		select {
		case <-ctx.Done():
			m.err = ctx.Err()
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > m.maxDelay {
			delay = m.maxDelay
		}
	}
}

// Ready reports whether the schema has been created.
func (m *Migrator) Ready() bool {
	return m.ready.Load()
}

// Done is closed when Run returns.
func (m *Migrator) Done() <-chan struct{} {
	return m.done
}

// Err waits for Run to return and reports why it gave up, or nil.
func (m *Migrator) Err() error {
	<-m.done
	return m.err
}
