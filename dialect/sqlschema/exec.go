package sqlschema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ExecStats summarizes one Exec call.
type ExecStats struct {
	// Statements is the number of statements executed.
	Statements int
	// Slow is the number of statements exceeding the slow threshold.
	Slow int
	// Duration is the total time spent executing statements.
	Duration time.Duration
}

// String returns a human-readable summary of the statistics.
func (s ExecStats) String() string {
	return fmt.Sprintf("statements=%d duration=%s slow=%d", s.Statements, s.Duration, s.Slow)
}

// Executor runs planned DDL against a database.
type Executor struct {
	db            *sql.DB
	slowThreshold time.Duration
	log           *slog.Logger
}

// ExecOption configures an Executor.
type ExecOption func(*Executor)

// WithSlowThreshold sets the duration above which a statement is logged as
// slow. Default is 100ms.
func WithSlowThreshold(d time.Duration) ExecOption {
	return func(e *Executor) {
		e.slowThreshold = d
	}
}

// WithExecLogger sets the logger. The default is slog.Default().
func WithExecLogger(l *slog.Logger) ExecOption {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// NewExecutor returns an Executor running statements on db.
func NewExecutor(db *sql.DB, opts ...ExecOption) *Executor {
	e := &Executor{
		db:            db,
		slowThreshold: 100 * time.Millisecond,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exec runs stmts in order in one transaction. The first failing statement
// rolls the transaction back.
func (e *Executor) Exec(ctx context.Context, stmts []string) (ExecStats, error) {
	var stats ExecStats
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("sqlschema: begin transaction: %w", err)
	}
	for i, stmt := range stmts {
		start := time.Now()
		_, err := tx.ExecContext(ctx, stmt)
		d := time.Since(start)
		stats.Duration += d
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = errors.Join(err, rerr)
			}
			return stats, fmt.Errorf("sqlschema: statement %d: %w", i+1, err)
		}
		stats.Statements++
		if d > e.slowThreshold {
			stats.Slow++
			e.log.Warn("slow statement", "duration", d, "statement", stmt)
		} else {
			e.log.Debug("exec statement", "duration", d, "statement", stmt)
		}
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("sqlschema: commit: %w", err)
	}
	e.log.Info("executed sql schema", "stats", stats.String())
	return stats, nil
}
