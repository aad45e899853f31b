// Package postgres persists histogram sampling runs in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/gamzia/internal/config"
)

// ApplicationName tags every run-store session in pg_stat_activity.
const ApplicationName = "gamzia"

// DefaultHealthTimeout bounds a single run-store health check.
const DefaultHealthTimeout = 5 * time.Second

// ErrSchemaMissing is returned when the sample_runs table has not been
// created. Running "migrate up" resolves it.
var ErrSchemaMissing = errors.New("run store schema missing: run migrate up")

// Pool is the connection pool behind the run store.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the run store described by cfg and verifies it answers.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error. Sessions carry
// ApplicationName.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing run store config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating run store pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging run store: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Health checks that the run store answers and that its schema is in place,
// both within timeout.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns nil, ErrSchemaMissing, or the connection error.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging run store: %w", err)
	}
	return p.CheckSchema(ctx)
}

// HealthCheck adapts Health to the periodic-task signature used by the
// server lifecycle. A non-positive timeout uses DefaultHealthTimeout.
func (p *Pool) HealthCheck(timeout time.Duration) func(context.Context) error {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	return func(ctx context.Context) error {
		return p.Health(ctx, timeout)
	}
}

// CheckSchema reports ErrSchemaMissing when sample_runs does not exist.
func (p *Pool) CheckSchema(ctx context.Context) error {
	var present bool
	err := p.pool.QueryRow(ctx, `SELECT to_regclass('public.sample_runs') IS NOT NULL`).Scan(&present)
	if err != nil {
		return fmt.Errorf("checking run store schema: %w", err)
	}
	if !present {
		return ErrSchemaMissing
	}
	return nil
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for SampleRepository.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
