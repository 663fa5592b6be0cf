// Package pgtarget is an example ConnectionPool backend targeting a
// Postgres database through pgxpool. Scenarios written against a
// Postgres system under test attach one of these via Step.WithPool
// instead of writing their own Open/Close funcs.
package pgtarget

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ryanbrace/loadforge/internal/engine"
)

// Args builds a *engine.ConnectionPoolArgs whose Count connections are
// each a single-connection pgxpool.Pool acquired from dsn. Each slot gets
// its own tiny pool (MaxConns=1) rather than sharing one large pool, so a
// virtual user's connection identity stays stable across its whole
// session the way spec.md's "one connection per pool slot" model expects.
func Args(name, dsn string, count int) *engine.ConnectionPoolArgs {
	return &engine.ConnectionPoolArgs{
		Name:  name,
		Count: count,
		Open: func(ctx context.Context, index int) (any, error) {
			cfg, err := pgxpool.ParseConfig(dsn)
			if err != nil {
				return nil, fmt.Errorf("pgtarget: parse dsn for slot %d: %w", index, err)
			}
			cfg.MaxConns = 1
			cfg.MinConns = 1

			pool, err := pgxpool.NewWithConfig(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("pgtarget: open slot %d: %w", index, err)
			}
			if err := pool.Ping(ctx); err != nil {
				pool.Close()
				return nil, fmt.Errorf("pgtarget: ping slot %d: %w", index, err)
			}
			return pool, nil
		},
		Close: func(ctx context.Context, conn any) error {
			pool, ok := conn.(*pgxpool.Pool)
			if !ok {
				return nil
			}
			pool.Close()
			return nil
		},
	}
}

// Conn recovers the *pgxpool.Pool connection handle from a StepContext,
// returning ok=false if the step has no pgtarget pool attached.
func Conn(c *engine.StepContext) (*pgxpool.Pool, bool) {
	pool, ok := c.Connection.(*pgxpool.Pool)
	return pool, ok
}
