package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// OpenFunc opens the connection at the given slot index. It is invoked once
// per slot, in parallel with the other slots, during session init.
type OpenFunc func(ctx context.Context, index int) (any, error)

// CloseFunc releases a connection previously returned by OpenFunc. Errors
// are logged but never fail the session.
type CloseFunc func(ctx context.Context, conn any) error

// ConnectionPoolArgs is the declarative configuration a step attaches to a
// pool reference. The effective runtime pool name is "{scenario}.{name}"
// so independent scenarios never collide (see EffectiveName).
type ConnectionPoolArgs struct {
	Name  string
	Count int
	Open  OpenFunc
	Close CloseFunc
}

// EffectiveName returns the session-wide unique pool name for a pool
// declared under the given scenario.
func EffectiveName(scenario, name string) string {
	return fmt.Sprintf("%s.%s", scenario, name)
}

// ConnectionPool is the opened, runtime form of ConnectionPoolArgs: a
// named, bounded set of externally-opened connections shared by every step
// that resolves to the same effective name.
type ConnectionPool struct {
	name  string
	args  ConnectionPoolArgs
	mu    sync.Mutex
	conns []any
	ready bool
}

// NewConnectionPool creates an unopened pool. Call Init before Get.
func NewConnectionPool(effectiveName string, args ConnectionPoolArgs) *ConnectionPool {
	return &ConnectionPool{name: effectiveName, args: args}
}

// Name returns the pool's effective ("scenario.pool") name.
func (p *ConnectionPool) Name() string { return p.name }

// Init opens Count connections in parallel. If any Open call fails, every
// successfully-opened connection is closed and a PoolOpenFailed AppError is
// returned; the pool is left unready.
func (p *ConnectionPool) Init(ctx context.Context, log Logger) error {
	conns := make([]any, p.args.Count)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.args.Count; i++ {
		i := i
		g.Go(func() error {
			conn, err := p.args.Open(gctx, i)
			if err != nil {
				return NewPoolOpenFailedError(p.name, i, err)
			}
			conns[i] = conn
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn("pool open failed, rolling back opened connections", "pool", p.name, "error", err)
		p.closeAll(context.Background(), conns, log)
		return err
	}

	p.mu.Lock()
	p.conns = conns
	p.ready = true
	p.mu.Unlock()

	log.Info("pool opened", "pool", p.name, "count", p.args.Count)
	return nil
}

// Get returns the connection for copyNumber, selecting a slot by modulo.
// Never allocates and never fails once Init has succeeded.
func (p *ConnectionPool) Get(copyNumber int) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready || len(p.conns) == 0 {
		return nil
	}
	idx := copyNumber % len(p.conns)
	if idx < 0 {
		idx += len(p.conns)
	}
	return p.conns[idx]
}

// Dispose closes every connection, logging (not failing on) individual
// close errors.
func (p *ConnectionPool) Dispose(ctx context.Context, log Logger) {
	p.mu.Lock()
	conns := p.conns
	p.conns = nil
	p.ready = false
	p.mu.Unlock()

	p.closeAll(ctx, conns, log)
}

func (p *ConnectionPool) closeAll(ctx context.Context, conns []any, log Logger) {
	if p.args.Close == nil {
		return
	}
	for i, c := range conns {
		if c == nil {
			continue
		}
		if err := p.args.Close(ctx, c); err != nil {
			log.Warn("failed to close pool connection", "pool", p.name, "index", i, "error", err)
		}
	}
}
