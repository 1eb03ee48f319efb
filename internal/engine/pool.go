package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/store"
)

// Pool resolves turns for many guilds concurrently, one blocking worker per
// guild, per spec.md §5's async/await design note translated to blocking
// I/O: a guild's ResolveTurn call is the only suspension point, and no two
// ResolveTurn calls for the same guild ever run at once.
type Pool struct {
	store store.Store

	mu       sync.Mutex
	inFlight map[int]bool
}

// NewPool returns a Pool backed by s.
func NewPool(s store.Store) *Pool {
	return &Pool{store: s, inFlight: map[int]bool{}}
}

// Resolve runs ResolveTurn for guildID, rejecting the call if a resolution
// for that guild is already in flight rather than queuing behind it.
func (p *Pool) Resolve(ctx context.Context, guildID int) ([]eventlog.Event, error) {
	p.mu.Lock()
	if p.inFlight[guildID] {
		p.mu.Unlock()
		return nil, fmt.Errorf("guild %d: turn resolution already in progress", guildID)
	}
	p.inFlight[guildID] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inFlight, guildID)
		p.mu.Unlock()
	}()

	return ResolveTurn(ctx, p.store, guildID)
}

// ResolveAll resolves one turn for every guild in guildIDs concurrently,
// supervised by an errgroup.Group: the first fatal error cancels ctx for
// every still-running worker and is returned to the caller. Guilds whose
// ResolveTurn had already committed keep their result, since each one runs
// in its own Store.WithTx independent of its siblings.
func (p *Pool) ResolveAll(ctx context.Context, guildIDs []int) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, guildID := range guildIDs {
		g.Go(func() error {
			_, err := p.Resolve(ctx, guildID)
			return err
		})
	}
	return g.Wait()
}
