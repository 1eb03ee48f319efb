package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
)

// WithTx runs fn against the same Store — there is only one in-process
// copy of the data, so memstore cannot demonstrate rollback-on-failure the
// way sqlstore's transaction does; integration tests against sqlstore
// cover that guarantee. Phase code itself never assumes WithTx buys it
// anything beyond "my mutations are visible to fn".
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, s)
}
