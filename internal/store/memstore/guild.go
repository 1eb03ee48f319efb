package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetGuild(ctx context.Context, guildID int) (*types.Guild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *Store) AdvanceTurn(ctx context.Context, guildID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return store.ErrNotFound
	}
	g.CurrentTurn++
	return nil
}

// SeedGuild inserts or replaces a guild row. Test helper, not part of the
// store.Store contract.
func (s *Store) SeedGuild(g types.Guild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := g
	s.guilds[g.ID] = &cp
}
