package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetTerritory(ctx context.Context, id int) (*types.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.territories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) UpdateTerritory(ctx context.Context, t *types.Territory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.territories[t.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *t
	s.territories[t.ID] = &cp
	return nil
}

func (s *Store) ListTerritories(ctx context.Context, guildID int) ([]types.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Territory
	for _, t := range s.territories {
		if t.GuildID == guildID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *Store) ListAdjacency(ctx context.Context, guildID int) ([]types.TerritoryAdjacency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.TerritoryAdjacency(nil), s.adjacency[guildID]...), nil
}

// SeedTerritory inserts or replaces a territory row.
func (s *Store) SeedTerritory(t types.Territory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := t
	s.territories[t.ID] = &cp
}

// SeedAdjacency records a canonical adjacency pair for a guild.
func (s *Store) SeedAdjacency(guildID, a, b int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := types.CanonicalPair(a, b)
	s.adjacency[guildID] = append(s.adjacency[guildID], types.TerritoryAdjacency{GuildID: guildID, A: lo, B: hi})
}
