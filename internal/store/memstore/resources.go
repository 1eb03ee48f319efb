package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetPlayerResources(ctx context.Context, guildID, characterID int) (*types.PlayerResources, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.playerRes[characterID]
	if !ok || r.GuildID != guildID {
		return nil, store.ErrNotFound
	}
	cp := *r
	cp.Balances = r.Balances.Clone()
	return &cp, nil
}

func (s *Store) SetPlayerResources(ctx context.Context, r *types.PlayerResources) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.Balances = r.Balances.Clone()
	s.playerRes[r.CharacterID] = &cp
	return nil
}

func (s *Store) GetFactionResources(ctx context.Context, guildID, factionID int) (*types.FactionResources, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.factionRes[factionID]
	if !ok || r.GuildID != guildID {
		return nil, store.ErrNotFound
	}
	cp := *r
	cp.Balances = r.Balances.Clone()
	return &cp, nil
}

func (s *Store) SetFactionResources(ctx context.Context, r *types.FactionResources) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.Balances = r.Balances.Clone()
	s.factionRes[r.FactionID] = &cp
	return nil
}
