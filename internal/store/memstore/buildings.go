package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetBuildingType(ctx context.Context, guildID int, typeID string) (*types.BuildingType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bt, ok := s.buildingTypes[buildingTypeKey(guildID, typeID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *bt
	return &cp, nil
}

func (s *Store) GetBuilding(ctx context.Context, id int) (*types.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buildings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) CreateBuilding(ctx context.Context, b *types.Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.nextID++
		b.ID = s.nextID
	}
	cp := *b
	s.buildings[b.ID] = &cp
	return nil
}

func (s *Store) UpdateBuilding(ctx context.Context, b *types.Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buildings[b.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *b
	s.buildings[b.ID] = &cp
	return nil
}

func (s *Store) ListBuildings(ctx context.Context, guildID int, status types.BuildingStatus) ([]types.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Building
	for _, b := range s.buildings {
		if b.GuildID != guildID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

// SeedBuildingType inserts or replaces a building type row.
func (s *Store) SeedBuildingType(bt types.BuildingType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := bt
	s.buildingTypes[buildingTypeKey(bt.GuildID, bt.TypeID)] = &cp
}

// SeedBuilding inserts or replaces a building row, assigning an id if unset.
func (s *Store) SeedBuilding(b types.Building) types.Building {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.nextID++
		b.ID = s.nextID
	}
	cp := b
	s.buildings[b.ID] = &cp
	return b
}
