package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetUnitType(ctx context.Context, guildID int, typeID, nation string) (*types.UnitType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ut, ok := s.unitTypes[unitTypeKey(guildID, typeID, nation)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *ut
	return &cp, nil
}

func (s *Store) GetUnit(ctx context.Context, id int) (*types.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CreateUnit(ctx context.Context, u *types.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	}
	cp := *u
	s.units[u.ID] = &cp
	return nil
}

func (s *Store) UpdateUnit(ctx context.Context, u *types.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.units[u.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *u
	s.units[u.ID] = &cp
	return nil
}

func (s *Store) ListUnits(ctx context.Context, guildID int, filter store.UnitFilter) ([]types.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Unit
	for _, u := range s.units {
		if u.GuildID != guildID {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if filter.TerritoryID != 0 && u.CurrentTerritoryID != filter.TerritoryID {
			continue
		}
		if filter.OwnerCharacterID != 0 && u.Owner.Kind != types.OwnerCharacter {
			continue
		}
		if filter.OwnerCharacterID != 0 && u.Owner.CharacterID != filter.OwnerCharacterID {
			continue
		}
		if filter.OwnerFactionID != 0 && u.Owner.Kind != types.OwnerFaction {
			continue
		}
		if filter.OwnerFactionID != 0 && u.Owner.FactionID != filter.OwnerFactionID {
			continue
		}
		if filter.FactionID != 0 && u.FactionID != filter.FactionID {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (s *Store) GetNavalPositions(ctx context.Context, unitID int) ([]types.NavalUnitPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.NavalUnitPosition(nil), s.navalPos[unitID]...), nil
}

func (s *Store) SetNavalPositions(ctx context.Context, guildID, unitID int, territoryIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	positions := make([]types.NavalUnitPosition, len(territoryIDs))
	for i, tid := range territoryIDs {
		positions[i] = types.NavalUnitPosition{GuildID: guildID, UnitID: unitID, TerritoryID: tid, PositionIndex: i}
	}
	s.navalPos[unitID] = positions
	return nil
}

// SeedUnitType inserts or replaces a unit type row.
func (s *Store) SeedUnitType(ut types.UnitType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := ut
	s.unitTypes[unitTypeKey(ut.GuildID, ut.TypeID, ut.Nation)] = &cp
}

// SeedUnit inserts or replaces a unit row, assigning an id if unset.
func (s *Store) SeedUnit(u types.Unit) types.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	}
	cp := u
	s.units[u.ID] = &cp
	return u
}
