package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetFaction(ctx context.Context, id int) (*types.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.factions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *Store) GetFactionByFactionID(ctx context.Context, guildID int, factionID string) (*types.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.factions {
		if f.GuildID == guildID && f.FactionID == factionID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateFaction(ctx context.Context, f *types.Faction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.factions[f.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *f
	s.factions[f.ID] = &cp
	return nil
}

func (s *Store) ListFactions(ctx context.Context, guildID int) ([]types.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Faction
	for _, f := range s.factions {
		if f.GuildID == guildID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *Store) GetAlliance(ctx context.Context, guildID, a, b int) (*types.Alliance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	al, ok := s.alliances[allianceKey(guildID, a, b)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *al
	return &cp, nil
}

func (s *Store) UpsertAlliance(ctx context.Context, al *types.Alliance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := types.CanonicalPair(al.FactionAID, al.FactionBID)
	cp := *al
	cp.FactionAID, cp.FactionBID = lo, hi
	s.alliances[allianceKey(al.GuildID, lo, hi)] = &cp
	return nil
}

func (s *Store) DeleteAlliance(ctx context.Context, guildID, a, b int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := allianceKey(guildID, a, b)
	if _, ok := s.alliances[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.alliances, key)
	return nil
}

func (s *Store) ListActiveAlliancesForFaction(ctx context.Context, guildID, factionID int) ([]types.Alliance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Alliance
	for _, al := range s.alliances {
		if al.GuildID != guildID || al.Status != types.AllianceActive {
			continue
		}
		if al.FactionAID == factionID || al.FactionBID == factionID {
			out = append(out, *al)
		}
	}
	return out, nil
}

func (s *Store) CreateWar(ctx context.Context, w *types.War) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	w.ID = s.nextID
	cp := *w
	s.wars[w.ID] = &cp
	return nil
}

func (s *Store) GetWar(ctx context.Context, guildID int, warID string) (*types.War, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wars {
		if w.GuildID == guildID && w.WarID == warID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) AddWarParticipant(ctx context.Context, wp types.WarParticipant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warParticipants = append(s.warParticipants, wp)
	return nil
}

func (s *Store) ListWarParticipants(ctx context.Context, guildID, warID int) ([]types.WarParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.WarParticipant
	for _, wp := range s.warParticipants {
		if wp.GuildID == guildID && wp.WarID == warID {
			out = append(out, wp)
		}
	}
	return out, nil
}

func (s *Store) ListActiveWarsForFaction(ctx context.Context, guildID, factionID int) ([]types.War, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	warIDs := map[int]bool{}
	for _, wp := range s.warParticipants {
		if wp.GuildID == guildID && wp.FactionID == factionID {
			warIDs[wp.WarID] = true
		}
	}
	var out []types.War
	for id := range warIDs {
		if w, ok := s.wars[id]; ok {
			out = append(out, *w)
		}
	}
	return out, nil
}

// SeedFaction inserts or replaces a faction row.
func (s *Store) SeedFaction(f types.Faction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := f
	s.factions[f.ID] = &cp
}

// SeedWar inserts or replaces a war row, assigning an id if unset.
func (s *Store) SeedWar(w types.War) types.War {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == 0 {
		s.nextID++
		w.ID = s.nextID
	}
	cp := w
	s.wars[w.ID] = &cp
	return w
}
