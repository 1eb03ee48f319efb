package memstore

import (
	"context"
	"sort"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetCharacter(ctx context.Context, id int) (*types.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) UpdateCharacter(ctx context.Context, c *types.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.characters[c.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *c
	s.characters[c.ID] = &cp
	return nil
}

func (s *Store) ListCharacters(ctx context.Context, guildID int) ([]types.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Character
	for _, c := range s.characters {
		if c.GuildID == guildID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AddFactionMember(ctx context.Context, m types.FactionMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.members {
		if existing.GuildID == m.GuildID && existing.FactionID == m.FactionID && existing.CharacterID == m.CharacterID {
			return store.ErrConflict
		}
	}
	s.members = append(s.members, m)
	return nil
}

func (s *Store) RemoveFactionMember(ctx context.Context, guildID, factionID, characterID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.members[:0]
	removed := false
	for _, m := range s.members {
		if m.GuildID == guildID && m.FactionID == factionID && m.CharacterID == characterID {
			removed = true
			continue
		}
		out = append(out, m)
	}
	s.members = out
	if !removed {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListFactionMembers(ctx context.Context, guildID, factionID int) ([]types.FactionMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.FactionMember
	for _, m := range s.members {
		if m.GuildID == guildID && m.FactionID == factionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) ListMembershipsForCharacter(ctx context.Context, guildID, characterID int) ([]types.FactionMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.FactionMember
	for _, m := range s.members {
		if m.GuildID == guildID && m.CharacterID == characterID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) GrantPermission(ctx context.Context, p types.FactionPermission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions = append(s.permissions, p)
	return nil
}

func (s *Store) ListPermissions(ctx context.Context, guildID, factionID, characterID int) ([]types.FactionPermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.FactionPermission
	for _, p := range s.permissions {
		if p.GuildID == guildID && p.FactionID == factionID && p.CharacterID == characterID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListFactionPermissions(ctx context.Context, guildID, factionID int) ([]types.FactionPermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.FactionPermission
	for _, p := range s.permissions {
		if p.GuildID == guildID && p.FactionID == factionID {
			out = append(out, p)
		}
	}
	return out, nil
}

// SeedCharacter inserts or replaces a character row.
func (s *Store) SeedCharacter(c types.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c
	s.characters[c.ID] = &cp
}
