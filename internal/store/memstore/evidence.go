package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/types"
)

func (s *Store) AppendEvidence(ctx context.Context, e *types.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	cp := *e
	s.evidence = append(s.evidence, cp)
	return nil
}

func (s *Store) ListEvidence(ctx context.Context, guildID int, entityType string, entityID int) ([]types.Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Evidence
	for _, e := range s.evidence {
		if e.GuildID == guildID && e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// SeedEvidence inserts e directly, bypassing AppendEvidence's id assignment
// when a test needs a specific id already set.
func (s *Store) SeedEvidence(e types.Evidence) types.Evidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		s.nextID++
		e.ID = s.nextID
	}
	s.evidence = append(s.evidence, e)
	return e
}
