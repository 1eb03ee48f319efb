package memstore

import (
	"context"

	"github.com/legionforge/engine/internal/eventlog"
)

func (s *Store) AppendEvents(ctx context.Context, guildID, turn int, events []eventlog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[turn] = append(s.events[turn], events...)
	return nil
}

func (s *Store) ListEvents(ctx context.Context, guildID, turn int) ([]eventlog.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]eventlog.Event(nil), s.events[turn]...), nil
}
