package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/legionforge/engine/internal/eventlog"
)

func (s *Store) AppendEvents(ctx context.Context, guildID, turn int, events []eventlog.Event) error {
	for _, e := range events {
		data, err := json.Marshal(e.EventData)
		if err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
		_, err = s.exec.ExecContext(ctx, `
			INSERT INTO events (guild_id, turn_number, phase, event_type, entity_type, entity_id, event_data)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			guildID, turn, e.Phase, e.EventType, e.EntityType, e.EntityID, data)
		if err != nil {
			return wrapDBError("append events", err)
		}
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, guildID, turn int) ([]eventlog.Event, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT turn_number, phase, event_type, entity_type, entity_id, guild_id, event_data
		FROM events WHERE guild_id = ? AND turn_number = ? ORDER BY id ASC`, guildID, turn)
	if err != nil {
		return nil, wrapDBError("list events", err)
	}
	defer func() { _ = rows.Close() }()

	var out []eventlog.Event
	for rows.Next() {
		var e eventlog.Event
		var data []byte
		if err := rows.Scan(&e.TurnNumber, &e.Phase, &e.EventType, &e.EntityType, &e.EntityID,
			&e.GuildID, &data); err != nil {
			return nil, wrapDBError("list events", err)
		}
		if err := json.Unmarshal(data, &e.EventData); err != nil {
			return nil, fmt.Errorf("unmarshal event data: %w", err)
		}
		out = append(out, e)
	}
	return out, wrapDBError("list events", rows.Err())
}
