package sqlstore

import (
	"context"

	"github.com/legionforge/engine/internal/types"
)

func (s *Store) AppendEvidence(ctx context.Context, e *types.Evidence) error {
	res, err := s.exec.ExecContext(ctx, `
		INSERT INTO evidence (guild_id, entity_type, entity_id, note, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.GuildID, e.EntityType, e.EntityID, e.Note, e.CreatedAt, e.CreatedBy)
	if err != nil {
		return wrapDBError("append evidence", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapDBError("append evidence", err)
	}
	e.ID = int(id)
	return nil
}

func (s *Store) ListEvidence(ctx context.Context, guildID int, entityType string, entityID int) ([]types.Evidence, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, guild_id, entity_type, entity_id, note, created_at, created_by
		FROM evidence
		WHERE guild_id = ? AND entity_type = ? AND entity_id = ?
		ORDER BY created_at ASC, id ASC`, guildID, entityType, entityID)
	if err != nil {
		return nil, wrapDBError("list evidence", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Evidence
	for rows.Next() {
		var e types.Evidence
		if err := rows.Scan(&e.ID, &e.GuildID, &e.EntityType, &e.EntityID, &e.Note, &e.CreatedAt, &e.CreatedBy); err != nil {
			return nil, wrapDBError("list evidence", err)
		}
		out = append(out, e)
	}
	return out, wrapDBError("list evidence", rows.Err())
}
