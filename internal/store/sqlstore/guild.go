package sqlstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetGuild(ctx context.Context, guildID int) (*types.Guild, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, current_turn, max_movement_stat
		FROM guilds WHERE id = ?`, guildID)
	var g types.Guild
	if err := row.Scan(&g.ID, &g.GuildID, &g.CurrentTurn, &g.MaxMovementStat); err != nil {
		return nil, wrapDBError("get guild", err)
	}
	return &g, nil
}

func (s *Store) AdvanceTurn(ctx context.Context, guildID int) error {
	res, err := s.exec.ExecContext(ctx, `
		UPDATE guilds SET current_turn = current_turn + 1 WHERE id = ?`, guildID)
	if err != nil {
		return wrapDBError("advance turn", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("advance turn", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
