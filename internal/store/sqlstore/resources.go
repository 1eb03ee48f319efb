package sqlstore

import (
	"context"

	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetPlayerResources(ctx context.Context, guildID, characterID int) (*types.PlayerResources, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT guild_id, character_id, balances
		FROM player_resources WHERE guild_id = ? AND character_id = ?`, guildID, characterID)
	var r types.PlayerResources
	var balances []byte
	if err := row.Scan(&r.GuildID, &r.CharacterID, &balances); err != nil {
		return nil, wrapDBError("get player resources", err)
	}
	var err error
	if r.Balances, err = unmarshalResourceSet(balances); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) SetPlayerResources(ctx context.Context, r *types.PlayerResources) error {
	balances, err := marshalResourceSet(r.Balances)
	if err != nil {
		return err
	}
	_, err = s.exec.ExecContext(ctx, `
		INSERT INTO player_resources (guild_id, character_id, balances)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE balances = VALUES(balances)`,
		r.GuildID, r.CharacterID, balances)
	return wrapDBError("set player resources", err)
}

func (s *Store) GetFactionResources(ctx context.Context, guildID, factionID int) (*types.FactionResources, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT guild_id, faction_id, balances
		FROM faction_resources WHERE guild_id = ? AND faction_id = ?`, guildID, factionID)
	var r types.FactionResources
	var balances []byte
	if err := row.Scan(&r.GuildID, &r.FactionID, &balances); err != nil {
		return nil, wrapDBError("get faction resources", err)
	}
	var err error
	if r.Balances, err = unmarshalResourceSet(balances); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) SetFactionResources(ctx context.Context, r *types.FactionResources) error {
	balances, err := marshalResourceSet(r.Balances)
	if err != nil {
		return err
	}
	_, err = s.exec.ExecContext(ctx, `
		INSERT INTO faction_resources (guild_id, faction_id, balances)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE balances = VALUES(balances)`,
		r.GuildID, r.FactionID, balances)
	return wrapDBError("set faction resources", err)
}
