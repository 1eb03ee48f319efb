package sqlstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetCharacter(ctx context.Context, id int) (*types.Character, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, identifier, user_id, represented_faction_id,
		       representation_changed_turn, victory_points, production
		FROM characters WHERE id = ?`, id)
	var c types.Character
	var production []byte
	if err := row.Scan(&c.ID, &c.GuildID, &c.Identifier, &c.UserID, &c.RepresentedFactionID,
		&c.RepresentationChangedTurn, &c.VictoryPoints, &production); err != nil {
		return nil, wrapDBError("get character", err)
	}
	var err error
	c.Production, err = unmarshalResourceSet(production)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCharacter(ctx context.Context, c *types.Character) error {
	production, err := marshalResourceSet(c.Production)
	if err != nil {
		return err
	}
	res, err := s.exec.ExecContext(ctx, `
		UPDATE characters
		SET represented_faction_id = ?, representation_changed_turn = ?,
		    victory_points = ?, production = ?
		WHERE id = ?`,
		c.RepresentedFactionID, c.RepresentationChangedTurn, c.VictoryPoints, production, c.ID)
	if err != nil {
		return wrapDBError("update character", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("update character", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCharacters(ctx context.Context, guildID int) ([]types.Character, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, guild_id, identifier, user_id, represented_faction_id,
		       representation_changed_turn, victory_points, production
		FROM characters WHERE guild_id = ? ORDER BY id`, guildID)
	if err != nil {
		return nil, wrapDBError("list characters", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Character
	for rows.Next() {
		var c types.Character
		var production []byte
		if err := rows.Scan(&c.ID, &c.GuildID, &c.Identifier, &c.UserID, &c.RepresentedFactionID,
			&c.RepresentationChangedTurn, &c.VictoryPoints, &production); err != nil {
			return nil, wrapDBError("list characters", err)
		}
		c.Production, err = unmarshalResourceSet(production)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, wrapDBError("list characters", rows.Err())
}

func (s *Store) AddFactionMember(ctx context.Context, m types.FactionMember) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO faction_members (guild_id, faction_id, character_id, joined_turn)
		VALUES (?, ?, ?, ?)`, m.GuildID, m.FactionID, m.CharacterID, m.JoinedTurn)
	if err != nil {
		if isDuplicateKey(err) {
			return store.ErrConflict
		}
		return wrapDBError("add faction member", err)
	}
	return nil
}

func (s *Store) RemoveFactionMember(ctx context.Context, guildID, factionID, characterID int) error {
	res, err := s.exec.ExecContext(ctx, `
		DELETE FROM faction_members WHERE guild_id = ? AND faction_id = ? AND character_id = ?`,
		guildID, factionID, characterID)
	if err != nil {
		return wrapDBError("remove faction member", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("remove faction member", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListFactionMembers(ctx context.Context, guildID, factionID int) ([]types.FactionMember, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT guild_id, faction_id, character_id, joined_turn
		FROM faction_members WHERE guild_id = ? AND faction_id = ?`, guildID, factionID)
	if err != nil {
		return nil, wrapDBError("list faction members", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.FactionMember
	for rows.Next() {
		var m types.FactionMember
		if err := rows.Scan(&m.GuildID, &m.FactionID, &m.CharacterID, &m.JoinedTurn); err != nil {
			return nil, wrapDBError("list faction members", err)
		}
		out = append(out, m)
	}
	return out, wrapDBError("list faction members", rows.Err())
}

func (s *Store) ListMembershipsForCharacter(ctx context.Context, guildID, characterID int) ([]types.FactionMember, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT guild_id, faction_id, character_id, joined_turn
		FROM faction_members WHERE guild_id = ? AND character_id = ?`, guildID, characterID)
	if err != nil {
		return nil, wrapDBError("list memberships for character", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.FactionMember
	for rows.Next() {
		var m types.FactionMember
		if err := rows.Scan(&m.GuildID, &m.FactionID, &m.CharacterID, &m.JoinedTurn); err != nil {
			return nil, wrapDBError("list memberships for character", err)
		}
		out = append(out, m)
	}
	return out, wrapDBError("list memberships for character", rows.Err())
}

func (s *Store) ListFactionPermissions(ctx context.Context, guildID, factionID int) ([]types.FactionPermission, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT guild_id, faction_id, character_id, permission_type
		FROM faction_permissions WHERE guild_id = ? AND faction_id = ?`, guildID, factionID)
	if err != nil {
		return nil, wrapDBError("list faction permissions", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.FactionPermission
	for rows.Next() {
		var p types.FactionPermission
		if err := rows.Scan(&p.GuildID, &p.FactionID, &p.CharacterID, &p.PermissionType); err != nil {
			return nil, wrapDBError("list faction permissions", err)
		}
		out = append(out, p)
	}
	return out, wrapDBError("list faction permissions", rows.Err())
}

func (s *Store) GrantPermission(ctx context.Context, p types.FactionPermission) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO faction_permissions (guild_id, faction_id, character_id, permission_type)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE permission_type = permission_type`,
		p.GuildID, p.FactionID, p.CharacterID, p.PermissionType)
	return wrapDBError("grant permission", err)
}

func (s *Store) ListPermissions(ctx context.Context, guildID, factionID, characterID int) ([]types.FactionPermission, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT guild_id, faction_id, character_id, permission_type
		FROM faction_permissions WHERE guild_id = ? AND faction_id = ? AND character_id = ?`,
		guildID, factionID, characterID)
	if err != nil {
		return nil, wrapDBError("list permissions", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.FactionPermission
	for rows.Next() {
		var p types.FactionPermission
		if err := rows.Scan(&p.GuildID, &p.FactionID, &p.CharacterID, &p.PermissionType); err != nil {
			return nil, wrapDBError("list permissions", err)
		}
		out = append(out, p)
	}
	return out, wrapDBError("list permissions", rows.Err())
}
