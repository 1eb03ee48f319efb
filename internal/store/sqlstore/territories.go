package sqlstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetTerritory(ctx context.Context, id int) (*types.Territory, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, territory_id, name, terrain_type, production, victory_points,
		       owner_kind, owner_character_id, owner_faction_id, original_nation, sacred_land
		FROM territories WHERE id = ?`, id)
	return scanTerritory(row)
}

func scanTerritory(row scannableRow) (*types.Territory, error) {
	var t types.Territory
	var production []byte
	var ownerKind string
	var ownerCharacterID, ownerFactionID int
	if err := row.Scan(&t.ID, &t.GuildID, &t.TerritoryID, &t.Name, &t.TerrainType, &production,
		&t.VictoryPoints, &ownerKind, &ownerCharacterID, &ownerFactionID, &t.OriginalNation,
		&t.SacredLand); err != nil {
		return nil, wrapDBError("get territory", err)
	}
	t.Controller = ownerFromColumns(ownerKind, ownerCharacterID, ownerFactionID)
	var err error
	t.Production, err = unmarshalResourceSet(production)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) UpdateTerritory(ctx context.Context, t *types.Territory) error {
	production, err := marshalResourceSet(t.Production)
	if err != nil {
		return err
	}
	kind, characterID, factionID := ownerColumns(t.Controller)
	res, err := s.exec.ExecContext(ctx, `
		UPDATE territories
		SET production = ?, victory_points = ?, owner_kind = ?, owner_character_id = ?,
		    owner_faction_id = ?, sacred_land = ?
		WHERE id = ?`,
		production, t.VictoryPoints, kind, characterID, factionID, t.SacredLand, t.ID)
	if err != nil {
		return wrapDBError("update territory", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("update territory", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListTerritories(ctx context.Context, guildID int) ([]types.Territory, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, guild_id, territory_id, name, terrain_type, production, victory_points,
		       owner_kind, owner_character_id, owner_faction_id, original_nation, sacred_land
		FROM territories WHERE guild_id = ?`, guildID)
	if err != nil {
		return nil, wrapDBError("list territories", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Territory
	for rows.Next() {
		t, err := scanTerritory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, wrapDBError("list territories", rows.Err())
}

func (s *Store) ListAdjacency(ctx context.Context, guildID int) ([]types.TerritoryAdjacency, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT guild_id, territory_a_id, territory_b_id
		FROM territory_adjacency WHERE guild_id = ?`, guildID)
	if err != nil {
		return nil, wrapDBError("list adjacency", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.TerritoryAdjacency
	for rows.Next() {
		var a types.TerritoryAdjacency
		if err := rows.Scan(&a.GuildID, &a.A, &a.B); err != nil {
			return nil, wrapDBError("list adjacency", err)
		}
		out = append(out, a)
	}
	return out, wrapDBError("list adjacency", rows.Err())
}
