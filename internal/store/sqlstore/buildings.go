package sqlstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetBuildingType(ctx context.Context, guildID int, typeID string) (*types.BuildingType, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT guild_id, type_id, costs, upkeep
		FROM building_types WHERE guild_id = ? AND type_id = ?`, guildID, typeID)
	var bt types.BuildingType
	var costs, upkeep []byte
	if err := row.Scan(&bt.GuildID, &bt.TypeID, &costs, &upkeep); err != nil {
		return nil, wrapDBError("get building type", err)
	}
	var err error
	if bt.Costs, err = unmarshalResourceSet(costs); err != nil {
		return nil, err
	}
	if bt.Upkeep, err = unmarshalResourceSet(upkeep); err != nil {
		return nil, err
	}
	return &bt, nil
}

func (s *Store) GetBuilding(ctx context.Context, id int) (*types.Building, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, building_id, building_type, territory_id, durability, status, upkeep
		FROM buildings WHERE id = ?`, id)
	return scanBuilding(row)
}

func scanBuilding(row scannableRow) (*types.Building, error) {
	var b types.Building
	var upkeep []byte
	if err := row.Scan(&b.ID, &b.GuildID, &b.BuildingID, &b.BuildingType, &b.TerritoryID,
		&b.Durability, &b.Status, &upkeep); err != nil {
		return nil, wrapDBError("get building", err)
	}
	var err error
	if b.Upkeep, err = unmarshalResourceSet(upkeep); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBuilding(ctx context.Context, b *types.Building) error {
	upkeep, err := marshalResourceSet(b.Upkeep)
	if err != nil {
		return err
	}
	res, err := s.exec.ExecContext(ctx, `
		INSERT INTO buildings (guild_id, building_id, building_type, territory_id, durability, status, upkeep)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.GuildID, b.BuildingID, b.BuildingType, b.TerritoryID, b.Durability, b.Status, upkeep)
	if err != nil {
		if isDuplicateKey(err) {
			return store.ErrConflict
		}
		return wrapDBError("create building", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapDBError("create building", err)
	}
	b.ID = int(id)
	return nil
}

func (s *Store) UpdateBuilding(ctx context.Context, b *types.Building) error {
	upkeep, err := marshalResourceSet(b.Upkeep)
	if err != nil {
		return err
	}
	res, err := s.exec.ExecContext(ctx, `
		UPDATE buildings SET durability = ?, status = ?, upkeep = ? WHERE id = ?`,
		b.Durability, b.Status, upkeep, b.ID)
	if err != nil {
		return wrapDBError("update building", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("update building", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListBuildings(ctx context.Context, guildID int, status types.BuildingStatus) ([]types.Building, error) {
	query := `
		SELECT id, guild_id, building_id, building_type, territory_id, durability, status, upkeep
		FROM buildings WHERE guild_id = ?`
	args := []any{guildID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	rows, err := s.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list buildings", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Building
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, wrapDBError("list buildings", rows.Err())
}
