package sqlstore

import (
	"context"
	"strings"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetUnitType(ctx context.Context, guildID int, typeID, nation string) (*types.UnitType, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT guild_id, type_id, nation, movement, organization_max, attack, defense,
		       siege_attack, siege_defense, costs, upkeep, is_naval
		FROM unit_types WHERE guild_id = ? AND type_id = ? AND nation = ?`, guildID, typeID, nation)
	var ut types.UnitType
	var costs, upkeep []byte
	if err := row.Scan(&ut.GuildID, &ut.TypeID, &ut.Nation, &ut.Movement, &ut.OrganizationMax,
		&ut.Attack, &ut.Defense, &ut.SiegeAttack, &ut.SiegeDefense, &costs, &upkeep, &ut.IsNaval); err != nil {
		return nil, wrapDBError("get unit type", err)
	}
	var err error
	if ut.Costs, err = unmarshalResourceSet(costs); err != nil {
		return nil, err
	}
	if ut.Upkeep, err = unmarshalResourceSet(upkeep); err != nil {
		return nil, err
	}
	return &ut, nil
}

func (s *Store) GetUnit(ctx context.Context, id int) (*types.Unit, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, unit_id, type, owner_kind, owner_character_id, owner_faction_id,
		       commander_character_id, faction_id, current_territory_id, organization,
		       max_organization, status, is_naval
		FROM units WHERE id = ?`, id)
	return scanUnit(row)
}

func scanUnit(row scannableRow) (*types.Unit, error) {
	var u types.Unit
	var ownerKind string
	var ownerCharacterID, ownerFactionID int
	if err := row.Scan(&u.ID, &u.GuildID, &u.UnitID, &u.Type, &ownerKind, &ownerCharacterID,
		&ownerFactionID, &u.CommanderCharacterID, &u.FactionID, &u.CurrentTerritoryID,
		&u.Organization, &u.MaxOrganization, &u.Status, &u.IsNaval); err != nil {
		return nil, wrapDBError("get unit", err)
	}
	u.Owner = ownerFromColumns(ownerKind, ownerCharacterID, ownerFactionID)
	return &u, nil
}

func (s *Store) CreateUnit(ctx context.Context, u *types.Unit) error {
	kind, characterID, factionID := ownerColumns(u.Owner)
	res, err := s.exec.ExecContext(ctx, `
		INSERT INTO units (guild_id, unit_id, type, owner_kind, owner_character_id,
		                    owner_faction_id, commander_character_id, faction_id,
		                    current_territory_id, organization, max_organization, status, is_naval)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.GuildID, u.UnitID, u.Type, kind, characterID, factionID, u.CommanderCharacterID,
		u.FactionID, u.CurrentTerritoryID, u.Organization, u.MaxOrganization, u.Status, u.IsNaval)
	if err != nil {
		if isDuplicateKey(err) {
			return store.ErrConflict
		}
		return wrapDBError("create unit", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapDBError("create unit", err)
	}
	u.ID = int(id)
	return nil
}

func (s *Store) UpdateUnit(ctx context.Context, u *types.Unit) error {
	kind, characterID, factionID := ownerColumns(u.Owner)
	res, err := s.exec.ExecContext(ctx, `
		UPDATE units
		SET owner_kind = ?, owner_character_id = ?, owner_faction_id = ?,
		    commander_character_id = ?, faction_id = ?, current_territory_id = ?,
		    organization = ?, max_organization = ?, status = ?
		WHERE id = ?`,
		kind, characterID, factionID, u.CommanderCharacterID, u.FactionID, u.CurrentTerritoryID,
		u.Organization, u.MaxOrganization, u.Status, u.ID)
	if err != nil {
		return wrapDBError("update unit", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("update unit", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUnits(ctx context.Context, guildID int, filter store.UnitFilter) ([]types.Unit, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, guild_id, unit_id, type, owner_kind, owner_character_id, owner_faction_id,
		       commander_character_id, faction_id, current_territory_id, organization,
		       max_organization, status, is_naval
		FROM units WHERE guild_id = ?`)
	args := []any{guildID}

	if filter.Status != "" {
		query.WriteString(" AND status = ?")
		args = append(args, filter.Status)
	}
	if filter.TerritoryID != 0 {
		query.WriteString(" AND current_territory_id = ?")
		args = append(args, filter.TerritoryID)
	}
	if filter.OwnerCharacterID != 0 {
		query.WriteString(" AND owner_kind = ? AND owner_character_id = ?")
		args = append(args, types.OwnerCharacter, filter.OwnerCharacterID)
	}
	if filter.OwnerFactionID != 0 {
		query.WriteString(" AND owner_kind = ? AND owner_faction_id = ?")
		args = append(args, types.OwnerFaction, filter.OwnerFactionID)
	}
	if filter.FactionID != 0 {
		query.WriteString(" AND faction_id = ?")
		args = append(args, filter.FactionID)
	}

	rows, err := s.exec.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, wrapDBError("list units", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, wrapDBError("list units", rows.Err())
}

func (s *Store) GetNavalPositions(ctx context.Context, unitID int) ([]types.NavalUnitPosition, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT guild_id, unit_id, territory_id, position_index
		FROM naval_unit_positions WHERE unit_id = ? ORDER BY position_index ASC`, unitID)
	if err != nil {
		return nil, wrapDBError("get naval positions", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.NavalUnitPosition
	for rows.Next() {
		var p types.NavalUnitPosition
		if err := rows.Scan(&p.GuildID, &p.UnitID, &p.TerritoryID, &p.PositionIndex); err != nil {
			return nil, wrapDBError("get naval positions", err)
		}
		out = append(out, p)
	}
	return out, wrapDBError("get naval positions", rows.Err())
}

// SetNavalPositions replaces the entire ordered sequence for unitID:
// delete then re-insert, since there is no in-place reorder.
func (s *Store) SetNavalPositions(ctx context.Context, guildID, unitID int, territoryIDs []int) error {
	if _, err := s.exec.ExecContext(ctx, `DELETE FROM naval_unit_positions WHERE unit_id = ?`, unitID); err != nil {
		return wrapDBError("set naval positions", err)
	}
	for i, tid := range territoryIDs {
		if _, err := s.exec.ExecContext(ctx, `
			INSERT INTO naval_unit_positions (guild_id, unit_id, territory_id, position_index)
			VALUES (?, ?, ?, ?)`, guildID, unitID, tid, i); err != nil {
			return wrapDBError("set naval positions", err)
		}
	}
	return nil
}
