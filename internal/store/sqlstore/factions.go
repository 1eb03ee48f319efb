package sqlstore

import (
	"context"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetFaction(ctx context.Context, id int) (*types.Faction, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, faction_id, leader_character_id, nation,
		       created_turn, starting_territory_count, spending
		FROM factions WHERE id = ?`, id)
	return scanFaction(row)
}

func (s *Store) GetFactionByFactionID(ctx context.Context, guildID int, factionID string) (*types.Faction, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, faction_id, leader_character_id, nation,
		       created_turn, starting_territory_count, spending
		FROM factions WHERE guild_id = ? AND faction_id = ?`, guildID, factionID)
	return scanFaction(row)
}

type scannableRow interface {
	Scan(dest ...any) error
}

func scanFaction(row scannableRow) (*types.Faction, error) {
	var f types.Faction
	var spending []byte
	if err := row.Scan(&f.ID, &f.GuildID, &f.FactionID, &f.LeaderCharacterID, &f.Nation,
		&f.CreatedTurn, &f.StartingTerritoryCount, &spending); err != nil {
		return nil, wrapDBError("get faction", err)
	}
	var err error
	f.Spending, err = unmarshalResourceSet(spending)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) UpdateFaction(ctx context.Context, f *types.Faction) error {
	spending, err := marshalResourceSet(f.Spending)
	if err != nil {
		return err
	}
	res, err := s.exec.ExecContext(ctx, `
		UPDATE factions
		SET leader_character_id = ?, nation = ?, starting_territory_count = ?, spending = ?
		WHERE id = ?`,
		f.LeaderCharacterID, f.Nation, f.StartingTerritoryCount, spending, f.ID)
	if err != nil {
		return wrapDBError("update faction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("update faction", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListFactions(ctx context.Context, guildID int) ([]types.Faction, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, guild_id, faction_id, leader_character_id, nation,
		       created_turn, starting_territory_count, spending
		FROM factions WHERE guild_id = ?`, guildID)
	if err != nil {
		return nil, wrapDBError("list factions", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Faction
	for rows.Next() {
		var f types.Faction
		var spending []byte
		if err := rows.Scan(&f.ID, &f.GuildID, &f.FactionID, &f.LeaderCharacterID, &f.Nation,
			&f.CreatedTurn, &f.StartingTerritoryCount, &spending); err != nil {
			return nil, wrapDBError("list factions", err)
		}
		if f.Spending, err = unmarshalResourceSet(spending); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, wrapDBError("list factions", rows.Err())
}

func (s *Store) GetAlliance(ctx context.Context, guildID, a, b int) (*types.Alliance, error) {
	lo, hi := types.CanonicalPair(a, b)
	row := s.exec.QueryRowContext(ctx, `
		SELECT guild_id, faction_a_id, faction_b_id, status, initiated_by_faction,
		       created_at, activated_at
		FROM alliances WHERE guild_id = ? AND faction_a_id = ? AND faction_b_id = ?`,
		guildID, lo, hi)
	var al types.Alliance
	if err := row.Scan(&al.GuildID, &al.FactionAID, &al.FactionBID, &al.Status,
		&al.InitiatedByFaction, &al.CreatedAt, &al.ActivatedAt); err != nil {
		return nil, wrapDBError("get alliance", err)
	}
	return &al, nil
}

func (s *Store) UpsertAlliance(ctx context.Context, al *types.Alliance) error {
	lo, hi := types.CanonicalPair(al.FactionAID, al.FactionBID)
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO alliances (guild_id, faction_a_id, faction_b_id, status,
		                        initiated_by_faction, created_at, activated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE status = VALUES(status), activated_at = VALUES(activated_at)`,
		al.GuildID, lo, hi, al.Status, al.InitiatedByFaction, al.CreatedAt, al.ActivatedAt)
	return wrapDBError("upsert alliance", err)
}

func (s *Store) DeleteAlliance(ctx context.Context, guildID, a, b int) error {
	lo, hi := types.CanonicalPair(a, b)
	res, err := s.exec.ExecContext(ctx, `
		DELETE FROM alliances WHERE guild_id = ? AND faction_a_id = ? AND faction_b_id = ?`,
		guildID, lo, hi)
	if err != nil {
		return wrapDBError("delete alliance", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("delete alliance", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListActiveAlliancesForFaction(ctx context.Context, guildID, factionID int) ([]types.Alliance, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT guild_id, faction_a_id, faction_b_id, status, initiated_by_faction,
		       created_at, activated_at
		FROM alliances
		WHERE guild_id = ? AND status = ? AND (faction_a_id = ? OR faction_b_id = ?)`,
		guildID, types.AllianceActive, factionID, factionID)
	if err != nil {
		return nil, wrapDBError("list active alliances", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Alliance
	for rows.Next() {
		var al types.Alliance
		if err := rows.Scan(&al.GuildID, &al.FactionAID, &al.FactionBID, &al.Status,
			&al.InitiatedByFaction, &al.CreatedAt, &al.ActivatedAt); err != nil {
			return nil, wrapDBError("list active alliances", err)
		}
		out = append(out, al)
	}
	return out, wrapDBError("list active alliances", rows.Err())
}

func (s *Store) CreateWar(ctx context.Context, w *types.War) error {
	res, err := s.exec.ExecContext(ctx, `
		INSERT INTO wars (guild_id, war_id, objective, declared_turn)
		VALUES (?, ?, ?, ?)`, w.GuildID, w.WarID, w.Objective, w.DeclaredTurn)
	if err != nil {
		if isDuplicateKey(err) {
			return store.ErrConflict
		}
		return wrapDBError("create war", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapDBError("create war", err)
	}
	w.ID = int(id)
	return nil
}

func (s *Store) GetWar(ctx context.Context, guildID int, warID string) (*types.War, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, war_id, objective, declared_turn
		FROM wars WHERE guild_id = ? AND war_id = ?`, guildID, warID)
	var w types.War
	if err := row.Scan(&w.ID, &w.GuildID, &w.WarID, &w.Objective, &w.DeclaredTurn); err != nil {
		return nil, wrapDBError("get war", err)
	}
	return &w, nil
}

func (s *Store) AddWarParticipant(ctx context.Context, wp types.WarParticipant) error {
	_, err := s.exec.ExecContext(ctx, `
		INSERT INTO war_participants (guild_id, war_id, faction_id, side, joined_turn, is_original_declarer)
		VALUES (?, ?, ?, ?, ?, ?)`,
		wp.GuildID, wp.WarID, wp.FactionID, wp.Side, wp.JoinedTurn, wp.IsOriginalDeclarer)
	if err != nil {
		if isDuplicateKey(err) {
			return store.ErrConflict
		}
		return wrapDBError("add war participant", err)
	}
	return nil
}

func (s *Store) ListWarParticipants(ctx context.Context, guildID, warID int) ([]types.WarParticipant, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT guild_id, war_id, faction_id, side, joined_turn, is_original_declarer
		FROM war_participants WHERE guild_id = ? AND war_id = ?`, guildID, warID)
	if err != nil {
		return nil, wrapDBError("list war participants", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.WarParticipant
	for rows.Next() {
		var wp types.WarParticipant
		if err := rows.Scan(&wp.GuildID, &wp.WarID, &wp.FactionID, &wp.Side, &wp.JoinedTurn,
			&wp.IsOriginalDeclarer); err != nil {
			return nil, wrapDBError("list war participants", err)
		}
		out = append(out, wp)
	}
	return out, wrapDBError("list war participants", rows.Err())
}

func (s *Store) ListActiveWarsForFaction(ctx context.Context, guildID, factionID int) ([]types.War, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT w.id, w.guild_id, w.war_id, w.objective, w.declared_turn
		FROM wars w
		JOIN war_participants wp ON wp.guild_id = w.guild_id AND wp.war_id = w.id
		WHERE w.guild_id = ? AND wp.faction_id = ?`, guildID, factionID)
	if err != nil {
		return nil, wrapDBError("list active wars for faction", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.War
	for rows.Next() {
		var w types.War
		if err := rows.Scan(&w.ID, &w.GuildID, &w.WarID, &w.Objective, &w.DeclaredTurn); err != nil {
			return nil, wrapDBError("list active wars for faction", err)
		}
		out = append(out, w)
	}
	return out, wrapDBError("list active wars for faction", rows.Err())
}
